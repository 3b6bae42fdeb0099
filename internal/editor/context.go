// Package editor bundles the shared state every engine entry point needs:
// the document, the selection, the persistence contract, and change
// notifications. Passing it explicitly keeps every algorithm testable with
// a fabricated context and no hidden global state.
package editor

import (
	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/update"
)

type Context struct {
	Doc       *document.Doc
	Updates   update.Manager
	Notifier  *update.Notifier
	Selection *Selection

	// IgnoreSnapping disables snap correction for the current drag.
	IgnoreSnapping bool
}

// NewContext wires a context around a document. Updates defaults to an
// in-memory recorder when nil.
func NewContext(doc *document.Doc, updates update.Manager) *Context {
	if updates == nil {
		updates = &update.Recorder{}
	}
	return &Context{
		Doc:       doc,
		Updates:   updates,
		Notifier:  &update.Notifier{},
		Selection: NewSelection(),
	}
}

func (c *Context) FPS() document.Fraction { return c.Doc.Project.FPS }

// Changed broadcasts which top-level buckets mutated.
func (c *Context) Changed(buckets update.ChangeSet) {
	c.Notifier.Publish(buckets)
}

// ExtendDuration grows the composition to fit at least the given number of
// seconds. Shrinking never happens implicitly.
func (c *Context) ExtendDuration(seconds float64, txnID string) {
	if seconds <= c.Doc.Project.Duration {
		return
	}
	c.Doc.Project.Duration = seconds
	c.Updates.ExtendDuration(seconds, txnID)
	c.Changed(update.ChangedDuration)
}

// RoundToFrame snaps a timeline time to the nearest frame boundary at
// project FPS.
func (c *Context) RoundToFrame(seconds float64) float64 {
	return document.RoundToFrame(seconds, c.FPS())
}
