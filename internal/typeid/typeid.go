package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser       = "user"
	PrefixProject    = "proj"
	PrefixSnapshot   = "snap"
	PrefixTrack      = "track"
	PrefixClip       = "clip"
	PrefixTransition = "tran"
	PrefixEffect     = "fx"
	PrefixMarker     = "mark"
	PrefixFile       = "file"
	PrefixTxn        = "txn"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string       { return New(PrefixUser) }
func NewProjectID() string    { return New(PrefixProject) }
func NewSnapshotID() string   { return New(PrefixSnapshot) }
func NewTrackID() string      { return New(PrefixTrack) }
func NewClipID() string       { return New(PrefixClip) }
func NewTransitionID() string { return New(PrefixTransition) }
func NewEffectID() string     { return New(PrefixEffect) }
func NewMarkerID() string     { return New(PrefixMarker) }
func NewFileID() string       { return New(PrefixFile) }
func NewTxnID() string        { return New(PrefixTxn) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
