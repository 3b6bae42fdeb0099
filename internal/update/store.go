package update

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cutline/cutline/backend-go/internal/db"
	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/typeid"
)

// SnapshotStore is the Postgres-backed Manager. It persists the whole
// timeline document as a new snapshot version when the outermost
// transaction closes. basicOnly updates mark the document dirty without a
// round trip; the full write happens once per gesture on commit.
type SnapshotStore struct {
	store     *db.Store
	projectID string
	doc       *document.Doc

	txn   txnState
	dirty bool
}

var _ Manager = (*SnapshotStore)(nil)

func NewSnapshotStore(store *db.Store, projectID string, doc *document.Doc) *SnapshotStore {
	return &SnapshotStore{store: store, projectID: projectID, doc: doc}
}

func (s *SnapshotStore) BeginTransaction() string {
	return s.txn.begin()
}

func (s *SnapshotStore) EndTransaction() {
	if s.txn.end() && s.dirty {
		if err := s.flush(); err != nil {
			slog.Error("persist snapshot", "error", err, "project", s.projectID)
			return
		}
		s.dirty = false
	}
}

func (s *SnapshotStore) UpdateClip(c *document.Clip, basicOnly bool, txnID string) error {
	s.dirty = true
	if s.txn.depth == 0 && !basicOnly {
		// Untransacted full update: persist immediately.
		err := s.flush()
		s.dirty = err != nil
		return err
	}
	return nil
}

func (s *SnapshotStore) UpdateTransition(t *document.Transition, basicOnly bool, txnID string) error {
	s.dirty = true
	if s.txn.depth == 0 && !basicOnly {
		err := s.flush()
		s.dirty = err != nil
		return err
	}
	return nil
}

func (s *SnapshotStore) DeleteClip(id, txnID string) error {
	s.dirty = true
	return nil
}

func (s *SnapshotStore) DeleteTransition(id, txnID string) error {
	s.dirty = true
	return nil
}

func (s *SnapshotStore) UpdateMarker(m *document.Marker, txnID string) error {
	s.dirty = true
	return nil
}

func (s *SnapshotStore) ExtendDuration(seconds float64, txnID string) error {
	s.dirty = true
	return nil
}

// Flush persists any outstanding changes. Sessions call this on teardown.
func (s *SnapshotStore) Flush() error {
	if !s.dirty {
		return nil
	}
	if err := s.flush(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *SnapshotStore) flush() error {
	docJSON, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	ctx := context.Background()
	nextVersion := int32(1)
	if current, err := s.store.GetLatestSnapshot(ctx, s.projectID); err == nil {
		nextVersion = current.Version + 1
	}

	err = s.store.CreateSnapshot(ctx, db.Snapshot{
		ID:        typeid.NewSnapshotID(),
		ProjectID: s.projectID,
		Version:   nextVersion,
		Document:  docJSON,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}
