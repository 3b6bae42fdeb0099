package editor

import "github.com/cutline/cutline/backend-go/internal/document"

// Ref is one selected object: a stable id plus the kind needed to resolve
// it through the document arena.
type Ref struct {
	ID   string        `json:"id"`
	Kind document.Kind `json:"kind"`
}

// Selection is the session-wide set of selected objects. The interaction
// layer mutates it; menus, the keyframe panel, and painters consume it.
type Selection struct {
	refs      []Ref
	index     map[Ref]struct{}
	listeners []func(ref Ref, selected, additive bool)
}

func NewSelection() *Selection {
	return &Selection{index: make(map[Ref]struct{})}
}

// Subscribe registers a selection-change listener. Callbacks run
// synchronously on the session's event goroutine.
func (s *Selection) Subscribe(fn func(ref Ref, selected, additive bool)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Selection) notify(ref Ref, selected, additive bool) {
	for _, fn := range s.listeners {
		fn(ref, selected, additive)
	}
}

// Add selects a ref. Without additive the current selection is replaced.
func (s *Selection) Add(ref Ref, additive bool) {
	if !additive {
		s.Clear()
	}
	if _, ok := s.index[ref]; ok {
		return
	}
	s.refs = append(s.refs, ref)
	s.index[ref] = struct{}{}
	s.notify(ref, true, additive)
}

// Toggle flips a ref's membership; used for ctrl-click.
func (s *Selection) Toggle(ref Ref) {
	if _, ok := s.index[ref]; ok {
		s.Remove(ref)
		return
	}
	s.Add(ref, true)
}

func (s *Selection) Remove(ref Ref) {
	if _, ok := s.index[ref]; !ok {
		return
	}
	delete(s.index, ref)
	for i, r := range s.refs {
		if r == ref {
			s.refs = append(s.refs[:i], s.refs[i+1:]...)
			break
		}
	}
	s.notify(ref, false, true)
}

func (s *Selection) Clear() {
	for _, ref := range s.refs {
		delete(s.index, ref)
		s.notify(ref, false, false)
	}
	s.refs = nil
}

func (s *Selection) Contains(ref Ref) bool {
	_, ok := s.index[ref]
	return ok
}

// Refs returns the selection in selection order.
func (s *Selection) Refs() []Ref {
	out := make([]Ref, len(s.refs))
	copy(out, s.refs)
	return out
}

// IDs returns the ids of the given kind, in selection order.
func (s *Selection) IDs(kind document.Kind) []string {
	var out []string
	for _, r := range s.refs {
		if r.Kind == kind {
			out = append(out, r.ID)
		}
	}
	return out
}

func (s *Selection) Len() int { return len(s.refs) }
