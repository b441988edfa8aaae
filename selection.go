package penknot

import "slices"

// Selection is the working id set supplied by the selection provider.
// Deleted curves drop out of it automatically.
type Selection struct {
	ids map[BezierID]struct{}
}

func newSelection() *Selection {
	return &Selection{ids: make(map[BezierID]struct{})}
}

// Replace sets the selection to exactly ids.
func (s *Selection) Replace(ids []BezierID) {
	s.ids = make(map[BezierID]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Add adds ids to the selection.
func (s *Selection) Add(ids ...BezierID) {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Remove drops ids from the selection.
func (s *Selection) Remove(ids ...BezierID) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[BezierID]struct{})
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id BezierID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected curves.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []BezierID {
	out := make([]BezierID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Select replaces the editor's working selection.
func (e *Editor) Select(ids ...BezierID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Replace(ids)
}

// Selected returns the editor's working selection.
func (e *Editor) Selected() []BezierID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selection.IDs()
}
