package penknot

import (
	"fmt"
	"slices"
)

// LocationHandle is the render-side location of a curve, supplied by the
// entity layer once it has materialized the curve. The store treats it as
// opaque.
type LocationHandle interface{}

// Store is identity-keyed storage of curve records plus the id->location
// index shared with the entity layer. Latch entries are kept on the curve
// records themselves and only ever change in mirrored pairs (see latch.go).
type Store struct {
	curves    map[BezierID]*Curve
	locations map[BezierID]LocationHandle
	nextID    BezierID
}

// NewStore creates an empty store. The first allocated id is 1.
func NewStore() *Store {
	return &Store{
		curves:    make(map[BezierID]*Curve),
		locations: make(map[BezierID]LocationHandle),
		nextID:    1,
	}
}

// Len returns the number of curves.
func (s *Store) Len() int {
	return len(s.curves)
}

// Has reports whether id is present.
func (s *Store) Has(id BezierID) bool {
	_, ok := s.curves[id]
	return ok
}

// IDs returns all curve ids in ascending order.
func (s *Store) IDs() []BezierID {
	ids := make([]BezierID, 0, len(s.curves))
	for id := range s.curves {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Get returns a deep copy of the curve record.
func (s *Store) Get(id BezierID) (Curve, error) {
	c, ok := s.curves[id]
	if !ok {
		return Curve{}, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return *c.clone(), nil
}

// GetMut returns the live curve record. Callers may edit Positions and Color
// but must not touch Latches or Group directly; those change only through
// the latch and group operations so that their invariants hold.
func (s *Store) GetMut(id BezierID) (*Curve, error) {
	c, ok := s.curves[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return c, nil
}

// Insert adds a curve under its own id. The id allocator is advanced past it
// so ids stay unique.
func (s *Store) Insert(c *Curve) error {
	if _, ok := s.curves[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	if c.Latches == nil {
		c.Latches = make(map[AnchorEdge]LatchData, 2)
	}
	s.curves[c.ID] = c
	if c.ID >= s.nextID {
		s.nextID = c.ID + 1
	}
	return nil
}

// Remove deletes a curve. Any partner still latched to it loses its mirror
// entry, and the id is dropped from the location index. The removed record
// is returned together with the latch pairs that were severed.
func (s *Store) Remove(id BezierID) (*Curve, []LatchPair, error) {
	c, ok := s.curves[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}

	var severed []LatchPair
	for _, edge := range []AnchorEdge{EdgeStart, EdgeEnd} {
		l, ok := c.Latches[edge]
		if !ok {
			continue
		}
		pair := LatchPair{
			A: CurveEdge{ID: id, Edge: edge},
			B: CurveEdge{ID: l.LatchedToID, Edge: l.PartnersEdge},
		}
		if l.LatchedToID != id {
			if partner, ok := s.curves[l.LatchedToID]; ok {
				delete(partner.Latches, l.PartnersEdge)
				partner.markDirty()
			}
		}
		if !containsPair(severed, pair) {
			severed = append(severed, pair)
		}
	}
	c.Latches = make(map[AnchorEdge]LatchData, 2)

	delete(s.curves, id)
	delete(s.locations, id)
	return c, severed, nil
}

// allocID returns a fresh id.
func (s *Store) allocID() BezierID {
	id := s.nextID
	s.nextID++
	return id
}

// NextID returns the id the next spawn will receive.
func (s *Store) NextID() BezierID {
	return s.nextID
}

// BindLocation records where the entity layer materialized a curve.
func (s *Store) BindLocation(id BezierID, loc LocationHandle) error {
	if _, ok := s.curves[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	s.locations[id] = loc
	return nil
}

// Location returns the render location bound to a curve.
func (s *Store) Location(id BezierID) (LocationHandle, bool) {
	loc, ok := s.locations[id]
	return loc, ok
}
