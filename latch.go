package penknot

import "fmt"

// LatchPair is an unordered pair of latched endpoints.
type LatchPair struct {
	A CurveEdge `json:"a"`
	B CurveEdge `json:"b"`
}

// key returns an order-independent identity for the pair.
func (p LatchPair) key() [2]CurveEdge {
	if lessEdge(p.B, p.A) {
		return [2]CurveEdge{p.B, p.A}
	}
	return [2]CurveEdge{p.A, p.B}
}

func lessEdge(a, b CurveEdge) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Edge < b.Edge
}

func containsPair(pairs []LatchPair, p LatchPair) bool {
	k := p.key()
	for _, q := range pairs {
		if q.key() == k {
			return true
		}
	}
	return false
}

// checkLatch reports why a and b cannot be latched, if they cannot.
func (s *Store) checkLatch(a, b CurveEdge) error {
	if a == b {
		return fmt.Errorf("%w: %s", ErrInvalidLatch, a)
	}
	ca, ok := s.curves[a.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, a.ID)
	}
	cb, ok := s.curves[b.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, b.ID)
	}
	if ca.IsLatched(a.Edge) {
		return fmt.Errorf("%w: %s", ErrAlreadyLatched, a)
	}
	if cb.IsLatched(b.Edge) {
		return fmt.Errorf("%w: %s", ErrAlreadyLatched, b)
	}
	return nil
}

// latch installs two mirrored entries. Both edges must be free. Positions
// are not touched; Editor.Latch snaps the endpoints together first.
func (s *Store) latch(a, b CurveEdge) error {
	if err := s.checkLatch(a, b); err != nil {
		return err
	}
	ca, cb := s.curves[a.ID], s.curves[b.ID]

	ca.Latches[a.Edge] = LatchData{LatchedToID: b.ID, SelfEdge: a.Edge, PartnersEdge: b.Edge}
	cb.Latches[b.Edge] = LatchData{LatchedToID: a.ID, SelfEdge: b.Edge, PartnersEdge: a.Edge}
	ca.markDirty()
	cb.markDirty()
	return nil
}

// unlatch removes the mirrored pair between a and b.
func (s *Store) unlatch(a, b CurveEdge) error {
	ca, ok := s.curves[a.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, a.ID)
	}
	cb, ok := s.curves[b.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, b.ID)
	}

	la, ok := ca.Latches[a.Edge]
	if !ok || la.LatchedToID != b.ID || la.PartnersEdge != b.Edge {
		return fmt.Errorf("%w: %s and %s", ErrNotLatched, a, b)
	}
	lb, ok := cb.Latches[b.Edge]
	if !ok || lb.LatchedToID != a.ID || lb.PartnersEdge != a.Edge {
		return fmt.Errorf("%w: %s has no mirror on %s", ErrLatchAsymmetry, a, b)
	}

	delete(ca.Latches, a.Edge)
	delete(cb.Latches, b.Edge)
	ca.markDirty()
	cb.markDirty()
	return nil
}

// PartnerOf returns the endpoint latched to the given edge, if any.
func (s *Store) PartnerOf(id BezierID, edge AnchorEdge) (CurveEdge, bool, error) {
	c, ok := s.curves[id]
	if !ok {
		return CurveEdge{}, false, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	l, ok := c.Latches[edge]
	if !ok {
		return CurveEdge{}, false, nil
	}
	return CurveEdge{ID: l.LatchedToID, Edge: l.PartnersEdge}, true, nil
}

// checkMirror verifies that the entry held by id has its exact mirror.
func (s *Store) checkMirror(id BezierID, l LatchData) error {
	partner, ok := s.curves[l.LatchedToID]
	if !ok {
		return fmt.Errorf("%w: %s.%s points at missing %s", ErrLatchAsymmetry, id, l.SelfEdge, l.LatchedToID)
	}
	m, ok := partner.Latches[l.PartnersEdge]
	if !ok || m.LatchedToID != id || m.PartnersEdge != l.SelfEdge || m.SelfEdge != l.PartnersEdge {
		return fmt.Errorf("%w: %s.%s -> %s.%s", ErrLatchAsymmetry, id, l.SelfEdge, l.LatchedToID, l.PartnersEdge)
	}
	return nil
}

// CheckLatches verifies the mirror invariant over the whole store.
func (s *Store) CheckLatches() error {
	for _, id := range s.IDs() {
		c := s.curves[id]
		for edge, l := range c.Latches {
			if l.SelfEdge != edge {
				return fmt.Errorf("%w: %s entry under %s claims %s", ErrLatchAsymmetry, id, edge, l.SelfEdge)
			}
			if err := s.checkMirror(id, l); err != nil {
				return err
			}
		}
	}
	return nil
}

// LatchPairs returns every latch in the store once, ordered by endpoint.
func (s *Store) LatchPairs() []LatchPair {
	var pairs []LatchPair
	for _, id := range s.IDs() {
		c := s.curves[id]
		for _, edge := range []AnchorEdge{EdgeStart, EdgeEnd} {
			l, ok := c.Latches[edge]
			if !ok {
				continue
			}
			p := LatchPair{A: CurveEdge{ID: id, Edge: edge}, B: CurveEdge{ID: l.LatchedToID, Edge: l.PartnersEdge}}
			if !containsPair(pairs, p) {
				pairs = append(pairs, p)
			}
		}
	}
	return pairs
}
