package penknot

import (
	"fmt"
	"slices"
)

// OrientedCurve is a chain member together with the direction it is walked in.
// Reversed members are traversed from End to Start.
type OrientedCurve struct {
	ID       BezierID `json:"id"`
	Reversed bool     `json:"reversed"`
}

// Chain returns every curve connected to seed through latches, seed included,
// in ascending id order. Each curve is visited once, so cycles and
// self-latches terminate.
func (s *Store) Chain(seed BezierID) ([]BezierID, error) {
	if _, ok := s.curves[seed]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownID, seed)
	}

	visited := map[BezierID]bool{seed: true}
	queue := []BezierID{seed}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		c := s.curves[id]
		for _, edge := range []AnchorEdge{EdgeStart, EdgeEnd} {
			l, ok := c.Latches[edge]
			if !ok {
				continue
			}
			if err := s.checkMirror(id, l); err != nil {
				return nil, err
			}
			if visited[l.LatchedToID] {
				continue
			}
			visited[l.LatchedToID] = true
			queue = append(queue, l.LatchedToID)
		}
	}

	ids := make([]BezierID, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// ConnectedComponent returns the curves reachable from seed through latches,
// excluding seed itself.
func (s *Store) ConnectedComponent(seed BezierID) ([]BezierID, error) {
	chain, err := s.Chain(seed)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(chain, func(id BezierID) bool { return id == seed }), nil
}

// isExactChain reports whether members form exactly one connected component.
func (s *Store) isExactChain(members []BezierID) (bool, error) {
	if len(members) == 0 {
		return false, nil
	}
	chain, err := s.Chain(members[0])
	if err != nil {
		return false, err
	}
	want := slices.Clone(members)
	slices.Sort(want)
	want = slices.Compact(want)
	return slices.Equal(chain, want), nil
}

// chainOrder walks members from one extremity to the other. The walk starts at
// a member with an edge that has no in-selection partner; a closed loop has no
// such member and starts at the lowest id, entering through its start edge.
func (s *Store) chainOrder(members []BezierID) ([]OrientedCurve, error) {
	in := make(map[BezierID]bool, len(members))
	for _, id := range members {
		if _, ok := s.curves[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
		}
		in[id] = true
	}
	sorted := slices.Clone(members)
	slices.Sort(sorted)

	first, entry, found := BezierID(0), EdgeStart, false
	for _, id := range sorted {
		c := s.curves[id]
		for _, edge := range []AnchorEdge{EdgeStart, EdgeEnd} {
			l, ok := c.Latches[edge]
			if !ok || !in[l.LatchedToID] {
				first, entry, found = id, edge, true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		first, entry = sorted[0], EdgeStart
	}

	visited := make(map[BezierID]bool, len(members))
	order := make([]OrientedCurve, 0, len(members))
	id, edge := first, entry
	for {
		visited[id] = true
		order = append(order, OrientedCurve{ID: id, Reversed: edge == EdgeEnd})
		l, ok := s.curves[id].Latches[edge.Opposite()]
		if !ok || !in[l.LatchedToID] || visited[l.LatchedToID] {
			break
		}
		id, edge = l.LatchedToID, l.PartnersEdge
	}

	if len(order) != len(in) {
		return nil, ErrNotFullyConnected
	}
	return order, nil
}
