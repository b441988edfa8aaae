package penknot

import (
	"fmt"
	"math"
)

// BezierID is the stable identity of a curve, independent of any render handle.
// Ids are assigned from a monotonic counter and never reused.
type BezierID uint64

func (id BezierID) String() string {
	return fmt.Sprintf("b%d", uint64(id))
}

// AnchorEdge names one of the two latch-capable endpoints of a curve.
type AnchorEdge int

const (
	// EdgeStart is the first endpoint of the curve.
	EdgeStart AnchorEdge = iota

	// EdgeEnd is the last endpoint of the curve.
	EdgeEnd
)

func (e AnchorEdge) String() string {
	switch e {
	case EdgeStart:
		return "start"
	case EdgeEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Opposite returns the other endpoint.
func (e AnchorEdge) Opposite() AnchorEdge {
	if e == EdgeStart {
		return EdgeEnd
	}
	return EdgeStart
}

// Anchor returns the endpoint anchor for this edge.
func (e AnchorEdge) Anchor() Anchor {
	if e == EdgeStart {
		return AnchorStart
	}
	return AnchorEnd
}

// Anchor names any movable point of a curve.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorEnd
	AnchorControlStart
	AnchorControlEnd
	// AnchorAll moves the whole latched chain the curve belongs to.
	AnchorAll
)

func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "start"
	case AnchorEnd:
		return "end"
	case AnchorControlStart:
		return "control-start"
	case AnchorControlEnd:
		return "control-end"
	case AnchorAll:
		return "all"
	default:
		return "unknown"
	}
}

// Edge resolves an anchor to the endpoint it belongs to.
// Control points resolve to their nearest edge. AnchorAll resolves to EdgeStart.
func (a Anchor) Edge() AnchorEdge {
	switch a {
	case AnchorEnd, AnchorControlEnd:
		return EdgeEnd
	default:
		return EdgeStart
	}
}

// IsControl reports whether the anchor is a control point.
func (a Anchor) IsControl() bool {
	return a == AnchorControlStart || a == AnchorControlEnd
}

// Adjoint maps an endpoint to its control point and a control point to its endpoint.
func (a Anchor) Adjoint() Anchor {
	switch a {
	case AnchorStart:
		return AnchorControlStart
	case AnchorEnd:
		return AnchorControlEnd
	case AnchorControlStart:
		return AnchorStart
	case AnchorControlEnd:
		return AnchorEnd
	default:
		return a
	}
}

// Point is a 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Reflect returns the reflection of p through center.
func (p Point) Reflect(center Point) Point {
	return Point{2*center.X - p.X, 2*center.Y - p.Y}
}

// Positions holds the four points of a cubic bezier.
type Positions struct {
	Start        Point `json:"start"`
	End          Point `json:"end"`
	ControlStart Point `json:"control_start"`
	ControlEnd   Point `json:"control_end"`
}

// Get returns the position of a single anchor. AnchorAll returns Start.
func (p Positions) Get(a Anchor) Point {
	switch a {
	case AnchorEnd:
		return p.End
	case AnchorControlStart:
		return p.ControlStart
	case AnchorControlEnd:
		return p.ControlEnd
	default:
		return p.Start
	}
}

// Set returns a copy with a single anchor moved. AnchorAll translates every point
// so that Start lands on pos.
func (p Positions) Set(a Anchor, pos Point) Positions {
	switch a {
	case AnchorStart:
		p.Start = pos
	case AnchorEnd:
		p.End = pos
	case AnchorControlStart:
		p.ControlStart = pos
	case AnchorControlEnd:
		p.ControlEnd = pos
	case AnchorAll:
		p = p.Translate(pos.Sub(p.Start))
	}
	return p
}

// Translate returns a copy with every point shifted by delta.
func (p Positions) Translate(delta Point) Positions {
	return Positions{
		Start:        p.Start.Add(delta),
		End:          p.End.Add(delta),
		ControlStart: p.ControlStart.Add(delta),
		ControlEnd:   p.ControlEnd.Add(delta),
	}
}

// Eval evaluates the cubic at parameter t in [0,1].
func (p Positions) Eval(t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p.Start.X + b*p.ControlStart.X + c*p.ControlEnd.X + d*p.End.X,
		Y: a*p.Start.Y + b*p.ControlStart.Y + c*p.ControlEnd.Y + d*p.End.Y,
	}
}

// LatchData is one directed half of a symmetric latch.
// Curve A's entry under SelfEdge must be mirrored by the partner's entry under
// PartnersEdge pointing back to A under SelfEdge.
type LatchData struct {
	LatchedToID  BezierID   `json:"latched_to_id"`
	SelfEdge     AnchorEdge `json:"self_edge"`
	PartnersEdge AnchorEdge `json:"partners_edge"`
}

// CurveEdge addresses one endpoint of one curve.
type CurveEdge struct {
	ID   BezierID   `json:"id"`
	Edge AnchorEdge `json:"edge"`
}

func (ce CurveEdge) String() string {
	return fmt.Sprintf("%s.%s", ce.ID, ce.Edge)
}

// SampleTable is a precomputed discretization of a curve or chain.
type SampleTable struct {
	Points []Point
	Length float64
}

// Curve is the record kept by the store for one bezier.
type Curve struct {
	ID        BezierID
	Positions Positions
	Color     string
	Latches   map[AnchorEdge]LatchData
	Group     *GroupID

	table SampleTable
	dirty bool
}

// newCurve creates an unlatched curve record with a dirty sample table.
func newCurve(id BezierID, positions Positions, color string) *Curve {
	return &Curve{
		ID:        id,
		Positions: positions,
		Color:     color,
		Latches:   make(map[AnchorEdge]LatchData, 2),
		dirty:     true,
	}
}

// IsLatched reports whether the given edge holds a latch entry.
func (c *Curve) IsLatched(edge AnchorEdge) bool {
	_, ok := c.Latches[edge]
	return ok
}

// GroupID returns the curve's group and whether it has one.
func (c *Curve) GroupID() (GroupID, bool) {
	if c.Group == nil {
		return "", false
	}
	return *c.Group, true
}

// Dirty reports whether the sample table needs recomputation.
func (c *Curve) Dirty() bool {
	return c.dirty
}

// markDirty invalidates the cached sample table.
func (c *Curve) markDirty() {
	c.dirty = true
}

// clone returns a deep copy, sharing nothing mutable with c.
func (c *Curve) clone() *Curve {
	cp := *c
	cp.Latches = make(map[AnchorEdge]LatchData, len(c.Latches))
	for k, v := range c.Latches {
		cp.Latches[k] = v
	}
	if c.Group != nil {
		g := *c.Group
		cp.Group = &g
	}
	cp.table.Points = append([]Point(nil), c.table.Points...)
	return &cp
}

// CurveSnapshot is the body of a curve as embedded in history entries.
// Latches are deliberately absent: latch relations are restored by their own
// history entries.
type CurveSnapshot struct {
	ID        BezierID  `json:"id"`
	Positions Positions `json:"positions"`
	Color     string    `json:"color,omitempty"`
	Group     *GroupID  `json:"group,omitempty"`
}

// snapshot captures the body of the curve.
func (c *Curve) snapshot() CurveSnapshot {
	s := CurveSnapshot{
		ID:        c.ID,
		Positions: c.Positions,
		Color:     c.Color,
	}
	if c.Group != nil {
		g := *c.Group
		s.Group = &g
	}
	return s
}
