package penknot

// DefaultSampleCount is the number of samples taken per curve when no
// explicit count is configured.
const DefaultSampleCount = 100

// computeCurveTable samples the cubic at n+1 evenly spaced parameters.
func computeCurveTable(p Positions, n int) SampleTable {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, n+1)
	length := 0.0
	for i := 0; i <= n; i++ {
		pts[i] = p.Eval(float64(i) / float64(n))
		if i > 0 {
			length += pts[i].Dist(pts[i-1])
		}
	}
	return SampleTable{Points: pts, Length: length}
}

// refreshTable recomputes the curve's sample table if it is dirty.
func (c *Curve) refreshTable(n int) SampleTable {
	if c.dirty || len(c.table.Points) == 0 {
		c.table = computeCurveTable(c.Positions, n)
		c.dirty = false
	}
	return c.table
}

// aggregateTable concatenates member tables in chain order. Shared joints are
// emitted once.
func aggregateTable(s *Store, order []OrientedCurve, n int) SampleTable {
	var out SampleTable
	for i, oc := range order {
		c := s.curves[oc.ID]
		t := c.refreshTable(n)
		pts := t.Points
		if oc.Reversed {
			pts = reversed(pts)
		}
		if i > 0 && len(pts) > 0 && len(out.Points) > 0 && pts[0] == out.Points[len(out.Points)-1] {
			pts = pts[1:]
		}
		out.Points = append(out.Points, pts...)
		out.Length += t.Length
	}
	return out
}

func reversed(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
