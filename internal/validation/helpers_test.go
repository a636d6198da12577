package validation

import "github.com/ironsheep/doc-autocapture/internal/geometry"

// shift returns q moved by (dx, dy).
func shift(q geometry.Quad, dx, dy float64) geometry.Quad {
	for i := range q {
		q[i].X += dx
		q[i].Y += dy
	}
	return q
}

// scale returns q scaled by f around its center.
func scale(q geometry.Quad, f float64) geometry.Quad {
	c := q.Center()
	for i, p := range q {
		q[i] = geometry.Pt(c.X+(p.X-c.X)*f, c.Y+(p.Y-c.Y)*f)
	}
	return q
}
