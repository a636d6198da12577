package geometry

import (
	"errors"
	"math"
)

// ErrDegenerateLine is returned when a reference line has zero length and a
// perpendicular distance to it is undefined.
var ErrDegenerateLine = errors.New("degenerate line: start and end coincide")

// Point represents a 2D image coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Corner indexes a Quad.
type Corner int

// Canonical corner order of a Quad.
const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	}
	return "unknown"
}

// Quad is a quadrilateral with corners in canonical order
// [TopLeft, TopRight, BottomRight, BottomLeft].
type Quad [4]Point

// RectQuad builds an axis-aligned Quad from its top-left and bottom-right corners.
func RectQuad(x1, y1, x2, y2 float64) Quad {
	return Quad{Pt(x1, y1), Pt(x2, y1), Pt(x2, y2), Pt(x1, y2)}
}

// At returns the point at corner c.
func (q Quad) At(c Corner) Point {
	return q[c]
}

// Points returns the corners as a slice, in canonical order.
func (q Quad) Points() []Point {
	return q[:]
}

// Area returns the enclosed area of the quadrilateral.
func (q Quad) Area() float64 {
	return PolygonArea(q[:])
}

// Bounds returns the axis-aligned bounding box of the quadrilateral.
func (q Quad) Bounds() Bounds {
	b, _ := BoundsOf(q[:])
	return b
}

// Width is the horizontal extent of the top edge.
func (q Quad) Width() float64 {
	return q[TopRight].X - q[TopLeft].X
}

// Center returns the mean of the four corners.
func (q Quad) Center() Point {
	var c Point
	for _, p := range q {
		c.X += p.X
		c.Y += p.Y
	}
	return Pt(c.X/4, c.Y/4)
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// BoundsOf computes the bounding box of pts. The boolean is false for an
// empty slice.
func BoundsOf(pts []Point) (Bounds, bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	b := Bounds{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, true
}

// SignedLineDistance returns the perpendicular distance from p to the infinite
// line through start and end. The sign is kept and equals the sign of
// -(end-start)×(p-start): for a line running top to bottom, points with a
// larger X than the line are positive.
//
// Returns ErrDegenerateLine when start and end coincide.
func SignedLineDistance(p, start, end Point) (float64, error) {
	dx := end.X - start.X
	dy := end.Y - start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return 0, ErrDegenerateLine
	}
	numerator := dy*p.X - dx*p.Y + end.X*start.Y - end.Y*start.X
	return numerator / length, nil
}

// SegmentDistance returns the unsigned distance from p to the line through a
// and b, falling back to the point distance when a and b coincide.
func SegmentDistance(p, a, b Point) float64 {
	d, err := SignedLineDistance(p, a, b)
	if err != nil {
		return Distance(p, a)
	}
	return math.Abs(d)
}

// PolygonArea returns the absolute area of a simple polygon (shoelace formula).
func PolygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the length of the polyline through pts, including the
// closing segment when closed is true.
func Perimeter(pts []Point, closed bool) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 1; i < n; i++ {
		total += Distance(pts[i-1], pts[i])
	}
	if closed {
		total += Distance(pts[n-1], pts[0])
	}
	return total
}

// PointInPolygon reports whether p lies inside the polygon (even-odd rule).
func PointInPolygon(p Point, poly []Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}
