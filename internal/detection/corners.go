package detection

import (
	"errors"
	"math"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// ErrMissingCorner is returned when no contour point falls strictly inside
// one of the four quadrants around the contour's center.
var ErrMissingCorner = errors.New("contour has no point in one of the corner quadrants")

// OrderCorners picks the four document corners from a contour and returns
// them in canonical order (TL, TR, BR, BL).
//
// The contour is split into quadrants around the center of its minimum-area
// bounding rectangle; in each quadrant the point farthest from the center
// becomes that corner. Points lying exactly on a quadrant boundary are
// ignored.
func OrderCorners(pts []geometry.Point) (geometry.Quad, error) {
	if len(pts) == 0 {
		return geometry.Quad{}, ErrMissingCorner
	}
	center := geometry.MinAreaRect(pts).Center

	var q geometry.Quad
	var found [4]bool
	var best [4]float64

	for _, p := range pts {
		var c geometry.Corner
		switch {
		case p.X < center.X && p.Y < center.Y:
			c = geometry.TopLeft
		case p.X > center.X && p.Y < center.Y:
			c = geometry.TopRight
		case p.X > center.X && p.Y > center.Y:
			c = geometry.BottomRight
		case p.X < center.X && p.Y > center.Y:
			c = geometry.BottomLeft
		default:
			continue
		}

		d := math.Hypot(p.X-center.X, p.Y-center.Y)
		if !found[c] || d > best[c] {
			q[c], best[c], found[c] = p, d, true
		}
	}

	for _, ok := range found {
		if !ok {
			return geometry.Quad{}, ErrMissingCorner
		}
	}
	return q, nil
}
