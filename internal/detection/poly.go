package detection

import "github.com/ironsheep/doc-autocapture/internal/geometry"

// ArcLength returns the perimeter of a contour, or its length when open.
func ArcLength(pts []geometry.Point, closed bool) float64 {
	return geometry.Perimeter(pts, closed)
}

// ApproxPolyDP simplifies a polyline with the Douglas-Peucker algorithm so
// that no dropped point is farther than epsilon from the result. Vertices
// keep their original relative order.
//
// A closed curve is first split at two mutually distant points and each half
// is simplified on its own, so the result does not depend on where the
// contour started.
func ApproxPolyDP(pts []geometry.Point, epsilon float64, closed bool) []geometry.Point {
	n := len(pts)
	if n < 3 {
		return append([]geometry.Point(nil), pts...)
	}

	keep := make([]bool, n)

	if !closed {
		keep[0], keep[n-1] = true, true
		simplifyChain(pts, indexRange(0, n-1, n), epsilon, keep)
		return collectKept(pts, keep)
	}

	a := farthestFrom(pts, 0)
	b := farthestFrom(pts, a)
	if a == b || geometry.Distance(pts[a], pts[b]) == 0 {
		return []geometry.Point{pts[0]}
	}
	keep[a], keep[b] = true, true
	simplifyChain(pts, indexRange(a, b, n), epsilon, keep)
	simplifyChain(pts, indexRange(b, a, n), epsilon, keep)

	return collectKept(pts, keep)
}

// indexRange lists indices from..to inclusive, wrapping around n.
func indexRange(from, to, n int) []int {
	idx := []int{from}
	for i := from; i != to; {
		i = (i + 1) % n
		idx = append(idx, i)
	}
	return idx
}

func farthestFrom(pts []geometry.Point, from int) int {
	best, bestDist := from, -1.0
	for i, p := range pts {
		if d := geometry.Distance(pts[from], p); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// simplifyChain runs iterative Douglas-Peucker over the chain of point
// indices, marking survivors in keep. Both chain ends are assumed kept.
func simplifyChain(pts []geometry.Point, chain []int, epsilon float64, keep []bool) {
	type span struct{ lo, hi int }
	stack := []span{{0, len(chain) - 1}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		start, end := pts[chain[s.lo]], pts[chain[s.hi]]
		maxDist, maxAt := -1.0, -1
		for k := s.lo + 1; k < s.hi; k++ {
			if d := geometry.SegmentDistance(pts[chain[k]], start, end); d > maxDist {
				maxDist, maxAt = d, k
			}
		}

		if maxDist > epsilon {
			keep[chain[maxAt]] = true
			stack = append(stack, span{s.lo, maxAt}, span{maxAt, s.hi})
		}
	}
}

func collectKept(pts []geometry.Point, keep []bool) []geometry.Point {
	out := make([]geometry.Point, 0, 8)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}
