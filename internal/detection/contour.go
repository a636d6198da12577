package detection

import (
	"image"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// Contour is a closed boundary of pixel centers in tracing order.
type Contour []image.Point

// Points converts the contour to geometry points.
func (c Contour) Points() []geometry.Point {
	pts := make([]geometry.Point, len(c))
	for i, p := range c {
		pts[i] = geometry.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return pts
}

// Area returns the enclosed area of the contour polygon.
func (c Contour) Area() float64 {
	return geometry.PolygonArea(c.Points())
}

// mooreOffsets lists the 8 neighbors clockwise (Y grows downward),
// starting from the west neighbor.
var mooreOffsets = [8]image.Point{
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
}

func offsetIndex(d image.Point) int {
	for i, o := range mooreOffsets {
		if o == d {
			return i
		}
	}
	return 0
}

// binaryMask is a foreground bitmap with bounds-checked access.
type binaryMask struct {
	width, height int
	fg            []bool
}

func newBinaryMask(img *image.Gray) *binaryMask {
	b := img.Bounds()
	m := &binaryMask{width: b.Dx(), height: b.Dy()}
	m.fg = make([]bool, m.width*m.height)
	for y := 0; y < m.height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.width]
		for x, v := range row {
			m.fg[y*m.width+x] = v != 0
		}
	}
	return m
}

func (m *binaryMask) at(p image.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= m.width || p.Y >= m.height {
		return false
	}
	return m.fg[p.Y*m.width+p.X]
}

// ExternalContours returns the outer boundary of every foreground region
// of a binary image that is not enclosed by another region. Any non-zero
// pixel is foreground. Foreground uses 8-connectivity, background
// 4-connectivity.
//
// Each contour is traced clockwise with Moore-neighbor tracing from the
// region's top-left pixel, and straight runs are compressed to their end
// points.
func ExternalContours(img *image.Gray) []Contour {
	m := newBinaryMask(img)
	if m.width == 0 || m.height == 0 {
		return nil
	}

	outside := markOutside(m)
	visited := make([]bool, len(m.fg))
	contours := make([]Contour, 0)

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			i := y*m.width + x
			if !m.fg[i] || visited[i] {
				continue
			}
			if !floodComponent(m, visited, outside, image.Pt(x, y)) {
				continue
			}
			boundary := traceBoundary(m, image.Pt(x, y))
			contours = append(contours, compressRuns(boundary))
		}
	}

	return contours
}

// markOutside flags every background pixel 4-connected to the image border.
func markOutside(m *binaryMask) []bool {
	outside := make([]bool, len(m.fg))
	stack := make([]int, 0, 2*(m.width+m.height))

	push := func(x, y int) {
		i := y*m.width + x
		if !m.fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < m.width; x++ {
		push(x, 0)
		push(x, m.height-1)
	}
	for y := 0; y < m.height; y++ {
		push(0, y)
		push(m.width-1, y)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%m.width, i/m.width
		if x > 0 {
			push(x-1, y)
		}
		if x < m.width-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < m.height-1 {
			push(x, y+1)
		}
	}
	return outside
}

// floodComponent marks the 8-connected foreground region containing start
// as visited and reports whether it borders the outside background or the
// image edge.
func floodComponent(m *binaryMask, visited, outside []bool, start image.Point) bool {
	stack := []image.Point{start}
	visited[start.Y*m.width+start.X] = true
	external := false

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X == 0 || p.Y == 0 || p.X == m.width-1 || p.Y == m.height-1 {
			external = true
		}

		for _, o := range mooreOffsets {
			n := p.Add(o)
			if n.X < 0 || n.Y < 0 || n.X >= m.width || n.Y >= m.height {
				continue
			}
			j := n.Y*m.width + n.X
			if !m.fg[j] {
				// Only 4-neighbors of the outside count as touching it.
				if (o.X == 0 || o.Y == 0) && outside[j] {
					external = true
				}
				continue
			}
			if !visited[j] {
				visited[j] = true
				stack = append(stack, n)
			}
		}
	}
	return external
}

// traceBoundary walks the outer boundary of the region whose raster-first
// pixel is start.
func traceBoundary(m *binaryMask, start image.Point) []image.Point {
	boundary := []image.Point{start}
	cur := start
	backtrack := 0 // west of the raster-first pixel is always background
	limit := 4*m.width*m.height + 8

	for step := 0; step < limit; step++ {
		next, nextBacktrack, ok := nextBoundaryPixel(m, cur, backtrack)
		if !ok {
			// Isolated pixel.
			break
		}
		if cur == start && len(boundary) > 1 && next == boundary[1] {
			// Back at the start, about to repeat the first move.
			boundary = boundary[:len(boundary)-1]
			break
		}
		boundary = append(boundary, next)
		cur, backtrack = next, nextBacktrack
	}
	return boundary
}

// nextBoundaryPixel scans the neighbors of cur clockwise, starting after the
// backtrack direction, and returns the first foreground pixel along with the
// backtrack direction to use from it.
func nextBoundaryPixel(m *binaryMask, cur image.Point, backtrack int) (image.Point, int, bool) {
	for k := 1; k <= 8; k++ {
		d := (backtrack + k) % 8
		n := cur.Add(mooreOffsets[d])
		if !m.at(n) {
			continue
		}
		prev := cur.Add(mooreOffsets[(d+7)%8])
		return n, offsetIndex(prev.Sub(n)), true
	}
	return image.Point{}, 0, false
}

// compressRuns drops points that lie in the middle of a straight
// horizontal, vertical or diagonal run.
func compressRuns(pts []image.Point) Contour {
	n := len(pts)
	if n <= 2 {
		return Contour(pts)
	}
	out := make(Contour, 0, n)
	for i, p := range pts {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		if p.Sub(prev) != next.Sub(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return Contour(pts[:1])
	}
	return out
}
