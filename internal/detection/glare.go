package detection

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// Glare detection defaults.
const (
	DefaultGlareBrightness = 240
	DefaultGlareMinArea    = 500.0
)

// GlareRegion is a saturated area of the frame.
type GlareRegion struct {
	Outline       []geometry.Point `json:"outline"`
	Area          float64          `json:"area"`
	MeanIntensity float64          `json:"mean_intensity"`
}

// GlareDetector finds bright, saturated regions that would wash out the
// document.
type GlareDetector struct {
	// Brightness is the gray level a pixel must exceed to count as glare.
	Brightness uint8

	// MinArea is the area a region must exceed to be reported.
	MinArea float64
}

// DefaultGlareDetector uses a brightness of 240 and a 500px² minimum area.
func DefaultGlareDetector() GlareDetector {
	return GlareDetector{Brightness: DefaultGlareBrightness, MinArea: DefaultGlareMinArea}
}

// Detect returns the glare regions in a grayscale frame.
//
// Pixels brighter than Brightness are segmented, outer contours of the mask
// larger than MinArea are kept, and a region is reported only when the mean
// gray level inside its outline also exceeds Brightness.
func (d GlareDetector) Detect(gray *image.Gray) []GlareRegion {
	if d.Brightness == math.MaxUint8 {
		return nil
	}
	// bild keeps pixels at or above the level.
	mask := segment.Threshold(gray, d.Brightness+1)

	var regions []GlareRegion
	for _, c := range ExternalContours(mask) {
		pts := c.Points()
		area := geometry.PolygonArea(pts)
		if area <= d.MinArea {
			continue
		}
		mean := meanInside(gray, pts)
		if mean > float64(d.Brightness) {
			regions = append(regions, GlareRegion{Outline: pts, Area: area, MeanIntensity: mean})
		}
	}
	return regions
}

// meanInside averages the gray levels of pixels on or inside the polygon.
func meanInside(gray *image.Gray, poly []geometry.Point) float64 {
	bounds, ok := geometry.BoundsOf(poly)
	if !ok {
		return 0
	}
	b := gray.Bounds()
	minX := max(int(bounds.MinX), 0)
	minY := max(int(bounds.MinY), 0)
	maxX := min(int(bounds.MaxX), b.Dx()-1)
	maxY := min(int(bounds.MaxY), b.Dy()-1)

	var sum, count float64
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := geometry.Point{X: float64(x), Y: float64(y)}
			if !geometry.PointInPolygon(p, poly) && !onOutline(p, poly) {
				continue
			}
			sum += float64(gray.Pix[y*gray.Stride+x])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

// onOutline reports whether p lies on one of the polygon's edges.
func onOutline(p geometry.Point, poly []geometry.Point) bool {
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		if p.X < math.Min(a.X, b.X) || p.X > math.Max(a.X, b.X) ||
			p.Y < math.Min(a.Y, b.Y) || p.Y > math.Max(a.Y, b.Y) {
			continue
		}
		if geometry.SegmentDistance(p, a, b) < 0.5 {
			return true
		}
	}
	return false
}
