package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// Overlay holds the advisory geometry produced by one detection tick for an
// optional debug renderer. It is never fed back into detection.
type Overlay struct {
	// Guidance is the target quadrilateral.
	Guidance geometry.Quad `json:"guidance"`

	// Detected is the last detected document outline, or nil.
	Detected *geometry.Quad `json:"detected,omitempty"`

	// Glare holds the outlines of detected glare regions.
	Glare [][]geometry.Point `json:"glare,omitempty"`
}

// OverlayStyle configures overlay stroke colors (hex "#RRGGBB") and width.
type OverlayStyle struct {
	GuidanceColor string `json:"guidance_color"`
	DetectedColor string `json:"detected_color"`
	GlareColor    string `json:"glare_color"`
	Thickness     int    `json:"thickness"`
}

// DefaultOverlayStyle draws the guidance frame in white, the detected
// document in red and glare in blue, 2px wide.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		GuidanceColor: "#FFFFFF",
		DetectedColor: "#FF0000",
		GlareColor:    "#0000FF",
		Thickness:     2,
	}
}

// RenderOverlay draws ov on top of a copy of base.
//
// The guidance quadrilateral is drawn first, then glare outlines, then the
// detected outline so it stays visible where they overlap.
//
// Returns an error if a style color cannot be parsed.
func RenderOverlay(base image.Image, ov Overlay, style OverlayStyle) (*image.NRGBA, error) {
	guidanceColor, err := parseHexColor(style.GuidanceColor)
	if err != nil {
		return nil, fmt.Errorf("guidance color: %w", err)
	}
	detectedColor, err := parseHexColor(style.DetectedColor)
	if err != nil {
		return nil, fmt.Errorf("detected color: %w", err)
	}
	glareColor, err := parseHexColor(style.GlareColor)
	if err != nil {
		return nil, fmt.Errorf("glare color: %w", err)
	}
	thickness := style.Thickness
	if thickness < 1 {
		thickness = 1
	}

	canvas := imaging.Clone(base)

	drawPolygon(canvas, ov.Guidance.Points(), guidanceColor, thickness)
	for _, region := range ov.Glare {
		drawPolygon(canvas, region, glareColor, thickness)
	}
	if ov.Detected != nil {
		drawPolygon(canvas, ov.Detected.Points(), detectedColor, thickness)
	}

	return canvas, nil
}

// EncodePNGBase64 encodes img as a base64 PNG string.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// parseHexColor parses "#RRGGBB" via go-colorful.
func parseHexColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// drawPolygon strokes the closed polygon through pts.
func drawPolygon(img *image.NRGBA, pts []geometry.Point, c color.NRGBA, thickness int) {
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		drawLine(img, int(math.Round(a.X)), int(math.Round(a.Y)), int(math.Round(b.X)), int(math.Round(b.Y)), c, thickness)
	}
}

// drawLine draws a line with Bresenham's algorithm, stamping a square brush
// of the given thickness at each step. Pixels outside img are skipped.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA, thickness int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	half := thickness / 2
	bounds := img.Bounds()

	for {
		for by := -half; by < thickness-half; by++ {
			for bx := -half; bx < thickness-half; bx++ {
				p := image.Pt(x0+bx, y0+by)
				if p.In(bounds) {
					img.SetNRGBA(p.X, p.Y, c)
				}
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
