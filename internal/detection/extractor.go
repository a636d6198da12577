package detection

import (
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// AreaPolicy selects how the minimum detectable document area is derived.
type AreaPolicy int

const (
	// AreaFixed uses a constant area in square pixels.
	AreaFixed AreaPolicy = iota
	// AreaFrame scales the minimum with the frame: (h/2 × w) / 8.
	AreaFrame
)

func (p AreaPolicy) String() string {
	if p == AreaFrame {
		return "frame"
	}
	return "fixed"
}

// ParseAreaPolicy parses "fixed" or "frame". The empty string means fixed.
func ParseAreaPolicy(s string) (AreaPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return AreaFixed, nil
	case "frame":
		return AreaFrame, nil
	}
	return AreaFixed, fmt.Errorf("unknown area policy %q (want fixed or frame)", s)
}

// Default extraction parameters.
const (
	DefaultMinArea        = 5000.0
	DefaultEpsilonPercent = 0.02
)

// ExtractorOptions configures contour extraction.
type ExtractorOptions struct {
	// Policy chooses between a fixed and a frame-relative minimum area.
	Policy AreaPolicy

	// MinArea is the fixed minimum area in px², used with AreaFixed.
	MinArea float64

	// Epsilon is the polygon approximation tolerance as a fraction of the
	// contour perimeter.
	Epsilon float64
}

// DefaultExtractorOptions returns a fixed 5000px² minimum and 2% tolerance.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		Policy:  AreaFixed,
		MinArea: DefaultMinArea,
		Epsilon: DefaultEpsilonPercent,
	}
}

// MinDetectableArea returns the area a contour must exceed to be considered
// for a width×height frame.
func (o ExtractorOptions) MinDetectableArea(width, height int) float64 {
	if o.Policy == AreaFrame {
		return (float64(height) / 2 * float64(width)) / 8
	}
	return o.MinArea
}

// Extractor finds the document quadrilateral in a binary edge map.
type Extractor struct {
	opts ExtractorOptions
}

// NewExtractor creates an extractor. A zero epsilon falls back to the default.
func NewExtractor(opts ExtractorOptions) *Extractor {
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilonPercent
	}
	return &Extractor{opts: opts}
}

// Candidate is an outer contour that approximated to four vertices.
type Candidate struct {
	Contour Contour
	Approx  []geometry.Point
	Area    float64
}

// Candidates returns every outer contour above the minimum area whose
// polygon approximation has exactly four vertices.
func (e *Extractor) Candidates(edges *image.Gray) []Candidate {
	b := edges.Bounds()
	minArea := e.opts.MinDetectableArea(b.Dx(), b.Dy())

	var out []Candidate
	for _, c := range ExternalContours(edges) {
		pts := c.Points()
		area := geometry.PolygonArea(pts)
		if area < minArea {
			continue
		}
		approx := ApproxPolyDP(pts, e.opts.Epsilon*ArcLength(pts, true), true)
		if len(approx) != 4 {
			continue
		}
		out = append(out, Candidate{Contour: c, Approx: approx, Area: area})
	}
	return out
}

// Extract returns the corners of the largest four-sided outer contour.
//
// Returns (Quad{}, false, nil) when no contour qualifies, and
// ErrMissingCorner when the winner's corners cannot be assigned.
func (e *Extractor) Extract(edges *image.Gray) (geometry.Quad, bool, error) {
	b := edges.Bounds()
	maxArea := e.opts.MinDetectableArea(b.Dx(), b.Dy())

	var largest []geometry.Point
	for _, c := range e.Candidates(edges) {
		if c.Area > maxArea {
			largest, maxArea = c.Approx, c.Area
		}
	}
	if largest == nil {
		return geometry.Quad{}, false, nil
	}

	q, err := OrderCorners(largest)
	if err != nil {
		return geometry.Quad{}, false, err
	}
	return q, true, nil
}
