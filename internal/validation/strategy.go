package validation

import (
	"fmt"
	"strings"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// Strategy selects how document size is compared with the guidance frame.
type Strategy int

const (
	// StrategyArea compares enclosed areas.
	StrategyArea Strategy = iota
	// StrategyEdge compares per-corner signed distances to the guidance
	// left and right edges.
	StrategyEdge
)

func (s Strategy) String() string {
	if s == StrategyEdge {
		return "edge"
	}
	return "area"
}

// ParseStrategy parses "area" or "edge". The empty string means area.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "area":
		return StrategyArea, nil
	case "edge", "edge-distance", "edge_distance":
		return StrategyEdge, nil
	}
	return StrategyArea, fmt.Errorf("unknown alignment strategy %q (want area or edge)", s)
}

// Align checks detected against guidance with the given strategy, then
// checks that the detected bounds stay inside the guidance bounds.
// marginPct is only used by StrategyEdge.
func Align(detected, guidance geometry.Quad, strategy Strategy, marginPct float64) Direction {
	var d Direction
	if strategy == StrategyEdge {
		d = EdgeCheck(detected, guidance, marginPct)
	} else {
		d = AreaCheck(detected, guidance)
	}
	if d != DirectionNone {
		return d
	}
	return Containment(detected, guidance)
}

// AreaCheck accepts a detected area between half of and the full guidance
// area, inclusive.
func AreaCheck(detected, guidance geometry.Quad) Direction {
	g := guidance.Area()
	if g == 0 {
		return Problem
	}
	d := detected.Area()
	switch {
	case d < 0.5*g:
		return ZoomIn
	case d > g:
		return ZoomOut
	}
	return DirectionNone
}

// EdgeDistances returns the signed distance of each detected corner to its
// guidance edge, positive inside: TL and BL against the left edge, TR and
// BR against the right edge. Results are in canonical corner order.
func EdgeDistances(detected, guidance geometry.Quad) ([4]float64, error) {
	var out [4]float64
	left := [2]geometry.Point{guidance[geometry.TopLeft], guidance[geometry.BottomLeft]}
	right := [2]geometry.Point{guidance[geometry.TopRight], guidance[geometry.BottomRight]}

	for _, c := range []geometry.Corner{geometry.TopLeft, geometry.BottomLeft} {
		d, err := geometry.SignedLineDistance(detected[c], left[0], left[1])
		if err != nil {
			return out, fmt.Errorf("left guidance edge: %w", err)
		}
		out[c] = d
	}
	for _, c := range []geometry.Corner{geometry.TopRight, geometry.BottomRight} {
		d, err := geometry.SignedLineDistance(detected[c], right[0], right[1])
		if err != nil {
			return out, fmt.Errorf("right guidance edge: %w", err)
		}
		out[c] = -d
	}
	return out, nil
}

// EdgeCheck asks to zoom out when every corner lies outside its guidance
// edge, and to zoom in when every corner is inside and at least one is
// farther in than marginPct of the guidance width.
func EdgeCheck(detected, guidance geometry.Quad, marginPct float64) Direction {
	width := guidance.Width()
	if width <= 0 {
		return Problem
	}
	dist, err := EdgeDistances(detected, guidance)
	if err != nil {
		return Problem
	}

	allOutside, allInside, anyTooFar := true, true, false
	for _, d := range dist {
		if d >= 0 {
			allOutside = false
		} else {
			allInside = false
		}
		if d/width > marginPct/100 {
			anyTooFar = true
		}
	}

	switch {
	case allOutside:
		return ZoomOut
	case allInside && anyTooFar:
		return ZoomIn
	}
	return DirectionNone
}

// Containment reports which way the document must move for its bounding box
// to fit the guidance bounding box. Left, right, top and bottom overflow are
// checked in that order.
func Containment(detected, guidance geometry.Quad) Direction {
	d, g := detected.Bounds(), guidance.Bounds()
	switch {
	case d.MinX < g.MinX:
		return MoveRight
	case d.MaxX > g.MaxX:
		return MoveLeft
	case d.MinY < g.MinY:
		return MoveDown
	case d.MaxY > g.MaxY:
		return MoveUp
	}
	return DirectionNone
}
