// Package guidance derives the target quadrilateral the user must align the
// document into.
package guidance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// OffsetPolicy selects how the guidance box is centered horizontally.
//
// Handheld devices (rear camera, portrait stream) offset by half the box
// width. Fixed cameras (front camera, landscape stream) offset by a quarter,
// which narrows the box to compensate for the wider aspect ratio.
type OffsetPolicy int

const (
	// OffsetHandheld offsets the box by boxWidth/2.
	OffsetHandheld OffsetPolicy = iota
	// OffsetFixedCamera offsets the box by boxWidth/4.
	OffsetFixedCamera
)

func (p OffsetPolicy) String() string {
	switch p {
	case OffsetHandheld:
		return "handheld"
	case OffsetFixedCamera:
		return "fixed"
	}
	return fmt.Sprintf("OffsetPolicy(%d)", int(p))
}

// ParseOffsetPolicy parses "handheld" or "fixed".
func ParseOffsetPolicy(s string) (OffsetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "handheld", "mobile", "":
		return OffsetHandheld, nil
	case "fixed", "fixed-camera", "desktop":
		return OffsetFixedCamera, nil
	}
	return 0, fmt.Errorf("unknown offset policy %q", s)
}

// divisor returns how many parts of the box width make up the half-offset.
func (p OffsetPolicy) divisor() float64 {
	if p == OffsetFixedCamera {
		return 4
	}
	return 2
}

// Config is the per-session guidance configuration. It is owned by the
// settings collaborator and read-only for the capture core.
type Config struct {
	// FrameWidthPct is the guidance box width as a percentage of the frame width.
	FrameWidthPct float64 `json:"frame_width_pct" validate:"gt=0,lte=100"`

	// FrameHeightPct is the guidance box height as a percentage of the frame height.
	FrameHeightPct float64 `json:"frame_height_pct" validate:"gt=0,lte=100"`

	// SideMarginPct is how far, as a percentage of the guidance width, a detected
	// corner may sit inside the guidance edge before the user is asked to zoom in.
	SideMarginPct float64 `json:"side_margin_pct" validate:"gte=0,lte=100"`

	// HoldingTime is how long every feature must stay valid before capture fires.
	HoldingTime time.Duration `json:"holding_time" validate:"gt=0"`

	// Debug enables overlay output for the debug renderer.
	Debug bool `json:"debug"`

	// Offset is the horizontal centering policy.
	Offset OffsetPolicy `json:"offset"`
}

// DefaultConfig mirrors the initial settings shipped with the capture screen.
func DefaultConfig() Config {
	return Config{
		FrameWidthPct:  75,
		FrameHeightPct: 75,
		SideMarginPct:  20,
		HoldingTime:    2 * time.Second,
		Offset:         OffsetHandheld,
	}
}

// Frame returns the guidance quadrilateral for a width×height frame.
//
// The box is centered on the frame:
//
//	boxWidth  = round(width  × FrameWidthPct/100)
//	boxHeight = round(height × FrameHeightPct/100)
//
// The horizontal half-extent is boxWidth/2 or boxWidth/4 depending on the
// offset policy; the vertical half-extent is always boxHeight/2. The result
// depends only on its inputs, so repeated calls yield identical quads.
func Frame(width, height int, cfg Config) (geometry.Quad, error) {
	if width <= 0 || height <= 0 {
		return geometry.Quad{}, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if cfg.FrameWidthPct <= 0 || cfg.FrameHeightPct <= 0 {
		return geometry.Quad{}, fmt.Errorf("invalid guidance size %.1f%%x%.1f%%", cfg.FrameWidthPct, cfg.FrameHeightPct)
	}

	boxWidth := math.Round(float64(width) * cfg.FrameWidthPct / 100)
	boxHeight := math.Round(float64(height) * cfg.FrameHeightPct / 100)

	widthFactor := boxWidth / cfg.Offset.divisor()
	heightFactor := boxHeight / 2

	cx := float64(width) / 2
	cy := float64(height) / 2

	return geometry.RectQuad(cx-widthFactor, cy-heightFactor, cx+widthFactor, cy+heightFactor), nil
}
