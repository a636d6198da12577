package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// ErrUnknownFeature is returned for a feature id outside the known set.
var ErrUnknownFeature = errors.New("unknown detection feature")

// Feedback messages shared by the features.
const (
	MsgVideoNotDetected = "Video not detected."
	MsgContourDetected  = "Contour detected"
	MsgPositionDocument = `Position your "DOCUMENT" in the frame.`
	MsgAligned          = `"Document" in the correct position`
	MsgProblem          = "Problem with validation."
	MsgGlareDetected    = "Glare detected."
	MsgNoGlare          = "No glare detected"
)

// Kind is a detection feature. The set is closed.
type Kind int

const (
	// KindContour is valid when a document outline was found.
	KindContour Kind = iota
	// KindPosition is valid when the document is aligned with the guidance frame.
	KindPosition
	// KindGlare is valid when no glare region was found.
	KindGlare
)

var kindIDs = [...]string{
	KindContour:  "contour",
	KindPosition: "position",
	KindGlare:    "glare",
}

// ID returns the feature id used in configuration and results.
func (k Kind) ID() string {
	if k >= 0 && int(k) < len(kindIDs) {
		return kindIDs[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) String() string { return k.ID() }

// ParseKind maps a feature id to its Kind.
func ParseKind(id string) (Kind, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for k, name := range kindIDs {
		if name == id {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, id)
}

// ParseKinds parses feature ids in order. Duplicates are dropped.
func ParseKinds(ids []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(ids))
	seen := make(map[Kind]bool)
	for _, id := range ids {
		k, err := ParseKind(id)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// DetectionResult is the outcome of one feature on one validation tick.
type DetectionResult struct {
	FeatureID string `json:"feature_id"`
	Valid     bool   `json:"valid"`
	Feedback  string `json:"feedback"`
}

// Input is everything the features look at on a validation tick.
type Input struct {
	// FrameAvailable is false when the frame source had nothing to offer.
	FrameAvailable bool

	// Detected is the document outline found on the latest frame, or nil.
	Detected *geometry.Quad

	// Degenerate is set when an outline was found but its corners could not
	// be assigned.
	Degenerate bool

	// Guidance is the target frame; only meaningful when HasGuidance is set.
	Guidance    geometry.Quad
	HasGuidance bool

	// GlareRegions is the number of glare regions found on the last frame.
	GlareRegions int

	MarginPct float64
	Strategy  Strategy
}

// Evaluate runs the feature against in.
func (k Kind) Evaluate(in Input) DetectionResult {
	r := DetectionResult{FeatureID: k.ID()}
	if !in.FrameAvailable {
		r.Feedback = MsgVideoNotDetected
		return r
	}

	switch k {
	case KindContour:
		r.Valid = in.Detected != nil
		r.Feedback = MsgPositionDocument
		if r.Valid {
			r.Feedback = MsgContourDetected
		}

	case KindPosition:
		if in.Degenerate {
			r.Feedback = MsgProblem
			return r
		}
		if in.Detected == nil || !in.HasGuidance {
			r.Feedback = MsgPositionDocument
			return r
		}
		d := Align(*in.Detected, in.Guidance, in.Strategy, in.MarginPct)
		r.Valid = d == DirectionNone
		r.Feedback = d.Feedback()

	case KindGlare:
		r.Valid = in.GlareRegions == 0
		r.Feedback = MsgGlareDetected
		if r.Valid {
			r.Feedback = MsgNoGlare
		}

	default:
		r.Feedback = MsgProblem
	}
	return r
}

// EvaluateAll runs every feature in order.
func EvaluateAll(kinds []Kind, in Input) []DetectionResult {
	results := make([]DetectionResult, len(kinds))
	for i, k := range kinds {
		results[i] = k.Evaluate(in)
	}
	return results
}
