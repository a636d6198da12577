// Package validation compares a detected document against the guidance
// frame and turns the outcome of every active feature into a
// DetectionResult.
//
// Alignment runs one of two strategies (area ratio or per-edge signed
// distance) followed by a bounding-box containment check. The outcome is a
// Direction telling the user how to correct the document; DirectionNone
// means aligned.
package validation
