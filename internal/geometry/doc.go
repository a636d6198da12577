// Package geometry provides the planar primitives shared by the detection,
// guidance and validation packages.
//
// # Coordinate System
//
// Coordinates follow the image convention used throughout the module:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Coordinates are float64 so that guidance frames derived from percentages
// and rotated-rectangle centers keep sub-pixel precision.
//
// # Quadrilaterals
//
// A Quad always holds its corners in canonical order: top-left, top-right,
// bottom-right, bottom-left. Functions that may fail to produce a complete
// quadrilateral report that with a boolean or an error instead of returning a
// partially filled Quad.
package geometry
