// Package detection locates the document in a video frame.
//
// The native pipeline traces the outer contours of a binary edge map
// produced by imaging.Preprocess, drops those below the minimum detectable
// area, approximates each survivor with a polygon and keeps the largest one
// with exactly four vertices. Its corners are then assigned to TL, TR, BR
// and BL by quadrant around the contour's minimum-area rectangle.
//
// # Backends
//
// Finders are looked up by name through NewFinder. "native" is always
// registered; "opencv" is added by builds with the gocv tag and runs the
// same steps through OpenCV.
//
// # Glare
//
// GlareDetector reports saturated regions of a grayscale frame. It shares
// the contour tracer with document extraction.
//
// # Coordinate System
//
// Origin (0, 0) is the top-left pixel, X grows rightward and Y downward.
// Contour points are pixel centers.
package detection
