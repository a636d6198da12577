//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
)

// BackendOpenCV runs detection through OpenCV. It is only registered in
// builds with the gocv tag.
const BackendOpenCV = "opencv"

func init() {
	RegisterBackend(BackendOpenCV, func(opts ExtractorOptions) (Finder, error) {
		return NewOpenCVFinder(opts), nil
	})
}

// OpenCVFinder mirrors the native pipeline with OpenCV primitives. The arena
// is unused; Mats are closed before Find returns.
type OpenCVFinder struct {
	opts ExtractorOptions
}

// NewOpenCVFinder creates an OpenCV-backed finder.
func NewOpenCVFinder(opts ExtractorOptions) *OpenCVFinder {
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilonPercent
	}
	return &OpenCVFinder{opts: opts}
}

// Find locates the largest four-sided outer contour in the frame.
func (o *OpenCVFinder) Find(f imaging.Frame, _ *imaging.Arena) (geometry.Quad, bool, error) {
	if err := f.Validate(); err != nil {
		return geometry.Quad{}, false, err
	}

	gray, err := toGrayMat(f)
	if err != nil {
		return geometry.Quad{}, false, err
	}
	defer gray.Close()

	k := imaging.BlurKernelSize(f.Height, f.Width)
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	mean := blurred.Mean().Val1
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges,
		float32(imaging.LowerThresholdScalar*mean), float32(imaging.UpperThresholdScalar*mean))

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: 5, Y: 5})
	defer kernel.Close()
	gocv.MorphologyEx(edges, &edges, gocv.MorphClose, kernel)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	maxArea := o.opts.MinDetectableArea(f.Width, f.Height)
	var largest []geometry.Point
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < maxArea {
			continue
		}
		approx := gocv.ApproxPolyDP(contour, o.opts.Epsilon*gocv.ArcLength(contour, true), true)
		if approx.Size() == 4 && area > maxArea {
			largest = toGeometryPoints(approx.ToPoints())
			maxArea = area
		}
		approx.Close()
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

func toGrayMat(f imaging.Frame) (gocv.Mat, error) {
	var (
		mt   gocv.MatType
		code gocv.ColorConversionCode
	)
	switch f.Format {
	case imaging.FormatGray:
		return gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC1, f.Pix)
	case imaging.FormatRGB:
		mt, code = gocv.MatTypeCV8UC3, gocv.ColorRGBToGray
	default:
		mt, code = gocv.MatTypeCV8UC4, gocv.ColorRGBAToGray
	}

	src, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrap frame: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, code)
	return gray, nil
}

func toGeometryPoints(pts []image.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = geometry.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}
