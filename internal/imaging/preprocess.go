package imaging

import (
	"image"

	"github.com/disintegration/gift"
)

// Canny threshold scalars applied to the mean intensity of the blurred frame.
const (
	LowerThresholdScalar = 0.66
	UpperThresholdScalar = 1.33
)

// closingKernelSize is the diameter of the elliptical structuring element
// used to bridge gaps in the document edge.
const closingKernelSize = 5

// BlurKernelSize returns the Gaussian kernel size for a rows×cols frame:
// max(3, floor(min(rows, cols)/100)), bumped to the next odd number.
func BlurKernelSize(rows, cols int) int {
	k := min(rows, cols) / 100
	if k < 3 {
		k = 3
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// blurSigma derives the Gaussian sigma from a kernel size the way OpenCV
// does when sigma is left at zero.
func blurSigma(ksize int) float32 {
	return float32(0.3*(float64(ksize-1)*0.5-1) + 0.8)
}

// Grayscale returns a single-channel view of the frame. Gray frames are
// wrapped without copying and must not be modified; color frames are
// converted into an arena buffer.
func Grayscale(f Frame, arena *Arena) (*image.Gray, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Format == FormatGray {
		return f.Image().(*image.Gray), nil
	}
	dst := arena.Gray(f.Width, f.Height)
	gift.New(gift.Grayscale()).Draw(dst, f.Image())
	return dst, nil
}

// MeanIntensity returns the mean pixel value of a grayscale image (0-255).
func MeanIntensity(img *image.Gray) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for _, v := range row {
			sum += uint64(v)
		}
	}
	return float64(sum) / float64(w*h)
}

// EdgeMap turns a grayscale image into a closed binary edge map of the same
// dimensions. Edge pixels are 255, everything else 0.
//
// # Pipeline
//
//  1. Gaussian blur with kernel BlurKernelSize(rows, cols)
//  2. Canny with thresholds 0.66·m and 1.33·m, where m is the mean
//     intensity of the blurred image
//  3. Morphological closing (dilate then erode) with a 5×5 disk
//
// All intermediate buffers come from arena. The input is not modified.
func EdgeMap(gray *image.Gray, arena *Arena) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	blurred := arena.Gray(w, h)
	sigma := blurSigma(BlurKernelSize(h, w))
	gift.New(gift.GaussianBlur(sigma)).Draw(blurred, gray)

	mean := MeanIntensity(blurred)
	edges := Canny(blurred, LowerThresholdScalar*mean, UpperThresholdScalar*mean, arena)

	closed := arena.Gray(w, h)
	gift.New(
		gift.Maximum(closingKernelSize, true),
		gift.Minimum(closingKernelSize, true),
	).Draw(closed, edges)

	return closed
}

// Preprocess converts a raw frame into a binary edge map suitable for
// contour extraction. The returned image is owned by arena.
func Preprocess(f Frame, arena *Arena) (*image.Gray, error) {
	gray, err := Grayscale(f, arena)
	if err != nil {
		return nil, err
	}
	return EdgeMap(gray, arena), nil
}
