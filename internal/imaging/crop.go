package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

// SnapshotResult contains an encoded document snapshot.
type SnapshotResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropQuad extracts the axis-aligned bounding box of q from img, clipped to
// the image bounds. When maxWidth is positive and the crop is wider, it is
// downscaled with Lanczos resampling, preserving aspect ratio.
func CropQuad(img image.Image, q geometry.Quad, maxWidth int) (*image.NRGBA, error) {
	b := q.Bounds()
	rect := image.Rect(
		int(math.Floor(b.MinX)), int(math.Floor(b.MinY)),
		int(math.Ceil(b.MaxX)), int(math.Ceil(b.MaxY)),
	).Intersect(img.Bounds())

	if rect.Empty() {
		return nil, fmt.Errorf("crop region (%.0f,%.0f)-(%.0f,%.0f) outside image bounds %v",
			b.MinX, b.MinY, b.MaxX, b.MaxY, img.Bounds())
	}

	cropped := imaging.Crop(img, rect)
	if maxWidth > 0 && cropped.Bounds().Dx() > maxWidth {
		cropped = imaging.Resize(cropped, maxWidth, 0, imaging.Lanczos)
	}
	return cropped, nil
}

// EncodeSnapshot encodes a cropped document as a PNG snapshot.
func EncodeSnapshot(img image.Image) (*SnapshotResult, error) {
	encoded, err := EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &SnapshotResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
