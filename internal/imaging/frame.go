package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ErrDimensionMismatch is returned when a frame's pixel buffer does not match
// its declared dimensions and format.
var ErrDimensionMismatch = errors.New("frame buffer does not match dimensions")

// PixelFormat describes the layout of a raw frame buffer.
type PixelFormat int

const (
	// FormatRGBA is 4 bytes per pixel, R G B A.
	FormatRGBA PixelFormat = iota
	// FormatRGB is 3 bytes per pixel, R G B.
	FormatRGB
	// FormatGray is 1 byte per pixel.
	FormatGray
)

// Channels returns the number of bytes per pixel.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatRGB:
		return 3
	case FormatGray:
		return 1
	}
	return 4
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatRGB:
		return "rgb"
	case FormatGray:
		return "gray"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// Frame is a raw video frame as delivered by the acquisition collaborator.
// Rows are tightly packed: the stride is Width × Format.Channels().
type Frame struct {
	Width  int
	Height int
	Format PixelFormat
	Pix    []byte
}

// Validate checks that the buffer length matches Width × Height × channels.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensionMismatch, f.Width, f.Height)
	}
	want := f.Width * f.Height * f.Format.Channels()
	if len(f.Pix) != want {
		return fmt.Errorf("%w: %dx%d %s needs %d bytes, got %d",
			ErrDimensionMismatch, f.Width, f.Height, f.Format, want, len(f.Pix))
	}
	return nil
}

// Image wraps the frame buffer as an image.Image without copying.
func (f Frame) Image() image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch f.Format {
	case FormatGray:
		return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: rect}
	case FormatRGB:
		return &rgbImage{pix: f.Pix, rect: rect}
	}
	return &image.RGBA{Pix: f.Pix, Stride: f.Width * 4, Rect: rect}
}

// FrameFromImage copies img into an RGBA frame.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: FormatRGBA,
		Pix:    rgba.Pix,
	}
}

// rgbImage adapts a packed 3-channel buffer to image.Image.
type rgbImage struct {
	pix  []byte
	rect image.Rectangle
}

func (m *rgbImage) ColorModel() color.Model { return color.RGBAModel }

func (m *rgbImage) Bounds() image.Rectangle { return m.rect }

func (m *rgbImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.rect)) {
		return color.RGBA{}
	}
	i := (y*m.rect.Dx() + x) * 3
	return color.RGBA{R: m.pix[i], G: m.pix[i+1], B: m.pix[i+2], A: 255}
}
