package detection

import (
	"image"
	"image/color"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
)

// newGray creates a width×height grayscale image filled with v.
func newGray(width, height int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// fillRect sets every pixel in [x1,x2]×[y1,y2] (inclusive) to v.
func fillRect(img *image.Gray, x1, y1, x2, y2 int, v uint8) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

// outlineRect draws a 1px rectangle outline with corners (x1,y1) and (x2,y2).
func outlineRect(img *image.Gray, x1, y1, x2, y2 int, v uint8) {
	fillRect(img, x1, y1, x2, y1, v)
	fillRect(img, x1, y2, x2, y2, v)
	fillRect(img, x1, y1, x1, y2, v)
	fillRect(img, x2, y1, x2, y2, v)
}

// documentFrame renders a black document [x1,x2)×[y1,y2) on a white page.
func documentFrame(width, height, x1, y1, x2, y2 int) imaging.Frame {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x >= x1 && x < x2 && y >= y1 && y < y2 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return imaging.FrameFromImage(img)
}

func nearPoint(a, b geometry.Point, tol float64) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx >= -tol && dx <= tol && dy >= -tol && dy <= tol
}

func pointSet(pts []geometry.Point) map[geometry.Point]bool {
	set := make(map[geometry.Point]bool, len(pts))
	for _, p := range pts {
		set[p] = true
	}
	return set
}
