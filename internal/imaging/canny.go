package imaging

import (
	"image"
	"math"
)

// Canny performs Canny edge detection on an already-smoothed grayscale image.
//
// Parameters:
//   - src: Grayscale input (0-255). Not modified.
//   - low: Gradient magnitudes at or below this are never edges.
//   - high: Gradient magnitudes above this are always edges.
//   - arena: Scratch and output buffers are drawn from it.
//
// Returns a binary image where edges are 255 and everything else is 0.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y, magnitude as the
//     L1 norm |Gx| + |Gy| (the OpenCV default), so thresholds share its scale
//
//  2. Non-maximum suppression: keep a pixel only if it is a local maximum
//     along its gradient direction, quantized to 0°, 45°, 90° or 135°
//
//  3. Hysteresis: pixels above high seed edges; pixels above low are kept
//     only when 8-connected to a seed
//
// Border pixels are never edges.
func Canny(src *image.Gray, low, high float64, arena *Arena) *image.Gray {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	result := arena.Gray(width, height)
	if width < 3 || height < 3 {
		return result
	}

	at := func(x, y int) float32 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float32(src.Pix[y*src.Stride+x])
	}

	magnitude := arena.Floats(width * height)
	// Quantized direction per pixel: 0=horizontal, 1=45°, 2=vertical, 3=135°.
	sector := arena.Gray(width, height).Pix

	tan22 := math.Tan(math.Pi / 8)
	tan67 := math.Tan(3 * math.Pi / 8)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)

			i := y*width + x
			magnitude[i] = abs32(gx) + abs32(gy)

			ax, ay := math.Abs(float64(gx)), math.Abs(float64(gy))
			switch {
			case ay <= ax*tan22:
				sector[i] = 0
			case ay >= ax*tan67:
				sector[i] = 2
			case (gx > 0) == (gy > 0):
				sector[i] = 1
			default:
				sector[i] = 3
			}
		}
	}

	// Non-maximum suppression, keeping candidates above the low threshold.
	lowT, highT := float32(low), float32(high)
	candidate := arena.Gray(width, height).Pix
	stack := make([]int, 0, 256)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= lowT {
				continue
			}

			var n1, n2 float32
			switch sector[i] {
			case 0:
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case 1:
				// Gradient points down-right (Y grows downward).
				n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
			case 2:
				n1, n2 = magnitude[i-width], magnitude[i+width]
			default:
				n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				candidate[i] = 1
				if mag > highT {
					result.Pix[y*result.Stride+x] = 255
					stack = append(stack, i)
				}
			}
		}
	}

	// Edge tracking by hysteresis.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 1 || ny < 1 || nx >= width-1 || ny >= height-1 {
					continue
				}
				j := ny*width + nx
				if candidate[j] == 1 && result.Pix[ny*result.Stride+nx] == 0 {
					result.Pix[ny*result.Stride+nx] = 255
					stack = append(stack, j)
				}
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
