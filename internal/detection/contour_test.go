package detection

import (
	"image"
	"reflect"
	"testing"
)

func TestExternalContours_FilledRectangle(t *testing.T) {
	img := newGray(20, 12, 0)
	fillRect(img, 2, 2, 11, 7, 255)

	contours := ExternalContours(img)
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}

	want := Contour{{X: 2, Y: 2}, {X: 11, Y: 2}, {X: 11, Y: 7}, {X: 2, Y: 7}}
	if !reflect.DeepEqual(contours[0], want) {
		t.Errorf("contour = %v, want %v", contours[0], want)
	}
	if area := contours[0].Area(); area != 45 {
		t.Errorf("Area() = %v, want 45", area)
	}
}

func TestExternalContours_SkipsNestedRegions(t *testing.T) {
	img := newGray(20, 20, 0)
	outlineRect(img, 1, 1, 18, 18, 255)
	fillRect(img, 8, 8, 11, 11, 255)

	contours := ExternalContours(img)
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want only the outer ring", len(contours))
	}

	want := Contour{{X: 1, Y: 1}, {X: 18, Y: 1}, {X: 18, Y: 18}, {X: 1, Y: 18}}
	if !reflect.DeepEqual(contours[0], want) {
		t.Errorf("contour = %v, want %v", contours[0], want)
	}
}

func TestExternalContours_SeparateRegions(t *testing.T) {
	img := newGray(30, 10, 0)
	fillRect(img, 2, 2, 6, 6, 255)
	fillRect(img, 15, 3, 25, 7, 255)

	contours := ExternalContours(img)
	if len(contours) != 2 {
		t.Fatalf("got %d contours, want 2", len(contours))
	}
	if contours[0][0] != (image.Point{X: 2, Y: 2}) || contours[1][0] != (image.Point{X: 15, Y: 3}) {
		t.Errorf("unexpected contour starts: %v, %v", contours[0][0], contours[1][0])
	}
}

func TestExternalContours_TouchingBorder(t *testing.T) {
	img := newGray(10, 10, 0)
	fillRect(img, 0, 0, 4, 9, 255)

	contours := ExternalContours(img)
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}
	want := Contour{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 9}, {X: 0, Y: 9}}
	if !reflect.DeepEqual(contours[0], want) {
		t.Errorf("contour = %v, want %v", contours[0], want)
	}
}

func TestExternalContours_SinglePixelAndLine(t *testing.T) {
	img := newGray(10, 10, 0)
	img.Pix[5*img.Stride+5] = 255

	contours := ExternalContours(img)
	if len(contours) != 1 || len(contours[0]) != 1 || contours[0][0] != (image.Point{X: 5, Y: 5}) {
		t.Errorf("single pixel contours = %v", contours)
	}

	line := newGray(10, 10, 0)
	fillRect(line, 2, 4, 7, 4, 255)
	contours = ExternalContours(line)
	want := Contour{{X: 2, Y: 4}, {X: 7, Y: 4}}
	if len(contours) != 1 || !reflect.DeepEqual(contours[0], want) {
		t.Errorf("line contours = %v, want [%v]", contours, want)
	}
}

func TestExternalContours_Empty(t *testing.T) {
	if got := ExternalContours(newGray(10, 10, 0)); len(got) != 0 {
		t.Errorf("got %d contours on an empty image", len(got))
	}
	if got := ExternalContours(image.NewGray(image.Rect(0, 0, 0, 0))); len(got) != 0 {
		t.Errorf("got %d contours on a zero-sized image", len(got))
	}
}
