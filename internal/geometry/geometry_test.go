package geometry

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func TestSignedLineDistance(t *testing.T) {
	// Vertical line at x=100 running top to bottom.
	start, end := Pt(100, 50), Pt(100, 250)

	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"on line", Pt(100, 120), 0},
		{"larger x is positive", Pt(110, 120), 10},
		{"smaller x is negative", Pt(85, 120), -15},
		{"beyond segment end", Pt(130, 900), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignedLineDistance(tt.p, start, end)
			if err != nil {
				t.Fatalf("SignedLineDistance failed: %v", err)
			}
			if math.Abs(got-tt.want) > eps {
				t.Errorf("distance: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignedLineDistance_Degenerate(t *testing.T) {
	_, err := SignedLineDistance(Pt(1, 1), Pt(5, 5), Pt(5, 5))
	if !errors.Is(err, ErrDegenerateLine) {
		t.Errorf("expected ErrDegenerateLine, got %v", err)
	}

	// SegmentDistance falls back to point distance instead of failing.
	if got := SegmentDistance(Pt(8, 9), Pt(5, 5), Pt(5, 5)); math.Abs(got-5) > eps {
		t.Errorf("SegmentDistance: got %v, want 5", got)
	}
}

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want float64
	}{
		{"rectangle", RectQuad(0, 0, 10, 5).Points(), 50},
		{"reversed winding", []Point{{0, 0}, {0, 5}, {10, 5}, {10, 0}}, 50},
		{"triangle", []Point{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"too few points", []Point{{0, 0}, {4, 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolygonArea(tt.pts); math.Abs(got-tt.want) > eps {
				t.Errorf("area: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuad_BoundsAndWidth(t *testing.T) {
	q := Quad{{12, 10}, {88, 14}, {90, 70}, {10, 66}}

	b := q.Bounds()
	want := Bounds{MinX: 10, MinY: 10, MaxX: 90, MaxY: 70}
	if b != want {
		t.Errorf("Bounds: got %+v, want %+v", b, want)
	}
	if q.Width() != 76 {
		t.Errorf("Width: got %v, want 76", q.Width())
	}
}

func TestBoundsOf_Empty(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Error("expected ok=false for empty input")
	}
}

func TestPerimeter(t *testing.T) {
	pts := RectQuad(0, 0, 3, 4).Points()
	if got := Perimeter(pts, true); got != 14 {
		t.Errorf("closed perimeter: got %v, want 14", got)
	}
	if got := Perimeter(pts, false); got != 10 {
		t.Errorf("open perimeter: got %v, want 10", got)
	}
}

func TestPointInPolygon(t *testing.T) {
	poly := RectQuad(10, 10, 20, 20).Points()

	if !PointInPolygon(Pt(15, 15), poly) {
		t.Error("center should be inside")
	}
	if PointInPolygon(Pt(25, 15), poly) {
		t.Error("point right of polygon should be outside")
	}
	if PointInPolygon(Pt(15, 5), poly) {
		t.Error("point above polygon should be outside")
	}
}

func TestCornerString(t *testing.T) {
	if TopLeft.String() != "top-left" || BottomLeft.String() != "bottom-left" {
		t.Error("unexpected corner names")
	}
	if Corner(9).String() != "unknown" {
		t.Error("out of range corner should be unknown")
	}
}
