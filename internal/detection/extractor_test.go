package detection

import (
	"testing"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

func TestExtractor_Rectangle(t *testing.T) {
	edges := newGray(400, 300, 0)
	outlineRect(edges, 100, 75, 300, 225, 255)

	q, ok, err := NewExtractor(DefaultExtractorOptions()).Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !ok {
		t.Fatal("Extract found no document")
	}
	if want := geometry.RectQuad(100, 75, 300, 225); q != want {
		t.Errorf("quad = %v, want %v", q, want)
	}
}

func TestExtractor_LargestWins(t *testing.T) {
	edges := newGray(400, 300, 0)
	outlineRect(edges, 10, 10, 110, 110, 255)
	outlineRect(edges, 150, 50, 380, 280, 255)

	q, ok, err := NewExtractor(DefaultExtractorOptions()).Extract(edges)
	if err != nil || !ok {
		t.Fatalf("Extract = %v, %v", ok, err)
	}
	if want := geometry.RectQuad(150, 50, 380, 280); q != want {
		t.Errorf("quad = %v, want %v", q, want)
	}
}

func TestExtractor_MinimumArea(t *testing.T) {
	edges := newGray(400, 300, 0)
	// 80×80 = 6400px²: above the fixed default, below the frame policy's 7500.
	outlineRect(edges, 50, 50, 130, 130, 255)

	tests := []struct {
		name   string
		opts   ExtractorOptions
		wantOK bool
	}{
		{"fixed default", DefaultExtractorOptions(), true},
		{"fixed larger", ExtractorOptions{Policy: AreaFixed, MinArea: 10000}, false},
		{"frame", ExtractorOptions{Policy: AreaFrame}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := NewExtractor(tt.opts).Extract(edges)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("found = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestExtractor_RejectsNonQuads(t *testing.T) {
	edges := newGray(300, 300, 0)
	// Filled right triangle with legs along the axes.
	for y := 50; y <= 250; y++ {
		for x := 50; x <= 50+(y-50); x++ {
			edges.Pix[y*edges.Stride+x] = 255
		}
	}

	_, ok, err := NewExtractor(DefaultExtractorOptions()).Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ok {
		t.Error("a triangle should not be detected as a document")
	}
}

func TestExtractor_Empty(t *testing.T) {
	_, ok, err := NewExtractor(DefaultExtractorOptions()).Extract(newGray(100, 100, 0))
	if ok || err != nil {
		t.Errorf("Extract on empty edges = %v, %v", ok, err)
	}
}

func TestMinDetectableArea(t *testing.T) {
	frame := ExtractorOptions{Policy: AreaFrame}
	if got := frame.MinDetectableArea(800, 600); got != 30000 {
		t.Errorf("frame policy 800x600 = %v, want 30000", got)
	}
	if got := DefaultExtractorOptions().MinDetectableArea(800, 600); got != 5000 {
		t.Errorf("fixed policy = %v, want 5000", got)
	}
}

func TestParseAreaPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    AreaPolicy
		wantErr bool
	}{
		{"", AreaFixed, false},
		{"fixed", AreaFixed, false},
		{"Frame", AreaFrame, false},
		{"huge", AreaFixed, true},
	}
	for _, tt := range tests {
		got, err := ParseAreaPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAreaPolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
	if AreaFrame.String() != "frame" || AreaFixed.String() != "fixed" {
		t.Error("unexpected AreaPolicy strings")
	}
}
