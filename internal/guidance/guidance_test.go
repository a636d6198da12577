package guidance

import (
	"testing"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
)

func TestFrame_Handheld(t *testing.T) {
	cfg := DefaultConfig()

	q, err := Frame(800, 600, cfg)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	want := geometry.RectQuad(100, 75, 700, 525)
	if q != want {
		t.Errorf("guidance quad: got %v, want %v", q, want)
	}
}

func TestFrame_FixedCamera(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Offset = OffsetFixedCamera

	q, err := Frame(800, 600, cfg)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	// 600px box, quarter offset: 150px either side of the center.
	want := geometry.RectQuad(250, 75, 550, 525)
	if q != want {
		t.Errorf("guidance quad: got %v, want %v", q, want)
	}
}

func TestFrame_Rounding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameWidthPct = 33
	cfg.FrameHeightPct = 33

	q, err := Frame(101, 51, cfg)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	// round(33.33)=33, round(16.83)=17
	if got := q[geometry.TopRight].X - q[geometry.TopLeft].X; got != 33 {
		t.Errorf("box width: got %v, want 33", got)
	}
	if got := q[geometry.BottomLeft].Y - q[geometry.TopLeft].Y; got != 17 {
		t.Errorf("box height: got %v, want 17", got)
	}
}

func TestFrame_Idempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameWidthPct = 61.7
	cfg.FrameHeightPct = 43.1

	first, err := Frame(1279, 719, cfg)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := Frame(1279, 719, cfg)
		if again != first {
			t.Fatalf("call %d: got %v, want %v", i, again, first)
		}
	}
}

func TestFrame_CanonicalOrder(t *testing.T) {
	q, err := Frame(640, 480, DefaultConfig())
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	tl, tr, br, bl := q[geometry.TopLeft], q[geometry.TopRight], q[geometry.BottomRight], q[geometry.BottomLeft]
	if !(tl.X < tr.X && tl.Y == tr.Y && br.X == tr.X && br.Y > tr.Y && bl.X == tl.X && bl.Y == br.Y) {
		t.Errorf("corners not in TL,TR,BR,BL order: %v", q)
	}
}

func TestFrame_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		cfg           Config
	}{
		{"zero width", 0, 600, DefaultConfig()},
		{"negative height", 800, -1, DefaultConfig()},
		{"zero percentage", 800, 600, Config{FrameWidthPct: 0, FrameHeightPct: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Frame(tt.width, tt.height, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseOffsetPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OffsetPolicy
		wantErr bool
	}{
		{"handheld", OffsetHandheld, false},
		{"", OffsetHandheld, false},
		{"FIXED", OffsetFixedCamera, false},
		{"desktop", OffsetFixedCamera, false},
		{"tripod", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOffsetPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
