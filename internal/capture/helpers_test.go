package capture

import (
	"time"

	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
	"github.com/ironsheep/doc-autocapture/internal/validation"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// grayFrame returns a blank w×h grayscale frame.
func grayFrame(w, h int) imaging.Frame {
	return imaging.Frame{Width: w, Height: h, Format: imaging.FormatGray, Pix: make([]byte, w*h)}
}

// staticSource always returns the same frame.
func staticSource(f imaging.Frame) FrameSource {
	return FrameSourceFunc(func() (imaging.Frame, bool) { return f, true })
}

// noVideo never has a frame.
var noVideo = FrameSourceFunc(func() (imaging.Frame, bool) { return imaging.Frame{}, false })

// stubFinder reports a fixed quad for the first hits calls (all calls when
// hits is negative).
type stubFinder struct {
	quad  geometry.Quad
	hits  int
	calls int
}

func (f *stubFinder) Find(imaging.Frame, *imaging.Arena) (geometry.Quad, bool, error) {
	f.calls++
	if f.hits >= 0 && f.calls > f.hits {
		return geometry.Quad{}, false, nil
	}
	return f.quad, true, nil
}

// shift returns q moved by (dx, dy).
func shift(q geometry.Quad, dx, dy float64) geometry.Quad {
	for i := range q {
		q[i].X += dx
		q[i].Y += dy
	}
	return q
}

// recorder collects everything a session reports.
type recorder struct {
	feedback []string
	results  [][]validation.DetectionResult
	captures []Event
	overlays []imaging.Overlay
}

func (r *recorder) OnFeedback(text string) { r.feedback = append(r.feedback, text) }

func (r *recorder) OnDetectionResults(results []validation.DetectionResult) {
	r.results = append(r.results, results)
}

func (r *recorder) OnCapture(ev Event) { r.captures = append(r.captures, ev) }

func (r *recorder) OnOverlay(ov imaging.Overlay) { r.overlays = append(r.overlays, ov) }

func (r *recorder) lastFeedback() string {
	if len(r.feedback) == 0 {
		return ""
	}
	return r.feedback[len(r.feedback)-1]
}

func results(valid ...bool) []validation.DetectionResult {
	out := make([]validation.DetectionResult, len(valid))
	for i, v := range valid {
		out[i] = validation.DetectionResult{FeatureID: "f", Valid: v, Feedback: "invalid"}
		if v {
			out[i].Feedback = "ok"
		}
	}
	return out
}
