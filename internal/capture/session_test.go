package capture

import (
	"errors"
	"fmt"
	"image"
	"math"
	"testing"
	"time"

	"github.com/ironsheep/doc-autocapture/internal/detection"
	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/guidance"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
	"github.com/ironsheep/doc-autocapture/internal/validation"
)

var guidance800x600 = geometry.RectQuad(100, 75, 700, 525)

func holdFor(d time.Duration) guidance.Config {
	cfg := guidance.DefaultConfig()
	cfg.HoldingTime = d
	return cfg
}

func startSession(t *testing.T, src FrameSource, l Listener, opts ...Option) (*Session, *Scheduler) {
	t.Helper()
	s, err := NewSession(src, l, opts...)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	sched := NewScheduler(at(0))
	if err := s.Start(sched); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return s, sched
}

func stepTo(sched *Scheduler, fromMs, toMs int) {
	for ms := fromMs; ms <= toMs; ms += 100 {
		sched.Step(at(ms))
	}
}

func TestSession_CapturesOnceAfterHold(t *testing.T) {
	rec := &recorder{}
	finder := &stubFinder{quad: guidance800x600, hits: -1}
	s, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(finder),
		WithGuidance(holdFor(500*time.Millisecond)),
	)

	stepTo(sched, 0, 600)

	if len(rec.captures) != 1 {
		t.Fatalf("captures = %d, want 1", len(rec.captures))
	}
	ev := rec.captures[0]
	if !ev.Time.Equal(at(600)) {
		t.Errorf("capture time = %s, want 600ms", ev.Time.Sub(epoch))
	}
	if ev.SessionID != s.ID() || ev.SessionID == "" {
		t.Errorf("SessionID = %q, want %q", ev.SessionID, s.ID())
	}
	if !ev.HasQuad || ev.Quad != guidance800x600 {
		t.Errorf("Quad = %v (has=%v), want %v", ev.Quad, ev.HasQuad, guidance800x600)
	}
	if ev.Snapshot == nil {
		t.Fatal("Snapshot is nil")
	}
	if b := ev.Snapshot.Bounds(); b.Dx() != 600 || b.Dy() != 450 {
		t.Errorf("Snapshot = %dx%d, want 600x450", b.Dx(), b.Dy())
	}

	wantFeedback := []string{MsgDefault, MsgHoldSteady, MsgSuccess}
	if len(rec.feedback) != len(wantFeedback) {
		t.Fatalf("feedback = %q, want %q", rec.feedback, wantFeedback)
	}
	for i := range wantFeedback {
		if rec.feedback[i] != wantFeedback[i] {
			t.Errorf("feedback[%d] = %q, want %q", i, rec.feedback[i], wantFeedback[i])
		}
	}

	g, ok := s.Guidance()
	if !ok || g != guidance800x600 {
		t.Errorf("Guidance = %v (%v), want %v", g, ok, guidance800x600)
	}
}

func TestSession_CooldownKeepsSuccessMessage(t *testing.T) {
	rec := &recorder{}
	_, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(&stubFinder{quad: guidance800x600, hits: -1}),
		WithGuidance(holdFor(500*time.Millisecond)),
	)

	stepTo(sched, 0, 2000)
	if len(rec.captures) != 1 {
		t.Errorf("captures during cooldown = %d, want 1", len(rec.captures))
	}
	if rec.lastFeedback() != MsgSuccess {
		t.Errorf("feedback during cooldown = %q, want %q", rec.lastFeedback(), MsgSuccess)
	}

	// Cooldown ends at 2100ms; the next hold runs 2200..2600.
	stepTo(sched, 2100, 2700)
	if len(rec.captures) != 2 {
		t.Errorf("captures after cooldown = %d, want 2", len(rec.captures))
	}
}

func TestSession_NoVideo(t *testing.T) {
	rec := &recorder{}
	_, sched := startSession(t, noVideo, rec)

	stepTo(sched, 100, 300)

	if len(rec.results) == 0 {
		t.Fatal("no detection results reported")
	}
	for _, r := range rec.results[len(rec.results)-1] {
		if r.Valid || r.Feedback != validation.MsgVideoNotDetected {
			t.Errorf("%s = %+v, want invalid with video-not-detected", r.FeatureID, r)
		}
	}
	if rec.lastFeedback() != MsgDefault {
		t.Errorf("feedback = %q, want %q", rec.lastFeedback(), MsgDefault)
	}
}

func TestSession_OffCenterAsksToMove(t *testing.T) {
	rec := &recorder{}
	_, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(&stubFinder{quad: shift(guidance800x600, -1, 0), hits: -1}),
	)

	stepTo(sched, 100, 100)

	if s := rec.lastFeedback(); s != validation.MoveRight.Feedback() {
		t.Errorf("feedback = %q, want %q", s, validation.MoveRight.Feedback())
	}
	if len(rec.captures) != 0 {
		t.Error("captured with document out of position")
	}
}

func TestSession_NoDetectionThreshold(t *testing.T) {
	rec := &recorder{}
	s, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(&stubFinder{quad: guidance800x600, hits: 1}),
		WithNoDetectionThreshold(2),
	)

	stepTo(sched, 100, 300)
	if s.Detected() == nil {
		t.Fatal("outline dropped before threshold was exceeded")
	}

	stepTo(sched, 400, 400)
	if s.Detected() != nil {
		t.Error("outline kept after threshold was exceeded")
	}
	if rec.lastFeedback() != MsgDefault {
		t.Errorf("feedback after reset = %q, want %q", rec.lastFeedback(), MsgDefault)
	}
	if s.Status() != StatusNone {
		t.Errorf("Status = %s, want none", s.Status())
	}
}

func TestSession_LostDocumentStopsHold(t *testing.T) {
	rec := &recorder{}
	s, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(&stubFinder{quad: guidance800x600, hits: 2}),
		WithGuidance(holdFor(500*time.Millisecond)),
	)

	stepTo(sched, 0, 300)
	if s.Status() != StatusNone {
		t.Errorf("Status after document left = %s, want none", s.Status())
	}
	if s.Detected() == nil {
		t.Error("outline dropped before threshold was exceeded")
	}

	stepTo(sched, 400, 1000)
	if len(rec.captures) != 0 {
		t.Errorf("captures = %d, want 0 once the document left the frame", len(rec.captures))
	}
	for _, msg := range rec.feedback {
		if msg == MsgSuccess {
			t.Error("success announced without a document in view")
		}
	}
}

func TestSession_FrameSizeChangeStopsCapture(t *testing.T) {
	calls := 0
	src := FrameSourceFunc(func() (imaging.Frame, bool) {
		calls++
		if calls <= 2 {
			return grayFrame(800, 600), true
		}
		return grayFrame(640, 480), true
	})

	rec := &recorder{}
	finder := &stubFinder{quad: guidance800x600, hits: -1}
	s, sched := startSession(t, src, rec,
		WithFinder(finder),
		WithGuidance(holdFor(500*time.Millisecond)),
		WithCooldown(0),
	)

	stepTo(sched, 0, 5000)

	if len(rec.captures) != 0 {
		t.Errorf("captures = %d, want 0 while every frame is skipped", len(rec.captures))
	}
	if finder.calls != 2 {
		t.Errorf("finder calls = %d, want 2", finder.calls)
	}
	if s.Status() != StatusNone {
		t.Errorf("Status = %s, want none", s.Status())
	}
	for _, r := range rec.results[len(rec.results)-1] {
		if r.Valid || r.Feedback != validation.MsgVideoNotDetected {
			t.Errorf("%s = %+v, want invalid with video-not-detected", r.FeatureID, r)
		}
	}
}

func TestSession_InvalidFrameIsNotValidated(t *testing.T) {
	calls := 0
	src := FrameSourceFunc(func() (imaging.Frame, bool) {
		calls++
		if calls == 1 {
			return grayFrame(800, 600), true
		}
		return imaging.Frame{Width: 800, Height: 600, Format: imaging.FormatGray}, true
	})

	rec := &recorder{}
	s, sched := startSession(t, src, rec,
		WithFinder(&stubFinder{quad: guidance800x600, hits: -1}),
		WithGuidance(holdFor(300*time.Millisecond)),
	)
	stepTo(sched, 0, 1000)

	if len(rec.captures) != 0 {
		t.Errorf("captures = %d, want 0", len(rec.captures))
	}
	if s.Status() != StatusNone {
		t.Errorf("Status = %s, want none", s.Status())
	}
}

// cornerlessFinder finds an outline whose corners cannot be assigned.
type cornerlessFinder struct{}

func (cornerlessFinder) Find(imaging.Frame, *imaging.Arena) (geometry.Quad, bool, error) {
	return geometry.Quad{}, false, fmt.Errorf("extract: %w", detection.ErrMissingCorner)
}

func TestSession_MissingCornerReportsProblem(t *testing.T) {
	rec := &recorder{}
	_, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(cornerlessFinder{}),
		WithFeatures(validation.KindPosition.ID()),
	)
	stepTo(sched, 100, 200)

	last := rec.results[len(rec.results)-1]
	if len(last) != 1 || last[0].Valid || last[0].Feedback != validation.MsgProblem {
		t.Errorf("results = %+v, want invalid position with %q", last, validation.MsgProblem)
	}
	if len(rec.captures) != 0 {
		t.Error("captured without corners")
	}
}

func TestSession_NativeFinderCapture(t *testing.T) {
	frame := grayFrame(800, 600)
	doc := image.Rect(120, 90, 680, 510)
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			if !image.Pt(x, y).In(doc) {
				frame.Pix[y*800+x] = 200
			}
		}
	}

	rec := &recorder{}
	_, sched := startSession(t, staticSource(frame), rec,
		WithGuidance(holdFor(500*time.Millisecond)),
	)
	stepTo(sched, 0, 800)

	if len(rec.captures) != 1 {
		t.Fatalf("captures = %d, want 1 (feedback %q)", len(rec.captures), rec.feedback)
	}
	ev := rec.captures[0]
	if !ev.Time.Equal(at(600)) {
		t.Errorf("capture time = %s, want 600ms", ev.Time.Sub(epoch))
	}
	want := geometry.RectQuad(120, 90, 680, 510)
	for i := range want {
		if math.Abs(ev.Quad[i].X-want[i].X) > 5 || math.Abs(ev.Quad[i].Y-want[i].Y) > 5 {
			t.Errorf("corner %s = %+v, want near %+v", geometry.Corner(i), ev.Quad[i], want[i])
		}
	}
	if ev.Snapshot == nil {
		t.Error("Snapshot is nil")
	}
}

func TestSession_UnknownFeature(t *testing.T) {
	_, err := NewSession(noVideo, nil, WithFeatures("contour", "sharpness"))
	if !errors.Is(err, validation.ErrUnknownFeature) {
		t.Errorf("err = %v, want ErrUnknownFeature", err)
	}
}

func TestSession_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero holding time", WithGuidance(holdFor(0))},
		{"nil finder", WithFinder(nil)},
		{"zero interval", WithIntervals(0, time.Second, time.Second)},
		{"negative cooldown", WithCooldown(-time.Second)},
		{"negative threshold", WithNoDetectionThreshold(-1)},
		{"empty id", WithID("")},
		{"nil logger", WithLogger(nil)},
		{"nil pool", WithBufferPool(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(noVideo, nil, tt.opt); err == nil {
				t.Error("NewSession succeeded, want error")
			}
		})
	}

	if _, err := NewSession(nil, nil); err == nil {
		t.Error("NewSession(nil source) succeeded, want error")
	}
}

func TestSession_CloseStopsCapture(t *testing.T) {
	rec := &recorder{}
	s, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(&stubFinder{quad: guidance800x600, hits: -1}),
		WithGuidance(holdFor(500*time.Millisecond)),
		WithID("session-under-test"),
	)

	stepTo(sched, 0, 400)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
	stepTo(sched, 500, 2000)

	if len(rec.captures) != 0 {
		t.Errorf("captures after Close = %d, want 0", len(rec.captures))
	}
	if sched.Len() != 0 {
		t.Errorf("scheduler still has %d tasks", sched.Len())
	}
	if err := s.Start(NewScheduler(at(0))); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Start after Close = %v, want ErrSessionClosed", err)
	}
	if s.ID() != "session-under-test" {
		t.Errorf("ID = %q", s.ID())
	}
}

func TestSession_GlareFeature(t *testing.T) {
	frame := grayFrame(800, 600)
	for y := 200; y < 300; y++ {
		for x := 300; x < 400; x++ {
			frame.Pix[y*800+x] = 255
		}
	}

	rec := &recorder{}
	_, sched := startSession(t, staticSource(frame), rec,
		WithFinder(&stubFinder{quad: guidance800x600, hits: -1}),
		WithFeatures(validation.KindContour.ID(), validation.KindGlare.ID()),
	)
	stepTo(sched, 100, 100)

	last := rec.results[len(rec.results)-1]
	if len(last) != 2 {
		t.Fatalf("results = %+v, want 2", last)
	}
	if last[1].Valid || last[1].Feedback != validation.MsgGlareDetected {
		t.Errorf("glare result = %+v, want invalid with glare message", last[1])
	}
	if rec.lastFeedback() != validation.MsgGlareDetected {
		t.Errorf("feedback = %q, want %q", rec.lastFeedback(), validation.MsgGlareDetected)
	}
}

func TestSession_DebugOverlay(t *testing.T) {
	cfg := guidance.DefaultConfig()
	cfg.Debug = true

	rec := &recorder{}
	_, sched := startSession(t, staticSource(grayFrame(800, 600)), rec,
		WithFinder(&stubFinder{quad: shift(guidance800x600, 5, 5), hits: -1}),
		WithGuidance(cfg),
	)
	stepTo(sched, 100, 200)

	if len(rec.overlays) != 2 {
		t.Fatalf("overlays = %d, want 2", len(rec.overlays))
	}
	ov := rec.overlays[0]
	if ov.Guidance != guidance800x600 {
		t.Errorf("overlay guidance = %v", ov.Guidance)
	}
	if ov.Detected == nil || *ov.Detected != shift(guidance800x600, 5, 5) {
		t.Errorf("overlay detected = %v", ov.Detected)
	}
}

func TestSession_StartTwice(t *testing.T) {
	s, _ := startSession(t, noVideo, nil)
	if err := s.Start(NewScheduler(at(0))); err == nil {
		t.Error("second Start succeeded, want error")
	}
}
