package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/doc-autocapture/internal/detection"
	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/guidance"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
	"github.com/ironsheep/doc-autocapture/internal/logging"
	"github.com/ironsheep/doc-autocapture/internal/validation"
)

// ErrSessionClosed is returned when a closed session is started again.
var ErrSessionClosed = errors.New("capture session closed")

// Session defaults.
const (
	DefaultDetectInterval       = 100 * time.Millisecond
	DefaultValidateInterval     = 100 * time.Millisecond
	DefaultNoDetectionThreshold = 10
	DefaultSnapshotWidth        = 1024
)

// FrameSource supplies the most recent video frame. The returned frame must
// stay readable until the next call to Frame.
type FrameSource interface {
	Frame() (imaging.Frame, bool)
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func() (imaging.Frame, bool)

// Frame calls f.
func (f FrameSourceFunc) Frame() (imaging.Frame, bool) { return f() }

// Event describes a capture.
type Event struct {
	SessionID string    `json:"session_id"`
	Time      time.Time `json:"time"`

	// Quad is the document outline at capture time; HasQuad is false when no
	// document was detected (only possible without the contour feature).
	Quad    geometry.Quad `json:"quad"`
	HasQuad bool          `json:"has_quad"`

	// Snapshot is the frame cropped to Quad, or nil.
	Snapshot *image.NRGBA `json:"-"`
}

// Listener receives session output. All methods are called from the
// scheduler goroutine.
type Listener interface {
	OnFeedback(text string)
	OnDetectionResults(results []validation.DetectionResult)
	OnCapture(ev Event)
	OnOverlay(ov imaging.Overlay)
}

// ListenerFuncs implements Listener with optional callbacks.
type ListenerFuncs struct {
	Feedback         func(text string)
	DetectionResults func(results []validation.DetectionResult)
	Capture          func(ev Event)
	Overlay          func(ov imaging.Overlay)
}

func (l ListenerFuncs) OnFeedback(text string) {
	if l.Feedback != nil {
		l.Feedback(text)
	}
}

func (l ListenerFuncs) OnDetectionResults(results []validation.DetectionResult) {
	if l.DetectionResults != nil {
		l.DetectionResults(results)
	}
}

func (l ListenerFuncs) OnCapture(ev Event) {
	if l.Capture != nil {
		l.Capture(ev)
	}
}

func (l ListenerFuncs) OnOverlay(ov imaging.Overlay) {
	if l.Overlay != nil {
		l.Overlay(ov)
	}
}

// Option configures a Session.
type Option func(*Session) error

// WithGuidance sets the guidance configuration.
func WithGuidance(cfg guidance.Config) Option {
	return func(s *Session) error {
		if cfg.HoldingTime <= 0 {
			return fmt.Errorf("holding time must be positive, got %s", cfg.HoldingTime)
		}
		s.guidanceCfg = cfg
		return nil
	}
}

// WithFeatures selects the active features by id, in evaluation order.
func WithFeatures(ids ...string) Option {
	return func(s *Session) error {
		kinds, err := validation.ParseKinds(ids)
		if err != nil {
			return err
		}
		s.kinds = kinds
		return nil
	}
}

// WithStrategy sets the alignment strategy for the position feature.
func WithStrategy(strategy validation.Strategy) Option {
	return func(s *Session) error {
		s.strategy = strategy
		return nil
	}
}

// WithFinder sets the document finder.
func WithFinder(f detection.Finder) Option {
	return func(s *Session) error {
		if f == nil {
			return errors.New("finder is nil")
		}
		s.finder = f
		return nil
	}
}

// WithGlareDetector sets the glare detector used by the glare feature.
func WithGlareDetector(d detection.GlareDetector) Option {
	return func(s *Session) error {
		s.glare = d
		return nil
	}
}

// WithIntervals sets the detection, validation and hold tick periods.
func WithIntervals(detect, validate, hold time.Duration) Option {
	return func(s *Session) error {
		if detect <= 0 || validate <= 0 || hold <= 0 {
			return fmt.Errorf("intervals must be positive: detect=%s validate=%s hold=%s", detect, validate, hold)
		}
		s.detectInterval = detect
		s.validateInterval = validate
		s.holdTick = hold
		return nil
	}
}

// WithCooldown sets how long after a capture the hold timer stays off.
func WithCooldown(d time.Duration) Option {
	return func(s *Session) error {
		if d < 0 {
			return fmt.Errorf("cooldown must not be negative, got %s", d)
		}
		s.cooldown = d
		return nil
	}
}

// WithNoDetectionThreshold sets how many consecutive detection misses are
// tolerated before the last detected outline is discarded.
func WithNoDetectionThreshold(n int) Option {
	return func(s *Session) error {
		if n < 0 {
			return fmt.Errorf("no-detection threshold must not be negative, got %d", n)
		}
		s.noDetectionThreshold = n
		return nil
	}
}

// WithSnapshotWidth caps the width of capture snapshots; 0 keeps full size.
func WithSnapshotWidth(w int) Option {
	return func(s *Session) error {
		s.snapshotWidth = w
		return nil
	}
}

// WithBufferPool shares a buffer pool between sessions.
func WithBufferPool(p *imaging.BufferPool) Option {
	return func(s *Session) error {
		if p == nil {
			return errors.New("buffer pool is nil")
		}
		s.pool = p
		return nil
	}
}

// WithLogger sets the logger. The session id is attached to every entry.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		s.baseLog = l
		return nil
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) error {
		if id == "" {
			return errors.New("session id is empty")
		}
		s.id = id
		return nil
	}
}

// Session runs the detection, validation and hold loops for one capture
// screen.
type Session struct {
	id       string
	source   FrameSource
	listener Listener
	baseLog  logrus.FieldLogger
	log      logrus.FieldLogger

	guidanceCfg          guidance.Config
	kinds                []validation.Kind
	strategy             validation.Strategy
	finder               detection.Finder
	glare                detection.GlareDetector
	pool                 *imaging.BufferPool
	detectInterval       time.Duration
	validateInterval     time.Duration
	holdTick             time.Duration
	cooldown             time.Duration
	noDetectionThreshold int
	snapshotWidth        int

	sm       *StateMachine
	announce announcer

	taskMu       sync.Mutex
	sched        *Scheduler
	detectTask   *Task
	validateTask *Task
	holdTask     *Task

	frameAvailable bool
	lastFrame      imaging.Frame
	width, height  int
	guidanceQuad   geometry.Quad
	hasGuidance    bool
	detected       *geometry.Quad
	current        *geometry.Quad
	degenerate     bool
	misses         int
	glareRegions   []detection.GlareRegion
	captures       int

	started atomic.Bool
	closed  atomic.Bool
}

// NewSession creates a session reading frames from src and reporting to l.
// By default the contour and position features are active, the native
// finder is used and the guidance configuration is guidance.DefaultConfig.
func NewSession(src FrameSource, l Listener, opts ...Option) (*Session, error) {
	if src == nil {
		return nil, errors.New("frame source is nil")
	}
	if l == nil {
		l = ListenerFuncs{}
	}
	s := &Session{
		id:                   uuid.NewString(),
		source:               src,
		listener:             l,
		baseLog:              logging.Discard(),
		guidanceCfg:          guidance.DefaultConfig(),
		kinds:                []validation.Kind{validation.KindContour, validation.KindPosition},
		strategy:             validation.StrategyArea,
		glare:                detection.DefaultGlareDetector(),
		pool:                 imaging.NewBufferPool(),
		detectInterval:       DefaultDetectInterval,
		validateInterval:     DefaultValidateInterval,
		holdTick:             DefaultHoldTick,
		cooldown:             DefaultCooldown,
		noDetectionThreshold: DefaultNoDetectionThreshold,
		snapshotWidth:        DefaultSnapshotWidth,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.finder == nil {
		s.finder = detection.NewNativeFinder(detection.DefaultExtractorOptions())
	}
	s.log = logging.WithSession(s.baseLog, s.id)
	s.sm = NewStateMachine(s.guidanceCfg.HoldingTime, s.holdTick, s.cooldown)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Start registers the session's tasks with sched and announces the default
// message. A session can be started once.
func (s *Session) Start(sched *Scheduler) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("capture session already started")
	}
	s.say(MsgDefault)
	s.taskMu.Lock()
	s.sched = sched
	s.detectTask = sched.Every("detect", s.detectInterval, s.detectTick)
	s.validateTask = sched.Every("validate", s.validateInterval, s.validateTick)
	s.taskMu.Unlock()

	s.log.WithFields(logrus.Fields{
		"features": s.kinds,
		"strategy": s.strategy.String(),
		"holding":  s.guidanceCfg.HoldingTime,
	}).Info("Capture session started")
	return nil
}

// Close stops every task. No capture is emitted after Close returns.
// Close is idempotent.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.taskMu.Lock()
	s.detectTask.Cancel()
	s.validateTask.Cancel()
	s.holdTask.Cancel()
	s.taskMu.Unlock()
	s.log.WithField("captures", s.captures).Info("Capture session closed")
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed.Load() }

// Guidance returns the guidance quadrilateral once the first frame has been
// seen.
func (s *Session) Guidance() (geometry.Quad, bool) { return s.guidanceQuad, s.hasGuidance }

// Detected returns the last detected outline, or nil once more than the
// no-detection threshold of consecutive misses have passed.
func (s *Session) Detected() *geometry.Quad { return s.detected }

// Status returns the aggregate status of the last validation tick.
func (s *Session) Status() Status { return s.sm.Status() }

// Captures returns the number of captures emitted so far.
func (s *Session) Captures() int { return s.captures }

func (s *Session) say(msg string) {
	s.announce.announce(msg, s.listener.OnFeedback)
}

func (s *Session) hasKind(k validation.Kind) bool {
	for _, have := range s.kinds {
		if have == k {
			return true
		}
	}
	return false
}

// detectTick grabs a frame and updates the detected outline and glare.
//
// current holds this tick's detection and is what validation sees. detected
// lingers for up to noDetectionThreshold misses and only feeds the overlay
// and the default-message reset.
func (s *Session) detectTick(now time.Time) {
	if s.closed.Load() {
		return
	}
	frame, ok := s.source.Frame()
	if !ok {
		s.dropFrame()
		return
	}
	if err := frame.Validate(); err != nil {
		s.log.WithError(err).Warn("Skipping invalid frame")
		s.dropFrame()
		return
	}

	if !s.hasGuidance {
		q, err := guidance.Frame(frame.Width, frame.Height, s.guidanceCfg)
		if err != nil {
			s.log.WithError(err).Warn("Cannot compute guidance frame")
			s.dropFrame()
			return
		}
		s.guidanceQuad, s.hasGuidance = q, true
		s.width, s.height = frame.Width, frame.Height
		s.log.WithFields(logrus.Fields{
			"width":  frame.Width,
			"height": frame.Height,
		}).Debug("Guidance frame computed")
	} else if frame.Width != s.width || frame.Height != s.height {
		s.log.WithFields(logrus.Fields{
			"expected": fmt.Sprintf("%dx%d", s.width, s.height),
			"got":      fmt.Sprintf("%dx%d", frame.Width, frame.Height),
		}).Warn("Frame dimensions changed, skipping tick")
		s.dropFrame()
		return
	}

	s.frameAvailable = true
	s.lastFrame = frame

	arena := s.pool.NewArena()
	defer arena.Release()

	quad, found, err := s.finder.Find(frame, arena)
	s.degenerate = false
	if err != nil {
		if errors.Is(err, detection.ErrMissingCorner) {
			s.degenerate = true
		}
		s.log.WithError(err).Debug("Document detection failed")
		found = false
	}
	if found {
		s.current = &quad
		s.detected = &quad
		s.misses = 0
	} else {
		s.current = nil
		s.misses++
		if s.misses > s.noDetectionThreshold {
			s.misses = 0
			if s.detected != nil {
				s.detected = nil
				s.say(MsgDefault)
			}
		}
	}

	s.glareRegions = nil
	if s.hasKind(validation.KindGlare) {
		gray, err := imaging.Grayscale(frame, arena)
		if err != nil {
			s.log.WithError(err).Debug("Glare detection failed")
		} else {
			s.glareRegions = s.glare.Detect(gray)
		}
	}

	if s.guidanceCfg.Debug {
		s.listener.OnOverlay(s.overlay())
	}
}

// dropFrame marks the tick as having no usable frame. Nothing from earlier
// frames is validated until a usable one arrives.
func (s *Session) dropFrame() {
	s.frameAvailable = false
	s.current = nil
	s.degenerate = false
	s.glareRegions = nil
}

func (s *Session) overlay() imaging.Overlay {
	ov := imaging.Overlay{Guidance: s.guidanceQuad}
	if s.detected != nil {
		q := *s.detected
		ov.Detected = &q
	}
	for _, r := range s.glareRegions {
		ov.Glare = append(ov.Glare, r.Outline)
	}
	return ov
}

// validateTick evaluates the features and advances the state machine.
func (s *Session) validateTick(now time.Time) {
	if s.closed.Load() {
		return
	}
	results := validation.EvaluateAll(s.kinds, validation.Input{
		FrameAvailable: s.frameAvailable,
		Detected:       s.current,
		Degenerate:     s.degenerate,
		Guidance:       s.guidanceQuad,
		HasGuidance:    s.hasGuidance,
		GlareRegions:   len(s.glareRegions),
		MarginPct:      s.guidanceCfg.SideMarginPct,
		Strategy:       s.strategy,
	})
	s.listener.OnDetectionResults(results)

	tr := s.sm.Update(now, results)
	s.say(tr.Feedback)
	if tr.StartHold {
		s.taskMu.Lock()
		s.holdTask = s.sched.Every("hold", s.holdTick, s.holdTickFn)
		s.taskMu.Unlock()
		s.log.Debug("Hold timer started")
	}
}

// holdTickFn advances the hold timer and emits the capture.
func (s *Session) holdTickFn(now time.Time) {
	if s.closed.Load() {
		return
	}
	tr := s.sm.Tick(now)
	s.say(tr.Feedback)
	if tr.StopHold {
		s.taskMu.Lock()
		s.holdTask.Cancel()
		s.holdTask = nil
		s.taskMu.Unlock()
	}
	if tr.Capture {
		s.emitCapture(now)
	} else if tr.StopHold {
		s.log.Debug("Hold timer interrupted")
	}
}

func (s *Session) emitCapture(now time.Time) {
	if s.closed.Load() {
		return
	}
	ev := Event{SessionID: s.id, Time: now}
	if s.current != nil {
		ev.Quad, ev.HasQuad = *s.current, true
		snap, err := imaging.CropQuad(s.lastFrame.Image(), ev.Quad, s.snapshotWidth)
		if err != nil {
			s.log.WithError(err).Warn("Cannot crop capture snapshot")
		} else {
			ev.Snapshot = snap
		}
	}
	s.captures++
	s.log.WithField("time", now.Format(time.RFC3339Nano)).Info("Document captured")
	s.listener.OnCapture(ev)
}
