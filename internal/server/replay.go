package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/doc-autocapture/internal/capture"
	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
)

// maxReplayPasses bounds duration_ms to this many passes over the frames,
// plus one holding time.
const maxReplayPasses = 20

// maxFrameMs bounds frame_ms and holding_ms.
const maxFrameMs = 60_000

// replayEpoch anchors the simulated clock.
var replayEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// timedSource shows each frame for a fixed slice of simulated time.
type timedSource struct {
	cache *imaging.FrameCache
	sched *capture.Scheduler
	paths []string
	frame time.Duration
	loop  bool
	last  string
}

func (t *timedSource) Frame() (imaging.Frame, bool) {
	idx := int(t.sched.Now().Sub(replayEpoch) / t.frame)
	if idx >= len(t.paths) {
		if t.loop {
			idx %= len(t.paths)
		} else {
			idx = len(t.paths) - 1
		}
	}
	t.last = t.paths[idx]
	f, err := t.cache.Load(t.last)
	if err != nil {
		return imaging.Frame{}, false
	}
	return f, true
}

type feedbackEntry struct {
	TimeMs  int64  `json:"time_ms"`
	Message string `json:"message"`
}

type captureEntry struct {
	TimeMs   int64                   `json:"time_ms"`
	Frame    string                  `json:"frame"`
	Corners  *geometry.Quad          `json:"corners,omitempty"`
	Snapshot *imaging.SnapshotResult `json:"snapshot,omitempty"`
}

type replayResult struct {
	SessionID   string          `json:"session_id"`
	Frames      int             `json:"frames"`
	DurationMs  int64           `json:"duration_ms"`
	Feedback    []feedbackEntry `json:"feedback"`
	Captures    []captureEntry  `json:"captures"`
	FinalStatus string          `json:"final_status"`
}

type autocaptureReplayArgs struct {
	Paths           []string `json:"paths"`
	HoldingMs       int64    `json:"holding_ms"`
	FrameMs         int64    `json:"frame_ms"`
	DurationMs      int64    `json:"duration_ms"`
	Features        []string `json:"features"`
	Loop            bool     `json:"loop"`
	IncludeSnapshot bool     `json:"include_snapshot"`
}

func (s *Server) handleAutocaptureReplay(args json.RawMessage) (interface{}, error) {
	var a autocaptureReplayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	paths, err := resolvePaths(a.Paths)
	if err != nil {
		return nil, err
	}

	cfg := *s.cfg
	if a.HoldingMs > maxFrameMs {
		return nil, fmt.Errorf("holding_ms %d exceeds limit of %d", a.HoldingMs, maxFrameMs)
	}
	if a.HoldingMs > 0 {
		cfg.Guidance.HoldingTime = time.Duration(a.HoldingMs) * time.Millisecond
	}
	if len(a.Features) > 0 {
		cfg.Features = a.Features
	}
	frameDur := cfg.DetectInterval
	if a.FrameMs > maxFrameMs {
		return nil, fmt.Errorf("frame_ms %d exceeds limit of %d", a.FrameMs, maxFrameMs)
	}
	if a.FrameMs > 0 {
		frameDur = time.Duration(a.FrameMs) * time.Millisecond
	}
	pass := time.Duration(len(paths)) * frameDur
	duration := pass + cfg.Guidance.HoldingTime
	if a.DurationMs > 0 {
		limit := maxReplayPasses*pass + cfg.Guidance.HoldingTime
		if a.DurationMs > limit.Milliseconds() {
			return nil, fmt.Errorf("duration_ms %d exceeds limit of %d for %d frames",
				a.DurationMs, limit.Milliseconds(), len(paths))
		}
		duration = time.Duration(a.DurationMs) * time.Millisecond
	}

	opts, err := cfg.SessionOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, capture.WithLogger(s.log), capture.WithBufferPool(s.pool))

	sched := capture.NewScheduler(replayEpoch)
	src := &timedSource{cache: s.cache, sched: sched, paths: paths, frame: frameDur, loop: a.Loop}
	result := &replayResult{Frames: len(paths), DurationMs: duration.Milliseconds()}
	elapsed := func() int64 { return sched.Now().Sub(replayEpoch).Milliseconds() }

	var snapErr error
	listener := capture.ListenerFuncs{
		Feedback: func(text string) {
			result.Feedback = append(result.Feedback, feedbackEntry{TimeMs: elapsed(), Message: text})
		},
		Capture: func(ev capture.Event) {
			entry := captureEntry{TimeMs: ev.Time.Sub(replayEpoch).Milliseconds(), Frame: src.last}
			if ev.HasQuad {
				q := ev.Quad
				entry.Corners = &q
			}
			if a.IncludeSnapshot && ev.Snapshot != nil {
				snap, err := imaging.EncodeSnapshot(ev.Snapshot)
				if err != nil {
					snapErr = err
					return
				}
				entry.Snapshot = snap
			}
			result.Captures = append(result.Captures, entry)
		},
	}

	session, err := capture.NewSession(src, listener, opts...)
	if err != nil {
		return nil, err
	}
	result.SessionID = session.ID()
	if err := session.Start(sched); err != nil {
		return nil, err
	}

	step := min(cfg.DetectInterval, cfg.ValidateInterval, cfg.HoldTick)
	for t := step; t <= duration; t += step {
		sched.Step(replayEpoch.Add(t))
	}
	result.FinalStatus = session.Status().String()
	if err := session.Close(); err != nil {
		return nil, err
	}
	if snapErr != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", snapErr)
	}

	s.log.WithFields(logrus.Fields{
		"frames":   len(paths),
		"captures": len(result.Captures),
	}).Info("Replay finished")
	return result, nil
}
