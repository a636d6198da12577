package capture

import (
	"fmt"
	"time"

	"github.com/ironsheep/doc-autocapture/internal/validation"
)

// Guidance messages emitted by the state machine.
const (
	MsgDefault     = `Position your "DOCUMENT" in the frame`
	MsgHoldSteady  = "Hold steady to take a photo"
	MsgSuccess     = "Success, photo taken."
	MsgInterrupted = "Process of taking a picture got interrupted."
)

// Defaults for the hold timer.
const (
	DefaultHoldTick = 100 * time.Millisecond
	DefaultCooldown = 1500 * time.Millisecond
)

// Status aggregates the validity of all feature results.
type Status int

const (
	// StatusNone means every result is invalid (or there are none).
	StatusNone Status = iota
	// StatusSome means at least one result is valid and one is invalid.
	StatusSome
	// StatusAll means every result is valid.
	StatusAll
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusSome:
		return "some"
	case StatusAll:
		return "all"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// StatusOf aggregates results.
func StatusOf(results []validation.DetectionResult) Status {
	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	switch {
	case invalid == len(results):
		return StatusNone
	case invalid == 0:
		return StatusAll
	}
	return StatusSome
}

// firstInvalid returns the first invalid result in declaration order.
func firstInvalid(results []validation.DetectionResult) (validation.DetectionResult, bool) {
	for _, r := range results {
		if !r.Valid {
			return r, true
		}
	}
	return validation.DetectionResult{}, false
}

// Transition tells the session what to do after a state machine step.
type Transition struct {
	// Feedback is the message to show, or empty to leave it unchanged.
	Feedback string

	// StartHold asks for the repeating hold tick to be scheduled.
	StartHold bool

	// StopHold asks for the hold tick to be cancelled.
	StopHold bool

	// Capture means the photo should be taken now.
	Capture bool
}

// StateMachine tracks validation status and the hold-steady timer.
//
// Update is called on every validation tick and Tick on every hold tick.
// Each hold tick adds one tick period to the elapsed time while the status
// stays StatusAll; reaching the holding time fires a capture. After a
// capture the timer is not restarted until the cool-down has passed.
//
// A StateMachine is not safe for concurrent use.
type StateMachine struct {
	holdingTime time.Duration
	tickPeriod  time.Duration
	cooldown    time.Duration

	status        Status
	elapsed       time.Duration
	holding       bool
	cooldownUntil time.Time
}

// NewStateMachine creates a state machine. Non-positive tick and cool-down
// values fall back to their defaults.
func NewStateMachine(holdingTime, tickPeriod, cooldown time.Duration) *StateMachine {
	if tickPeriod <= 0 {
		tickPeriod = DefaultHoldTick
	}
	if cooldown < 0 {
		cooldown = DefaultCooldown
	}
	return &StateMachine{
		holdingTime: holdingTime,
		tickPeriod:  tickPeriod,
		cooldown:    cooldown,
	}
}

// TickPeriod returns the hold tick period.
func (m *StateMachine) TickPeriod() time.Duration { return m.tickPeriod }

// Status returns the status computed by the last Update.
func (m *StateMachine) Status() Status { return m.status }

// Elapsed returns the time accumulated towards the holding time.
func (m *StateMachine) Elapsed() time.Duration { return m.elapsed }

// Holding reports whether the hold timer is running.
func (m *StateMachine) Holding() bool { return m.holding }

// Update records the results of a validation tick.
func (m *StateMachine) Update(now time.Time, results []validation.DetectionResult) Transition {
	m.status = StatusOf(results)

	switch m.status {
	case StatusNone:
		m.elapsed = 0
		return Transition{Feedback: MsgDefault}

	case StatusSome:
		m.elapsed = 0
		r, _ := firstInvalid(results)
		return Transition{Feedback: r.Feedback}
	}

	if now.Before(m.cooldownUntil) {
		return Transition{Feedback: MsgSuccess}
	}
	tr := Transition{Feedback: MsgHoldSteady}
	if !m.holding {
		m.holding = true
		m.elapsed = 0
		tr.StartHold = true
	}
	return tr
}

// Tick advances the hold timer by one period.
func (m *StateMachine) Tick(now time.Time) Transition {
	if !m.holding {
		return Transition{}
	}
	if m.status != StatusAll {
		m.holding = false
		m.elapsed = 0
		return Transition{Feedback: MsgInterrupted, StopHold: true}
	}

	m.elapsed += m.tickPeriod
	if m.elapsed < m.holdingTime {
		return Transition{}
	}

	m.holding = false
	m.elapsed = 0
	m.cooldownUntil = now.Add(m.cooldown)
	return Transition{Feedback: MsgSuccess, StopHold: true, Capture: true}
}

// Stop halts the hold timer without emitting anything.
func (m *StateMachine) Stop() {
	m.holding = false
	m.elapsed = 0
}

// announcer forwards feedback only when it differs from the last message.
type announcer struct {
	last string
	said bool
}

func (a *announcer) announce(msg string, emit func(string)) {
	if msg == "" || (a.said && msg == a.last) {
		return
	}
	a.last, a.said = msg, true
	emit(msg)
}
