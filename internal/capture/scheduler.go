package capture

import (
	"context"
	"sync"
	"time"
)

// Task is a repeating callback registered with a Scheduler.
type Task struct {
	name     string
	interval time.Duration
	next     time.Time
	fn       func(now time.Time)

	sched     *Scheduler
	cancelled bool
}

// Name returns the name the task was registered with.
func (t *Task) Name() string { return t.name }

// Cancel stops the task. A cancelled task never runs again, even if it was
// already due in the current step. Cancel is idempotent and safe on nil.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.sched.mu.Lock()
	t.cancelled = true
	t.sched.mu.Unlock()
}

// Scheduler runs repeating tasks on a single goroutine.
//
// Tasks that are due at the same instant run in registration order. A task
// that falls behind runs once and is rescheduled one interval after the
// current time; missed runs are not replayed.
//
// Step drives the scheduler explicitly and is deterministic. Run drives it
// from the wall clock until the context ends. Only one of them may be
// active at a time.
type Scheduler struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*Task
	wake  chan struct{}
}

// NewScheduler creates a scheduler whose clock starts at start.
func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start, wake: make(chan struct{}, 1)}
}

// Now returns the time of the last step.
func (s *Scheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Every registers fn to run every interval, first one interval after the
// scheduler's current time. Non-positive intervals are treated as 1ms.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(now time.Time)) *Task {
	if interval <= 0 {
		interval = time.Millisecond
	}
	s.mu.Lock()
	t := &Task{
		name:     name,
		interval: interval,
		next:     s.now.Add(interval),
		fn:       fn,
		sched:    s,
	}
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return t
}

// Len returns the number of live tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Step advances the clock to now and runs every task that is due. It
// returns the number of callbacks run. Tasks registered during the step
// are not run before their first interval has passed.
func (s *Scheduler) Step(now time.Time) int {
	s.mu.Lock()
	if now.After(s.now) {
		s.now = now
	}
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	clear(s.tasks[len(live):])
	s.tasks = live

	due := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.next.After(now) {
			due = append(due, t)
			t.next = t.next.Add(t.interval)
			if !t.next.After(now) {
				t.next = now.Add(t.interval)
			}
		}
	}
	s.mu.Unlock()

	ran := 0
	for _, t := range due {
		s.mu.Lock()
		cancelled := t.cancelled
		s.mu.Unlock()
		if cancelled {
			continue
		}
		t.fn(now)
		ran++
	}
	return ran
}

// nextDue returns the earliest pending run time.
func (s *Scheduler) nextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next time.Time
	found := false
	for _, t := range s.tasks {
		if t.cancelled {
			continue
		}
		if !found || t.next.Before(next) {
			next, found = t.next, true
		}
	}
	return next, found
}

// Run steps the scheduler from the wall clock until ctx is done, then
// returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.now = time.Now()
	for _, t := range s.tasks {
		t.next = s.now.Add(t.interval)
	}
	s.mu.Unlock()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := time.Hour
		if next, ok := s.nextDue(); ok {
			wait = time.Until(next)
			if wait < 0 {
				wait = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case now := <-timer.C:
			s.Step(now)
		}
	}
}
