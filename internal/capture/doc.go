// Package capture decides when a document photo is taken.
//
// A Session pulls frames from a FrameSource on a detection task, evaluates
// the active features on a validation task and feeds the results to a
// StateMachine. When every feature has been valid for the configured
// holding time, the session emits a capture Event to its Listener.
//
// All tasks run on one Scheduler goroutine, so session state needs no
// locking beyond the closed flag. Scheduler.Step drives the tasks for a
// given instant and is what tests use in place of real timers.
package capture
