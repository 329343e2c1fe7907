package installer

import (
	"sync"
	"time"
)

// Status is a point-in-time snapshot of one installation attempt. All five
// fields are read under the state lock, so they are mutually consistent.
type Status struct {
	// InProgress is true strictly between the start of an attempt and its
	// terminal transition.
	InProgress bool
	// Outcome is nil until an attempt reaches a terminal state; true means
	// the install succeeded, false means it failed or was cancelled.
	Outcome *bool
	// Err is set iff Outcome is false.
	Err *InstallError
	// StartedAt is set once when the attempt begins.
	StartedAt *time.Time
	// Duration is the live elapsed time while InProgress, the stored
	// terminal duration once the attempt ended, and nil if no attempt ever
	// started.
	Duration *time.Duration
}

// guardedState pairs the attempt record with the single mutex protecting
// it. Nothing reads or writes the record without holding mu.
type guardedState struct {
	mu  sync.Mutex
	rec installationState
}

// installationState is the single shared mutable record for one attempt.
type installationState struct {
	inProgress      bool
	outcome         *bool
	err             *InstallError
	startedAt       *time.Time
	duration        *time.Duration
	cancelRequested bool

	// workerDone is the worker handle: non-nil iff the attempt runs in
	// background mode. Foreground attempts never create one, which is why
	// they cannot be cancelled.
	workerDone chan struct{}
}

// reset prepares the record for a fresh attempt. Must be called with the
// lock held, before inProgress is set.
func (s *installationState) reset() {
	s.outcome = nil
	s.err = nil
	s.duration = nil
	s.cancelRequested = false
	s.workerDone = nil
}
