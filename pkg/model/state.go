package model

import (
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

var ErrAlreadyRunning = goerr.New("workflow is already running", goerr.T(TagValidation))

// State tracks a single workflow. It replaces a pair of busy and error flags:
// a workflow is exactly one of idle, running, succeeded with a payload, or
// failed with an error.
type State[T any] struct {
	mu        sync.RWMutex
	phase     Phase
	value     T
	err       error
	startedAt time.Time
	endedAt   time.Time
}

// Snapshot is an immutable copy of a State
type Snapshot[T any] struct {
	Phase     Phase
	Value     T
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// NewState returns an idle state
func NewState[T any]() *State[T] {
	return &State[T]{phase: PhaseIdle}
}

// Start moves the state to running. A running state can not be started again.
func (s *State[T]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseRunning {
		return ErrAlreadyRunning
	}

	var zero T
	s.phase = PhaseRunning
	s.value = zero
	s.err = nil
	s.startedAt = time.Now()
	s.endedAt = time.Time{}
	return nil
}

// Succeed records the payload of a finished workflow
func (s *State[T]) Succeed(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseSucceeded
	s.value = v
	s.err = nil
	s.endedAt = time.Now()
}

// Fail records the error that aborted the workflow
func (s *State[T]) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseFailed
	s.err = err
	s.endedAt = time.Now()
}

// Reset moves the state back to idle
func (s *State[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.phase = PhaseIdle
	s.value = zero
	s.err = nil
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}
}

func (s *State[T]) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *State[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[T]{
		Phase:     s.phase,
		Value:     s.value,
		Err:       s.err,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
}

// Elapsed returns how long the workflow ran, or has been running so far
func (x Snapshot[T]) Elapsed() time.Duration {
	if x.StartedAt.IsZero() {
		return 0
	}
	if x.EndedAt.IsZero() {
		return time.Since(x.StartedAt)
	}
	return x.EndedAt.Sub(x.StartedAt)
}
