package core

// tracker.go implements single-flight tracking for logical mutations.
//
// Each (user, action) pair owns one Tracker. Begin performs a
// check-and-set under the tracker's mutex: if an attempt is already
// pending the trigger fails with ErrMutationInFlight, with no window
// between the inspection and the transition to pending. Completions carry
// the attempt ID they belong to; a completion arriving after the tracker
// was closed, or for a superseded attempt, is dropped rather than applied
// to state that no longer exists.

import (
	"sync"

	"github.com/google/uuid"
)

// Tracker holds the mutation state for one logical action.
type Tracker struct {
	mu      sync.Mutex
	phase   MutationPhase
	attempt string
	lastErr string
	closed  bool
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{phase: PhaseIdle}
}

// Begin transitions to pending and returns the new attempt ID.
// Fails with ErrMutationInFlight while a previous attempt is pending, and
// after Close. A new attempt clears the previous failure state.
func (t *Tracker) Begin() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", ErrMutationInFlight
	}
	if t.phase == PhasePending {
		return "", ErrMutationInFlight
	}

	t.phase = PhasePending
	t.attempt = uuid.New().String()
	t.lastErr = ""
	return t.attempt, nil
}

// Succeed completes the given attempt successfully. Returns false when the
// completion is stale (superseded attempt or closed tracker) and was
// dropped.
func (t *Tracker) Succeed(attemptID string) bool {
	return t.finish(attemptID, PhaseSucceeded, "")
}

// Fail completes the given attempt with an error message. Returns false
// when the completion is stale and was dropped.
func (t *Tracker) Fail(attemptID, errMsg string) bool {
	return t.finish(attemptID, PhaseFailed, errMsg)
}

func (t *Tracker) finish(attemptID string, phase MutationPhase, errMsg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.attempt != attemptID || t.phase != PhasePending {
		return false
	}

	t.phase = phase
	t.lastErr = errMsg
	return true
}

// Phase returns the current mutation phase.
func (t *Tracker) Phase() MutationPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// LastError returns the failure message of the most recent failed attempt.
func (t *Tracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Close marks the tracker's owner as gone. Later completions are dropped;
// the underlying request is not cancelled and runs to completion.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// trackerSet owns the trackers for all (user, action) pairs.
type trackerSet struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
}

func newTrackerSet() *trackerSet {
	return &trackerSet{trackers: make(map[string]*Tracker)}
}

// get returns the tracker for the pair, creating it on first use.
func (s *trackerSet) get(userID string, action Action) *Tracker {
	key := userID + "/" + string(action)

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trackers[key]
	if !ok {
		t = NewTracker()
		s.trackers[key] = t
	}
	return t
}

// closeAll closes every tracker, for shutdown.
func (s *trackerSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trackers {
		t.Close()
	}
}
