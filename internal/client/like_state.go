// Package client is the consumer side of the HTTP API: a typed API client and
// the optimistic like state that reconciles with it.
package client

import (
	"errors"
	"sync"
)

// ErrToggleInFlight is returned when a toggle is attempted while the previous one is unresolved
var ErrToggleInFlight = errors.New("like toggle already in flight")

// Phase of a post's like state
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseReconciled
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseReconciled:
		return "reconciled"
	case PhaseRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Action is the server call a toggle requires
type Action int

const (
	ActionNone Action = iota
	ActionLike
	ActionUnlike
)

// Snapshot is a point-in-time view of a LikeState
type Snapshot struct {
	Err   error // Set after a rollback
	Phase Phase
	Count int
	Liked bool
}

// LikeState is the optimistic like state of one post as shown to the user.
// The displayed values change immediately on Toggle; Resolve makes the server's
// count authoritative and Fail restores the exact pre-toggle values.
type LikeState struct {
	err        error
	phase      Phase
	count      int
	savedCount int
	liked      bool
	savedLiked bool
	mu         sync.Mutex
}

// NewLikeState starts in PhaseIdle with the values from the feed
func NewLikeState(liked bool, count int) *LikeState {
	return &LikeState{liked: liked, count: count}
}

// Toggle flips liked and adjusts the count by one, entering PhasePending.
// It returns the server action to perform.
func (s *LikeState) Toggle() (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggleLocked()
}

// DoubleTap likes the post. It is a no-op (ActionNone) when the post is already
// liked or a toggle is in flight, so repeated gestures never unlike.
func (s *LikeState) DoubleTap() (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.liked || s.phase == PhasePending {
		return ActionNone, nil
	}
	return s.toggleLocked()
}

func (s *LikeState) toggleLocked() (Action, error) {
	if s.phase == PhasePending {
		return ActionNone, ErrToggleInFlight
	}

	s.savedLiked, s.savedCount = s.liked, s.count
	s.err = nil
	s.phase = PhasePending

	if s.liked {
		s.liked = false
		if s.count > 0 {
			s.count--
		}
		return ActionUnlike, nil
	}
	s.liked = true
	s.count++
	return ActionLike, nil
}

// Resolve applies a successful server response. The server's count wins; liked is kept.
// Calls outside PhasePending are ignored.
func (s *LikeState) Resolve(serverCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePending {
		return
	}
	s.count = serverCount
	s.phase = PhaseReconciled
}

// Fail restores the pre-toggle values and keeps err for display.
// Calls outside PhasePending are ignored.
func (s *LikeState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePending {
		return
	}
	s.liked, s.count = s.savedLiked, s.savedCount
	s.err = err
	s.phase = PhaseRolledBack
}

// Snapshot returns the current values
func (s *LikeState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Liked: s.liked, Count: s.count, Phase: s.phase, Err: s.err}
}
