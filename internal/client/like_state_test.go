package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeState_ToggleResolve(t *testing.T) {
	s := NewLikeState(false, 4)

	action, err := s.Toggle()
	require.NoError(t, err)
	assert.Equal(t, ActionLike, action)
	assert.Equal(t, Snapshot{Liked: true, Count: 5, Phase: PhasePending}, s.Snapshot())

	// Server count wins, the flag stays
	s.Resolve(9)
	assert.Equal(t, Snapshot{Liked: true, Count: 9, Phase: PhaseReconciled}, s.Snapshot())

	action, err = s.Toggle()
	require.NoError(t, err)
	assert.Equal(t, ActionUnlike, action)
	assert.Equal(t, Snapshot{Liked: false, Count: 8, Phase: PhasePending}, s.Snapshot())
}

func TestLikeState_FailRestoresSnapshot(t *testing.T) {
	s := NewLikeState(true, 1)
	_, err := s.Toggle()
	require.NoError(t, err)

	cause := errors.New("network down")
	s.Fail(cause)

	snap := s.Snapshot()
	assert.True(t, snap.Liked)
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, PhaseRolledBack, snap.Phase)
	assert.ErrorIs(t, snap.Err, cause)

	// A later toggle clears the displayed error
	_, err = s.Toggle()
	require.NoError(t, err)
	assert.NoError(t, s.Snapshot().Err)
}

func TestLikeState_ToggleWhilePending(t *testing.T) {
	s := NewLikeState(false, 0)
	_, err := s.Toggle()
	require.NoError(t, err)

	action, err := s.Toggle()
	assert.ErrorIs(t, err, ErrToggleInFlight)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, Snapshot{Liked: true, Count: 1, Phase: PhasePending}, s.Snapshot())
}

func TestLikeState_DoubleTap(t *testing.T) {
	s := NewLikeState(false, 2)

	action, err := s.DoubleTap()
	require.NoError(t, err)
	assert.Equal(t, ActionLike, action)

	// Pending and then liked: both no-ops
	action, err = s.DoubleTap()
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)

	s.Resolve(3)
	action, err = s.DoubleTap()
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, Snapshot{Liked: true, Count: 3, Phase: PhaseReconciled}, s.Snapshot())
}

func TestLikeState_IgnoresLateCallbacks(t *testing.T) {
	s := NewLikeState(false, 0)
	s.Resolve(10)
	s.Fail(errors.New("late"))
	assert.Equal(t, Snapshot{Phase: PhaseIdle}, s.Snapshot())
}

func TestLikeState_UnlikeNeverNegative(t *testing.T) {
	s := NewLikeState(true, 0)
	action, err := s.Toggle()
	require.NoError(t, err)
	assert.Equal(t, ActionUnlike, action)
	assert.Equal(t, 0, s.Snapshot().Count)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "pending", PhasePending.String())
	assert.Equal(t, "reconciled", PhaseReconciled.String())
	assert.Equal(t, "rolled_back", PhaseRolledBack.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		want string
		in   int
	}{
		{"0", 0},
		{"999", 999},
		{"1.0K", 1000},
		{"1.2K", 1234},
		{"999.9K", 999_949},
		{"1.0M", 1_000_000},
		{"3.4M", 3_420_000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.in), "FormatCount(%d)", tt.in)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now, "now"},
		{now.Add(-30 * time.Second), "30 seconds ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-48 * time.Hour), "2 days ago"},
		{now.Add(5 * time.Minute), "5 minutes from now"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRelativeTime(tt.at, now))
	}
}
