package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, err := ParseStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("pending")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestCanTransition_ForwardEdges(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusCompleted))
	assert.True(t, CanTransition(StatusConfirmed, StatusCancelled))
}

func TestCanTransition_RejectsBackwardAndSkips(t *testing.T) {
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusConfirmed, StatusPending))
	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusPending, StatusPending))
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		assert.True(t, from.Terminal())
		for _, to := range allStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		actor    Actor
		from, to Status
		want     bool
	}{
		{ActorDoctor, StatusPending, StatusConfirmed, true},
		{ActorAdmin, StatusPending, StatusConfirmed, true},
		{ActorPatient, StatusPending, StatusConfirmed, false},
		{ActorPatient, StatusPending, StatusCancelled, true},
		{ActorDoctor, StatusPending, StatusCancelled, true},
		{ActorDoctor, StatusConfirmed, StatusCompleted, true},
		{ActorPatient, StatusConfirmed, StatusCompleted, false},
		{ActorPatient, StatusConfirmed, StatusCancelled, false},
		{ActorAdmin, StatusConfirmed, StatusCancelled, true},
		{ActorAdmin, StatusCompleted, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Allowed(tt.actor, tt.from, tt.to), "%s: %s -> %s", tt.actor, tt.from, tt.to)
	}
}

func TestNextStatuses(t *testing.T) {
	assert.Equal(t, []Status{StatusConfirmed, StatusCancelled}, NextStatuses(ActorDoctor, StatusPending))
	assert.Equal(t, []Status{StatusCancelled}, NextStatuses(ActorPatient, StatusPending))
	assert.Equal(t, []Status{StatusCompleted, StatusCancelled}, NextStatuses(ActorAdmin, StatusConfirmed))
	assert.Empty(t, NextStatuses(ActorPatient, StatusConfirmed))
	assert.Empty(t, NextStatuses(ActorAdmin, StatusCompleted))
}

func TestActive(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.True(t, StatusCompleted.Active())
	assert.False(t, StatusCancelled.Active())
}
