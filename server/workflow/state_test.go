package workflow

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateLegalTransitions(t *testing.T) {
	state := NewState("pat-001")
	assert.Equal(t, PhaseIdle, state.Phase)
	require.NotEmpty(t, state.SessionID)

	for _, phase := range []Phase{PhaseNight, PhaseRap1, PhaseDay, PhaseRap2, PhaseCompleted} {
		require.NoError(t, state.TransitionTo(phase))
	}
	assert.True(t, state.Terminal())
}

func TestTransitionSetsSteeringMode(t *testing.T) {
	state := NewState("pat-001")
	assert.Equal(t, ModeNightSurveillance, state.Mode)

	tests := []struct {
		phase Phase
		mode  SteeringMode
	}{
		{PhaseNight, ModeNightSurveillance},
		{PhaseRap1, ModeLongitudinal},
		{PhaseDay, ModeSpecialistVirtual},
		{PhaseRap2, ModeLongitudinal},
	}
	for _, tt := range tests {
		require.NoError(t, state.TransitionTo(tt.phase))
		assert.Equal(t, tt.mode, state.Mode, "phase %s", tt.phase)
	}

	// Completing keeps the last phase's mode.
	require.NoError(t, state.TransitionTo(PhaseCompleted))
	assert.Equal(t, ModeLongitudinal, state.Mode)
}

func TestStateIllegalTransition(t *testing.T) {
	state := NewState("pat-001")
	err := state.TransitionTo(PhaseDay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal transition")
	assert.Equal(t, PhaseIdle, state.Phase)
}

func TestStateAbortFromAnyPhase(t *testing.T) {
	for _, from := range []Phase{PhaseIdle, PhaseNight, PhaseRap1, PhaseDay, PhaseRap2} {
		state := NewState("pat-001")
		state.Phase = from
		require.NoError(t, state.TransitionTo(PhaseAborted), "from %s", from)
		assert.True(t, state.Terminal())
	}
}

func TestCompletedStateIsImmutable(t *testing.T) {
	state := NewState("pat-001")
	state.Phase = PhaseCompleted

	err := state.TransitionTo(PhaseNight)
	assert.True(t, errors.Is(err, ErrSessionCompleted))

	state.AddMessage("system", "ignored")
	state.AddError("ignored")
	state.AddWarning("ignored")
	state.SetMetric("ignored", 1)

	assert.Empty(t, state.Messages)
	assert.Empty(t, state.Errors)
	assert.Empty(t, state.Warnings)
	assert.Empty(t, state.Metrics)
}

func TestNewStateFreshIdentity(t *testing.T) {
	first := NewState("pat-001")
	second := NewState("pat-001")
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, ModeNightSurveillance, first.Mode)
}
