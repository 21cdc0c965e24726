package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutoverlabs/cutover/pkg/models"
)

func TestExecutionStatusTerminal(t *testing.T) {
	terminal := []models.ExecutionStatus{
		models.ExecutionStatusCompleted,
		models.ExecutionStatusPartial,
		models.ExecutionStatusFailed,
		models.ExecutionStatusCancelled,
		models.ExecutionStatusTimeout,
	}
	for _, status := range terminal {
		assert.True(t, status.Terminal(), "status %s", status)
	}

	live := []models.ExecutionStatus{
		models.ExecutionStatusPending,
		models.ExecutionStatusRunning,
		models.ExecutionStatusPaused,
	}
	for _, status := range live {
		assert.False(t, status.Terminal(), "status %s", status)
	}
}

func TestResultForWaveReturnsLatestAttempt(t *testing.T) {
	state := &models.ExecutionState{
		WaveResults: []*models.WaveResult{
			{WaveNumber: 0, Status: models.WaveStatusCompleted},
			{WaveNumber: 1, Status: models.WaveStatusFailed},
			{WaveNumber: 1, Status: models.WaveStatusStarted}, // appended on resume
		},
	}

	result := state.ResultForWave(1)
	require.NotNil(t, result)
	assert.Equal(t, models.WaveStatusStarted, result.Status)

	assert.Nil(t, state.ResultForWave(7))
}

func TestCloneIsDeep(t *testing.T) {
	end := time.Now().UTC()
	pausedAt := 1

	state := &models.ExecutionState{
		PlanID:      "plan-1",
		ExecutionID: "exec-1",
		Status:      models.ExecutionStatusRunning,
		Waves: []*models.Wave{
			{WaveNumber: 0, ServerIDs: []string{"s-1"}},
		},
		ServerIDs: []string{"s-1"},
		WaveResults: []*models.WaveResult{
			{
				WaveNumber: 0,
				Status:     models.WaveStatusCompleted,
				ServerIDs:  []string{"s-1"},
				ServerStatuses: []*models.ServerStatus{
					{SourceServerID: "s-1", LaunchStatus: models.LaunchStatusLaunched},
				},
				EndTime: &end,
			},
		},
		PausedBeforeWave: &pausedAt,
		AccountContext:   &models.AccountContext{AccountID: "123456789012"},
	}

	clone := state.Clone()
	require.NotSame(t, state, clone)
	assert.Equal(t, state, clone)

	clone.Waves[0].ServerIDs[0] = "mutated"
	clone.WaveResults[0].ServerStatuses[0].LaunchStatus = models.LaunchStatusFailed
	*clone.PausedBeforeWave = 9
	clone.AccountContext.AccountID = "210987654321"
	clone.ServerIDs[0] = "mutated"

	assert.Equal(t, "s-1", state.Waves[0].ServerIDs[0])
	assert.Equal(t, models.LaunchStatusLaunched, state.WaveResults[0].ServerStatuses[0].LaunchStatus)
	assert.Equal(t, 1, *state.PausedBeforeWave)
	assert.Equal(t, "123456789012", state.AccountContext.AccountID)
	assert.Equal(t, "s-1", state.ServerIDs[0])
}

func TestCloneNil(t *testing.T) {
	var state *models.ExecutionState

	assert.Nil(t, state.Clone())
}

func TestNextWaveFollowsPlanOrder(t *testing.T) {
	state := &models.ExecutionState{
		Waves: []*models.Wave{
			{WaveNumber: 1, ProtectionGroupID: "pg-a"},
			{WaveNumber: 2, ProtectionGroupID: "pg-b"},
			{WaveNumber: 5, ProtectionGroupID: "pg-c"},
		},
	}

	next := state.NextWave(1)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.WaveNumber)

	next = state.NextWave(2)
	require.NotNil(t, next)
	assert.Equal(t, 5, next.WaveNumber)

	assert.Nil(t, state.NextWave(5))
	assert.Nil(t, state.NextWave(99))
}
