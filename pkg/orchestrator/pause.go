package orchestrator

import (
	"context"
	"fmt"

	"github.com/cutoverlabs/cutover/pkg/models"
)

// pause suspends the execution and persists the host's opaque resume token.
func (o *Orchestrator) pause(ctx context.Context, state *models.ExecutionState, token string) (*models.ExecutionState, error) {
	if token == "" {
		return nil, ErrMissingTaskToken
	}

	if state.Status.Terminal() {
		return nil, fmt.Errorf("cannot pause execution %s in terminal status %s", state.ExecutionID, state.Status)
	}

	if state.PausedBeforeWave == nil {
		wave := state.CurrentWaveNumber
		state.PausedBeforeWave = &wave
	}

	state.Status = models.ExecutionStatusPaused
	state.TaskToken = token

	o.executionLogger(state).InfoContext(ctx, "Execution paused", "paused_before_wave", *state.PausedBeforeWave)
	o.publishExecutionPaused(ctx, state, *state.PausedBeforeWave)

	return state, nil
}

// resume clears the pause metadata and restarts the wave recorded at pause
// time, replaying its start as if the wave were fresh. A new STARTED result
// is appended; the prior entry for that wave is never rewritten.
func (o *Orchestrator) resume(ctx context.Context, state *models.ExecutionState) (*models.ExecutionState, error) {
	if state.Status != models.ExecutionStatusPaused {
		return nil, fmt.Errorf("cannot resume execution %s in status %s", state.ExecutionID, state.Status)
	}

	waveNumber := state.CurrentWaveNumber
	if state.PausedBeforeWave != nil {
		waveNumber = *state.PausedBeforeWave
	}

	state.PausedBeforeWave = nil
	state.TaskToken = ""
	state.Status = models.ExecutionStatusRunning
	state.Error = ""

	o.executionLogger(state).InfoContext(ctx, "Execution resumed", "wave", waveNumber)
	o.publishExecutionResumed(ctx, state, waveNumber)

	o.startWave(ctx, state, waveNumber)

	return state, nil
}
