package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cutoverlabs/cutover/pkg/eventbus"
	"github.com/cutoverlabs/cutover/pkg/events"
	"github.com/cutoverlabs/cutover/pkg/models"
)

// publish sends a lifecycle event to the notification sink. Fire-and-forget:
// publish failures are logged and never affect orchestration outcome.
func (o *Orchestrator) publish(ctx context.Context, state *models.ExecutionState, event eventbus.Event) {
	if o.publisher == nil {
		return
	}

	err := o.publisher.Publish(ctx, state.ExecutionID, event)
	if err != nil {
		o.executionLogger(state).WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", event.GetType(), "error", err)
	}
}

func (o *Orchestrator) baseEvent(state *models.ExecutionState, eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		PlanID:      state.PlanID,
		ExecutionID: state.ExecutionID,
	}
}

func (o *Orchestrator) publishExecutionStarted(ctx context.Context, state *models.ExecutionState) {
	o.publish(ctx, state, events.ExecutionStarted{
		BaseEvent:  o.baseEvent(state, events.ExecutionStartedEvent),
		PlanName:   state.PlanName,
		IsDrill:    state.IsDrill,
		TotalWaves: state.TotalWaves,
	})
}

func (o *Orchestrator) publishExecutionCompleted(ctx context.Context, state *models.ExecutionState) {
	o.publish(ctx, state, events.ExecutionCompleted{
		BaseEvent:      o.baseEvent(state, events.ExecutionCompletedEvent),
		Status:         state.Status,
		CompletedWaves: state.CompletedWaves,
		FailedWaves:    state.FailedWaves,
		Duration:       time.Since(state.StartedAt),
	})
}

func (o *Orchestrator) publishExecutionPaused(ctx context.Context, state *models.ExecutionState, pausedBeforeWave int) {
	o.publish(ctx, state, events.ExecutionPaused{
		BaseEvent:        o.baseEvent(state, events.ExecutionPausedEvent),
		PausedBeforeWave: pausedBeforeWave,
	})
}

func (o *Orchestrator) publishExecutionResumed(ctx context.Context, state *models.ExecutionState, waveNumber int) {
	o.publish(ctx, state, events.ExecutionResumed{
		BaseEvent:  o.baseEvent(state, events.ExecutionResumedEvent),
		WaveNumber: waveNumber,
	})
}

func (o *Orchestrator) publishExecutionTimeout(ctx context.Context, state *models.ExecutionState) {
	o.publish(ctx, state, events.ExecutionTimeout{
		BaseEvent:        o.baseEvent(state, events.ExecutionTimeoutEvent),
		WaveNumber:       state.CurrentWaveNumber,
		TotalWaitSeconds: state.TotalWaitSeconds,
	})
}

func (o *Orchestrator) publishWaveStarted(ctx context.Context, state *models.ExecutionState, waveNumber int, jobID string, serverIDs []string) {
	o.publish(ctx, state, events.WaveStarted{
		BaseEvent:  o.baseEvent(state, events.WaveStartedEvent),
		WaveNumber: waveNumber,
		JobID:      jobID,
		ServerIDs:  serverIDs,
	})
}

func (o *Orchestrator) publishWaveCompleted(ctx context.Context, state *models.ExecutionState, waveNumber, servers int) {
	o.publish(ctx, state, events.WaveCompleted{
		BaseEvent:  o.baseEvent(state, events.WaveCompletedEvent),
		WaveNumber: waveNumber,
		Servers:    servers,
	})
}

func (o *Orchestrator) publishWaveFailed(ctx context.Context, state *models.ExecutionState, waveNumber int, message string) {
	o.publish(ctx, state, events.WaveFailed{
		BaseEvent:  o.baseEvent(state, events.WaveFailedEvent),
		WaveNumber: waveNumber,
		Error:      message,
	})
}
