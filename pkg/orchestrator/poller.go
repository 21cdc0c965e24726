package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/recovery"
)

// pollWave performs one status check of the in-flight wave and advances the
// plan when the wave reaches a terminal verdict. Polling a terminal
// execution, or a wave already finished, never mutates its recorded results.
func (o *Orchestrator) pollWave(ctx context.Context, state *models.ExecutionState) *models.ExecutionState {
	logger := o.executionLogger(state).With("wave", state.CurrentWaveNumber)

	if state.Status.Terminal() || state.AllWavesCompleted {
		logger.DebugContext(ctx, "Nothing to poll, execution is terminal", "status", state.Status)

		return state
	}

	if state.Status == models.ExecutionStatusPaused {
		logger.DebugContext(ctx, "Execution is paused, nothing to poll")

		return state
	}

	if state.PausedBeforeWave != nil {
		// Awaiting the host's pause with its task token; the next wave is
		// deliberately not started.
		logger.DebugContext(ctx, "Awaiting pause before wave", "pause_wave", *state.PausedBeforeWave)

		return state
	}

	if state.WaveCompleted {
		return o.advance(ctx, state)
	}

	if state.JobID == "" {
		// No job in flight: nothing to poll.
		state.WaveCompleted = true

		return o.advance(ctx, state)
	}

	state.TotalWaitSeconds += int(o.config.PollInterval.Seconds())
	if float64(state.TotalWaitSeconds) > o.config.MaxWait.Seconds() {
		o.timeoutWave(ctx, state)

		return state
	}

	result := state.ResultForWave(state.CurrentWaveNumber)
	if result == nil || result.Status.Terminal() {
		// Never re-enter a terminal wave result.
		state.WaveCompleted = true

		return state
	}

	clients, err := o.clients.ForAccount(ctx, state.AccountContext)
	if err != nil {
		o.failPolledWave(ctx, state, fmt.Sprintf("failed to obtain scoped clients for account %s: %v", state.AccountContext.AccountID, err))

		return state
	}

	job, err := clients.Service.JobStatus(ctx, state.JobID)
	if err != nil {
		o.failPolledWave(ctx, state, fmt.Sprintf("failed to query status of job %s: %v", state.JobID, err))

		return state
	}

	launched, failed, pending := applyCensus(result, job)

	logger.InfoContext(ctx, "Wave launch census",
		"job_status", job.Status, "launched", launched, "failed", failed, "pending", pending)

	switch {
	case failed > 0:
		o.failPolledWave(ctx, state, fmt.Sprintf("%d of %d servers failed to launch in wave %d", failed, len(result.ServerStatuses), state.CurrentWaveNumber))
	case pending == 0 && launched > 0:
		o.completePolledWave(ctx, state, result, clients)

		return o.advance(ctx, state)
	case job.Status == models.JobStatusCompleted && launched == 0:
		// The job can report COMPLETED while no server actually launched.
		// This is a distinct failure mode, never success.
		o.failPolledWave(ctx, state, fmt.Sprintf("recovery job %s completed but no servers launched in wave %d", state.JobID, state.CurrentWaveNumber))
	case job.Status == models.JobStatusCompleted:
		o.failPolledWave(ctx, state, fmt.Sprintf("recovery job %s completed with only %d of %d servers launched in wave %d", state.JobID, launched, len(result.ServerStatuses), state.CurrentWaveNumber))
	default:
		// Still in progress; unchanged verdict for the next poll.
	}

	return state
}

// applyCensus updates per-server statuses from the job snapshot and counts
// the launch outcomes. Completion is judged by this census, never by the
// job status alone.
func applyCensus(result *models.WaveResult, job *recovery.Job) (launched, failed, pending int) {
	byServer := make(map[string]recovery.ParticipatingServer, len(job.Servers))
	for _, server := range job.Servers {
		byServer[server.SourceServerID] = server
	}

	for _, status := range result.ServerStatuses {
		if server, ok := byServer[status.SourceServerID]; ok {
			status.LaunchStatus = server.LaunchStatus

			if server.RecoveryInstanceID != "" {
				status.RecoveryInstanceID = server.RecoveryInstanceID
			}
		}

		switch status.LaunchStatus {
		case models.LaunchStatusLaunched:
			launched++
		case models.LaunchStatusFailed, models.LaunchStatusTerminated:
			failed++
		default:
			pending++
		}
	}

	return launched, failed, pending
}

// advance moves past a finished wave: starts the next one, or closes out
// the run when none remain.
func (o *Orchestrator) advance(ctx context.Context, state *models.ExecutionState) *models.ExecutionState {
	if state.Status.Terminal() {
		return state
	}

	next := state.NextWave(state.CurrentWaveNumber)

	if next == nil {
		state.AllWavesCompleted = true
		state.JobID = ""
		state.ServerIDs = nil

		if state.FailedWaves == 0 {
			state.Status = models.ExecutionStatusCompleted
		} else {
			state.Status = models.ExecutionStatusPartial
		}

		o.executionLogger(state).InfoContext(ctx, "All waves finished",
			"status", state.Status, "completed_waves", state.CompletedWaves, "failed_waves", state.FailedWaves)
		o.publishExecutionCompleted(ctx, state)

		return state
	}

	if next.PauseBeforeWave && state.Status != models.ExecutionStatusPaused {
		// Stop short of the wave; the host pauses with its token.
		state.CurrentWaveNumber = next.WaveNumber
		state.PausedBeforeWave = &next.WaveNumber
		state.JobID = ""
		state.ServerIDs = nil
		state.WaveCompleted = false

		o.executionLogger(state).InfoContext(ctx, "Next wave requests a pause before start", "wave", next.WaveNumber)

		return state
	}

	o.startWave(ctx, state, next.WaveNumber)

	return state
}

// completePolledWave closes the wave as COMPLETED and enriches launched
// servers with instance details. Enrichment failures are logged, never
// fatal.
func (o *Orchestrator) completePolledWave(ctx context.Context, state *models.ExecutionState, result *models.WaveResult, clients *recovery.Clients) {
	now := time.Now().UTC()

	result.Status = models.WaveStatusCompleted
	result.EndTime = &now

	state.CompletedWaves++
	state.WaveCompleted = true
	state.JobID = ""
	state.ServerIDs = nil

	o.enrichServers(ctx, result, clients)

	o.executionLogger(state).InfoContext(ctx, "Wave completed", "wave", result.WaveNumber, "servers", len(result.ServerStatuses))
	o.publishWaveCompleted(ctx, state, result.WaveNumber, len(result.ServerStatuses))
}

func (o *Orchestrator) enrichServers(ctx context.Context, result *models.WaveResult, clients *recovery.Clients) {
	instanceIDs := make([]string, 0, len(result.ServerStatuses))

	for _, status := range result.ServerStatuses {
		if status.LaunchStatus == models.LaunchStatusLaunched && status.RecoveryInstanceID != "" {
			instanceIDs = append(instanceIDs, status.RecoveryInstanceID)
		}
	}

	if len(instanceIDs) == 0 {
		return
	}

	details, err := clients.Inventory.InstanceDetails(ctx, instanceIDs)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to enrich launched servers with instance details", "error", err)

		return
	}

	for _, status := range result.ServerStatuses {
		if detail, ok := details[status.RecoveryInstanceID]; ok {
			status.PrivateIP = detail.PrivateIP
			status.InstanceType = detail.InstanceType
			status.Hostname = detail.Hostname
		}
	}
}

// failPolledWave closes the wave as FAILED and the run as failed or
// partial. Prior completed waves stay recorded as completed.
func (o *Orchestrator) failPolledWave(ctx context.Context, state *models.ExecutionState, message string) {
	now := time.Now().UTC()

	result := state.ResultForWave(state.CurrentWaveNumber)
	if result != nil && !result.Status.Terminal() {
		result.Status = models.WaveStatusFailed
		result.EndTime = &now
	}

	state.FailedWaves++
	state.WaveCompleted = true
	state.Error = message
	state.JobID = ""
	state.ServerIDs = nil

	if state.CompletedWaves > 0 {
		state.Status = models.ExecutionStatusPartial
	} else {
		state.Status = models.ExecutionStatusFailed
	}

	o.executionLogger(state).ErrorContext(ctx, "Wave failed", "wave", state.CurrentWaveNumber, "error", message)
	o.publishWaveFailed(ctx, state, state.CurrentWaveNumber, message)
}

// timeoutWave gives up waiting on the wave. TIMEOUT is distinct from
// FAILED: the job may still be running upstream.
func (o *Orchestrator) timeoutWave(ctx context.Context, state *models.ExecutionState) {
	now := time.Now().UTC()

	result := state.ResultForWave(state.CurrentWaveNumber)
	if result != nil && !result.Status.Terminal() {
		result.Status = models.WaveStatusTimeout
		result.EndTime = &now
	}

	state.FailedWaves++
	state.WaveCompleted = true
	state.Status = models.ExecutionStatusTimeout
	state.Error = fmt.Sprintf("wave %d exceeded the maximum wait of %s", state.CurrentWaveNumber, o.config.MaxWait)
	state.JobID = ""
	state.ServerIDs = nil

	o.executionLogger(state).ErrorContext(ctx, "Wave timed out",
		"wave", state.CurrentWaveNumber, "total_wait_seconds", state.TotalWaitSeconds)
	o.publishExecutionTimeout(ctx, state)
}
