package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cutoverlabs/cutover/pkg/launchconfig"
	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/recovery"
)

// startWave attempts to start the given wave, mutating state in place.
// Every failure is caught and mapped onto the state: the host always gets a
// well-formed state back, never a raised error.
func (o *Orchestrator) startWave(ctx context.Context, state *models.ExecutionState, waveNumber int) {
	logger := o.executionLogger(state).With("wave", waveNumber)

	if state.Status == models.ExecutionStatusCancelled {
		logger.InfoContext(ctx, "Execution is cancelled, refusing to start wave")

		return
	}

	wave := state.WaveByNumber(waveNumber)
	if wave == nil {
		o.failWave(ctx, state, waveNumber, "", fmt.Sprintf("wave %d not found in plan %s", waveNumber, state.PlanID))

		return
	}

	if wave.ProtectionGroupID == "" {
		o.failWave(ctx, state, waveNumber, wave.Name, fmt.Sprintf("wave %d has no protection group reference", waveNumber))

		return
	}

	group, err := o.groups.GetByID(ctx, wave.ProtectionGroupID)
	if err != nil {
		o.failWave(ctx, state, waveNumber, wave.Name, fmt.Sprintf("failed to load protection group %s: %v", wave.ProtectionGroupID, err))

		return
	}

	// Explicit wave server IDs win over group selection.
	serverIDs := append([]string(nil), wave.ServerIDs...)
	if len(serverIDs) == 0 {
		serverIDs = append([]string(nil), group.SourceServerIDs...)
	}

	needsDiscovery := len(serverIDs) == 0 && len(group.SelectionTags) > 0

	if len(serverIDs) == 0 && !needsDiscovery {
		// A group with neither explicit servers nor selection tags is an
		// empty wave, which is a success, not an error.
		o.completeEmptyWave(ctx, state, wave, logger)

		return
	}

	clients, err := o.clients.ForAccount(ctx, state.AccountContext)
	if err != nil {
		o.failWave(ctx, state, waveNumber, wave.Name, fmt.Sprintf("failed to obtain scoped clients for account %s: %v", state.AccountContext.AccountID, err))

		return
	}

	if needsDiscovery {
		discovered, err := clients.Inventory.ServersByTags(ctx, group.SelectionTags)
		if err != nil {
			o.failWave(ctx, state, waveNumber, wave.Name, fmt.Sprintf("server discovery failed for group %s: %v", group.ID, err))

			return
		}

		for _, server := range discovered {
			serverIDs = append(serverIDs, server.ID)
		}

		if len(serverIDs) == 0 {
			logger.InfoContext(ctx, "Tag discovery matched no servers, completing wave as empty", "tags", group.SelectionTags)
			o.completeEmptyWave(ctx, state, wave, logger)

			return
		}
	}

	// Launch configuration is applied before the job starts; applying after
	// start risks launching with stale settings.
	err = o.applyLaunchConfigs(ctx, group, serverIDs, clients)
	if err != nil {
		o.failWave(ctx, state, waveNumber, wave.Name, fmt.Sprintf("failed to apply launch configuration: %v", err))

		return
	}

	jobID, err := clients.Service.StartRecovery(ctx, state.IsDrill, serverIDs)
	if err != nil {
		o.failWave(ctx, state, waveNumber, wave.Name, fmt.Sprintf("failed to start recovery job: %v", err))

		return
	}

	now := time.Now().UTC()

	serverStatuses := make([]*models.ServerStatus, len(serverIDs))
	for i, serverID := range serverIDs {
		serverStatuses[i] = &models.ServerStatus{
			SourceServerID: serverID,
			LaunchStatus:   models.LaunchStatusPending,
		}
	}

	state.WaveResults = append(state.WaveResults, &models.WaveResult{
		WaveNumber:     waveNumber,
		WaveName:       wave.Name,
		Status:         models.WaveStatusStarted,
		JobID:          jobID,
		Region:         state.Region,
		ServerIDs:      serverIDs,
		ServerStatuses: serverStatuses,
		StartTime:      now,
	})

	state.CurrentWaveNumber = waveNumber
	state.JobID = jobID
	state.ServerIDs = serverIDs
	state.WaveCompleted = false
	state.TotalWaitSeconds = 0

	logger.InfoContext(ctx, "Recovery job started", "job_id", jobID, "servers", len(serverIDs))
	o.publishWaveStarted(ctx, state, waveNumber, jobID, serverIDs)
}

// applyLaunchConfigs merges and validates the effective configuration for
// every server in the wave, then pushes it to the recovery service.
func (o *Orchestrator) applyLaunchConfigs(ctx context.Context, group *models.ProtectionGroup, serverIDs []string, clients *recovery.Clients) error {
	if group.LaunchConfig.IsZero() && len(group.LaunchOverrides) == 0 {
		return nil
	}

	merged := make(map[string]*models.LaunchConfig, len(serverIDs))
	for _, serverID := range serverIDs {
		config := launchconfig.Effective(group, serverID)
		if !config.IsZero() {
			merged[serverID] = config
		}
	}

	// Static IPs are validated against the target subnet and against each
	// other: two servers in the same subnet may not claim the same address.
	subnets := make(map[string]*recovery.Subnet)
	claimed := make(map[string]map[string]string)

	for _, serverID := range serverIDs {
		config, ok := merged[serverID]
		if !ok || config.StaticIP == "" {
			continue
		}

		if config.SubnetID == "" {
			return fmt.Errorf("server %s sets a static IP without a subnet", serverID)
		}

		subnet, ok := subnets[config.SubnetID]
		if !ok {
			var err error

			subnet, err = clients.Inventory.Subnet(ctx, config.SubnetID)
			if err != nil {
				return fmt.Errorf("failed to look up subnet %s: %w", config.SubnetID, err)
			}

			subnets[config.SubnetID] = subnet
			claimed[config.SubnetID] = make(map[string]string)
		}

		err := launchconfig.ValidateStaticIP(config.StaticIP, serverID, subnet, claimed[config.SubnetID])
		if err != nil {
			return err
		}

		claimed[config.SubnetID][config.StaticIP] = serverID
	}

	for _, serverID := range serverIDs {
		config, ok := merged[serverID]
		if !ok {
			continue
		}

		err := clients.Service.ApplyLaunchConfig(ctx, serverID, config)
		if err != nil {
			return fmt.Errorf("failed to apply launch configuration to server %s: %w", serverID, err)
		}
	}

	return nil
}

// completeEmptyWave records an immediately-completed wave with no job.
func (o *Orchestrator) completeEmptyWave(ctx context.Context, state *models.ExecutionState, wave *models.Wave, logger *slog.Logger) {
	now := time.Now().UTC()

	state.WaveResults = append(state.WaveResults, &models.WaveResult{
		WaveNumber: wave.WaveNumber,
		WaveName:   wave.Name,
		Status:     models.WaveStatusCompleted,
		StartTime:  now,
		EndTime:    &now,
	})

	state.CurrentWaveNumber = wave.WaveNumber
	state.CompletedWaves++
	state.JobID = ""
	state.ServerIDs = nil
	state.WaveCompleted = true
	state.TotalWaitSeconds = 0

	logger.InfoContext(ctx, "Wave resolved no servers, marked complete without a job")
	o.publishWaveCompleted(ctx, state, wave.WaveNumber, 0)
}

// failWave marks the wave and the run failed. Terminal unless resumed.
func (o *Orchestrator) failWave(ctx context.Context, state *models.ExecutionState, waveNumber int, waveName, message string) {
	now := time.Now().UTC()

	state.WaveResults = append(state.WaveResults, &models.WaveResult{
		WaveNumber: waveNumber,
		WaveName:   waveName,
		Status:     models.WaveStatusFailed,
		StartTime:  now,
		EndTime:    &now,
	})

	state.CurrentWaveNumber = waveNumber
	state.FailedWaves++
	state.Status = models.ExecutionStatusFailed
	state.Error = message
	state.JobID = ""
	state.ServerIDs = nil
	state.WaveCompleted = true

	o.executionLogger(state).ErrorContext(ctx, "Wave failed to start", "wave", waveNumber, "error", message)
	o.publishWaveFailed(ctx, state, waveNumber, message)
}
