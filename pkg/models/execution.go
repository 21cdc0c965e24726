// Package models defines the core domain models for recovery plan orchestration.
package models

import "time"

// ExecutionStatus represents the coarse lifecycle state of a plan execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusPaused    ExecutionStatus = "paused"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusPartial   ExecutionStatus = "partial" // Some waves completed before a later wave failed
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
	ExecutionStatusTimeout   ExecutionStatus = "timeout"
)

// Terminal reports whether no further waves may be started in this status.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusPartial, ExecutionStatusFailed,
		ExecutionStatusCancelled, ExecutionStatusTimeout:
		return true
	default:
		return false
	}
}

// WaveStatus represents the per-wave verdict recorded in a WaveResult.
type WaveStatus string

const (
	WaveStatusStarted   WaveStatus = "STARTED"
	WaveStatusCompleted WaveStatus = "COMPLETED"
	WaveStatusFailed    WaveStatus = "FAILED"
	WaveStatusTimeout   WaveStatus = "TIMEOUT"
)

// Terminal reports whether the wave may not be polled again.
func (s WaveStatus) Terminal() bool {
	return s == WaveStatusCompleted || s == WaveStatusFailed || s == WaveStatusTimeout
}

// LaunchStatus is the fixed per-server launch vocabulary reported by the
// recovery service.
type LaunchStatus string

const (
	LaunchStatusPending    LaunchStatus = "PENDING"
	LaunchStatusInProgress LaunchStatus = "IN_PROGRESS"
	LaunchStatusLaunched   LaunchStatus = "LAUNCHED"
	LaunchStatusFailed     LaunchStatus = "FAILED"
	LaunchStatusTerminated LaunchStatus = "TERMINATED"
)

// JobStatus is the coarse status of a recovery job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusStarted   JobStatus = "STARTED"
	JobStatusCompleted JobStatus = "COMPLETED"
)

// ServerStatus tracks a single source server within a wave. Enrichment
// fields are filled in only after the server reaches LAUNCHED.
type ServerStatus struct {
	SourceServerID     string       `json:"source_server_id"`
	LaunchStatus       LaunchStatus `json:"launch_status"`
	RecoveryInstanceID string       `json:"recovery_instance_id,omitempty"`
	PrivateIP          string       `json:"private_ip,omitempty"`
	InstanceType       string       `json:"instance_type,omitempty"`
	Hostname           string       `json:"hostname,omitempty"`
}

// WaveResult records the outcome of one attempt at a wave. Results are
// append-only: a resumed wave appends a fresh STARTED entry rather than
// rewriting the prior one.
type WaveResult struct {
	WaveNumber     int             `json:"wave_number"`
	WaveName       string          `json:"wave_name"`
	Status         WaveStatus      `json:"status"`
	JobID          string          `json:"job_id,omitempty"`
	Region         string          `json:"region,omitempty"`
	ServerIDs      []string        `json:"server_ids,omitempty"`
	ServerStatuses []*ServerStatus `json:"server_statuses,omitempty"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
}

// ExecutionState is the single state blob threaded through every
// orchestrator invocation. The external host owns its storage lifetime; the
// orchestrator owns its mutation for the duration of one invocation and
// always returns it whole.
type ExecutionState struct {
	PlanID      string `json:"plan_id"`
	PlanName    string `json:"plan_name,omitempty"`
	ExecutionID string `json:"execution_id"`
	IsDrill     bool   `json:"is_drill"`

	Status            ExecutionStatus `json:"status"`
	Waves             []*Wave         `json:"waves"`
	CurrentWaveNumber int             `json:"current_wave_number"`
	TotalWaves        int             `json:"total_waves"`
	CompletedWaves    int             `json:"completed_waves"`
	FailedWaves       int             `json:"failed_waves"`
	AllWavesCompleted bool            `json:"all_waves_completed"`

	// In-flight wave job handle.
	JobID         string   `json:"job_id,omitempty"`
	Region        string   `json:"region,omitempty"`
	ServerIDs     []string `json:"server_ids,omitempty"`
	WaveCompleted bool     `json:"wave_completed"`

	TotalWaitSeconds int `json:"total_wait_seconds"`

	WaveResults []*WaveResult `json:"wave_results"`
	Error       string        `json:"error,omitempty"`

	// Pause metadata.
	PausedBeforeWave *int   `json:"paused_before_wave,omitempty"`
	TaskToken        string `json:"task_token,omitempty"`

	AccountContext *AccountContext `json:"account_context,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResultForWave returns the most recent WaveResult recorded for the given
// wave number, or nil when the wave has not been attempted.
func (s *ExecutionState) ResultForWave(waveNumber int) *WaveResult {
	for i := len(s.WaveResults) - 1; i >= 0; i-- {
		if s.WaveResults[i].WaveNumber == waveNumber {
			return s.WaveResults[i]
		}
	}

	return nil
}

// NextWave returns the wave that follows the given one in plan order, or
// nil when it is the last. Wave numbers order the plan but need not be
// contiguous or zero-based, so succession goes by position, not arithmetic.
func (s *ExecutionState) NextWave(waveNumber int) *Wave {
	for i, wave := range s.Waves {
		if wave.WaveNumber == waveNumber && i+1 < len(s.Waves) {
			return s.Waves[i+1]
		}
	}

	return nil
}

// WaveByNumber returns the wave definition for the given number.
func (s *ExecutionState) WaveByNumber(waveNumber int) *Wave {
	for _, wave := range s.Waves {
		if wave.WaveNumber == waveNumber {
			return wave
		}
	}

	return nil
}

// Clone returns a deep copy of the state. Every invocation mutates a copy
// and returns it, never the caller's value.
func (s *ExecutionState) Clone() *ExecutionState {
	if s == nil {
		return nil
	}

	clone := *s

	clone.Waves = make([]*Wave, len(s.Waves))
	for i, wave := range s.Waves {
		w := *wave
		w.ServerIDs = append([]string(nil), wave.ServerIDs...)
		w.DependsOnWaves = append([]int(nil), wave.DependsOnWaves...)
		clone.Waves[i] = &w
	}

	clone.ServerIDs = append([]string(nil), s.ServerIDs...)

	clone.WaveResults = make([]*WaveResult, len(s.WaveResults))
	for i, result := range s.WaveResults {
		r := *result
		r.ServerIDs = append([]string(nil), result.ServerIDs...)

		r.ServerStatuses = make([]*ServerStatus, len(result.ServerStatuses))
		for j, status := range result.ServerStatuses {
			st := *status
			r.ServerStatuses[j] = &st
		}

		if result.EndTime != nil {
			end := *result.EndTime
			r.EndTime = &end
		}

		clone.WaveResults[i] = &r
	}

	if s.PausedBeforeWave != nil {
		wave := *s.PausedBeforeWave
		clone.PausedBeforeWave = &wave
	}

	if s.AccountContext != nil {
		acct := *s.AccountContext
		clone.AccountContext = &acct
	}

	return &clone
}
