// Package events defines event types and structures for execution lifecycle
// notifications.
package events

import (
	"time"

	"github.com/cutoverlabs/cutover/pkg/models"
)

type EventType string

// Kafka topic for execution lifecycle events.
const Topic = "cutover.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionPausedEvent    EventType = "execution.paused"
	ExecutionResumedEvent   EventType = "execution.resumed"
	ExecutionTimeoutEvent   EventType = "execution.timeout"

	WaveStartedEvent   EventType = "wave.started"
	WaveCompletedEvent EventType = "wave.completed"
	WaveFailedEvent    EventType = "wave.failed"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	PlanID      string         `json:"plan_id"`
	ExecutionID string         `json:"execution_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	PlanName   string `json:"plan_name,omitempty"`
	IsDrill    bool   `json:"is_drill"`
	TotalWaves int    `json:"total_waves"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Status         models.ExecutionStatus `json:"status"`
	CompletedWaves int                    `json:"completed_waves"`
	FailedWaves    int                    `json:"failed_waves"`
	Duration       time.Duration          `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	Error string `json:"error,omitempty"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionPaused struct {
	BaseEvent

	PausedBeforeWave int `json:"paused_before_wave"`
}

func (e ExecutionPaused) GetType() EventType {
	return ExecutionPausedEvent
}

type ExecutionResumed struct {
	BaseEvent

	WaveNumber int `json:"wave_number"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

type ExecutionTimeout struct {
	BaseEvent

	WaveNumber       int `json:"wave_number"`
	TotalWaitSeconds int `json:"total_wait_seconds"`
}

func (e ExecutionTimeout) GetType() EventType {
	return ExecutionTimeoutEvent
}

type WaveStarted struct {
	BaseEvent

	WaveNumber int      `json:"wave_number"`
	JobID      string   `json:"job_id,omitempty"`
	ServerIDs  []string `json:"server_ids,omitempty"`
}

func (e WaveStarted) GetType() EventType {
	return WaveStartedEvent
}

type WaveCompleted struct {
	BaseEvent

	WaveNumber int `json:"wave_number"`
	Servers    int `json:"servers"`
}

func (e WaveCompleted) GetType() EventType {
	return WaveCompletedEvent
}

type WaveFailed struct {
	BaseEvent

	WaveNumber int    `json:"wave_number"`
	Error      string `json:"error,omitempty"`
}

func (e WaveFailed) GetType() EventType {
	return WaveFailedEvent
}
