package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cutoverlabs/cutover/pkg/models"
)

const (
	stateKeyPrefix = "cutover:executions:"
	activeSetKey   = "cutover:executions:active"
)

// ErrStateNotFound is returned when no state blob exists for an execution.
var ErrStateNotFound = errors.New("execution state not found")

// StateStore holds the runner's in-flight execution state blobs in Redis.
// Each execution is one JSON document; the active set tracks which
// executions the poll loop still drives.
type StateStore struct {
	client *redis.Client
}

// NewStateStore connects to Redis using a redis:// URL.
func NewStateStore(redisURL string) (*StateStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return &StateStore{client: redis.NewClient(opts)}, nil
}

// Save writes the state blob and marks the execution active unless it is
// terminal.
func (s *StateStore) Save(ctx context.Context, state *models.ExecutionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode execution state: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, stateKeyPrefix+state.ExecutionID, raw, 0)

	if state.Status.Terminal() {
		pipe.SRem(ctx, activeSetKey, state.ExecutionID)
	} else {
		pipe.SAdd(ctx, activeSetKey, state.ExecutionID)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save execution state: %w", err)
	}

	return nil
}

// Load reads the state blob for an execution.
func (s *StateStore) Load(ctx context.Context, executionID string) (*models.ExecutionState, error) {
	raw, err := s.client.Get(ctx, stateKeyPrefix+executionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load execution state: %w", err)
	}

	var state models.ExecutionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode execution state: %w", err)
	}

	return &state, nil
}

// Active lists the execution IDs the poll loop should drive.
func (s *StateStore) Active(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active executions: %w", err)
	}

	return ids, nil
}

// HealthCheck pings Redis.
func (s *StateStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (s *StateStore) Close() error {
	return s.client.Close()
}
