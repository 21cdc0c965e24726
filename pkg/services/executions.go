package services

import (
	"context"
	"fmt"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/orchestrator"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// ErrExecutionNotFound is returned when an execution is not found.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// Executions drives plan executions through the orchestrator and exposes
// their recorded state.
type Executions struct {
	persistence  persistence.Persistence
	orchestrator *orchestrator.Orchestrator
}

// NewExecutions creates a new execution service.
func NewExecutions(persistence persistence.Persistence, orch *orchestrator.Orchestrator) *Executions {
	return &Executions{
		persistence:  persistence,
		orchestrator: orch,
	}
}

// Begin starts a new execution of the given plan and returns its initial
// state. Business failures (such as a multi-account plan) come back encoded
// in the state, not as an error.
func (e *Executions) Begin(ctx context.Context, planID string, isDrill bool) (*models.ExecutionState, error) {
	plan, err := e.persistence.RecoveryPlans().GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	state, err := e.orchestrator.Dispatch(ctx, orchestrator.Begin{
		Plan:    plan,
		IsDrill: isDrill,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin execution of plan %s: %w", planID, err)
	}

	return e.save(ctx, state)
}

// Poll performs one status check on the execution's in-flight wave.
func (e *Executions) Poll(ctx context.Context, executionID string) (*models.ExecutionState, error) {
	current, err := e.fetch(ctx, executionID)
	if err != nil {
		return nil, err
	}

	state, err := e.orchestrator.Dispatch(ctx, orchestrator.PollWave{State: current})
	if err != nil {
		return nil, fmt.Errorf("failed to poll execution %s: %w", executionID, err)
	}

	return e.save(ctx, state)
}

// Pause suspends the execution, storing the host's resume token.
func (e *Executions) Pause(ctx context.Context, executionID, token string) (*models.ExecutionState, error) {
	current, err := e.fetch(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if current.Status.Terminal() {
		return nil, NewValidationError(
			"Executions.Pause",
			"EXECUTION_TERMINAL",
			fmt.Sprintf("execution %s already finished with status %s", executionID, current.Status),
			ErrExecutionTerminal,
		)
	}

	state, err := e.orchestrator.Dispatch(ctx, orchestrator.Pause{State: current, Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to pause execution %s: %w", executionID, err)
	}

	return e.save(ctx, state)
}

// Resume restarts a paused execution at the wave recorded when it paused.
func (e *Executions) Resume(ctx context.Context, executionID string) (*models.ExecutionState, error) {
	current, err := e.fetch(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if current.Status != models.ExecutionStatusPaused {
		return nil, NewValidationError(
			"Executions.Resume",
			"EXECUTION_NOT_PAUSED",
			fmt.Sprintf("execution %s is %s, not paused", executionID, current.Status),
			ErrExecutionNotPaused,
		)
	}

	state, err := e.orchestrator.Dispatch(ctx, orchestrator.Resume{State: current})
	if err != nil {
		return nil, fmt.Errorf("failed to resume execution %s: %w", executionID, err)
	}

	return e.save(ctx, state)
}

// FetchByID retrieves the recorded state of an execution.
func (e *Executions) FetchByID(ctx context.Context, executionID string) (*models.ExecutionState, error) {
	return e.fetch(ctx, executionID)
}

// ListByPlan retrieves all recorded executions of a plan.
func (e *Executions) ListByPlan(ctx context.Context, planID string) ([]*models.ExecutionState, error) {
	executions, err := e.persistence.Executions().ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions for plan %s: %w", planID, err)
	}

	return executions, nil
}

func (e *Executions) fetch(ctx context.Context, executionID string) (*models.ExecutionState, error) {
	return e.persistence.Executions().GetByID(ctx, executionID)
}

func (e *Executions) save(ctx context.Context, state *models.ExecutionState) (*models.ExecutionState, error) {
	err := e.persistence.Executions().Save(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to record execution state: %w", err)
	}

	return state, nil
}
