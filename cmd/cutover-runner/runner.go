// Package main provides the cutover runner: a self-contained workflow host
// that drives plan executions through the orchestrator on a poll loop, with
// an optional cron schedule for recurring drills.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cutoverlabs/cutover/pkg/log"
	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/orchestrator"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// Runner drives active executions: every tick it polls each in-flight wave
// once and persists the returned state blob.
type Runner struct {
	logger       *slog.Logger
	orchestrator *orchestrator.Orchestrator
	store        *StateStore
	plans        persistence.RecoveryPlanRepository
	pollInterval time.Duration
	cron         *cron.Cron
}

func NewRunner(
	logger *slog.Logger,
	orch *orchestrator.Orchestrator,
	store *StateStore,
	plans persistence.RecoveryPlanRepository,
	pollInterval time.Duration,
) *Runner {
	return &Runner{
		logger:       logger,
		orchestrator: orch,
		store:        store,
		plans:        plans,
		pollInterval: pollInterval,
		cron:         cron.New(),
	}
}

// ScheduleDrill registers a recurring drill of the given plan on a cron
// schedule.
func (r *Runner) ScheduleDrill(ctx context.Context, schedule, planID string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		_, err := r.StartPlan(ctx, planID, true)
		if err != nil {
			r.logger.ErrorContext(ctx, "Scheduled drill failed to start", "plan_id", planID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid drill schedule %q: %w", schedule, err)
	}

	r.logger.InfoContext(ctx, "Drill scheduled", "plan_id", planID, "schedule", schedule)

	return nil
}

// StartPlan begins a new execution of the plan and registers it with the
// poll loop.
func (r *Runner) StartPlan(ctx context.Context, planID string, isDrill bool) (*models.ExecutionState, error) {
	plan, err := r.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", planID, err)
	}

	state, err := r.orchestrator.Dispatch(ctx, orchestrator.Begin{Plan: plan, IsDrill: isDrill})
	if err != nil {
		return nil, fmt.Errorf("failed to begin execution of plan %s: %w", planID, err)
	}

	if err := r.store.Save(ctx, state); err != nil {
		return nil, err
	}

	log.WithExecution(r.logger, state.PlanID, state.ExecutionID).
		InfoContext(ctx, "Execution started", "is_drill", isDrill, "status", state.Status)

	return state, nil
}

// Run blocks, polling every active execution once per interval until the
// context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.cron.Start()
	defer r.cron.Stop()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "Runner started", "poll_interval", r.pollInterval)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "Runner stopping")

			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	ids, err := r.store.Active(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list active executions", "error", err)

		return
	}

	for _, executionID := range ids {
		r.pollOne(ctx, executionID)
	}
}

func (r *Runner) pollOne(ctx context.Context, executionID string) {
	state, err := r.store.Load(ctx, executionID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load execution state", "execution_id", executionID, "error", err)

		return
	}

	logger := log.WithExecution(r.logger, state.PlanID, state.ExecutionID)

	// Paused executions stay in the active set but are not polled; resume
	// arrives out of band.
	if state.Status == models.ExecutionStatusPaused || state.PausedBeforeWave != nil {
		return
	}

	next, err := r.orchestrator.Dispatch(ctx, orchestrator.PollWave{State: state})
	if err != nil {
		logger.ErrorContext(ctx, "Poll dispatch failed", "error", err)

		return
	}

	if err := r.store.Save(ctx, next); err != nil {
		logger.ErrorContext(ctx, "Failed to save execution state", "error", err)

		return
	}

	if next.Status.Terminal() {
		logger.InfoContext(ctx, "Execution finished",
			"status", next.Status,
			"completed_waves", next.CompletedWaves,
			"failed_waves", next.FailedWaves,
		)
	}
}
