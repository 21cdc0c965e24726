// Package persistence provides the data storage abstraction for protection
// groups, recovery plans, target accounts, and execution history.
package persistence

import (
	"context"

	"github.com/cutoverlabs/cutover/pkg/models"
)

// Lookups of absent entities return an error satisfying the matching
// IsXNotFound predicate, never a nil entity with a nil error.

// ProtectionGroupRepository stores protection groups.
type ProtectionGroupRepository interface {
	List(ctx context.Context) ([]*models.ProtectionGroup, error)
	GetByID(ctx context.Context, id string) (*models.ProtectionGroup, error)
	Save(ctx context.Context, group *models.ProtectionGroup) error
	Delete(ctx context.Context, id string) error
}

// RecoveryPlanRepository stores recovery plans.
type RecoveryPlanRepository interface {
	List(ctx context.Context) ([]*models.RecoveryPlan, error)
	GetByID(ctx context.Context, id string) (*models.RecoveryPlan, error)
	Save(ctx context.Context, plan *models.RecoveryPlan) error
	Delete(ctx context.Context, id string) error
}

// TargetAccountRepository stores registered cross-account targets.
type TargetAccountRepository interface {
	List(ctx context.Context) ([]*models.TargetAccount, error)
	GetByID(ctx context.Context, accountID string) (*models.TargetAccount, error)
	Save(ctx context.Context, account *models.TargetAccount) error
	Delete(ctx context.Context, accountID string) error
}

// ExecutionRepository stores execution state snapshots. Save is an upsert
// keyed by execution ID; callers treat write failures as non-fatal logging
// events for status records.
type ExecutionRepository interface {
	GetByID(ctx context.Context, executionID string) (*models.ExecutionState, error)
	ListByPlan(ctx context.Context, planID string) ([]*models.ExecutionState, error)
	Save(ctx context.Context, state *models.ExecutionState) error
	Delete(ctx context.Context, executionID string) error
}

// Persistence is the full storage surface.
type Persistence interface {
	ProtectionGroups() ProtectionGroupRepository
	RecoveryPlans() RecoveryPlanRepository
	TargetAccounts() TargetAccountRepository
	Executions() ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
