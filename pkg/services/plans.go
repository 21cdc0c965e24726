package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// ErrPlanNotFound is returned when a recovery plan is not found.
var ErrPlanNotFound = persistence.ErrPlanNotFound

// Plans manages recovery plans.
type Plans struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewPlans creates a new recovery plan service.
func NewPlans(persistence persistence.Persistence) *Plans {
	return &Plans{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// List retrieves all recovery plans.
func (p *Plans) List(ctx context.Context) ([]*models.RecoveryPlan, error) {
	plans, err := p.persistence.RecoveryPlans().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recovery plans: %w", err)
	}

	return plans, nil
}

// FetchByID retrieves a recovery plan by its ID.
func (p *Plans) FetchByID(ctx context.Context, id string) (*models.RecoveryPlan, error) {
	return p.persistence.RecoveryPlans().GetByID(ctx, id)
}

// Create adds a new recovery plan. Waves are validated against existing
// protection groups and stored in wave-number order.
func (p *Plans) Create(ctx context.Context, plan *models.RecoveryPlan) (*models.RecoveryPlan, error) {
	if err := p.preparePlan(ctx, "Plans.Create", plan); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	plan.ID = uuid.New().String()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	err := p.persistence.RecoveryPlans().Save(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to create recovery plan: %w", err)
	}

	return plan, nil
}

// Update modifies an existing recovery plan by its ID.
func (p *Plans) Update(
	ctx context.Context,
	planID string,
	plan *models.RecoveryPlan,
) (*models.RecoveryPlan, error) {
	existing, err := p.persistence.RecoveryPlans().GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := p.preparePlan(ctx, "Plans.Update", plan); err != nil {
		return nil, err
	}

	plan.ID = planID
	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now().UTC()

	err = p.persistence.RecoveryPlans().Save(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to update recovery plan: %w", err)
	}

	return plan, nil
}

// Delete removes a recovery plan by its ID. Plans with a non-terminal
// execution cannot be deleted.
func (p *Plans) Delete(ctx context.Context, planID string) error {
	if _, err := p.persistence.RecoveryPlans().GetByID(ctx, planID); err != nil {
		return err
	}

	executions, err := p.persistence.Executions().ListByPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to check plan executions: %w", err)
	}

	for _, execution := range executions {
		if !execution.Status.Terminal() {
			return NewValidationError(
				"Plans.Delete",
				"PLAN_HAS_LIVE_EXECUTION",
				fmt.Sprintf("execution %s is still %s", execution.ExecutionID, execution.Status),
				ErrPlanHasLiveExecution,
			)
		}
	}

	err = p.persistence.RecoveryPlans().Delete(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to delete recovery plan: %w", err)
	}

	return nil
}

// preparePlan validates the plan, checks wave references, and normalizes
// wave ordering.
func (p *Plans) preparePlan(ctx context.Context, op string, plan *models.RecoveryPlan) error {
	if plan == nil {
		return ErrPlanNil
	}

	if err := p.validate.Struct(plan); err != nil {
		return NewValidationError(op, "INVALID_PLAN", err.Error(), ErrInvalidRequest)
	}

	seen := make(map[int]bool, len(plan.Waves))

	for _, wave := range plan.Waves {
		if seen[wave.WaveNumber] {
			return NewValidationError(
				op,
				"DUPLICATE_WAVE_NUMBER",
				fmt.Sprintf("wave number %d appears more than once", wave.WaveNumber),
				ErrDuplicateWaveNumber,
			)
		}

		seen[wave.WaveNumber] = true

		_, err := p.persistence.ProtectionGroups().GetByID(ctx, wave.ProtectionGroupID)
		if persistence.IsGroupNotFound(err) {
			return NewValidationError(
				op,
				"UNKNOWN_GROUP",
				fmt.Sprintf("wave %d references unknown protection group %s", wave.WaveNumber, wave.ProtectionGroupID),
				ErrUnknownGroup,
			)
		}

		if err != nil {
			return fmt.Errorf("failed to resolve protection group %s: %w", wave.ProtectionGroupID, err)
		}
	}

	sort.Slice(plan.Waves, func(i, j int) bool {
		return plan.Waves[i].WaveNumber < plan.Waves[j].WaveNumber
	})

	return nil
}
