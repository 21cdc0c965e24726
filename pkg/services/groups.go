package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// ErrGroupNotFound is returned when a protection group is not found.
var ErrGroupNotFound = persistence.ErrGroupNotFound

// Groups manages protection groups.
type Groups struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewGroups creates a new protection group service.
func NewGroups(persistence persistence.Persistence) *Groups {
	return &Groups{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// HealthCheck checks the health of the persistence layer.
func (g *Groups) HealthCheck(ctx context.Context) (string, bool) {
	if g.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := g.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all protection groups.
func (g *Groups) List(ctx context.Context) ([]*models.ProtectionGroup, error) {
	groups, err := g.persistence.ProtectionGroups().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list protection groups: %w", err)
	}

	return groups, nil
}

// FetchByID retrieves a protection group by its ID.
func (g *Groups) FetchByID(ctx context.Context, id string) (*models.ProtectionGroup, error) {
	return g.persistence.ProtectionGroups().GetByID(ctx, id)
}

// Create adds a new protection group.
func (g *Groups) Create(ctx context.Context, group *models.ProtectionGroup) (*models.ProtectionGroup, error) {
	if group == nil {
		return nil, ErrGroupNil
	}

	if err := g.validate.Struct(group); err != nil {
		return nil, NewValidationError("Groups.Create", "INVALID_GROUP", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()
	group.ID = uuid.New().String()
	group.CreatedAt = now
	group.UpdatedAt = now

	err := g.persistence.ProtectionGroups().Save(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to create protection group: %w", err)
	}

	return group, nil
}

// Update modifies an existing protection group by its ID.
func (g *Groups) Update(
	ctx context.Context,
	groupID string,
	group *models.ProtectionGroup,
) (*models.ProtectionGroup, error) {
	if group == nil {
		return nil, ErrGroupNil
	}

	existing, err := g.persistence.ProtectionGroups().GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	group.ID = groupID
	group.CreatedAt = existing.CreatedAt
	group.UpdatedAt = time.Now().UTC()

	if err := g.validate.Struct(group); err != nil {
		return nil, NewValidationError("Groups.Update", "INVALID_GROUP", err.Error(), ErrInvalidRequest)
	}

	err = g.persistence.ProtectionGroups().Save(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to update protection group: %w", err)
	}

	return group, nil
}

// Delete removes a protection group by its ID. Groups referenced by a
// recovery plan cannot be deleted.
func (g *Groups) Delete(ctx context.Context, groupID string) error {
	if _, err := g.persistence.ProtectionGroups().GetByID(ctx, groupID); err != nil {
		return err
	}

	plans, err := g.persistence.RecoveryPlans().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to check plan references: %w", err)
	}

	for _, plan := range plans {
		for _, wave := range plan.Waves {
			if wave.ProtectionGroupID == groupID {
				return NewValidationError(
					"Groups.Delete",
					"GROUP_IN_USE",
					fmt.Sprintf("protection group %s is referenced by plan %s", groupID, plan.ID),
					ErrGroupInUse,
				)
			}
		}
	}

	err = g.persistence.ProtectionGroups().Delete(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete protection group: %w", err)
	}

	return nil
}
