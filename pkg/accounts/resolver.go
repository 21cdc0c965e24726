// Package accounts resolves which AWS account and region a recovery plan
// operates in, and whether cross-account credentials are required.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// DefaultCrossAccountRole is assumed in target accounts that have no
// registered role name.
const DefaultCrossAccountRole = "CutoverRecoveryExecutionRole"

// MultiAccountPlanError reports a plan whose waves reference protection
// groups owned by more than one account. Multi-account plans are rejected,
// never silently merged.
type MultiAccountPlanError struct {
	AccountIDs []string
}

func (e *MultiAccountPlanError) Error() string {
	return fmt.Sprintf("recovery plan references protection groups in multiple accounts %v: plans must target a single account", e.AccountIDs)
}

// Resolver derives the AccountContext for a plan. Resolution is read-only
// and idempotent; it may be called repeatedly.
type Resolver struct {
	groups           persistence.ProtectionGroupRepository
	accounts         persistence.TargetAccountRepository
	currentAccountID string
	logger           *slog.Logger
}

// NewResolver creates an account resolver. currentAccountID identifies the
// account the orchestrator itself runs in.
func NewResolver(
	groups persistence.ProtectionGroupRepository,
	accounts persistence.TargetAccountRepository,
	currentAccountID string,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		groups:           groups,
		accounts:         accounts,
		currentAccountID: currentAccountID,
		logger:           logger,
	}
}

// Resolve determines the single owning account and region for the plan's
// protection groups. Plans spanning more than one account fail with
// MultiAccountPlanError.
func (r *Resolver) Resolve(ctx context.Context, plan *models.RecoveryPlan) (*models.AccountContext, error) {
	accountIDs := make(map[string]struct{})
	region := ""

	for _, wave := range plan.Waves {
		group, err := r.groups.GetByID(ctx, wave.ProtectionGroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up protection group %s for wave %d: %w", wave.ProtectionGroupID, wave.WaveNumber, err)
		}

		accountIDs[group.AccountID] = struct{}{}

		if region == "" {
			region = group.Region
		}
	}

	if len(accountIDs) > 1 {
		ids := make([]string, 0, len(accountIDs))
		for id := range accountIDs {
			ids = append(ids, id)
		}

		sort.Strings(ids)

		return nil, &MultiAccountPlanError{AccountIDs: ids}
	}

	accountID := r.currentAccountID
	for id := range accountIDs {
		accountID = id
	}

	if accountID == r.currentAccountID || accountID == "" {
		return &models.AccountContext{
			AccountID:        r.currentAccountID,
			Region:           region,
			IsCurrentAccount: true,
		}, nil
	}

	target, err := r.accounts.GetByID(ctx, accountID)
	if err != nil && !persistence.IsAccountNotFound(err) {
		return nil, fmt.Errorf("failed to look up target account %s: %w", accountID, err)
	}

	roleName := DefaultCrossAccountRole
	externalID := ""

	if target != nil && target.RoleName != "" {
		roleName = target.RoleName
		externalID = target.ExternalID
	} else {
		r.logger.WarnContext(ctx, "No cross-account role registered for target account, falling back to default role",
			"account_id", accountID,
			"role_name", DefaultCrossAccountRole,
		)
	}

	return &models.AccountContext{
		AccountID:        accountID,
		Region:           region,
		AssumeRoleName:   roleName,
		ExternalID:       externalID,
		IsCurrentAccount: false,
	}, nil
}
