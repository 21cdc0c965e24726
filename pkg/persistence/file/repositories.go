package file

import (
	"context"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// GroupRepository stores protection groups as JSON documents.
type GroupRepository struct {
	store *store
}

func (r *GroupRepository) List(_ context.Context) ([]*models.ProtectionGroup, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("List", "group", "", err)
	}

	groups := make([]*models.ProtectionGroup, 0, len(ids))

	for _, id := range ids {
		group := &models.ProtectionGroup{}

		found, err := r.store.read(id, group)
		if err != nil {
			return nil, persistence.NewStoreError("List", "group", id, err)
		}

		if found && group.DeletedAt == nil {
			groups = append(groups, group)
		}
	}

	return groups, nil
}

func (r *GroupRepository) GetByID(_ context.Context, id string) (*models.ProtectionGroup, error) {
	group := &models.ProtectionGroup{}

	found, err := r.store.read(id, group)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "group", id, err)
	}

	if !found || group.DeletedAt != nil {
		return nil, persistence.NewStoreError("GetByID", "group", id, persistence.ErrGroupNotFound)
	}

	return group, nil
}

func (r *GroupRepository) Save(_ context.Context, group *models.ProtectionGroup) error {
	err := r.store.write(group.ID, group)
	if err != nil {
		return persistence.NewStoreError("Save", "group", group.ID, err)
	}

	return nil
}

func (r *GroupRepository) Delete(_ context.Context, id string) error {
	found, err := r.store.delete(id)
	if err != nil {
		return persistence.NewStoreError("Delete", "group", id, err)
	}

	if !found {
		return persistence.NewStoreError("Delete", "group", id, persistence.ErrGroupNotFound)
	}

	return nil
}

// PlanRepository stores recovery plans as JSON documents.
type PlanRepository struct {
	store *store
}

func (r *PlanRepository) List(_ context.Context) ([]*models.RecoveryPlan, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("List", "plan", "", err)
	}

	plans := make([]*models.RecoveryPlan, 0, len(ids))

	for _, id := range ids {
		plan := &models.RecoveryPlan{}

		found, err := r.store.read(id, plan)
		if err != nil {
			return nil, persistence.NewStoreError("List", "plan", id, err)
		}

		if found && plan.DeletedAt == nil {
			plans = append(plans, plan)
		}
	}

	return plans, nil
}

func (r *PlanRepository) GetByID(_ context.Context, id string) (*models.RecoveryPlan, error) {
	plan := &models.RecoveryPlan{}

	found, err := r.store.read(id, plan)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "plan", id, err)
	}

	if !found || plan.DeletedAt != nil {
		return nil, persistence.NewStoreError("GetByID", "plan", id, persistence.ErrPlanNotFound)
	}

	return plan, nil
}

func (r *PlanRepository) Save(_ context.Context, plan *models.RecoveryPlan) error {
	err := r.store.write(plan.ID, plan)
	if err != nil {
		return persistence.NewStoreError("Save", "plan", plan.ID, err)
	}

	return nil
}

func (r *PlanRepository) Delete(_ context.Context, id string) error {
	found, err := r.store.delete(id)
	if err != nil {
		return persistence.NewStoreError("Delete", "plan", id, err)
	}

	if !found {
		return persistence.NewStoreError("Delete", "plan", id, persistence.ErrPlanNotFound)
	}

	return nil
}

// AccountRepository stores target accounts as JSON documents keyed by
// account ID.
type AccountRepository struct {
	store *store
}

func (r *AccountRepository) List(_ context.Context) ([]*models.TargetAccount, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("List", "account", "", err)
	}

	accounts := make([]*models.TargetAccount, 0, len(ids))

	for _, id := range ids {
		account := &models.TargetAccount{}

		found, err := r.store.read(id, account)
		if err != nil {
			return nil, persistence.NewStoreError("List", "account", id, err)
		}

		if found && account.DeletedAt == nil {
			accounts = append(accounts, account)
		}
	}

	return accounts, nil
}

func (r *AccountRepository) GetByID(_ context.Context, accountID string) (*models.TargetAccount, error) {
	account := &models.TargetAccount{}

	found, err := r.store.read(accountID, account)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "account", accountID, err)
	}

	if !found || account.DeletedAt != nil {
		return nil, persistence.NewStoreError("GetByID", "account", accountID, persistence.ErrAccountNotFound)
	}

	return account, nil
}

func (r *AccountRepository) Save(_ context.Context, account *models.TargetAccount) error {
	err := r.store.write(account.AccountID, account)
	if err != nil {
		return persistence.NewStoreError("Save", "account", account.AccountID, err)
	}

	return nil
}

func (r *AccountRepository) Delete(_ context.Context, accountID string) error {
	found, err := r.store.delete(accountID)
	if err != nil {
		return persistence.NewStoreError("Delete", "account", accountID, err)
	}

	if !found {
		return persistence.NewStoreError("Delete", "account", accountID, persistence.ErrAccountNotFound)
	}

	return nil
}

// ExecutionRepository stores execution state snapshots keyed by execution
// ID. Save is an upsert; the latest snapshot wins.
type ExecutionRepository struct {
	store *store
}

func (r *ExecutionRepository) GetByID(_ context.Context, executionID string) (*models.ExecutionState, error) {
	state := &models.ExecutionState{}

	found, err := r.store.read(executionID, state)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "execution", executionID, err)
	}

	if !found {
		return nil, persistence.NewStoreError("GetByID", "execution", executionID, persistence.ErrExecutionNotFound)
	}

	return state, nil
}

func (r *ExecutionRepository) ListByPlan(_ context.Context, planID string) ([]*models.ExecutionState, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewStoreError("ListByPlan", "execution", planID, err)
	}

	executions := make([]*models.ExecutionState, 0)

	for _, id := range ids {
		state := &models.ExecutionState{}

		found, err := r.store.read(id, state)
		if err != nil {
			return nil, persistence.NewStoreError("ListByPlan", "execution", id, err)
		}

		if found && state.PlanID == planID {
			executions = append(executions, state)
		}
	}

	return executions, nil
}

func (r *ExecutionRepository) Save(_ context.Context, state *models.ExecutionState) error {
	err := r.store.write(state.ExecutionID, state)
	if err != nil {
		return persistence.NewStoreError("Save", "execution", state.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) Delete(_ context.Context, executionID string) error {
	found, err := r.store.delete(executionID)
	if err != nil {
		return persistence.NewStoreError("Delete", "execution", executionID, err)
	}

	if !found {
		return persistence.NewStoreError("Delete", "execution", executionID, persistence.ErrExecutionNotFound)
	}

	return nil
}
