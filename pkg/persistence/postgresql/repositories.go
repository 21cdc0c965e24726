package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// GroupRepository handles protection-group database operations.
type GroupRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const groupColumns = `
	id
  , name
  , account_id
  , region
  , source_server_ids
  , selection_tags
  , launch_config
  , launch_overrides
  , owner
  , created_at
  , updated_at
  , deleted_at
`

func (r *GroupRepository) List(ctx context.Context) ([]*models.ProtectionGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM protection_groups WHERE deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewStoreError("List", "group", "", err)
	}
	defer closeRows(ctx, r.logger, rows)

	groups := make([]*models.ProtectionGroup, 0)

	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "group", "", err)
		}

		groups = append(groups, group)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("List", "group", "", err)
	}

	return groups, nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.ProtectionGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM protection_groups WHERE id = $1 AND deleted_at IS NULL`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "group", id, persistence.ErrGroupNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "group", id, err)
	}

	return group, nil
}

func (r *GroupRepository) Save(ctx context.Context, group *models.ProtectionGroup) error {
	serverIDs, err := json.Marshal(group.SourceServerIDs)
	if err != nil {
		return persistence.NewStoreError("Save", "group", group.ID, err)
	}

	tags, err := json.Marshal(group.SelectionTags)
	if err != nil {
		return persistence.NewStoreError("Save", "group", group.ID, err)
	}

	launchConfig, err := json.Marshal(group.LaunchConfig)
	if err != nil {
		return persistence.NewStoreError("Save", "group", group.ID, err)
	}

	launchOverrides, err := json.Marshal(group.LaunchOverrides)
	if err != nil {
		return persistence.NewStoreError("Save", "group", group.ID, err)
	}

	query := `
		INSERT INTO protection_groups (id, name, account_id, region, source_server_ids, selection_tags, launch_config, launch_overrides, owner, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			account_id = EXCLUDED.account_id,
			region = EXCLUDED.region,
			source_server_ids = EXCLUDED.source_server_ids,
			selection_tags = EXCLUDED.selection_tags,
			launch_config = EXCLUDED.launch_config,
			launch_overrides = EXCLUDED.launch_overrides,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		group.ID, group.Name, group.AccountID, group.Region,
		serverIDs, tags, launchConfig, launchOverrides,
		group.Owner, group.CreatedAt, group.UpdatedAt, group.DeletedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "group", group.ID, err)
	}

	return nil
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "protection_groups", "id", "group", id, persistence.ErrGroupNotFound)
}

// PlanRepository handles recovery-plan database operations.
type PlanRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const planColumns = `
	id
  , name
  , description
  , waves
  , owner
  , created_at
  , updated_at
  , deleted_at
`

func (r *PlanRepository) List(ctx context.Context) ([]*models.RecoveryPlan, error) {
	query := `SELECT ` + planColumns + ` FROM recovery_plans WHERE deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewStoreError("List", "plan", "", err)
	}
	defer closeRows(ctx, r.logger, rows)

	plans := make([]*models.RecoveryPlan, 0)

	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "plan", "", err)
		}

		plans = append(plans, plan)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("List", "plan", "", err)
	}

	return plans, nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (*models.RecoveryPlan, error) {
	query := `SELECT ` + planColumns + ` FROM recovery_plans WHERE id = $1 AND deleted_at IS NULL`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "plan", id, persistence.ErrPlanNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "plan", id, err)
	}

	return plan, nil
}

func (r *PlanRepository) Save(ctx context.Context, plan *models.RecoveryPlan) error {
	waves, err := json.Marshal(plan.Waves)
	if err != nil {
		return persistence.NewStoreError("Save", "plan", plan.ID, err)
	}

	query := `
		INSERT INTO recovery_plans (id, name, description, waves, owner, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			waves = EXCLUDED.waves,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		plan.ID, plan.Name, plan.Description, waves,
		plan.Owner, plan.CreatedAt, plan.UpdatedAt, plan.DeletedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "plan", plan.ID, err)
	}

	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "recovery_plans", "id", "plan", id, persistence.ErrPlanNotFound)
}

// AccountRepository handles target-account database operations.
type AccountRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const accountColumns = `
	account_id
  , name
  , role_name
  , external_id
  , created_at
  , updated_at
  , deleted_at
`

func (r *AccountRepository) List(ctx context.Context) ([]*models.TargetAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM target_accounts WHERE deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewStoreError("List", "account", "", err)
	}
	defer closeRows(ctx, r.logger, rows)

	accounts := make([]*models.TargetAccount, 0)

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "account", "", err)
		}

		accounts = append(accounts, account)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("List", "account", "", err)
	}

	return accounts, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*models.TargetAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM target_accounts WHERE account_id = $1 AND deleted_at IS NULL`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "account", accountID, persistence.ErrAccountNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "account", accountID, err)
	}

	return account, nil
}

func (r *AccountRepository) Save(ctx context.Context, account *models.TargetAccount) error {
	query := `
		INSERT INTO target_accounts (account_id, name, role_name, external_id, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id) DO UPDATE SET
			name = EXCLUDED.name,
			role_name = EXCLUDED.role_name,
			external_id = EXCLUDED.external_id,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err := r.db.ExecContext(ctx, query,
		account.AccountID, account.Name, account.RoleName, account.ExternalID,
		account.CreatedAt, account.UpdatedAt, account.DeletedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "account", account.AccountID, err)
	}

	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, accountID string) error {
	return softDelete(ctx, r.db, "target_accounts", "account_id", "account", accountID, persistence.ErrAccountNotFound)
}

// ExecutionRepository stores execution state snapshots as whole JSONB
// documents, with denormalized columns for querying.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *ExecutionRepository) GetByID(ctx context.Context, executionID string) (*models.ExecutionState, error) {
	var raw []byte

	query := `SELECT state FROM executions WHERE execution_id = $1`

	err := r.db.QueryRowContext(ctx, query, executionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", "execution", executionID, persistence.ErrExecutionNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "execution", executionID, err)
	}

	state := &models.ExecutionState{}

	err = json.Unmarshal(raw, state)
	if err != nil {
		return nil, persistence.NewStoreError("GetByID", "execution", executionID, err)
	}

	return state, nil
}

func (r *ExecutionRepository) ListByPlan(ctx context.Context, planID string) ([]*models.ExecutionState, error) {
	query := `SELECT state FROM executions WHERE plan_id = $1 ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, persistence.NewStoreError("ListByPlan", "execution", planID, err)
	}
	defer closeRows(ctx, r.logger, rows)

	executions := make([]*models.ExecutionState, 0)

	for rows.Next() {
		var raw []byte

		err = rows.Scan(&raw)
		if err != nil {
			return nil, persistence.NewStoreError("ListByPlan", "execution", planID, err)
		}

		state := &models.ExecutionState{}

		err = json.Unmarshal(raw, state)
		if err != nil {
			return nil, persistence.NewStoreError("ListByPlan", "execution", planID, err)
		}

		executions = append(executions, state)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("ListByPlan", "execution", planID, err)
	}

	return executions, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, state *models.ExecutionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return persistence.NewStoreError("Save", "execution", state.ExecutionID, err)
	}

	query := `
		INSERT INTO executions (execution_id, plan_id, status, state, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (execution_id) DO UPDATE SET
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		state.ExecutionID, state.PlanID, string(state.Status), raw,
		state.StartedAt, state.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "execution", state.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) Delete(ctx context.Context, executionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM executions WHERE execution_id = $1`, executionID)
	if err != nil {
		return persistence.NewStoreError("Delete", "execution", executionID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", "execution", executionID, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", "execution", executionID, persistence.ErrExecutionNotFound)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*models.ProtectionGroup, error) {
	var (
		group           models.ProtectionGroup
		serverIDs       []byte
		tags            []byte
		launchConfig    []byte
		launchOverrides []byte
		owner           sql.NullString
		deletedAt       sql.NullTime
	)

	err := row.Scan(
		&group.ID, &group.Name, &group.AccountID, &group.Region,
		&serverIDs, &tags, &launchConfig, &launchOverrides,
		&owner, &group.CreatedAt, &group.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	group.Owner = owner.String

	if deletedAt.Valid {
		group.DeletedAt = &deletedAt.Time
	}

	err = unmarshalColumn(serverIDs, &group.SourceServerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode source_server_ids: %w", err)
	}

	err = unmarshalColumn(tags, &group.SelectionTags)
	if err != nil {
		return nil, fmt.Errorf("failed to decode selection_tags: %w", err)
	}

	err = unmarshalColumn(launchConfig, &group.LaunchConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to decode launch_config: %w", err)
	}

	err = unmarshalColumn(launchOverrides, &group.LaunchOverrides)
	if err != nil {
		return nil, fmt.Errorf("failed to decode launch_overrides: %w", err)
	}

	return &group, nil
}

func scanPlan(row scanner) (*models.RecoveryPlan, error) {
	var (
		plan        models.RecoveryPlan
		waves       []byte
		description sql.NullString
		owner       sql.NullString
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&plan.ID, &plan.Name, &description, &waves,
		&owner, &plan.CreatedAt, &plan.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.Description = description.String
	plan.Owner = owner.String

	if deletedAt.Valid {
		plan.DeletedAt = &deletedAt.Time
	}

	err = unmarshalColumn(waves, &plan.Waves)
	if err != nil {
		return nil, fmt.Errorf("failed to decode waves: %w", err)
	}

	return &plan, nil
}

func scanAccount(row scanner) (*models.TargetAccount, error) {
	var (
		account    models.TargetAccount
		roleName   sql.NullString
		externalID sql.NullString
		deletedAt  sql.NullTime
	)

	err := row.Scan(
		&account.AccountID, &account.Name, &roleName, &externalID,
		&account.CreatedAt, &account.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	account.RoleName = roleName.String
	account.ExternalID = externalID.String

	if deletedAt.Valid {
		account.DeletedAt = &deletedAt.Time
	}

	return &account, nil
}

func unmarshalColumn(raw []byte, out any) error {
	if len(raw) == 0 {
		return nil
	}

	return json.Unmarshal(raw, out)
}

func softDelete(ctx context.Context, db *sql.DB, table, column, kind, id string, notFound error) error {
	query := `UPDATE ` + table + ` SET deleted_at = $1 WHERE ` + column + ` = $2 AND deleted_at IS NULL`

	result, err := db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return persistence.NewStoreError("Delete", kind, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", kind, id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", kind, id, notFound)
	}

	return nil
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
