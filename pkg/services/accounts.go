package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// ErrAccountNotFound is returned when a target account is not found.
var ErrAccountNotFound = persistence.ErrAccountNotFound

// Accounts manages registered cross-account targets.
type Accounts struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewAccounts creates a new target account service.
func NewAccounts(persistence persistence.Persistence) *Accounts {
	return &Accounts{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// List retrieves all registered target accounts.
func (a *Accounts) List(ctx context.Context) ([]*models.TargetAccount, error) {
	accounts, err := a.persistence.TargetAccounts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list target accounts: %w", err)
	}

	return accounts, nil
}

// FetchByID retrieves a target account by its AWS account ID.
func (a *Accounts) FetchByID(ctx context.Context, accountID string) (*models.TargetAccount, error) {
	return a.persistence.TargetAccounts().GetByID(ctx, accountID)
}

// Register adds or updates a target account. The AWS account ID is the
// natural key, so registering twice overwrites the earlier entry.
func (a *Accounts) Register(ctx context.Context, account *models.TargetAccount) (*models.TargetAccount, error) {
	if account == nil {
		return nil, ErrAccountNil
	}

	if err := a.validate.Struct(account); err != nil {
		return nil, NewValidationError("Accounts.Register", "INVALID_ACCOUNT", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()

	existing, err := a.persistence.TargetAccounts().GetByID(ctx, account.AccountID)
	if err != nil && !persistence.IsAccountNotFound(err) {
		return nil, err
	}

	if existing != nil {
		account.CreatedAt = existing.CreatedAt
	} else {
		account.CreatedAt = now
	}

	account.UpdatedAt = now

	err = a.persistence.TargetAccounts().Save(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to register target account: %w", err)
	}

	return account, nil
}

// Delete removes a target account registration.
func (a *Accounts) Delete(ctx context.Context, accountID string) error {
	err := a.persistence.TargetAccounts().Delete(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete target account: %w", err)
	}

	return nil
}
