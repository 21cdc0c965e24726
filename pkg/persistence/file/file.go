// Package file provides file-based persistence for protection groups,
// recovery plans, target accounts, and execution history.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/cutoverlabs/cutover/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of the file system.
// Each entity is stored as a JSON document under <root>/<kind>/<id>.json.
type Persistence struct {
	root       string
	groups     *GroupRepository
	plans      *PlanRepository
	accounts   *AccountRepository
	executions *ExecutionRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:       cleanRoot,
		groups:     &GroupRepository{store: newStore(cleanRoot, "groups")},
		plans:      &PlanRepository{store: newStore(cleanRoot, "plans")},
		accounts:   &AccountRepository{store: newStore(cleanRoot, "accounts")},
		executions: &ExecutionRepository{store: newStore(cleanRoot, "executions")},
	}
}

func (p *Persistence) ProtectionGroups() persistence.ProtectionGroupRepository {
	return p.groups
}

func (p *Persistence) RecoveryPlans() persistence.RecoveryPlanRepository {
	return p.plans
}

func (p *Persistence) TargetAccounts() persistence.TargetAccountRepository {
	return p.accounts
}

func (p *Persistence) Executions() persistence.ExecutionRepository {
	return p.executions
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
