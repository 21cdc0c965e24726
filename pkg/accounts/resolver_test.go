package accounts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutoverlabs/cutover/pkg/accounts"
	"github.com/cutoverlabs/cutover/pkg/log"
	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
	"github.com/cutoverlabs/cutover/pkg/persistence/file"
	"github.com/cutoverlabs/cutover/pkg/testutil"
)

const currentAccountID = "123456789012"

func newResolver(t *testing.T) (*accounts.Resolver, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	resolver := accounts.NewResolver(
		store.ProtectionGroups(),
		store.TargetAccounts(),
		currentAccountID,
		log.WithModule("accounts-test"),
	)

	return resolver, store
}

func TestResolveCurrentAccount(t *testing.T) {
	resolver, store := newResolver(t)

	group := testutil.CreateTestGroup(testutil.WithAccount(currentAccountID))
	require.NoError(t, store.ProtectionGroups().Save(t.Context(), group))

	context, err := resolver.Resolve(t.Context(), testutil.CreateTestPlan(group))
	require.NoError(t, err)

	assert.True(t, context.IsCurrentAccount)
	assert.Equal(t, currentAccountID, context.AccountID)
	assert.Equal(t, group.Region, context.Region)
	assert.Empty(t, context.RoleARN())
}

func TestResolveRegisteredCrossAccount(t *testing.T) {
	resolver, store := newResolver(t)

	group := testutil.CreateTestGroup(testutil.WithAccount("210987654321"))
	require.NoError(t, store.ProtectionGroups().Save(t.Context(), group))
	require.NoError(t, store.TargetAccounts().Save(t.Context(), &models.TargetAccount{
		AccountID:  "210987654321",
		Name:       "DR target",
		RoleName:   "CustomRecoveryRole",
		ExternalID: "ext-42",
	}))

	context, err := resolver.Resolve(t.Context(), testutil.CreateTestPlan(group))
	require.NoError(t, err)

	assert.False(t, context.IsCurrentAccount)
	assert.Equal(t, "210987654321", context.AccountID)
	assert.Equal(t, "CustomRecoveryRole", context.AssumeRoleName)
	assert.Equal(t, "ext-42", context.ExternalID)
	assert.Equal(t, "arn:aws:iam::210987654321:role/CustomRecoveryRole", context.RoleARN())
}

func TestResolveUnregisteredAccountFallsBackToDefaultRole(t *testing.T) {
	resolver, store := newResolver(t)

	group := testutil.CreateTestGroup(testutil.WithAccount("210987654321"))
	require.NoError(t, store.ProtectionGroups().Save(t.Context(), group))

	context, err := resolver.Resolve(t.Context(), testutil.CreateTestPlan(group))
	require.NoError(t, err)

	assert.False(t, context.IsCurrentAccount)
	assert.Equal(t, accounts.DefaultCrossAccountRole, context.AssumeRoleName)
	assert.Empty(t, context.ExternalID)
}

func TestResolveRejectsMultiAccountPlan(t *testing.T) {
	resolver, store := newResolver(t)

	groupA := testutil.CreateTestGroup(testutil.WithAccount("111111111111"))
	groupB := testutil.CreateTestGroup(testutil.WithAccount("222222222222"))
	require.NoError(t, store.ProtectionGroups().Save(t.Context(), groupA))
	require.NoError(t, store.ProtectionGroups().Save(t.Context(), groupB))

	_, err := resolver.Resolve(t.Context(), testutil.CreateTestPlan(groupA, groupB))

	var multiErr *accounts.MultiAccountPlanError
	require.ErrorAs(t, err, &multiErr)
	assert.Equal(t, []string{"111111111111", "222222222222"}, multiErr.AccountIDs)
}

func TestResolveMissingGroupFails(t *testing.T) {
	resolver, _ := newResolver(t)

	plan := testutil.CreateTestPlan(testutil.CreateTestGroup())

	_, err := resolver.Resolve(t.Context(), plan)
	require.Error(t, err)
	assert.True(t, persistence.IsGroupNotFound(err))
}
