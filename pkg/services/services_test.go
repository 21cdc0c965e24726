package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutoverlabs/cutover/pkg/accounts"
	"github.com/cutoverlabs/cutover/pkg/log"
	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/orchestrator"
	"github.com/cutoverlabs/cutover/pkg/persistence"
	"github.com/cutoverlabs/cutover/pkg/persistence/file"
	"github.com/cutoverlabs/cutover/pkg/services"
	"github.com/cutoverlabs/cutover/pkg/testutil"
)

func newStore(t *testing.T) persistence.Persistence {
	t.Helper()

	return file.NewPersistence(t.TempDir())
}

func TestGroupsCreateAssignsIdentity(t *testing.T) {
	store := newStore(t)
	service := services.NewGroups(store)

	created, err := service.Create(t.Context(), &models.ProtectionGroup{
		Name:      "Core databases",
		AccountID: "123456789012",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	loaded, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Core databases", loaded.Name)
}

func TestGroupsCreateValidates(t *testing.T) {
	service := services.NewGroups(newStore(t))

	_, err := service.Create(t.Context(), &models.ProtectionGroup{
		Name:      "Bad account",
		AccountID: "not-numeric",
		Region:    "us-east-1",
	})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestGroupsUpdatePreservesCreatedAt(t *testing.T) {
	store := newStore(t)
	service := services.NewGroups(store)

	created, err := service.Create(t.Context(), &models.ProtectionGroup{
		Name:      "Core databases",
		AccountID: "123456789012",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ID, &models.ProtectionGroup{
		Name:      "Core databases v2",
		AccountID: "123456789012",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Core databases v2", updated.Name)
}

func TestGroupsDeleteBlockedWhileReferenced(t *testing.T) {
	store := newStore(t)
	groupService := services.NewGroups(store)
	planService := services.NewPlans(store)

	group, err := groupService.Create(t.Context(), &models.ProtectionGroup{
		Name:      "Web tier",
		AccountID: "123456789012",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	_, err = planService.Create(t.Context(), &models.RecoveryPlan{
		Name:  "Regional failover",
		Waves: []*models.Wave{{WaveNumber: 0, ProtectionGroupID: group.ID}},
	})
	require.NoError(t, err)

	err = groupService.Delete(t.Context(), group.ID)
	require.ErrorIs(t, err, services.ErrGroupInUse)
	assert.True(t, services.IsConflictError(err))
}

func TestPlansCreateSortsWaves(t *testing.T) {
	store := newStore(t)
	groupService := services.NewGroups(store)
	planService := services.NewPlans(store)

	group, err := groupService.Create(t.Context(), &models.ProtectionGroup{
		Name:      "Web tier",
		AccountID: "123456789012",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	plan, err := planService.Create(t.Context(), &models.RecoveryPlan{
		Name: "Regional failover",
		Waves: []*models.Wave{
			{WaveNumber: 2, ProtectionGroupID: group.ID},
			{WaveNumber: 0, ProtectionGroupID: group.ID},
			{WaveNumber: 1, ProtectionGroupID: group.ID},
		},
	})
	require.NoError(t, err)

	numbers := make([]int, 0, len(plan.Waves))
	for _, wave := range plan.Waves {
		numbers = append(numbers, wave.WaveNumber)
	}

	assert.Equal(t, []int{0, 1, 2}, numbers)
}

func TestPlansRejectDuplicateWaveNumbers(t *testing.T) {
	store := newStore(t)
	groupService := services.NewGroups(store)
	planService := services.NewPlans(store)

	group, err := groupService.Create(t.Context(), &models.ProtectionGroup{
		Name:      "Web tier",
		AccountID: "123456789012",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	_, err = planService.Create(t.Context(), &models.RecoveryPlan{
		Name: "Regional failover",
		Waves: []*models.Wave{
			{WaveNumber: 0, ProtectionGroupID: group.ID},
			{WaveNumber: 0, ProtectionGroupID: group.ID},
		},
	})
	require.ErrorIs(t, err, services.ErrDuplicateWaveNumber)
}

func TestPlansRejectUnknownGroups(t *testing.T) {
	planService := services.NewPlans(newStore(t))

	_, err := planService.Create(t.Context(), &models.RecoveryPlan{
		Name:  "Regional failover",
		Waves: []*models.Wave{{WaveNumber: 0, ProtectionGroupID: "missing"}},
	})
	require.ErrorIs(t, err, services.ErrUnknownGroup)
	assert.True(t, services.IsValidationError(err))
}

func TestPlansDeleteBlockedByLiveExecution(t *testing.T) {
	store := newStore(t)
	groupService := services.NewGroups(store)
	planService := services.NewPlans(store)

	group, err := groupService.Create(t.Context(), &models.ProtectionGroup{
		Name:      "Web tier",
		AccountID: "123456789012",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	plan, err := planService.Create(t.Context(), &models.RecoveryPlan{
		Name:  "Regional failover",
		Waves: []*models.Wave{{WaveNumber: 0, ProtectionGroupID: group.ID}},
	})
	require.NoError(t, err)

	require.NoError(t, store.Executions().Save(t.Context(), &models.ExecutionState{
		PlanID:      plan.ID,
		ExecutionID: "exec-live",
		Status:      models.ExecutionStatusRunning,
	}))

	err = planService.Delete(t.Context(), plan.ID)
	require.ErrorIs(t, err, services.ErrPlanHasLiveExecution)
}

func TestAccountsRegisterIsUpsert(t *testing.T) {
	service := services.NewAccounts(newStore(t))

	first, err := service.Register(t.Context(), &models.TargetAccount{
		AccountID: "210987654321",
		Name:      "DR target",
		RoleName:  "RoleOne",
	})
	require.NoError(t, err)

	second, err := service.Register(t.Context(), &models.TargetAccount{
		AccountID: "210987654321",
		Name:      "DR target",
		RoleName:  "RoleTwo",
	})
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "RoleTwo", second.RoleName)

	loaded, err := service.FetchByID(t.Context(), "210987654321")
	require.NoError(t, err)
	assert.Equal(t, "RoleTwo", loaded.RoleName)
}

func newExecutionService(t *testing.T, store persistence.Persistence) (*services.Executions, *testutil.FakeClientFactory) {
	t.Helper()

	logger := log.WithModule("services-test")
	resolver := accounts.NewResolver(store.ProtectionGroups(), store.TargetAccounts(), "123456789012", logger)
	fake := testutil.NewFakeClientFactory()
	orch := orchestrator.New(logger, store.ProtectionGroups(), resolver, fake, orchestrator.Config{})

	return services.NewExecutions(store, orch), fake
}

func TestExecutionsLifecycle(t *testing.T) {
	store := newStore(t)
	service, _ := newExecutionService(t, store)

	group := testutil.CreateTestGroup(testutil.WithServers("s-a1"))
	require.NoError(t, store.ProtectionGroups().Save(t.Context(), group))

	plan := testutil.CreateTestPlan(group)
	require.NoError(t, store.RecoveryPlans().Save(t.Context(), plan))

	state, err := service.Begin(t.Context(), plan.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, state.Status)
	assert.True(t, state.IsDrill)

	// State is recorded and retrievable between host invocations.
	stored, err := service.FetchByID(t.Context(), state.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, state.ExecutionID, stored.ExecutionID)

	state, err = service.Poll(t.Context(), state.ExecutionID)
	require.NoError(t, err)

	for !state.Status.Terminal() {
		state, err = service.Poll(t.Context(), state.ExecutionID)
		require.NoError(t, err)
	}

	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)

	listed, err := service.ListByPlan(t.Context(), plan.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// Terminal executions cannot be paused or resumed.
	_, err = service.Pause(t.Context(), state.ExecutionID, "tok")
	require.ErrorIs(t, err, services.ErrExecutionTerminal)

	_, err = service.Resume(t.Context(), state.ExecutionID)
	require.ErrorIs(t, err, services.ErrExecutionNotPaused)
}

func TestExecutionsBeginUnknownPlan(t *testing.T) {
	service, _ := newExecutionService(t, newStore(t))

	_, err := service.Begin(t.Context(), "missing", false)
	assert.True(t, persistence.IsPlanNotFound(err))
}
