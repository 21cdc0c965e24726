package file_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/persistence"
	"github.com/cutoverlabs/cutover/pkg/persistence/file"
	"github.com/cutoverlabs/cutover/pkg/testutil"
)

func TestGroupRoundTrip(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	group := testutil.CreateTestGroup(func(g *models.ProtectionGroup) {
		g.LaunchConfig = &models.LaunchConfig{InstanceType: "m5.large", SubnetID: "subnet-0a1b2c"}
		g.LaunchOverrides = map[string]*models.LaunchConfig{
			"s-aaa": {StaticIP: "10.0.0.10"},
		}
	})

	require.NoError(t, store.ProtectionGroups().Save(t.Context(), group))

	loaded, err := store.ProtectionGroups().GetByID(t.Context(), group.ID)
	require.NoError(t, err)
	assert.Equal(t, group.Name, loaded.Name)
	assert.Equal(t, "m5.large", loaded.LaunchConfig.InstanceType)
	assert.Equal(t, "10.0.0.10", loaded.LaunchOverrides["s-aaa"].StaticIP)

	groups, err := store.ProtectionGroups().List(t.Context())
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	require.NoError(t, store.ProtectionGroups().Delete(t.Context(), group.ID))

	_, err = store.ProtectionGroups().GetByID(t.Context(), group.ID)
	assert.True(t, persistence.IsGroupNotFound(err))
}

func TestGetMissingEntities(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	_, err := store.ProtectionGroups().GetByID(t.Context(), "missing")
	assert.True(t, persistence.IsGroupNotFound(err))

	_, err = store.RecoveryPlans().GetByID(t.Context(), "missing")
	assert.True(t, persistence.IsPlanNotFound(err))

	_, err = store.TargetAccounts().GetByID(t.Context(), "999999999999")
	assert.True(t, persistence.IsAccountNotFound(err))

	_, err = store.Executions().GetByID(t.Context(), "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))

	assert.True(t, persistence.IsNotFound(err))
}

func TestPlanRoundTrip(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	group := testutil.CreateTestGroup()
	plan := testutil.CreateTestPlan(group)
	plan.Waves[0].PauseBeforeWave = true

	require.NoError(t, store.RecoveryPlans().Save(t.Context(), plan))

	loaded, err := store.RecoveryPlans().GetByID(t.Context(), plan.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Waves, 1)
	assert.True(t, loaded.Waves[0].PauseBeforeWave)
	assert.Equal(t, group.ID, loaded.Waves[0].ProtectionGroupID)
}

func TestExecutionUpsertAndListByPlan(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	state := &models.ExecutionState{
		PlanID:      "plan-1",
		ExecutionID: "exec-1",
		Status:      models.ExecutionStatusRunning,
	}
	require.NoError(t, store.Executions().Save(t.Context(), state))

	state.Status = models.ExecutionStatusCompleted
	state.CompletedWaves = 2
	require.NoError(t, store.Executions().Save(t.Context(), state))

	loaded, err := store.Executions().GetByID(t.Context(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, loaded.Status)
	assert.Equal(t, 2, loaded.CompletedWaves)

	other := &models.ExecutionState{PlanID: "plan-2", ExecutionID: "exec-2"}
	require.NoError(t, store.Executions().Save(t.Context(), other))

	executions, err := store.Executions().ListByPlan(t.Context(), "plan-1")
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "exec-1", executions[0].ExecutionID)
}

func TestHealthCheck(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	require.NoError(t, store.HealthCheck(t.Context()))

	missing := file.NewPersistence("/nonexistent/cutover-test")
	assert.Error(t, missing.HealthCheck(t.Context()))
}
