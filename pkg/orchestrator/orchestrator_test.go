package orchestrator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutoverlabs/cutover/pkg/accounts"
	"github.com/cutoverlabs/cutover/pkg/log"
	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/orchestrator"
	"github.com/cutoverlabs/cutover/pkg/persistence"
	"github.com/cutoverlabs/cutover/pkg/persistence/file"
	"github.com/cutoverlabs/cutover/pkg/recovery"
	"github.com/cutoverlabs/cutover/pkg/testutil"
)

const currentAccountID = "123456789012"

type fixture struct {
	orch  *orchestrator.Orchestrator
	store persistence.Persistence
	fake  *testutil.FakeClientFactory
}

func newFixture(t *testing.T, config orchestrator.Config, groups ...*models.ProtectionGroup) *fixture {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	for _, group := range groups {
		require.NoError(t, store.ProtectionGroups().Save(t.Context(), group))
	}

	logger := log.WithModule("orchestrator-test")
	resolver := accounts.NewResolver(store.ProtectionGroups(), store.TargetAccounts(), currentAccountID, logger)
	fake := testutil.NewFakeClientFactory()

	return &fixture{
		orch:  orchestrator.New(logger, store.ProtectionGroups(), resolver, fake, config),
		store: store,
		fake:  fake,
	}
}

// pollUntilTerminal dispatches PollWave until the execution settles, with a
// hard cap to keep broken advancement from looping forever.
func pollUntilTerminal(t *testing.T, f *fixture, state *models.ExecutionState) *models.ExecutionState {
	t.Helper()

	for range 20 {
		if state.Status.Terminal() {
			return state
		}

		next, err := f.orch.Dispatch(t.Context(), orchestrator.PollWave{State: state})
		require.NoError(t, err)

		state = next
	}

	require.True(t, state.Status.Terminal(), "execution never settled: status %s", state.Status)

	return state
}

func TestBeginStartsFirstWave(t *testing.T) {
	groupA := testutil.CreateTestGroup(testutil.WithServers("s-aaa", "s-bbb"))
	groupB := testutil.CreateTestGroup(testutil.WithServers("s-ccc"))
	f := newFixture(t, orchestrator.Config{}, groupA, groupB)

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{
		Plan:    testutil.CreateTestPlan(groupA, groupB),
		IsDrill: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusRunning, state.Status)
	assert.Equal(t, 0, state.CurrentWaveNumber)
	assert.Equal(t, 2, state.TotalWaves)
	assert.NotEmpty(t, state.ExecutionID)
	assert.NotEmpty(t, state.JobID)
	assert.False(t, state.WaveCompleted)
	assert.True(t, state.AccountContext.IsCurrentAccount)

	require.Len(t, state.WaveResults, 1)
	result := state.WaveResults[0]
	assert.Equal(t, models.WaveStatusStarted, result.Status)
	assert.Equal(t, []string{"s-aaa", "s-bbb"}, result.ServerIDs)

	for _, status := range result.ServerStatuses {
		assert.Equal(t, models.LaunchStatusPending, status.LaunchStatus)
	}

	require.Len(t, f.fake.Service.StartedJobs, 1)
	assert.True(t, f.fake.Service.StartedJobs[0].IsDrill)
	assert.Equal(t, []string{"s-aaa", "s-bbb"}, f.fake.Service.StartedJobs[0].ServerIDs)
}

func TestThreeWaveRoundTrip(t *testing.T) {
	groupA := testutil.CreateTestGroup(testutil.WithServers("s-a1", "s-a2"))
	groupB := testutil.CreateTestGroup(testutil.WithServers("s-b1"))
	groupC := testutil.CreateTestGroup(testutil.WithServers("s-c1", "s-c2"))
	f := newFixture(t, orchestrator.Config{}, groupA, groupB, groupC)

	f.fake.Inventory.Details["i-s-a1"] = recovery.InstanceDetail{
		RecoveryInstanceID: "i-s-a1",
		PrivateIP:          "10.0.0.17",
		InstanceType:       "m5.large",
		Hostname:           "app-1.internal",
	}

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{
		Plan: testutil.CreateTestPlan(groupA, groupB, groupC),
	})
	require.NoError(t, err)

	state = pollUntilTerminal(t, f, state)

	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)
	assert.True(t, state.AllWavesCompleted)
	assert.Equal(t, 3, state.CompletedWaves)
	assert.Equal(t, 0, state.FailedWaves)
	assert.Empty(t, state.JobID)

	require.Len(t, state.WaveResults, 3)
	for i, result := range state.WaveResults {
		assert.Equal(t, i, result.WaveNumber)
		assert.Equal(t, models.WaveStatusCompleted, result.Status)
		require.NotNil(t, result.EndTime)
	}

	// Launched servers are enriched with instance details.
	first := state.WaveResults[0].ServerStatuses[0]
	assert.Equal(t, models.LaunchStatusLaunched, first.LaunchStatus)
	assert.Equal(t, "10.0.0.17", first.PrivateIP)
	assert.Equal(t, "m5.large", first.InstanceType)
	assert.Equal(t, "app-1.internal", first.Hostname)

	assert.Len(t, f.fake.Service.StartedJobs, 3)
}

func TestDispatchDoesNotMutateInputState(t *testing.T) {
	group := testutil.CreateTestGroup()
	f := newFixture(t, orchestrator.Config{}, group)

	begun, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	input := begun.Clone()

	polled, err := f.orch.Dispatch(t.Context(), orchestrator.PollWave{State: input})
	require.NoError(t, err)
	require.NotSame(t, input, polled)

	assert.Equal(t, models.ExecutionStatusRunning, input.Status)
	assert.Equal(t, 0, input.TotalWaitSeconds)
	assert.Equal(t, models.WaveStatusStarted, input.WaveResults[0].Status)
	assert.NotEqual(t, input.CompletedWaves, polled.CompletedWaves)
}

func TestWaveLaunchFailureFailsExecution(t *testing.T) {
	group := testutil.CreateTestGroup(testutil.WithServers("s-ok", "s-bad"))
	f := newFixture(t, orchestrator.Config{}, group)
	f.fake.Service.Outcomes["s-bad"] = models.LaunchStatusFailed

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	state = pollUntilTerminal(t, f, state)

	assert.Equal(t, models.ExecutionStatusFailed, state.Status)
	assert.Equal(t, 1, state.FailedWaves)
	assert.Equal(t, 0, state.CompletedWaves)
	assert.Contains(t, state.Error, "failed to launch")
	assert.Equal(t, models.WaveStatusFailed, state.ResultForWave(0).Status)
}

func TestLaterWaveFailureYieldsPartial(t *testing.T) {
	groupA := testutil.CreateTestGroup(testutil.WithServers("s-a1"))
	groupB := testutil.CreateTestGroup(testutil.WithServers("s-b1"))
	f := newFixture(t, orchestrator.Config{}, groupA, groupB)
	f.fake.Service.Outcomes["s-b1"] = models.LaunchStatusTerminated

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(groupA, groupB)})
	require.NoError(t, err)

	state = pollUntilTerminal(t, f, state)

	assert.Equal(t, models.ExecutionStatusPartial, state.Status)
	assert.Equal(t, 1, state.CompletedWaves)
	assert.Equal(t, 1, state.FailedWaves)

	// The completed first wave stays recorded as completed.
	assert.Equal(t, models.WaveStatusCompleted, state.ResultForWave(0).Status)
	assert.Equal(t, models.WaveStatusFailed, state.ResultForWave(1).Status)
}

func TestCompletedJobWithZeroLaunchesFails(t *testing.T) {
	group := testutil.CreateTestGroup(testutil.WithServers("s-a1", "s-a2"))
	f := newFixture(t, orchestrator.Config{}, group)

	// The job reports COMPLETED while every server is still PENDING.
	f.fake.Service.JobState = models.JobStatusCompleted
	f.fake.Service.PollsUntilLaunch = 100

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	next, err := f.orch.Dispatch(t.Context(), orchestrator.PollWave{State: state})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, next.Status)
	assert.Contains(t, next.Error, "no servers launched")
}

func TestEmptyWaveCompletesWithoutJob(t *testing.T) {
	group := testutil.CreateTestGroup(func(g *models.ProtectionGroup) {
		g.SourceServerIDs = nil
		g.SelectionTags = nil
	})
	f := newFixture(t, orchestrator.Config{}, group)

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	assert.Empty(t, state.JobID)
	assert.True(t, state.WaveCompleted)
	assert.Equal(t, 1, state.CompletedWaves)
	assert.Equal(t, models.WaveStatusCompleted, state.ResultForWave(0).Status)
	assert.Empty(t, f.fake.Service.StartedJobs)

	state = pollUntilTerminal(t, f, state)
	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)
}

func TestTagDiscoverySelectsServers(t *testing.T) {
	group := testutil.CreateTestGroup(testutil.WithSelectionTags(map[string]string{"dr-wave": "web"}))
	f := newFixture(t, orchestrator.Config{}, group)

	f.fake.Inventory.Servers = []recovery.SourceServer{
		{ID: "s-web-1", Tags: map[string]string{"dr-wave": "web", "env": "prod"}},
		{ID: "s-web-2", Tags: map[string]string{"dr-wave": "web"}},
		{ID: "s-db-1", Tags: map[string]string{"dr-wave": "db"}},
	}

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	require.Len(t, f.fake.Service.StartedJobs, 1)
	assert.ElementsMatch(t, []string{"s-web-1", "s-web-2"}, f.fake.Service.StartedJobs[0].ServerIDs)
	assert.Equal(t, models.ExecutionStatusRunning, state.Status)
}

func TestMultiAccountPlanNeverStarts(t *testing.T) {
	groupA := testutil.CreateTestGroup(testutil.WithAccount("123456789012"))
	groupB := testutil.CreateTestGroup(testutil.WithAccount("210987654321"))
	f := newFixture(t, orchestrator.Config{}, groupA, groupB)

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(groupA, groupB)})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, state.Status)
	assert.Contains(t, state.Error, "multiple accounts")
	assert.Empty(t, f.fake.Service.StartedJobs)
}

func TestPauseBeforeWaveAndResume(t *testing.T) {
	groupA := testutil.CreateTestGroup(testutil.WithServers("s-a1"))
	groupB := testutil.CreateTestGroup(testutil.WithServers("s-b1"))
	f := newFixture(t, orchestrator.Config{}, groupA, groupB)

	plan := testutil.CreateTestPlan(groupA, groupB)
	plan.Waves[1].PauseBeforeWave = true

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: plan})
	require.NoError(t, err)

	// First poll completes wave 0 and stops short of the flagged wave 1.
	state, err = f.orch.Dispatch(t.Context(), orchestrator.PollWave{State: state})
	require.NoError(t, err)

	require.NotNil(t, state.PausedBeforeWave)
	assert.Equal(t, 1, *state.PausedBeforeWave)
	assert.Equal(t, models.ExecutionStatusRunning, state.Status)
	assert.Len(t, f.fake.Service.StartedJobs, 1)

	// Polling while awaiting the pause is a no-op.
	unchanged, err := f.orch.Dispatch(t.Context(), orchestrator.PollWave{State: state})
	require.NoError(t, err)
	assert.Len(t, f.fake.Service.StartedJobs, 1)
	assert.Equal(t, state.WaveResults, unchanged.WaveResults)

	state, err = f.orch.Dispatch(t.Context(), orchestrator.Pause{State: state, Token: "tok-123"})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPaused, state.Status)
	assert.Equal(t, "tok-123", state.TaskToken)

	state, err = f.orch.Dispatch(t.Context(), orchestrator.Resume{State: state})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, state.Status)
	assert.Empty(t, state.TaskToken)
	assert.Nil(t, state.PausedBeforeWave)

	// Resume appended a fresh STARTED result for wave 1.
	assert.Len(t, f.fake.Service.StartedJobs, 2)
	assert.Equal(t, models.WaveStatusStarted, state.ResultForWave(1).Status)

	state = pollUntilTerminal(t, f, state)
	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)
	assert.Equal(t, 2, state.CompletedWaves)
}

func TestPauseRequiresToken(t *testing.T) {
	group := testutil.CreateTestGroup()
	f := newFixture(t, orchestrator.Config{}, group)

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	_, err = f.orch.Dispatch(t.Context(), orchestrator.Pause{State: state})
	require.ErrorIs(t, err, orchestrator.ErrMissingTaskToken)
}

func TestActionsRequireState(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})

	_, err := f.orch.Dispatch(t.Context(), orchestrator.PollWave{})
	require.ErrorIs(t, err, orchestrator.ErrNilState)

	_, err = f.orch.Dispatch(t.Context(), orchestrator.Resume{})
	require.ErrorIs(t, err, orchestrator.ErrNilState)

	_, err = f.orch.Dispatch(t.Context(), orchestrator.Begin{})
	require.ErrorIs(t, err, orchestrator.ErrNilPlan)
}

func TestWaveTimesOutAfterMaxWait(t *testing.T) {
	group := testutil.CreateTestGroup()
	f := newFixture(t, orchestrator.Config{
		PollInterval: 30 * time.Second,
		MaxWait:      time.Second,
	}, group)
	f.fake.Service.PollsUntilLaunch = 100

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	state, err = f.orch.Dispatch(t.Context(), orchestrator.PollWave{State: state})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusTimeout, state.Status)
	assert.Equal(t, models.WaveStatusTimeout, state.ResultForWave(0).Status)
	assert.Equal(t, 1, state.FailedWaves)
}

func TestPollingTerminalExecutionIsIdempotent(t *testing.T) {
	group := testutil.CreateTestGroup(testutil.WithServers("s-a1"))
	f := newFixture(t, orchestrator.Config{}, group)

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	state = pollUntilTerminal(t, f, state)
	require.Equal(t, models.ExecutionStatusCompleted, state.Status)

	again, err := f.orch.Dispatch(t.Context(), orchestrator.PollWave{State: state})
	require.NoError(t, err)

	assert.Equal(t, state.Status, again.Status)
	assert.Equal(t, state.WaveResults, again.WaveResults)
	assert.Equal(t, state.CompletedWaves, again.CompletedWaves)
}

func TestLaunchConfigsAppliedBeforeStart(t *testing.T) {
	monitoring := true
	group := testutil.CreateTestGroup(
		testutil.WithServers("s-a1", "s-a2"),
		func(g *models.ProtectionGroup) {
			g.LaunchConfig = &models.LaunchConfig{
				InstanceType: "m5.large",
				SubnetID:     "subnet-0a1b2c",
				Monitoring:   &monitoring,
				Tags:         map[string]string{"team": "platform"},
			}
			g.LaunchOverrides = map[string]*models.LaunchConfig{
				"s-a2": {
					InstanceType: "c5.xlarge",
					StaticIP:     "10.0.0.25",
					Tags:         map[string]string{"role": "db"},
				},
			}
		},
	)
	f := newFixture(t, orchestrator.Config{}, group)
	f.fake.Inventory.Subnets["subnet-0a1b2c"] = &recovery.Subnet{ID: "subnet-0a1b2c", CIDRBlock: "10.0.0.0/24"}

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusRunning, state.Status)

	applied := f.fake.Service.AppliedConfigs
	require.Len(t, applied, 2)

	assert.Equal(t, "m5.large", applied["s-a1"].InstanceType)
	assert.Equal(t, "c5.xlarge", applied["s-a2"].InstanceType)
	assert.Equal(t, "10.0.0.25", applied["s-a2"].StaticIP)
	assert.Equal(t, map[string]string{"team": "platform", "role": "db"}, applied["s-a2"].Tags)
}

func TestReservedStaticIPFailsWaveStart(t *testing.T) {
	group := testutil.CreateTestGroup(
		testutil.WithServers("s-a1"),
		func(g *models.ProtectionGroup) {
			g.LaunchConfig = &models.LaunchConfig{
				SubnetID: "subnet-0a1b2c",
				StaticIP: "10.0.0.2",
			}
		},
	)
	f := newFixture(t, orchestrator.Config{}, group)
	f.fake.Inventory.Subnets["subnet-0a1b2c"] = &recovery.Subnet{ID: "subnet-0a1b2c", CIDRBlock: "10.0.0.0/24"}

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, state.Status)
	assert.Contains(t, state.Error, "reserved")
	assert.Empty(t, f.fake.Service.StartedJobs)
}

func TestDuplicateStaticIPFailsWaveStart(t *testing.T) {
	group := testutil.CreateTestGroup(
		testutil.WithServers("s-a1", "s-a2"),
		func(g *models.ProtectionGroup) {
			g.LaunchOverrides = map[string]*models.LaunchConfig{
				"s-a1": {SubnetID: "subnet-0a1b2c", StaticIP: "10.0.0.30"},
				"s-a2": {SubnetID: "subnet-0a1b2c", StaticIP: "10.0.0.30"},
			}
		},
	)
	f := newFixture(t, orchestrator.Config{}, group)
	f.fake.Inventory.Subnets["subnet-0a1b2c"] = &recovery.Subnet{ID: "subnet-0a1b2c", CIDRBlock: "10.0.0.0/24"}

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: testutil.CreateTestPlan(group)})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, state.Status)
	assert.Contains(t, state.Error, "already assigned")
}

func TestExplicitWaveServersOverrideGroupSelection(t *testing.T) {
	group := testutil.CreateTestGroup(testutil.WithServers("s-a1", "s-a2"))
	f := newFixture(t, orchestrator.Config{}, group)

	plan := testutil.CreateTestPlan(group)
	plan.Waves[0].ServerIDs = []string{"s-only"}

	_, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: plan})
	require.NoError(t, err)

	require.Len(t, f.fake.Service.StartedJobs, 1)
	assert.Equal(t, []string{"s-only"}, f.fake.Service.StartedJobs[0].ServerIDs)
}

func TestOneBasedWaveNumbersRunEveryWave(t *testing.T) {
	groupA := testutil.CreateTestGroup(testutil.WithServers("s-a1"))
	groupB := testutil.CreateTestGroup(testutil.WithServers("s-b1"))
	groupC := testutil.CreateTestGroup(testutil.WithServers("s-c1"))
	f := newFixture(t, orchestrator.Config{}, groupA, groupB, groupC)

	plan := testutil.CreateTestPlan(groupA, groupB, groupC)
	for i, wave := range plan.Waves {
		wave.WaveNumber = i + 1
	}

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentWaveNumber)

	state = pollUntilTerminal(t, f, state)

	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)
	assert.Equal(t, 3, state.CompletedWaves)
	require.Len(t, f.fake.Service.StartedJobs, 3)

	for _, waveNumber := range []int{1, 2, 3} {
		result := state.ResultForWave(waveNumber)
		require.NotNil(t, result, "wave %d has no result", waveNumber)
		assert.Equal(t, models.WaveStatusCompleted, result.Status)
	}
}

func TestSparseWaveNumbersAdvanceInOrder(t *testing.T) {
	groupA := testutil.CreateTestGroup(testutil.WithServers("s-a1"))
	groupB := testutil.CreateTestGroup(testutil.WithServers("s-b1"))
	f := newFixture(t, orchestrator.Config{}, groupA, groupB)

	plan := testutil.CreateTestPlan(groupA, groupB)
	plan.Waves[0].WaveNumber = 10
	plan.Waves[1].WaveNumber = 40

	state, err := f.orch.Dispatch(t.Context(), orchestrator.Begin{Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, 10, state.CurrentWaveNumber)

	state = pollUntilTerminal(t, f, state)

	assert.Equal(t, models.ExecutionStatusCompleted, state.Status)
	assert.Equal(t, 2, state.CompletedWaves)
	assert.Empty(t, state.Error)
	assert.Equal(t, 40, state.CurrentWaveNumber)
	require.Len(t, f.fake.Service.StartedJobs, 2)
	assert.Equal(t, []string{"s-b1"}, f.fake.Service.StartedJobs[1].ServerIDs)
}
