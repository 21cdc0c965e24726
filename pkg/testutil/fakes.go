// Package testutil provides test doubles and data builders for the
// orchestration packages.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/recovery"
)

// FakeRecoveryService is an in-memory recovery.Service whose per-server
// launch outcomes are scripted by the test.
type FakeRecoveryService struct {
	mu sync.Mutex

	// Outcomes maps source server ID to the launch status JobStatus should
	// report. Servers without an entry report LAUNCHED.
	Outcomes map[string]models.LaunchStatus

	// JobState is the job status JobStatus reports. Defaults to COMPLETED.
	JobState models.JobStatus

	// StartErr, StatusErr, and ApplyErr force the corresponding call to
	// fail.
	StartErr  error
	StatusErr error
	ApplyErr  error

	// PollsUntilLaunch keeps servers PENDING for this many JobStatus calls
	// before applying the scripted outcome.
	PollsUntilLaunch int

	StartedJobs    []StartedJob
	AppliedConfigs map[string]*models.LaunchConfig

	polls int
}

// StartedJob records one StartRecovery invocation.
type StartedJob struct {
	JobID     string
	IsDrill   bool
	ServerIDs []string
}

func NewFakeRecoveryService() *FakeRecoveryService {
	return &FakeRecoveryService{
		Outcomes:       make(map[string]models.LaunchStatus),
		JobState:       models.JobStatusCompleted,
		AppliedConfigs: make(map[string]*models.LaunchConfig),
	}
}

func (f *FakeRecoveryService) StartRecovery(_ context.Context, isDrill bool, serverIDs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.StartErr != nil {
		return "", f.StartErr
	}

	jobID := "drsjob-" + uuid.New().String()[:8]
	f.StartedJobs = append(f.StartedJobs, StartedJob{
		JobID:     jobID,
		IsDrill:   isDrill,
		ServerIDs: append([]string(nil), serverIDs...),
	})
	f.polls = 0

	return jobID, nil
}

func (f *FakeRecoveryService) JobStatus(_ context.Context, jobID string) (*recovery.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.StatusErr != nil {
		return nil, f.StatusErr
	}

	started := f.lastJob()
	if started == nil || started.JobID != jobID {
		return nil, fmt.Errorf("unknown job %s", jobID)
	}

	f.polls++

	job := &recovery.Job{ID: jobID, Status: f.JobState}

	for _, serverID := range started.ServerIDs {
		status := models.LaunchStatusLaunched
		if scripted, ok := f.Outcomes[serverID]; ok {
			status = scripted
		}

		if f.polls <= f.PollsUntilLaunch {
			status = models.LaunchStatusPending
		}

		server := recovery.ParticipatingServer{
			SourceServerID: serverID,
			LaunchStatus:   status,
		}
		if status == models.LaunchStatusLaunched {
			server.RecoveryInstanceID = "i-" + serverID
		}

		job.Servers = append(job.Servers, server)
	}

	return job, nil
}

func (f *FakeRecoveryService) ApplyLaunchConfig(_ context.Context, serverID string, config *models.LaunchConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ApplyErr != nil {
		return f.ApplyErr
	}

	f.AppliedConfigs[serverID] = config.Clone()

	return nil
}

func (f *FakeRecoveryService) lastJob() *StartedJob {
	if len(f.StartedJobs) == 0 {
		return nil
	}

	return &f.StartedJobs[len(f.StartedJobs)-1]
}

// FakeInventory is an in-memory recovery.Inventory.
type FakeInventory struct {
	Servers   []recovery.SourceServer
	Details   map[string]recovery.InstanceDetail
	Subnets   map[string]*recovery.Subnet
	ListErr   error
	SubnetErr error
}

func NewFakeInventory() *FakeInventory {
	return &FakeInventory{
		Details: make(map[string]recovery.InstanceDetail),
		Subnets: make(map[string]*recovery.Subnet),
	}
}

func (f *FakeInventory) ServersByTags(_ context.Context, tags map[string]string) ([]recovery.SourceServer, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	matched := make([]recovery.SourceServer, 0, len(f.Servers))

	for _, server := range f.Servers {
		match := true

		for key, value := range tags {
			if server.Tags[key] != value {
				match = false

				break
			}
		}

		if match {
			matched = append(matched, server)
		}
	}

	return matched, nil
}

func (f *FakeInventory) InstanceDetails(_ context.Context, recoveryInstanceIDs []string) (map[string]recovery.InstanceDetail, error) {
	details := make(map[string]recovery.InstanceDetail, len(recoveryInstanceIDs))

	for _, id := range recoveryInstanceIDs {
		if detail, ok := f.Details[id]; ok {
			details[id] = detail
		}
	}

	return details, nil
}

func (f *FakeInventory) Subnet(_ context.Context, subnetID string) (*recovery.Subnet, error) {
	if f.SubnetErr != nil {
		return nil, f.SubnetErr
	}

	subnet, ok := f.Subnets[subnetID]
	if !ok {
		return nil, fmt.Errorf("subnet %s not found", subnetID)
	}

	return subnet, nil
}

// FakeClientFactory hands out the same fake clients for every account.
type FakeClientFactory struct {
	Service   *FakeRecoveryService
	Inventory *FakeInventory
	Err       error

	Accounts []*models.AccountContext
}

func NewFakeClientFactory() *FakeClientFactory {
	return &FakeClientFactory{
		Service:   NewFakeRecoveryService(),
		Inventory: NewFakeInventory(),
	}
}

func (f *FakeClientFactory) ForAccount(_ context.Context, account *models.AccountContext) (*recovery.Clients, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	f.Accounts = append(f.Accounts, account)

	return &recovery.Clients{Service: f.Service, Inventory: f.Inventory}, nil
}
