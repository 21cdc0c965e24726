// Package recovery defines the narrow interfaces through which the
// orchestrator talks to the external recovery service, its server inventory,
// and the account-scoping machinery. The orchestrator never sees provider
// SDK types; adapters live in subpackages.
package recovery

import (
	"context"

	"github.com/cutoverlabs/cutover/pkg/models"
)

// ParticipatingServer is one server's slice of a recovery job status.
type ParticipatingServer struct {
	SourceServerID     string
	LaunchStatus       models.LaunchStatus
	RecoveryInstanceID string
}

// Job is the status snapshot of one recovery job.
type Job struct {
	ID      string
	Status  models.JobStatus
	Servers []ParticipatingServer
}

// SourceServer is an inventory entry eligible for recovery.
type SourceServer struct {
	ID       string
	Hostname string
	Tags     map[string]string
}

// InstanceDetail carries post-launch enrichment for a recovery instance.
type InstanceDetail struct {
	RecoveryInstanceID string
	PrivateIP          string
	InstanceType       string
	Hostname           string
}

// Subnet is the slice of subnet metadata needed for static-IP validation.
type Subnet struct {
	ID        string
	CIDRBlock string
}

// Service starts and observes recovery jobs. One batched start call per
// wave; no retries here, the host owns retry policy.
type Service interface {
	// StartRecovery launches recovery (or a drill) for the given source
	// servers and returns the job identifier.
	StartRecovery(ctx context.Context, isDrill bool, serverIDs []string) (string, error)

	// JobStatus returns the job plus its per-server launch census.
	JobStatus(ctx context.Context, jobID string) (*Job, error)

	// ApplyLaunchConfig pushes one server's effective launch configuration
	// to the recovery service before the job starts.
	ApplyLaunchConfig(ctx context.Context, serverID string, config *models.LaunchConfig) error
}

// Inventory answers server discovery and enrichment queries.
type Inventory interface {
	// ServersByTags returns the source servers whose tags contain every
	// given key/value pair.
	ServersByTags(ctx context.Context, tags map[string]string) ([]SourceServer, error)

	// InstanceDetails resolves launched recovery instances to their
	// network/runtime details, keyed by recovery instance ID.
	InstanceDetails(ctx context.Context, recoveryInstanceIDs []string) (map[string]InstanceDetail, error)

	// Subnet returns subnet metadata for static-IP validation.
	Subnet(ctx context.Context, subnetID string) (*Subnet, error)
}

// Clients bundles the per-account scoped collaborators.
type Clients struct {
	Service   Service
	Inventory Inventory
}

// ClientFactory builds clients scoped to a target account and region.
// Credentials are fetched fresh on every call; nothing is cached across
// invocations.
type ClientFactory interface {
	ForAccount(ctx context.Context, account *models.AccountContext) (*Clients, error)
}
