// Package drsadapter implements the recovery collaborator interfaces on top
// of AWS Elastic Disaster Recovery, STS, and EC2.
package drsadapter

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/drs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/recovery"
)

const roleSessionName = "cutover-orchestrator"

// Factory builds per-account scoped AWS clients. Credentials for
// cross-account targets are assumed fresh on every call; nothing is cached
// across invocations, which avoids expired-credential bugs at the cost of
// one STS call per step.
type Factory struct {
	base aws.Config
}

// NewFactory creates a client factory from the orchestrator's own AWS
// configuration.
func NewFactory(base aws.Config) *Factory {
	return &Factory{base: base}
}

// ForAccount returns recovery/inventory clients scoped to the target
// account and region.
func (f *Factory) ForAccount(_ context.Context, account *models.AccountContext) (*recovery.Clients, error) {
	cfg := f.base.Copy()

	if account != nil && account.Region != "" {
		cfg.Region = account.Region
	}

	if account != nil && !account.IsCurrentAccount {
		roleARN := account.RoleARN()
		if roleARN != "" {
			provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleARN, func(opts *stscreds.AssumeRoleOptions) {
				opts.RoleSessionName = roleSessionName

				if account.ExternalID != "" {
					opts.ExternalID = aws.String(account.ExternalID)
				}
			})

			cfg.Credentials = aws.NewCredentialsCache(provider)
		}
	}

	drsClient := drs.NewFromConfig(cfg)
	ec2Client := ec2.NewFromConfig(cfg)

	return &recovery.Clients{
		Service:   NewService(drsClient, ec2Client),
		Inventory: NewInventory(drsClient, ec2Client),
	}, nil
}
