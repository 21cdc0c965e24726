package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// NewAWSConfig loads the ambient AWS configuration and discovers the
// account the process runs in. accountID, when non-empty, skips the STS
// lookup.
func NewAWSConfig(ctx context.Context, accountID string) (aws.Config, string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, "", fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if accountID != "" {
		return cfg, accountID, nil
	}

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return aws.Config{}, "", fmt.Errorf("failed to discover current AWS account: %w", err)
	}

	return cfg, aws.ToString(identity.Account), nil
}
