package drsadapter

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/drs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/cutoverlabs/cutover/pkg/recovery"
)

const describePageSize = 200

// Inventory implements recovery.Inventory against the DRS source-server
// inventory and EC2.
type Inventory struct {
	drs *drs.Client
	ec2 *ec2.Client
}

// NewInventory creates a DRS/EC2-backed inventory.
func NewInventory(drsClient *drs.Client, ec2Client *ec2.Client) *Inventory {
	return &Inventory{drs: drsClient, ec2: ec2Client}
}

// ServersByTags lists source servers whose tags contain every given
// key/value pair. The DRS API has no server-side tag filter, so matching
// happens here.
func (i *Inventory) ServersByTags(ctx context.Context, tags map[string]string) ([]recovery.SourceServer, error) {
	servers := make([]recovery.SourceServer, 0)

	var nextToken *string

	for {
		out, err := i.drs.DescribeSourceServers(ctx, &drs.DescribeSourceServersInput{
			MaxResults: aws.Int32(describePageSize),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe source servers: %w", err)
		}

		for _, item := range out.Items {
			if !tagsMatch(item.Tags, tags) {
				continue
			}

			server := recovery.SourceServer{
				ID:   aws.ToString(item.SourceServerID),
				Tags: item.Tags,
			}

			if item.SourceProperties != nil && item.SourceProperties.IdentificationHints != nil {
				server.Hostname = aws.ToString(item.SourceProperties.IdentificationHints.Hostname)
			}

			servers = append(servers, server)
		}

		if out.NextToken == nil {
			break
		}

		nextToken = out.NextToken
	}

	return servers, nil
}

func tagsMatch(serverTags, selection map[string]string) bool {
	for key, value := range selection {
		if serverTags[key] != value {
			return false
		}
	}

	return true
}

// InstanceDetails resolves recovery instances (EC2 instances) to their
// network and runtime details.
func (i *Inventory) InstanceDetails(ctx context.Context, recoveryInstanceIDs []string) (map[string]recovery.InstanceDetail, error) {
	if len(recoveryInstanceIDs) == 0 {
		return map[string]recovery.InstanceDetail{}, nil
	}

	out, err := i.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: recoveryInstanceIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instances: %w", err)
	}

	details := make(map[string]recovery.InstanceDetail)

	for _, reservation := range out.Reservations {
		for _, instance := range reservation.Instances {
			id := aws.ToString(instance.InstanceId)

			details[id] = recovery.InstanceDetail{
				RecoveryInstanceID: id,
				PrivateIP:          aws.ToString(instance.PrivateIpAddress),
				InstanceType:       string(instance.InstanceType),
				Hostname:           aws.ToString(instance.PrivateDnsName),
			}
		}
	}

	return details, nil
}

// Subnet returns subnet metadata for static-IP validation.
func (i *Inventory) Subnet(ctx context.Context, subnetID string) (*recovery.Subnet, error) {
	out, err := i.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		SubnetIds: []string{subnetID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe subnet %s: %w", subnetID, err)
	}

	if len(out.Subnets) == 0 {
		return nil, fmt.Errorf("subnet %s not found", subnetID)
	}

	subnet := out.Subnets[0]

	return &recovery.Subnet{
		ID:        aws.ToString(subnet.SubnetId),
		CIDRBlock: aws.ToString(subnet.CidrBlock),
	}, nil
}
