package drsadapter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/drs"
	drstypes "github.com/aws/aws-sdk-go-v2/service/drs/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/recovery"
)

// Service implements recovery.Service against AWS Elastic Disaster
// Recovery. Launch settings that DRS delegates to EC2 launch templates are
// written through EC2.
type Service struct {
	drs *drs.Client
	ec2 *ec2.Client
}

// NewService creates a DRS-backed recovery service.
func NewService(drsClient *drs.Client, ec2Client *ec2.Client) *Service {
	return &Service{drs: drsClient, ec2: ec2Client}
}

// StartRecovery launches one batched recovery job for the given source
// servers.
func (s *Service) StartRecovery(ctx context.Context, isDrill bool, serverIDs []string) (string, error) {
	sourceServers := make([]drstypes.StartRecoveryRequestSourceServer, len(serverIDs))
	for i, serverID := range serverIDs {
		sourceServers[i] = drstypes.StartRecoveryRequestSourceServer{
			SourceServerID: aws.String(serverID),
		}
	}

	out, err := s.drs.StartRecovery(ctx, &drs.StartRecoveryInput{
		IsDrill:       aws.Bool(isDrill),
		SourceServers: sourceServers,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start recovery: %w", err)
	}

	if out.Job == nil || out.Job.JobID == nil {
		return "", fmt.Errorf("recovery service returned no job for %d servers", len(serverIDs))
	}

	return aws.ToString(out.Job.JobID), nil
}

// JobStatus returns the job snapshot plus the per-server launch census.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*recovery.Job, error) {
	out, err := s.drs.DescribeJobs(ctx, &drs.DescribeJobsInput{
		Filters: &drstypes.DescribeJobsRequestFilters{
			JobIDs: []string{jobID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe job %s: %w", jobID, err)
	}

	if len(out.Items) == 0 {
		return nil, fmt.Errorf("job %s not found", jobID)
	}

	item := out.Items[0]

	job := &recovery.Job{
		ID:      aws.ToString(item.JobID),
		Status:  models.JobStatus(item.Status),
		Servers: make([]recovery.ParticipatingServer, 0, len(item.ParticipatingServers)),
	}

	for _, server := range item.ParticipatingServers {
		job.Servers = append(job.Servers, recovery.ParticipatingServer{
			SourceServerID:     aws.ToString(server.SourceServerID),
			LaunchStatus:       models.LaunchStatus(server.LaunchStatus),
			RecoveryInstanceID: aws.ToString(server.RecoveryInstanceID),
		})
	}

	return job, nil
}

// ApplyLaunchConfig writes the effective configuration into the server's
// EC2 launch template and promotes the new version to default.
func (s *Service) ApplyLaunchConfig(ctx context.Context, serverID string, config *models.LaunchConfig) error {
	launch, err := s.drs.GetLaunchConfiguration(ctx, &drs.GetLaunchConfigurationInput{
		SourceServerID: aws.String(serverID),
	})
	if err != nil {
		return fmt.Errorf("failed to get launch configuration for %s: %w", serverID, err)
	}

	if launch.Ec2LaunchTemplateID == nil {
		return fmt.Errorf("server %s has no EC2 launch template", serverID)
	}

	data := launchTemplateData(config)

	version, err := s.ec2.CreateLaunchTemplateVersion(ctx, &ec2.CreateLaunchTemplateVersionInput{
		LaunchTemplateId:   launch.Ec2LaunchTemplateID,
		SourceVersion:      aws.String("$Latest"),
		LaunchTemplateData: data,
	})
	if err != nil {
		return fmt.Errorf("failed to create launch template version for %s: %w", serverID, err)
	}

	if version.LaunchTemplateVersion == nil || version.LaunchTemplateVersion.VersionNumber == nil {
		return fmt.Errorf("no launch template version returned for %s", serverID)
	}

	_, err = s.ec2.ModifyLaunchTemplate(ctx, &ec2.ModifyLaunchTemplateInput{
		LaunchTemplateId: launch.Ec2LaunchTemplateID,
		DefaultVersion:   aws.String(strconv.FormatInt(*version.LaunchTemplateVersion.VersionNumber, 10)),
	})
	if err != nil {
		return fmt.Errorf("failed to promote launch template version for %s: %w", serverID, err)
	}

	return nil
}

func launchTemplateData(config *models.LaunchConfig) *ec2types.RequestLaunchTemplateData {
	data := &ec2types.RequestLaunchTemplateData{}

	if config.InstanceType != "" {
		data.InstanceType = ec2types.InstanceType(config.InstanceType)
	}

	if config.IAMInstanceProfile != "" {
		data.IamInstanceProfile = &ec2types.LaunchTemplateIamInstanceProfileSpecificationRequest{
			Name: aws.String(config.IAMInstanceProfile),
		}
	}

	if config.Monitoring != nil {
		data.Monitoring = &ec2types.LaunchTemplatesMonitoringRequest{
			Enabled: config.Monitoring,
		}
	}

	if config.TerminationProtection != nil {
		data.DisableApiTermination = config.TerminationProtection
	}

	if config.SubnetID != "" || config.StaticIP != "" || len(config.SecurityGroupIDs) > 0 {
		nic := ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest{
			DeviceIndex: aws.Int32(0),
		}

		if config.SubnetID != "" {
			nic.SubnetId = aws.String(config.SubnetID)
		}

		if config.StaticIP != "" {
			nic.PrivateIpAddress = aws.String(config.StaticIP)
		}

		if len(config.SecurityGroupIDs) > 0 {
			nic.Groups = config.SecurityGroupIDs
		}

		data.NetworkInterfaces = []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest{nic}
	}

	if len(config.Tags) > 0 {
		tags := make([]ec2types.Tag, 0, len(config.Tags))
		for key, value := range config.Tags {
			tags = append(tags, ec2types.Tag{Key: aws.String(key), Value: aws.String(value)})
		}

		data.TagSpecifications = []ec2types.LaunchTemplateTagSpecificationRequest{{
			ResourceType: ec2types.ResourceTypeInstance,
			Tags:         tags,
		}}
	}

	return data
}
