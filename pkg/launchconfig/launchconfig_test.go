package launchconfig_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutoverlabs/cutover/pkg/launchconfig"
	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/recovery"
)

func boolPtr(v bool) *bool { return &v }

func TestMergeOverrideWins(t *testing.T) {
	defaults := &models.LaunchConfig{
		InstanceType:     "m5.large",
		SubnetID:         "subnet-aa",
		SecurityGroupIDs: []string{"sg-1"},
		Monitoring:       boolPtr(false),
		Tags:             map[string]string{"team": "platform", "env": "dr"},
	}
	override := &models.LaunchConfig{
		InstanceType: "c5.xlarge",
		Monitoring:   boolPtr(true),
		Tags:         map[string]string{"env": "drill"},
	}

	merged := launchconfig.Merge(defaults, override)

	assert.Equal(t, "c5.xlarge", merged.InstanceType)
	assert.Equal(t, "subnet-aa", merged.SubnetID)
	assert.Equal(t, []string{"sg-1"}, merged.SecurityGroupIDs)
	assert.Equal(t, boolPtr(true), merged.Monitoring)
	assert.Equal(t, map[string]string{"team": "platform", "env": "drill"}, merged.Tags)

	// Merging never mutates its inputs.
	assert.Equal(t, "m5.large", defaults.InstanceType)
	assert.Equal(t, "dr", defaults.Tags["env"])
}

func TestMergeNilInputs(t *testing.T) {
	defaults := &models.LaunchConfig{InstanceType: "m5.large"}

	assert.Equal(t, "m5.large", launchconfig.Merge(defaults, nil).InstanceType)
	assert.Equal(t, "m5.large", launchconfig.Merge(nil, defaults).InstanceType)
	assert.True(t, launchconfig.Merge(nil, nil).IsZero())
}

func TestMergeSubnetChangeDropsInheritedStaticIP(t *testing.T) {
	defaults := &models.LaunchConfig{SubnetID: "subnet-aa", StaticIP: "10.0.0.10"}

	moved := launchconfig.Merge(defaults, &models.LaunchConfig{SubnetID: "subnet-bb"})
	assert.Equal(t, "subnet-bb", moved.SubnetID)
	assert.Empty(t, moved.StaticIP)

	// An override carrying its own static IP keeps it.
	pinned := launchconfig.Merge(defaults, &models.LaunchConfig{SubnetID: "subnet-bb", StaticIP: "10.1.0.5"})
	assert.Equal(t, "10.1.0.5", pinned.StaticIP)
}

func TestEffectivePicksServerOverride(t *testing.T) {
	group := &models.ProtectionGroup{
		LaunchConfig: &models.LaunchConfig{InstanceType: "m5.large"},
		LaunchOverrides: map[string]*models.LaunchConfig{
			"s-db": {InstanceType: "r5.2xlarge"},
		},
	}

	assert.Equal(t, "r5.2xlarge", launchconfig.Effective(group, "s-db").InstanceType)
	assert.Equal(t, "m5.large", launchconfig.Effective(group, "s-web").InstanceType)
}

func TestValidateFieldsRejectsBlockedAndUnknown(t *testing.T) {
	err := launchconfig.ValidateFields(map[string]any{
		"instance_type": "m5.large",
		"image_id":      "ami-123",
		"user_data":     "#!/bin/sh",
		"favourite":     "blue",
	})
	require.Error(t, err)

	var fieldErr *launchconfig.BlockedFieldsError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, []string{"image_id", "user_data"}, fieldErr.Blocked)
	assert.Equal(t, []string{"favourite"}, fieldErr.Unknown)
}

func TestValidateFieldsAcceptsAllowList(t *testing.T) {
	err := launchconfig.ValidateFields(map[string]any{
		"instance_type":          "m5.large",
		"subnet_id":              "subnet-0a1b2c",
		"static_ip":              "10.0.0.10",
		"security_group_ids":     []any{"sg-0aa", "sg-0bb"},
		"tags":                   map[string]any{"team": "platform"},
		"monitoring":             true,
		"termination_protection": false,
		"iam_instance_profile":   "dr-instance-profile",
	})
	require.NoError(t, err)
}

func TestValidateFieldsTypeChecks(t *testing.T) {
	err := launchconfig.ValidateFields(map[string]any{
		"subnet_id": "not-a-subnet",
	})
	require.Error(t, err)

	err = launchconfig.ValidateFields(map[string]any{
		"monitoring": "yes",
	})
	require.Error(t, err)
}

func TestValidateStaticIP(t *testing.T) {
	subnet := &recovery.Subnet{ID: "subnet-0a1b2c", CIDRBlock: "10.0.0.0/24"}

	cases := []struct {
		name    string
		ip      string
		claimed map[string]string
		wantErr string
	}{
		{name: "valid", ip: "10.0.0.10"},
		{name: "not an ip", ip: "banana", wantErr: "not a valid IP"},
		{name: "ipv6", ip: "fd00::1", wantErr: "IPv4"},
		{name: "public", ip: "8.8.8.8", wantErr: "private"},
		{name: "outside cidr", ip: "10.0.1.10", wantErr: "outside subnet"},
		{name: "network address", ip: "10.0.0.0", wantErr: "reserved"},
		{name: "reserved head", ip: "10.0.0.3", wantErr: "reserved"},
		{name: "broadcast", ip: "10.0.0.255", wantErr: "reserved"},
		{name: "first usable", ip: "10.0.0.4"},
		{
			name:    "claimed by another server",
			ip:      "10.0.0.10",
			claimed: map[string]string{"10.0.0.10": "s-other"},
			wantErr: "already assigned",
		},
		{
			name:    "claimed by the same server",
			ip:      "10.0.0.10",
			claimed: map[string]string{"10.0.0.10": "s-self"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := launchconfig.ValidateStaticIP(tc.ip, "s-self", subnet, tc.claimed)

			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
