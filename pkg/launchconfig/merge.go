// Package launchconfig merges group-level and per-server launch overrides
// into effective configurations and validates them against the
// customer-controllable field policy.
package launchconfig

import "github.com/cutoverlabs/cutover/pkg/models"

// Merge combines group defaults with a per-server override into one
// effective configuration. Override fields win; tag maps are merged with
// override keys taking precedence. Either input may be nil.
func Merge(defaults, override *models.LaunchConfig) *models.LaunchConfig {
	if override.IsZero() {
		return defaults.Clone()
	}

	if defaults.IsZero() {
		return override.Clone()
	}

	merged := defaults.Clone()

	if override.InstanceType != "" {
		merged.InstanceType = override.InstanceType
	}

	if override.SubnetID != "" {
		merged.SubnetID = override.SubnetID

		// A subnet change invalidates an inherited static IP: the default
		// IP belongs to the default subnet's CIDR and must not leak into
		// the new one.
		if override.StaticIP == "" {
			merged.StaticIP = ""
		}
	}

	if override.StaticIP != "" {
		merged.StaticIP = override.StaticIP
	}

	if len(override.SecurityGroupIDs) > 0 {
		merged.SecurityGroupIDs = append([]string(nil), override.SecurityGroupIDs...)
	}

	if len(override.Tags) > 0 {
		if merged.Tags == nil {
			merged.Tags = make(map[string]string, len(override.Tags))
		}

		for k, v := range override.Tags {
			merged.Tags[k] = v
		}
	}

	if override.Monitoring != nil {
		monitoring := *override.Monitoring
		merged.Monitoring = &monitoring
	}

	if override.TerminationProtection != nil {
		protection := *override.TerminationProtection
		merged.TerminationProtection = &protection
	}

	if override.IAMInstanceProfile != "" {
		merged.IAMInstanceProfile = override.IAMInstanceProfile
	}

	return merged
}

// Effective resolves the effective configuration for one server in a group.
func Effective(group *models.ProtectionGroup, serverID string) *models.LaunchConfig {
	if group == nil {
		return nil
	}

	return Merge(group.LaunchConfig, group.LaunchOverrides[serverID])
}
