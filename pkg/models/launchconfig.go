package models

// LaunchConfig is the set of customer-controllable launch parameters applied
// to recovered servers. All fields are optional; nil/empty means "keep the
// recovery service's default".
type LaunchConfig struct {
	InstanceType          string            `json:"instance_type,omitempty"`
	SubnetID              string            `json:"subnet_id,omitempty"`
	StaticIP              string            `json:"static_ip,omitempty"`
	SecurityGroupIDs      []string          `json:"security_group_ids,omitempty"`
	Tags                  map[string]string `json:"tags,omitempty"`
	Monitoring            *bool             `json:"monitoring,omitempty"`
	TerminationProtection *bool             `json:"termination_protection,omitempty"`
	IAMInstanceProfile    string            `json:"iam_instance_profile,omitempty"`
}

// IsZero reports whether the config carries no settings at all.
func (c *LaunchConfig) IsZero() bool {
	if c == nil {
		return true
	}

	return c.InstanceType == "" && c.SubnetID == "" && c.StaticIP == "" &&
		len(c.SecurityGroupIDs) == 0 && len(c.Tags) == 0 &&
		c.Monitoring == nil && c.TerminationProtection == nil &&
		c.IAMInstanceProfile == ""
}

// Clone returns a deep copy of the config.
func (c *LaunchConfig) Clone() *LaunchConfig {
	if c == nil {
		return nil
	}

	clone := *c
	clone.SecurityGroupIDs = append([]string(nil), c.SecurityGroupIDs...)

	if c.Tags != nil {
		clone.Tags = make(map[string]string, len(c.Tags))
		for k, v := range c.Tags {
			clone.Tags[k] = v
		}
	}

	if c.Monitoring != nil {
		monitoring := *c.Monitoring
		clone.Monitoring = &monitoring
	}

	if c.TerminationProtection != nil {
		protection := *c.TerminationProtection
		clone.TerminationProtection = &protection
	}

	return &clone
}
