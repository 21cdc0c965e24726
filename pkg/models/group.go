package models

import "time"

// ProtectionGroup is a named set of source servers that fail over together.
// Servers are selected either by explicit IDs or by selection tags matched
// against the recovery service's inventory.
type ProtectionGroup struct {
	ID        string `json:"id"`
	Name      string `json:"name"       validate:"required,min=3"`
	AccountID string `json:"account_id" validate:"required,len=12,numeric"`
	Region    string `json:"region"     validate:"required"`

	SourceServerIDs []string          `json:"source_server_ids,omitempty"`
	SelectionTags   map[string]string `json:"selection_tags,omitempty"`

	// LaunchConfig holds group-level launch defaults; LaunchOverrides holds
	// per-server overrides keyed by source server ID.
	LaunchConfig    *LaunchConfig            `json:"launch_config,omitempty"`
	LaunchOverrides map[string]*LaunchConfig `json:"launch_overrides,omitempty"`

	Owner     string     `json:"owner"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
