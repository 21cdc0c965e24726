// Package web provides the HTTP handlers and request/response types for the
// recovery management API.
package web

import (
	"encoding/json"
	"fmt"

	"github.com/cutoverlabs/cutover/pkg/launchconfig"
	"github.com/cutoverlabs/cutover/pkg/models"
)

// CreateGroupRequest represents the request body for creating a protection
// group. Launch configurations arrive as raw documents so the closed field
// policy can reject deny-listed and unknown keys before decoding.
type CreateGroupRequest struct {
	Name            string                    `json:"name"       validate:"required,min=3"`
	AccountID       string                    `json:"account_id" validate:"required,len=12,numeric"`
	Region          string                    `json:"region"     validate:"required"`
	SourceServerIDs []string                  `json:"source_server_ids,omitempty"`
	SelectionTags   map[string]string         `json:"selection_tags,omitempty"`
	LaunchConfig    map[string]any            `json:"launch_config,omitempty"`
	LaunchOverrides map[string]map[string]any `json:"launch_overrides,omitempty"`
	Owner           string                    `json:"owner"`
}

// ToModel validates the launch-config documents and builds the group model.
func (r *CreateGroupRequest) ToModel() (*models.ProtectionGroup, error) {
	group := &models.ProtectionGroup{
		Name:            r.Name,
		AccountID:       r.AccountID,
		Region:          r.Region,
		SourceServerIDs: r.SourceServerIDs,
		SelectionTags:   r.SelectionTags,
		Owner:           r.Owner,
	}

	if r.LaunchConfig != nil {
		config, err := decodeLaunchConfig(r.LaunchConfig)
		if err != nil {
			return nil, err
		}

		group.LaunchConfig = config
	}

	if len(r.LaunchOverrides) > 0 {
		group.LaunchOverrides = make(map[string]*models.LaunchConfig, len(r.LaunchOverrides))

		for serverID, doc := range r.LaunchOverrides {
			config, err := decodeLaunchConfig(doc)
			if err != nil {
				return nil, fmt.Errorf("override for server %s: %w", serverID, err)
			}

			group.LaunchOverrides[serverID] = config
		}
	}

	return group, nil
}

// decodeLaunchConfig enforces the field policy on a raw document and then
// decodes it into the typed configuration.
func decodeLaunchConfig(doc map[string]any) (*models.LaunchConfig, error) {
	if err := launchconfig.ValidateFields(doc); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode launch configuration: %w", err)
	}

	var config models.LaunchConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to decode launch configuration: %w", err)
	}

	return &config, nil
}

// CreatePlanRequest represents the request body for creating a recovery plan.
type CreatePlanRequest struct {
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Waves       []*models.Wave `json:"waves"       validate:"required,min=1"`
	Owner       string         `json:"owner"`
}

// RegisterAccountRequest represents the request body for registering a
// target account.
type RegisterAccountRequest struct {
	AccountID  string `json:"account_id"  validate:"required,len=12,numeric"`
	Name       string `json:"name"        validate:"required"`
	RoleName   string `json:"role_name"`
	ExternalID string `json:"external_id,omitempty"`
}

// BeginExecutionRequest represents the request body for starting a plan
// execution.
type BeginExecutionRequest struct {
	IsDrill bool `json:"is_drill"`
}

// PauseExecutionRequest carries the workflow host's opaque resume token.
type PauseExecutionRequest struct {
	TaskToken string `json:"task_token" validate:"required"`
}
