package models

import "time"

// TargetAccount is a registered AWS account that protection groups may
// belong to, along with the cross-account role to assume when operating on
// its resources.
type TargetAccount struct {
	AccountID  string     `json:"account_id" validate:"required,len=12,numeric"`
	Name       string     `json:"name"       validate:"required"`
	RoleName   string     `json:"role_name"`
	ExternalID string     `json:"external_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// AccountContext is the account/region resolution for one execution.
// Derived once per execution and never mutated mid-run.
type AccountContext struct {
	AccountID        string `json:"account_id"`
	Region           string `json:"region"`
	AssumeRoleName   string `json:"assume_role_name,omitempty"`
	ExternalID       string `json:"external_id,omitempty"`
	IsCurrentAccount bool   `json:"is_current_account"`
}

// RoleARN builds the ARN of the cross-account role, or "" when operating in
// the orchestrator's own account.
func (c *AccountContext) RoleARN() string {
	if c.IsCurrentAccount || c.AssumeRoleName == "" {
		return ""
	}

	return "arn:aws:iam::" + c.AccountID + ":role/" + c.AssumeRoleName
}
