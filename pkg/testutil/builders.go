package testutil

import (
	"github.com/google/uuid"

	"github.com/cutoverlabs/cutover/pkg/models"
)

// CreateTestGroup creates a protection group with sane defaults that can be
// overridden.
func CreateTestGroup(overrides ...func(*models.ProtectionGroup)) *models.ProtectionGroup {
	group := &models.ProtectionGroup{
		ID:              uuid.New().String(),
		Name:            "Test Group",
		AccountID:       "123456789012",
		Region:          "us-east-1",
		SourceServerIDs: []string{"s-aaa", "s-bbb"},
	}

	for _, override := range overrides {
		override(group)
	}

	return group
}

// WithAccount sets the group's owning account.
func WithAccount(accountID string) func(*models.ProtectionGroup) {
	return func(g *models.ProtectionGroup) {
		g.AccountID = accountID
	}
}

// WithServers sets the group's explicit server selection.
func WithServers(serverIDs ...string) func(*models.ProtectionGroup) {
	return func(g *models.ProtectionGroup) {
		g.SourceServerIDs = serverIDs
	}
}

// WithSelectionTags switches the group to tag-based selection.
func WithSelectionTags(tags map[string]string) func(*models.ProtectionGroup) {
	return func(g *models.ProtectionGroup) {
		g.SourceServerIDs = nil
		g.SelectionTags = tags
	}
}

// CreateTestPlan creates a recovery plan with one wave per given group.
func CreateTestPlan(groups ...*models.ProtectionGroup) *models.RecoveryPlan {
	plan := &models.RecoveryPlan{
		ID:   uuid.New().String(),
		Name: "Test Plan",
	}

	for i, group := range groups {
		plan.Waves = append(plan.Waves, &models.Wave{
			WaveNumber:        i,
			Name:              group.Name,
			ProtectionGroupID: group.ID,
		})
	}

	return plan
}
