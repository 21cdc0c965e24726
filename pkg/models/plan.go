package models

import "time"

// Wave is one ordered group of servers recovered together. Immutable during
// a run.
type Wave struct {
	WaveNumber        int    `json:"wave_number"`
	Name              string `json:"name"`
	ProtectionGroupID string `json:"protection_group_id" validate:"required"`

	// ServerIDs, when present, overrides the group's server selection.
	ServerIDs       []string `json:"server_ids,omitempty"`
	DependsOnWaves  []int    `json:"depends_on_waves,omitempty"`
	PauseBeforeWave bool     `json:"pause_before_wave,omitempty"`
}

// RecoveryPlan is an ordered sequence of waves defining a full
// disaster-recovery run.
type RecoveryPlan struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"        validate:"required,min=3"`
	Description string     `json:"description"`
	Waves       []*Wave    `json:"waves"       validate:"required,min=1,dive,required"`
	Owner       string     `json:"owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// WaveByNumber returns the wave with the given number, or nil.
func (p *RecoveryPlan) WaveByNumber(waveNumber int) *Wave {
	for _, wave := range p.Waves {
		if wave.WaveNumber == waveNumber {
			return wave
		}
	}

	return nil
}
