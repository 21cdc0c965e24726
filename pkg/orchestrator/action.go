// Package orchestrator implements the wave orchestration engine: it decides
// which wave runs next, resolves the servers and account a wave targets,
// starts and polls recovery jobs, and manages pause/resume. It is invoked
// synchronously by an external workflow host, once per logical step, and
// always returns the complete execution state.
package orchestrator

import "github.com/cutoverlabs/cutover/pkg/models"

// Action is the closed set of operations the workflow host may request.
// Routing is an exhaustive type switch; there is no string dispatch.
type Action interface {
	isAction()
}

// Begin creates the execution state for a plan run and starts its first
// wave.
type Begin struct {
	Plan        *models.RecoveryPlan
	ExecutionID string
	IsDrill     bool

	// AccountContext, when supplied, skips account resolution; a resume
	// event may carry it again.
	AccountContext *models.AccountContext
}

func (Begin) isAction() {}

// PollWave performs one status check of the in-flight wave.
type PollWave struct {
	State *models.ExecutionState
}

func (PollWave) isAction() {}

// Pause suspends the execution, persisting the host's opaque resume token.
type Pause struct {
	State *models.ExecutionState
	Token string
}

func (Pause) isAction() {}

// Resume restarts the wave that was pending when the execution paused.
type Resume struct {
	State *models.ExecutionState
}

func (Resume) isAction() {}
