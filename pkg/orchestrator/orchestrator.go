package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/cutoverlabs/cutover/pkg/accounts"
	"github.com/cutoverlabs/cutover/pkg/eventbus"
	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/otelhelper"
	"github.com/cutoverlabs/cutover/pkg/persistence"
	"github.com/cutoverlabs/cutover/pkg/recovery"
)

var (
	// ErrNilState indicates an action that requires state carried none.
	ErrNilState = errors.New("action requires an execution state")

	// ErrMissingTaskToken indicates a pause request without a resume token.
	// Pausing without a way to resume is a programming error in the host.
	ErrMissingTaskToken = errors.New("pause requires a task token")

	// ErrNilPlan indicates a begin action without a plan.
	ErrNilPlan = errors.New("begin requires a recovery plan")
)

const (
	defaultPollInterval = 30 * time.Second
	defaultMaxWait      = 2 * time.Hour
)

// Config carries the poll accounting knobs. The host owns actual timing;
// these only drive the accumulated-wait timeout arithmetic.
type Config struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}

	if c.MaxWait <= 0 {
		c.MaxWait = defaultMaxWait
	}

	return c
}

// Orchestrator routes host actions to the wave executor, status poller, and
// pause/resume manager. It holds no mutable state of its own; every
// invocation operates on a copy of the caller's state blob and returns it
// whole.
type Orchestrator struct {
	groups   persistence.ProtectionGroupRepository
	resolver *accounts.Resolver
	clients  recovery.ClientFactory
	config   Config
	logger   *slog.Logger

	executions persistence.ExecutionRepository // optional history sink
	publisher  eventbus.EventPublisher         // optional notification sink
	tracer     trace.Tracer                    // optional
}

// New creates an orchestrator.
func New(
	logger *slog.Logger,
	groups persistence.ProtectionGroupRepository,
	resolver *accounts.Resolver,
	clients recovery.ClientFactory,
	config Config,
) *Orchestrator {
	return &Orchestrator{
		groups:   groups,
		resolver: resolver,
		clients:  clients,
		config:   config.withDefaults(),
		logger:   logger,
	}
}

// WithExecutionStore records every returned state snapshot for history.
// Write failures are logged, never fatal.
func (o *Orchestrator) WithExecutionStore(executions persistence.ExecutionRepository) *Orchestrator {
	o.executions = executions

	return o
}

// WithPublisher attaches the fire-and-forget notification sink.
func (o *Orchestrator) WithPublisher(publisher eventbus.EventPublisher) *Orchestrator {
	o.publisher = publisher

	return o
}

// WithTracer attaches distributed tracing around action dispatch.
func (o *Orchestrator) WithTracer(tracer trace.Tracer) *Orchestrator {
	o.tracer = tracer

	return o
}

// Dispatch routes one host action and returns the complete updated state.
// Business failures are encoded in the state, never raised; a returned
// error means the invocation itself was malformed (nil state, missing
// token) and carries no state changes.
func (o *Orchestrator) Dispatch(ctx context.Context, action Action) (*models.ExecutionState, error) {
	var (
		state *models.ExecutionState
		err   error
	)

	switch act := action.(type) {
	case Begin:
		planID := ""
		if act.Plan != nil {
			planID = act.Plan.ID
		}

		ctx, end := o.startSpan(ctx, "orchestrator.begin", planID, act.ExecutionID)
		state, err = o.begin(ctx, act)
		end(err)
	case PollWave:
		if act.State == nil {
			return nil, ErrNilState
		}

		ctx, end := o.startSpan(ctx, "orchestrator.poll_wave", act.State.PlanID, act.State.ExecutionID)
		state = o.pollWave(ctx, act.State.Clone())
		end(nil)
	case Pause:
		if act.State == nil {
			return nil, ErrNilState
		}

		ctx, end := o.startSpan(ctx, "orchestrator.pause", act.State.PlanID, act.State.ExecutionID)
		state, err = o.pause(ctx, act.State.Clone(), act.Token)
		end(err)
	case Resume:
		if act.State == nil {
			return nil, ErrNilState
		}

		ctx, end := o.startSpan(ctx, "orchestrator.resume", act.State.PlanID, act.State.ExecutionID)
		state, err = o.resume(ctx, act.State.Clone())
		end(err)
	default:
		return nil, fmt.Errorf("unhandled action type %T", action)
	}

	if err != nil {
		return nil, err
	}

	state.UpdatedAt = time.Now().UTC()
	o.recordSnapshot(ctx, state)

	return state, nil
}

// begin builds the initial state for a plan run and starts wave zero.
func (o *Orchestrator) begin(ctx context.Context, action Begin) (*models.ExecutionState, error) {
	if action.Plan == nil {
		return nil, ErrNilPlan
	}

	if len(action.Plan.Waves) == 0 {
		return nil, fmt.Errorf("recovery plan %s has no waves", action.Plan.ID)
	}

	executionID := action.ExecutionID
	if executionID == "" {
		executionID = "exec-" + uuid.New().String()[:8]
	}

	now := time.Now().UTC()

	state := &models.ExecutionState{
		PlanID:      action.Plan.ID,
		PlanName:    action.Plan.Name,
		ExecutionID: executionID,
		IsDrill:     action.IsDrill,
		Status:      models.ExecutionStatusRunning,
		Waves:       clonedWaves(action.Plan),
		TotalWaves:  len(action.Plan.Waves),
		WaveResults: make([]*models.WaveResult, 0, len(action.Plan.Waves)),
		StartedAt:   now,
		UpdatedAt:   now,
	}

	logger := o.executionLogger(state)
	logger.InfoContext(ctx, "Beginning plan execution", "total_waves", state.TotalWaves, "is_drill", state.IsDrill)

	account := action.AccountContext
	if account == nil {
		resolved, err := o.resolver.Resolve(ctx, action.Plan)
		if err != nil {
			// Multi-account plans and lookup failures are terminal for the
			// run before any recovery call is made.
			logger.ErrorContext(ctx, "Account resolution failed", "error", err)
			state.Status = models.ExecutionStatusFailed
			state.Error = err.Error()
			state.WaveCompleted = true

			return state, nil
		}

		account = resolved
	}

	state.AccountContext = account
	state.Region = account.Region

	o.publishExecutionStarted(ctx, state)

	first := state.Waves[0].WaveNumber
	state.CurrentWaveNumber = first

	if state.Waves[0].PauseBeforeWave {
		// The host must issue a pause with its token before this wave runs.
		state.PausedBeforeWave = &first
		logger.InfoContext(ctx, "First wave requests a pause before start", "wave", first)

		return state, nil
	}

	o.startWave(ctx, state, first)

	return state, nil
}

// executionLogger annotates the orchestrator logger with run identifiers.
func (o *Orchestrator) executionLogger(state *models.ExecutionState) *slog.Logger {
	return o.logger.With("plan_id", state.PlanID, "execution_id", state.ExecutionID)
}

// recordSnapshot upserts the state into the execution store. Failures here
// are logged and swallowed: the host still receives the state.
func (o *Orchestrator) recordSnapshot(ctx context.Context, state *models.ExecutionState) {
	if o.executions == nil || state == nil {
		return
	}

	err := o.executions.Save(ctx, state)
	if err != nil {
		o.executionLogger(state).ErrorContext(ctx, "Failed to record execution snapshot", "error", err)
	}
}

func (o *Orchestrator) startSpan(ctx context.Context, name, planID, executionID string) (context.Context, func(error)) {
	if o.tracer == nil {
		return ctx, func(error) {}
	}

	attrs := otelhelper.ExecutionAttributes(planID, executionID)
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, name, attrs...)

	return ctx, func(err error) {
		if err != nil {
			otelhelper.SetError(span, err, attrs...)
		}

		span.End()
	}
}

func clonedWaves(plan *models.RecoveryPlan) []*models.Wave {
	waves := make([]*models.Wave, len(plan.Waves))
	for i, wave := range plan.Waves {
		w := *wave
		w.ServerIDs = append([]string(nil), wave.ServerIDs...)
		w.DependsOnWaves = append([]int(nil), wave.DependsOnWaves...)
		waves[i] = &w
	}

	sort.Slice(waves, func(i, j int) bool {
		return waves[i].WaveNumber < waves[j].WaveNumber
	})

	return waves
}
