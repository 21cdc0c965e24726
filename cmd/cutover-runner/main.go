package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/cutoverlabs/cutover/pkg/accounts"
	"github.com/cutoverlabs/cutover/pkg/cmd"
	"github.com/cutoverlabs/cutover/pkg/log"
	"github.com/cutoverlabs/cutover/pkg/orchestrator"
	"github.com/cutoverlabs/cutover/pkg/otelhelper"
	"github.com/cutoverlabs/cutover/pkg/recovery/drsadapter"
)

const defaultPollInterval = 30 * time.Second

func main() {
	logger := log.WithModule("runner")

	command := &cli.Command{
		Name:                  "cutover-runner",
		Usage:                 "Drive recovery plan executions on a poll loop",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "redis-url",
				Usage:    "Redis URL for the execution state store",
				Required: true,
				Sources:  cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "account-id",
				Usage:   "AWS account ID the runner runs in (discovered via STS when empty)",
				Sources: cli.EnvVars("AWS_ACCOUNT_ID"),
			},
			&cli.StringFlag{
				Name:    "start-plan",
				Usage:   "Plan ID to begin executing immediately",
				Sources: cli.EnvVars("START_PLAN"),
			},
			&cli.BoolFlag{
				Name:    "drill",
				Usage:   "Run --start-plan as a drill",
				Sources: cli.EnvVars("DRILL"),
			},
			&cli.StringFlag{
				Name:    "drill-schedule",
				Usage:   "Cron expression for recurring drills of --drill-plan",
				Sources: cli.EnvVars("DRILL_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "drill-plan",
				Usage:   "Plan ID the drill schedule runs",
				Sources: cli.EnvVars("DRILL_PLAN"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often each in-flight wave is polled",
				Value:   defaultPollInterval,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    "max-wait",
				Usage:   "Maximum accumulated wait before a wave times out",
				Sources: cli.EnvVars("MAX_WAIT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Cutover runner")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			store, err := NewStateStore(command.String("redis-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close state store", "error", err)
				}
			}()

			awsConfig, accountID, err := cmd.NewAWSConfig(ctx, command.String("account-id"))
			if err != nil {
				return err
			}

			resolver := accounts.NewResolver(
				persistence.ProtectionGroups(),
				persistence.TargetAccounts(),
				accountID,
				logger,
			)

			orch := orchestrator.New(
				logger,
				persistence.ProtectionGroups(),
				resolver,
				drsadapter.NewFactory(awsConfig),
				orchestrator.Config{
					PollInterval: command.Duration("poll-interval"),
					MaxWait:      command.Duration("max-wait"),
				},
			).
				WithExecutionStore(persistence.Executions()).
				WithPublisher(eventBus)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "cutover-runner")
				if err != nil {
					return err
				}

				orch = orch.WithTracer(tracer)
			}

			runner := NewRunner(
				logger,
				orch,
				store,
				persistence.RecoveryPlans(),
				command.Duration("poll-interval"),
			)

			if schedule := command.String("drill-schedule"); schedule != "" {
				if err := runner.ScheduleDrill(ctx, schedule, command.String("drill-plan")); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if planID := command.String("start-plan"); planID != "" {
				if _, err := runner.StartPlan(ctx, planID, command.Bool("drill")); err != nil {
					return err
				}
			}

			err = runner.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
