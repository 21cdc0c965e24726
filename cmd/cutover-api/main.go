package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/cutoverlabs/cutover/pkg/cmd"
	"github.com/cutoverlabs/cutover/pkg/log"
	"github.com/cutoverlabs/cutover/pkg/recovery/drsadapter"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "cutover-api",
		Usage:                 "Manage protection groups, recovery plans, and plan executions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "account-id",
				Usage:   "AWS account ID the API runs in (discovered via STS when empty)",
				Sources: cli.EnvVars("AWS_ACCOUNT_ID"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Wave poll interval used for timeout accounting",
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    "max-wait",
				Usage:   "Maximum accumulated wait before a wave times out",
				Sources: cli.EnvVars("MAX_WAIT"),
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

			logger.InfoContext(ctx, "Initializing Cutover API")

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

			awsConfig, accountID, err := cmd.NewAWSConfig(ctx, command.String("account-id"))
			if err != nil {
				return err
			}

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				drsadapter.NewFactory(awsConfig),
				accountID,
				command.Duration("poll-interval"),
				command.Duration("max-wait"),
			)

			return api.Start(command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
