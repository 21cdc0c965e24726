// Package main provides the Cutover API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/cutoverlabs/cutover/pkg/accounts"
	"github.com/cutoverlabs/cutover/pkg/eventbus"
	"github.com/cutoverlabs/cutover/pkg/orchestrator"
	"github.com/cutoverlabs/cutover/pkg/persistence"
	"github.com/cutoverlabs/cutover/pkg/recovery"
	"github.com/cutoverlabs/cutover/pkg/services"
	"github.com/cutoverlabs/cutover/pkg/web"
)

type API struct {
	logger       *slog.Logger
	persistence  persistence.Persistence
	eventBus     eventbus.EventBus
	clients      recovery.ClientFactory
	accountID    string
	pollInterval time.Duration
	maxWait      time.Duration
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	clients recovery.ClientFactory,
	accountID string,
	pollInterval time.Duration,
	maxWait time.Duration,
) *API {
	return &API{
		logger:       logger,
		persistence:  persistence,
		eventBus:     eventBus,
		clients:      clients,
		accountID:    accountID,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	resolver := accounts.NewResolver(
		a.persistence.ProtectionGroups(),
		a.persistence.TargetAccounts(),
		a.accountID,
		a.logger,
	)

	orch := orchestrator.New(
		a.logger,
		a.persistence.ProtectionGroups(),
		resolver,
		a.clients,
		orchestrator.Config{PollInterval: a.pollInterval, MaxWait: a.maxWait},
	).WithPublisher(a.eventBus)

	groupService := services.NewGroups(a.persistence)
	planService := services.NewPlans(a.persistence)
	accountService := services.NewAccounts(a.persistence)
	executionService := services.NewExecutions(a.persistence, orch)

	handlers := web.NewAPIHandlers(groupService, planService, accountService, executionService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Cutover API")
	})

	g := app.Group("/protection-groups")
	g.Get("/", handlers.GetGroups)
	g.Post("/", handlers.CreateGroup)
	g.Get("/:id", handlers.GetGroup)
	g.Put("/:id", handlers.UpdateGroup)
	g.Delete("/:id", handlers.DeleteGroup)

	p := app.Group("/recovery-plans")
	p.Get("/", handlers.GetPlans)
	p.Post("/", handlers.CreatePlan)
	p.Get("/:id", handlers.GetPlan)
	p.Put("/:id", handlers.UpdatePlan)
	p.Delete("/:id", handlers.DeletePlan)
	p.Post("/:id/executions", handlers.BeginExecution)
	p.Get("/:id/executions", handlers.GetPlanExecutions)

	t := app.Group("/accounts")
	t.Get("/", handlers.GetAccounts)
	t.Post("/", handlers.RegisterAccount)
	t.Get("/:id", handlers.GetAccount)
	t.Delete("/:id", handlers.DeleteAccount)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/poll", handlers.PollExecution)
	e.Post("/:id/pause", handlers.PauseExecution)
	e.Post("/:id/resume", handlers.ResumeExecution)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
