package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/cutoverlabs/cutover/pkg/models"
	"github.com/cutoverlabs/cutover/pkg/services"
)

// APIHandlers bundles the HTTP handlers for groups, plans, accounts, and
// executions.
type APIHandlers struct {
	groupService     *services.Groups
	planService      *services.Plans
	accountService   *services.Accounts
	executionService *services.Executions
	validator        *validator.Validate
}

func NewAPIHandlers(
	groupService *services.Groups,
	planService *services.Plans,
	accountService *services.Accounts,
	executionService *services.Executions,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		groupService:     groupService,
		planService:      planService,
		accountService:   accountService,
		executionService: executionService,
		validator:        validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.groupService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Cutover API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Cutover API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Protection groups.

func (h *APIHandlers) GetGroups(c fiber.Ctx) error {
	groups, err := h.groupService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(groups)
}

func (h *APIHandlers) GetGroup(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Protection group ID is required")
	}

	group, err := h.groupService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(group)
}

func (h *APIHandlers) CreateGroup(c fiber.Ctx) error {
	var req CreateGroupRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	group, err := req.ToModel()
	if err != nil {
		return handleServiceError(c, err)
	}

	created, err := h.groupService.Create(c.Context(), group)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateGroup(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Protection group ID is required")
	}

	var req CreateGroupRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	group, err := req.ToModel()
	if err != nil {
		return handleServiceError(c, err)
	}

	updated, err := h.groupService.Update(c.Context(), id, group)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteGroup(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Protection group ID is required")
	}

	err := h.groupService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Recovery plans.

func (h *APIHandlers) GetPlans(c fiber.Ctx) error {
	plans, err := h.planService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(plans)
}

func (h *APIHandlers) GetPlan(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recovery plan ID is required")
	}

	plan, err := h.planService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(plan)
}

func (h *APIHandlers) CreatePlan(c fiber.Ctx) error {
	var req CreatePlanRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	plan := &models.RecoveryPlan{
		Name:        req.Name,
		Description: req.Description,
		Waves:       req.Waves,
		Owner:       req.Owner,
	}

	created, err := h.planService.Create(c.Context(), plan)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdatePlan(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recovery plan ID is required")
	}

	var req CreatePlanRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	plan := &models.RecoveryPlan{
		Name:        req.Name,
		Description: req.Description,
		Waves:       req.Waves,
		Owner:       req.Owner,
	}

	updated, err := h.planService.Update(c.Context(), id, plan)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePlan(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recovery plan ID is required")
	}

	err := h.planService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Target accounts.

func (h *APIHandlers) GetAccounts(c fiber.Ctx) error {
	accounts, err := h.accountService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(accounts)
}

func (h *APIHandlers) GetAccount(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Account ID is required")
	}

	account, err := h.accountService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(account)
}

func (h *APIHandlers) RegisterAccount(c fiber.Ctx) error {
	var req RegisterAccountRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	account := &models.TargetAccount{
		AccountID:  req.AccountID,
		Name:       req.Name,
		RoleName:   req.RoleName,
		ExternalID: req.ExternalID,
	}

	registered, err := h.accountService.Register(c.Context(), account)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(registered)
}

func (h *APIHandlers) DeleteAccount(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Account ID is required")
	}

	err := h.accountService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Executions.

func (h *APIHandlers) BeginExecution(c fiber.Ctx) error {
	planID := c.Params("id")
	if planID == "" {
		return badRequest(c, "Recovery plan ID is required")
	}

	var req BeginExecutionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	state, err := h.executionService.Begin(c.Context(), planID, req.IsDrill)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(state)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	state, err := h.executionService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) GetPlanExecutions(c fiber.Ctx) error {
	planID := c.Params("id")
	if planID == "" {
		return badRequest(c, "Recovery plan ID is required")
	}

	executions, err := h.executionService.ListByPlan(c.Context(), planID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

func (h *APIHandlers) PollExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	state, err := h.executionService.Poll(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) PauseExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	var req PauseExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	state, err := h.executionService.Pause(c.Context(), id, req.TaskToken)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) ResumeExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	state, err := h.executionService.Resume(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}
