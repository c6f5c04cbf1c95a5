package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-service/internal/api/dto"
	"github.com/spec-kit/portal-service/internal/auth"
	"github.com/spec-kit/portal-service/internal/domain"
	"github.com/spec-kit/portal-service/internal/service"
	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

// MacrosHandler manages macro endpoints.
type MacrosHandler struct {
	service *service.MacroService
}

// NewMacrosHandler constructs handler.
func NewMacrosHandler(macroService *service.MacroService) *MacrosHandler {
	return &MacrosHandler{service: macroService}
}

// CreateMacro POST /macros.
func (h *MacrosHandler) CreateMacro(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.MacroRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	macro, err := h.service.CreateMacro(c.UserContext(), rc, macroInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": macroResponse(macro)})
}

// UpdateMacro PUT /macros/:id.
func (h *MacrosHandler) UpdateMacro(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.MacroRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	macro, err := h.service.UpdateMacro(c.UserContext(), rc, c.Params("id"), macroInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": macroResponse(macro)})
}

// GetMacro GET /macros/:id.
func (h *MacrosHandler) GetMacro(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	macro, err := h.service.GetMacro(c.UserContext(), rc, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": macroResponse(macro)})
}

// ListMacros GET /macros.
func (h *MacrosHandler) ListMacros(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	macros, err := h.service.ListMacros(c.UserContext(), rc, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.MacroResponse, 0, len(macros))
	for i := range macros {
		items = append(items, macroResponse(&macros[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteMacro DELETE /macros/:id.
func (h *MacrosHandler) DeleteMacro(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteMacro(c.UserContext(), rc, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteMacro POST /macros/:id/execute.
func (h *MacrosHandler) ExecuteMacro(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ExecuteMacroRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == "" {
		return apperrors.NewValidationError("ticket_id is required", nil)
	}
	execution, err := h.service.ExecuteMacro(c.UserContext(), rc, c.Params("id"), req.TicketID, req.Overrides)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": executionResponse(execution)})
}

// TestMacro POST /macros/:id/test.
func (h *MacrosHandler) TestMacro(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TestMacroRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == "" {
		return apperrors.NewValidationError("ticket_id is required", nil)
	}
	execution, err := h.service.TestMacro(c.UserContext(), rc, c.Params("id"), req.TicketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": executionResponse(execution)})
}

// ValidateMacro POST /macros/validate.
func (h *MacrosHandler) ValidateMacro(c *fiber.Ctx) error {
	if _, ok := auth.ContextFrom(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ValidateMacroRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	validation := h.service.ValidateMacroLogic(req.Conditions, req.Actions)
	return c.JSON(fiber.Map{"data": validation})
}

// ListExecutions GET /macros/:id/executions.
func (h *MacrosHandler) ListExecutions(c *fiber.Ctx) error {
	rc, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	executions, err := h.service.ListExecutions(c.UserContext(), rc, c.Params("id"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ExecutionResponse, 0, len(executions))
	for i := range executions {
		items = append(items, executionResponse(&executions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func macroInput(req dto.MacroRequest) service.MacroInput {
	return service.MacroInput{
		Name:               req.Name,
		Description:        req.Description,
		TriggerType:        domain.TriggerType(req.TriggerType),
		Conditions:         req.Conditions,
		ConditionsOperator: domain.ConditionsOperator(req.ConditionsOperator),
		Actions:            req.Actions,
		IsActive:           req.IsActive,
		Category:           req.Category,
		Priority:           req.Priority,
		Keywords:           req.Keywords,
	}
}

func macroResponse(macro *domain.Macro) dto.MacroResponse {
	return dto.MacroResponse{
		ID:                 macro.ID,
		Name:               macro.Name,
		Description:        macro.Description,
		TriggerType:        string(macro.TriggerType),
		Conditions:         macro.Conditions,
		ConditionsOperator: string(macro.ConditionsOperator),
		Actions:            macro.Actions,
		IsActive:           macro.IsActive,
		Category:           macro.Category,
		Priority:           macro.Priority,
		Keywords:           macro.Keywords,
		ExecutionCount:     macro.ExecutionCount,
		LastExecutedAt:     macro.LastExecutedAt,
		SuccessRate:        macro.SuccessRate,
		CreatedAt:          macro.CreatedAt,
		UpdatedAt:          macro.UpdatedAt,
	}
}

func executionResponse(execution *domain.MacroExecution) dto.ExecutionResponse {
	results := make([]dto.ActionResultResponse, 0, len(execution.Results))
	for _, result := range execution.Results {
		results = append(results, dto.ActionResultResponse{
			ActionType: string(result.ActionType),
			Status:     string(result.Status),
			Message:    result.Message,
			Data:       result.Data,
		})
	}
	return dto.ExecutionResponse{
		ID:            execution.ID,
		MacroID:       execution.MacroID,
		TicketID:      execution.TicketID,
		ExecutedBy:    execution.ExecutedBy,
		ExecutionType: execution.ExecutionType,
		Status:        string(execution.Status),
		StartedAt:     execution.StartedAt,
		CompletedAt:   execution.CompletedAt,
		Results:       results,
		ErrorMessage:  execution.ErrorMessage,
		Metadata:      execution.Metadata,
	}
}
