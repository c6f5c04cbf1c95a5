package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-service/internal/audit"
	"github.com/spec-kit/portal-service/internal/domain"
	"github.com/spec-kit/portal-service/internal/events"
	"github.com/spec-kit/portal-service/internal/outbox"
	"github.com/spec-kit/portal-service/internal/repository"
	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

// ValidationIssue is one error or warning from static macro validation.
type ValidationIssue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MacroValidation is the result of validating macro logic. IsValid is false
// exactly when Errors is non-empty; warnings never affect it.
type MacroValidation struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// MacroInput describes macro creation or replacement payload.
type MacroInput struct {
	Name               string
	Description        string
	TriggerType        domain.TriggerType
	Conditions         []domain.Condition
	ConditionsOperator domain.ConditionsOperator
	Actions            []domain.Action
	IsActive           bool
	Category           string
	Priority           int
	Keywords           []string
}

// MacroService owns macro CRUD and the execution engine.
type MacroService struct {
	macros     repository.MacroRepository
	executions repository.MacroExecutionRepository
	ticketSvc  *TicketService
	executor   *actionExecutor
	dispatcher events.Dispatcher
	auditSink  audit.Sink
	logger     *zap.Logger
	clock      func() time.Time
}

// MacroDependencies bundles collaborators for the macro service.
type MacroDependencies struct {
	MacroRepo     repository.MacroRepository
	ExecutionRepo repository.MacroExecutionRepository
	TicketService *TicketService
	EmailOutbox   outbox.EmailOutbox
	Dispatcher    events.Dispatcher
	AuditSink     audit.Sink
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewMacroService constructs the service.
func NewMacroService(deps MacroDependencies) *MacroService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &MacroService{
		macros:     deps.MacroRepo,
		executions: deps.ExecutionRepo,
		ticketSvc:  deps.TicketService,
		executor:   &actionExecutor{ticketSvc: deps.TicketService, outbox: deps.EmailOutbox},
		dispatcher: deps.Dispatcher,
		auditSink:  deps.AuditSink,
		logger:     deps.Logger,
		clock:      clock,
	}
}

// CreateMacro validates and stores a new macro. Names are unique per
// organization.
func (s *MacroService) CreateMacro(ctx context.Context, rc domain.RequestContext, input MacroInput) (*domain.Macro, error) {
	macro, err := s.buildMacro(rc, input)
	if err != nil {
		return nil, err
	}
	if err := s.checkNameConflict(ctx, rc.OrganizationID, macro.Name, ""); err != nil {
		return nil, err
	}
	if err := s.macros.Create(ctx, macro); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, rc, "macro.created", macro.ID, map[string]any{"name": macro.Name})
	return macro, nil
}

// UpdateMacro replaces a macro's definition.
func (s *MacroService) UpdateMacro(ctx context.Context, rc domain.RequestContext, macroID string, input MacroInput) (*domain.Macro, error) {
	existing, err := s.getMacro(ctx, rc, macroID)
	if err != nil {
		return nil, err
	}
	updated, err := s.buildMacro(rc, input)
	if err != nil {
		return nil, err
	}
	if updated.Name != existing.Name {
		if err := s.checkNameConflict(ctx, rc.OrganizationID, updated.Name, macroID); err != nil {
			return nil, err
		}
	}
	updated.ID = existing.ID
	updated.ExecutionCount = existing.ExecutionCount
	updated.LastExecutedAt = existing.LastExecutedAt
	updated.SuccessRate = existing.SuccessRate
	updated.CreatedAt = existing.CreatedAt
	if err := s.macros.Update(ctx, updated); err != nil {
		return nil, s.mapMacroErr(err, macroID)
	}
	s.audit(ctx, rc, "macro.updated", updated.ID, map[string]any{"name": updated.Name})
	return updated, nil
}

// GetMacro returns one macro within the caller's organization.
func (s *MacroService) GetMacro(ctx context.Context, rc domain.RequestContext, macroID string) (*domain.Macro, error) {
	return s.getMacro(ctx, rc, macroID)
}

// ListMacros returns macros ordered by priority then name.
func (s *MacroService) ListMacros(ctx context.Context, rc domain.RequestContext, limit, offset int) ([]domain.Macro, error) {
	macros, err := s.macros.List(ctx, rc.OrganizationID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return macros, nil
}

// ListExecutions returns the run history of a macro, newest first.
func (s *MacroService) ListExecutions(ctx context.Context, rc domain.RequestContext, macroID string, limit, offset int) ([]domain.MacroExecution, error) {
	if _, err := s.getMacro(ctx, rc, macroID); err != nil {
		return nil, err
	}
	executions, err := s.executions.ListByMacro(ctx, macroID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return executions, nil
}

// DeleteMacro tombstones a macro. Its execution history is kept.
func (s *MacroService) DeleteMacro(ctx context.Context, rc domain.RequestContext, macroID string) error {
	if err := s.macros.SoftDelete(ctx, rc.OrganizationID, macroID, s.clock()); err != nil {
		return s.mapMacroErr(err, macroID)
	}
	s.audit(ctx, rc, "macro.deleted", macroID, nil)
	return nil
}

// ExecuteMacro runs a macro against a ticket. Action failures are collected
// per action and never abort sibling actions. Every run, including a
// conditions-not-met failure, is persisted and folded into the macro's
// statistics.
func (s *MacroService) ExecuteMacro(ctx context.Context, rc domain.RequestContext, macroID, ticketID string, overrides map[string]any) (*domain.MacroExecution, error) {
	macro, err := s.getMacro(ctx, rc, macroID)
	if err != nil {
		return nil, err
	}
	if !macro.IsActive {
		return nil, apperrors.NewValidationError("macro is not active", map[string]any{"macro_id": macro.ID})
	}
	ticket, err := s.ticketSvc.getTicket(ctx, rc, ticketID)
	if err != nil {
		return nil, err
	}

	startedAt := s.clock()
	execution := &domain.MacroExecution{
		MacroID:       macro.ID,
		TicketID:      ticket.ID,
		ExecutedBy:    rc.UserID,
		ExecutionType: string(domain.TriggerManual),
		StartedAt:     startedAt,
	}
	if len(overrides) > 0 {
		execution.Metadata = map[string]any{"overrides": overrides}
	}

	// Non-manual macros gate on their conditions even when run by hand.
	if macro.TriggerType != domain.TriggerManual {
		if !evaluateConditions(macro.Conditions, macro.ConditionsOperator, ticket, nil, startedAt) {
			message := "macro conditions not met for this ticket"
			execution.Status = domain.ExecutionFailed
			execution.ErrorMessage = &message
			execution.CompletedAt = s.clock()
			s.recordExecution(ctx, rc, macro, execution)
			return execution, apperrors.NewValidationError(message, map[string]any{
				"macro_id":  macro.ID,
				"ticket_id": ticket.ID,
			})
		}
	}

	succeeded, failed := 0, 0
	for _, action := range macro.Actions {
		message, data, actionErr := s.executor.execute(ctx, rc, action, ticket, overrides)
		result := domain.ActionResult{ActionType: action.Type, Status: domain.ActionStatusSuccess, Message: message, Data: data}
		if actionErr != nil {
			result.Status = domain.ActionStatusFailed
			result.Message = actionErr.Error()
			failed++
			s.logger.Warn("macro action failed",
				zap.String("macro_id", macro.ID),
				zap.String("ticket_id", ticket.ID),
				zap.String("action_type", string(action.Type)),
				zap.Error(actionErr))
		} else {
			succeeded++
		}
		execution.Results = append(execution.Results, result)
	}

	switch {
	case failed == 0:
		execution.Status = domain.ExecutionSuccess
	case succeeded == 0:
		execution.Status = domain.ExecutionFailed
	default:
		execution.Status = domain.ExecutionPartial
	}
	execution.CompletedAt = s.clock()
	s.recordExecution(ctx, rc, macro, execution)

	s.publishEvent(ctx, events.Event{
		Type:           events.EventMacroExecuted,
		OrganizationID: macro.OrganizationID,
		TicketID:       ticket.ID,
		ActorID:        rc.UserID,
		Payload: events.MacroExecutedPayload{
			MacroID:     macro.ID,
			ExecutionID: execution.ID,
			Status:      execution.Status,
		},
	})
	return execution, nil
}

// TestMacro dry-runs a macro against a ticket. Nothing is mutated and no
// statistics move; the run is only audited.
func (s *MacroService) TestMacro(ctx context.Context, rc domain.RequestContext, macroID, ticketID string) (*domain.MacroExecution, error) {
	macro, err := s.getMacro(ctx, rc, macroID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketSvc.getTicket(ctx, rc, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	execution := &domain.MacroExecution{
		ID:            uuid.NewString(),
		MacroID:       macro.ID,
		TicketID:      ticket.ID,
		ExecutedBy:    rc.UserID,
		ExecutionType: "test",
		StartedAt:     now,
		CompletedAt:   now,
		Metadata:      map[string]any{"dry_run": true},
	}

	if !evaluateConditions(macro.Conditions, macro.ConditionsOperator, ticket, nil, now) {
		execution.Status = domain.ExecutionSuccess
		execution.Results = []domain.ActionResult{{
			Status:  domain.ActionStatusSkipped,
			Message: "macro conditions not met for this ticket",
		}}
	} else {
		execution.Status = domain.ExecutionSuccess
		for _, action := range macro.Actions {
			execution.Results = append(execution.Results, domain.ActionResult{
				ActionType: action.Type,
				Status:     domain.ActionStatusSuccess,
				Message:    fmt.Sprintf("would execute %s", action.Type),
				Data:       map[string]any{"dry_run": true, "parameters": action.Parameters},
			})
		}
	}

	s.audit(ctx, rc, "macro.tested", macro.ID, map[string]any{"ticket_id": ticket.ID})
	return execution, nil
}

// ValidateMacroLogic statically validates conditions and actions without
// touching any ticket.
func (s *MacroService) ValidateMacroLogic(conditions []domain.Condition, actions []domain.Action) MacroValidation {
	validation := MacroValidation{
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
	}

	for i, cond := range conditions {
		if cond.Field == "" || cond.Operator == "" || cond.Value == nil {
			validation.Errors = append(validation.Errors, ValidationIssue{
				Type:    "logic",
				Message: fmt.Sprintf("condition %d must have field, operator and value", i+1),
			})
			continue
		}
		if !domain.ValidConditionOperator(cond.Operator) {
			validation.Errors = append(validation.Errors, ValidationIssue{
				Type:    "logic",
				Message: fmt.Sprintf("condition %d uses unknown operator %q", i+1, cond.Operator),
			})
		}
		if cond.Field == domain.FieldContent && cond.Operator == domain.OpContains {
			validation.Warnings = append(validation.Warnings, ValidationIssue{
				Type:    "performance",
				Message: "content contains conditions scan full ticket text and can be slow",
			})
		}
	}
	if len(conditions) == 0 {
		validation.Warnings = append(validation.Warnings, ValidationIssue{
			Type:    "best_practice",
			Message: "macro has no conditions and will match all tickets",
		})
	}

	if len(actions) == 0 {
		validation.Errors = append(validation.Errors, ValidationIssue{
			Type:    "logic",
			Message: "macro must have at least one action",
		})
	}
	for i, action := range actions {
		if action.Type == "" {
			validation.Errors = append(validation.Errors, ValidationIssue{
				Type:    "logic",
				Message: fmt.Sprintf("action %d must have a type", i+1),
			})
			continue
		}
		if missing := missingActionParameter(action); missing != "" {
			validation.Errors = append(validation.Errors, ValidationIssue{
				Type:    "logic",
				Message: fmt.Sprintf("action %d (%s) requires parameter %s", i+1, action.Type, missing),
			})
		}
	}

	validation.IsValid = len(validation.Errors) == 0
	return validation
}

func missingActionParameter(action domain.Action) string {
	switch action.Type {
	case domain.ActionAddReply:
		if paramString(action.Parameters, "content") == "" {
			return "content"
		}
	case domain.ActionAssignAgent:
		if paramString(action.Parameters, "user_id") == "" {
			return "user_id"
		}
	case domain.ActionChangeStatus:
		if paramString(action.Parameters, "status") == "" {
			return "status"
		}
	case domain.ActionChangePriority:
		if paramString(action.Parameters, "priority") == "" {
			return "priority"
		}
	case domain.ActionSendEmail:
		if paramString(action.Parameters, "template_name") == "" && paramString(action.Parameters, "content") == "" {
			return "template_name or content"
		}
	}
	return ""
}

func (s *MacroService) buildMacro(rc domain.RequestContext, input MacroInput) (*domain.Macro, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	triggerType := input.TriggerType
	if triggerType == "" {
		triggerType = domain.TriggerManual
	}
	operator := input.ConditionsOperator
	if operator == "" {
		operator = domain.ConditionsAnd
	}
	if operator != domain.ConditionsAnd && operator != domain.ConditionsOr {
		return nil, apperrors.NewValidationError("conditions_operator must be AND or OR", nil)
	}
	if validation := s.ValidateMacroLogic(input.Conditions, input.Actions); !validation.IsValid {
		return nil, apperrors.NewValidationError("macro logic is invalid", map[string]any{
			"errors": validation.Errors,
		})
	}
	return &domain.Macro{
		OrganizationID:     rc.OrganizationID,
		Name:               name,
		Description:        input.Description,
		TriggerType:        triggerType,
		Conditions:         input.Conditions,
		ConditionsOperator: operator,
		Actions:            input.Actions,
		IsActive:           input.IsActive,
		Category:           input.Category,
		Priority:           input.Priority,
		Keywords:           input.Keywords,
	}, nil
}

func (s *MacroService) checkNameConflict(ctx context.Context, organizationID, name, excludeID string) error {
	existing, err := s.macros.GetByName(ctx, organizationID, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID != excludeID {
		return apperrors.NewConflict("a macro with this name already exists", map[string]any{"name": name})
	}
	return nil
}

// recordExecution persists the run and recomputes the macro's statistics
// from its full history so repeated runs can never drift.
func (s *MacroService) recordExecution(ctx context.Context, rc domain.RequestContext, macro *domain.Macro, execution *domain.MacroExecution) {
	if err := s.executions.Create(ctx, execution); err != nil {
		s.logger.Error("persist macro execution",
			zap.String("macro_id", macro.ID),
			zap.Error(err))
		return
	}
	total, successes, err := s.executions.CountByMacro(ctx, macro.ID)
	if err != nil {
		s.logger.Error("count macro executions",
			zap.String("macro_id", macro.ID),
			zap.Error(err))
		return
	}
	successRate := 0.0
	if total > 0 {
		successRate = float64(successes) / float64(total) * 100
	}
	if err := s.macros.UpdateStats(ctx, macro.ID, total, execution.CompletedAt, successRate); err != nil {
		s.logger.Error("update macro statistics",
			zap.String("macro_id", macro.ID),
			zap.Error(err))
	}
	s.audit(ctx, rc, "macro.executed", macro.ID, map[string]any{
		"ticket_id":    execution.TicketID,
		"execution_id": execution.ID,
		"status":       execution.Status,
	})
}

func (s *MacroService) getMacro(ctx context.Context, rc domain.RequestContext, macroID string) (*domain.Macro, error) {
	macro, err := s.macros.GetByID(ctx, rc.OrganizationID, macroID)
	if err != nil {
		return nil, s.mapMacroErr(err, macroID)
	}
	return macro, nil
}

func (s *MacroService) mapMacroErr(err error, macroID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("macro", map[string]any{"macro_id": macroID})
	}
	return apperrors.MapError(err)
}

func (s *MacroService) audit(ctx context.Context, rc domain.RequestContext, action, macroID string, details map[string]any) {
	if s.auditSink == nil {
		return
	}
	s.auditSink.Log(ctx, audit.Entry{
		OrganizationID: rc.OrganizationID,
		UserID:         rc.UserID,
		Action:         action,
		ResourceType:   "macro",
		ResourceID:     macroID,
		Details:        details,
		IPAddress:      rc.IPAddress,
		UserAgent:      rc.UserAgent,
	})
}

func (s *MacroService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
