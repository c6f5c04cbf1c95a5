package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/portal-service/internal/domain"
	"github.com/spec-kit/portal-service/internal/outbox"
	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

// actionExecutor applies one macro action to a ticket. Mutating actions go
// through the ticket service so SLA recomputation, the state machine and
// event side effects stay in one place.
type actionExecutor struct {
	ticketSvc *TicketService
	outbox    outbox.EmailOutbox
}

// execute runs one action and returns its message and optional data.
// Overrides are shallow-merged over the stored parameters first.
func (e *actionExecutor) execute(ctx context.Context, rc domain.RequestContext, action domain.Action, ticket *domain.Ticket, overrides map[string]any) (string, map[string]any, error) {
	params := mergeParameters(action.Parameters, overrides)

	switch action.Type {
	case domain.ActionAddReply:
		return e.addReply(ctx, rc, ticket, params)
	case domain.ActionChangeStatus:
		return e.changeStatus(ctx, rc, ticket, params)
	case domain.ActionAssignAgent:
		return e.assignAgent(ctx, rc, ticket, params)
	case domain.ActionChangePriority:
		return e.changePriority(ctx, rc, ticket, params)
	case domain.ActionAddTags:
		return e.addTags(params)
	case domain.ActionSendEmail:
		return e.sendEmail(ctx, ticket, params)
	case domain.ActionCreateTask:
		return "task creation recorded for external task system", map[string]any{"parameters": params}, nil
	case domain.ActionEscalate:
		return "escalation recorded for external escalation workflow", map[string]any{"parameters": params}, nil
	}
	return "", nil, apperrors.NewUnknownActionType(string(action.Type))
}

func (e *actionExecutor) addReply(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket, params map[string]any) (string, map[string]any, error) {
	content := paramString(params, "content")
	if content == "" {
		return "", nil, apperrors.NewValidationError("add_reply requires a content parameter", nil)
	}
	reply, err := e.ticketSvc.CreateReply(ctx, rc, ticket.ID, ReplyCreateInput{
		Type:       domain.ReplyTypeSystem,
		Content:    content,
		IsInternal: paramBool(params, "is_internal"),
	})
	if err != nil {
		return "", nil, err
	}
	return "reply added", map[string]any{"reply_id": reply.ID}, nil
}

func (e *actionExecutor) changeStatus(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket, params map[string]any) (string, map[string]any, error) {
	status := domain.TicketStatus(paramString(params, "status"))
	if status == "" {
		return "", nil, apperrors.NewValidationError("change_status requires a status parameter", nil)
	}
	input := StatusChangeInput{Status: status, Reason: "macro automation"}
	if resolution := paramString(params, "resolution"); resolution != "" {
		input.Resolution = &resolution
	}
	updated, err := e.ticketSvc.ChangeStatus(ctx, rc, ticket.ID, input)
	if err != nil {
		return "", nil, err
	}
	*ticket = *updated
	return fmt.Sprintf("status changed to %s", status), map[string]any{"status": status}, nil
}

func (e *actionExecutor) assignAgent(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket, params map[string]any) (string, map[string]any, error) {
	userID := paramString(params, "user_id")
	if userID == "" {
		return "", nil, apperrors.NewValidationError("assign_agent requires a user_id parameter", nil)
	}
	updated, err := e.ticketSvc.UpdateTicket(ctx, rc, ticket.ID, TicketPatch{AssignedTo: &userID})
	if err != nil {
		return "", nil, err
	}
	*ticket = *updated
	return fmt.Sprintf("ticket assigned to %s", userID), map[string]any{"assigned_to": userID}, nil
}

func (e *actionExecutor) changePriority(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket, params map[string]any) (string, map[string]any, error) {
	priority := domain.TicketPriority(paramString(params, "priority"))
	if priority == "" {
		return "", nil, apperrors.NewValidationError("change_priority requires a priority parameter", nil)
	}
	updated, err := e.ticketSvc.UpdateTicket(ctx, rc, ticket.ID, TicketPatch{Priority: &priority})
	if err != nil {
		return "", nil, err
	}
	*ticket = *updated
	return fmt.Sprintf("priority changed to %s", priority), map[string]any{"priority": priority}, nil
}

// addTags reports what would be tagged. The tag subsystem lives outside
// this service.
func (e *actionExecutor) addTags(params map[string]any) (string, map[string]any, error) {
	tags, ok := params["tags"]
	if !ok {
		return "", nil, apperrors.NewValidationError("add_tags requires a tags parameter", nil)
	}
	return "tags recorded", map[string]any{"tags": tags}, nil
}

func (e *actionExecutor) sendEmail(ctx context.Context, ticket *domain.Ticket, params map[string]any) (string, map[string]any, error) {
	recipient := paramString(params, "recipient_email")
	if recipient == "" {
		recipient = ticket.RequesterEmail
	}
	templateName := paramString(params, "template_name")
	body := paramString(params, "content")
	if templateName == "" && body == "" {
		return "", nil, apperrors.NewValidationError("send_email requires template_name or content", nil)
	}
	email := outbox.Email{
		RecipientEmail: recipient,
		Subject:        paramString(params, "subject"),
		TemplateName:   templateName,
		Body:           body,
	}
	if templateName != "" {
		email.TemplateData = map[string]any{
			"ticket_number": ticket.TicketNumber,
			"title":         ticket.Title,
		}
	}
	jobID, err := e.outbox.Enqueue(ctx, email)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("email queued for %s", recipient), map[string]any{"job_id": jobID}, nil
}

// mergeParameters overlays overrides on top of the stored parameters.
// Shallow merge: override keys win wholesale.
func mergeParameters(params, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(params)+len(overrides))
	for key, value := range params {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

func paramString(params map[string]any, key string) string {
	if raw, ok := params[key]; ok {
		if str, ok := raw.(string); ok {
			return str
		}
	}
	return ""
}

func paramBool(params map[string]any, key string) bool {
	if raw, ok := params[key]; ok {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return false
}
