package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-service/internal/events"
	"github.com/spec-kit/portal-service/internal/outbox"
)

// NotificationService turns domain events into outbound emails. It only
// enqueues; delivery is the mailer's problem.
type NotificationService struct {
	outbox outbox.EmailOutbox
	logger *zap.Logger
}

// NewNotificationService constructs the service and subscribes its handlers.
func NewNotificationService(dispatcher events.Dispatcher, emailOutbox outbox.EmailOutbox, logger *zap.Logger) *NotificationService {
	s := &NotificationService{outbox: emailOutbox, logger: logger}
	dispatcher.Subscribe(events.EventTicketCreated, s.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.handleStatusChanged)
	dispatcher.Subscribe(events.EventTicketReplyAdded, s.handleReplyAdded)
	dispatcher.Subscribe(events.EventTicketAssigned, s.handleTicketAssigned)
	dispatcher.Subscribe(events.EventTicketPriorityChanged, s.handlePriorityChanged)
	return s
}

func (s *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	err := s.enqueue(ctx, outbox.Email{
		RecipientEmail: payload.RequesterEmail,
		Subject:        fmt.Sprintf("Ticket %s received", payload.TicketNumber),
		TemplateName:   "ticket_created",
		TemplateData: map[string]any{
			"ticket_number": payload.TicketNumber,
			"title":         payload.Title,
			"priority":      payload.Priority,
		},
	})
	if payload.AssignedTo != nil {
		if assignErr := s.enqueueAssigned(ctx, payload.TicketNumber, *payload.AssignedTo); err == nil {
			err = assignErr
		}
	}
	return err
}

func (s *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssignedTo == nil {
		return nil
	}
	return s.enqueueAssigned(ctx, payload.TicketNumber, *payload.AssignedTo)
}

func (s *NotificationService) handlePriorityChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketPriorityChangedPayload)
	if !ok {
		return nil
	}
	return s.enqueue(ctx, outbox.Email{
		RecipientEmail: payload.RequesterEmail,
		Subject:        fmt.Sprintf("Ticket %s priority is now %s", payload.TicketNumber, payload.NewPriority),
		TemplateName:   "ticket_priority_changed",
		TemplateData: map[string]any{
			"ticket_number": payload.TicketNumber,
			"old_priority":  payload.OldPriority,
			"new_priority":  payload.NewPriority,
			"sla_deadline":  payload.SLADeadline,
		},
	})
}

// enqueueAssigned addresses the assignee by user id; the mailer resolves it.
func (s *NotificationService) enqueueAssigned(ctx context.Context, ticketNumber, assigneeID string) error {
	return s.enqueue(ctx, outbox.Email{
		RecipientID:  assigneeID,
		Subject:      fmt.Sprintf("Ticket %s assigned to you", ticketNumber),
		TemplateName: "ticket_assigned",
		TemplateData: map[string]any{
			"ticket_number": ticketNumber,
		},
	})
}

func (s *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	// Callers can suppress the client-facing email, e.g. bulk cleanup.
	if payload.Suppressed {
		return nil
	}
	return s.enqueue(ctx, outbox.Email{
		RecipientEmail: payload.RequesterEmail,
		Subject:        fmt.Sprintf("Ticket %s is now %s", payload.TicketNumber, payload.NewStatus),
		TemplateName:   "ticket_status_changed",
		TemplateData: map[string]any{
			"ticket_number": payload.TicketNumber,
			"old_status":    payload.OldStatus,
			"new_status":    payload.NewStatus,
		},
	})
}

func (s *NotificationService) handleReplyAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReplyAddedPayload)
	if !ok || payload.IsInternal {
		return nil
	}
	return s.enqueue(ctx, outbox.Email{
		RecipientEmail: payload.RequesterEmail,
		Subject:        "New reply on your support ticket",
		TemplateName:   "ticket_reply_added",
		TemplateData: map[string]any{
			"reply_preview": payload.BodyPreview,
		},
	})
}

func (s *NotificationService) enqueue(ctx context.Context, email outbox.Email) error {
	jobID, err := s.outbox.Enqueue(ctx, email)
	if err != nil {
		s.logger.Error("enqueue notification email",
			zap.String("recipient", email.RecipientEmail),
			zap.String("template", email.TemplateName),
			zap.Error(err))
		return err
	}
	s.logger.Debug("notification queued",
		zap.String("job_id", jobID),
		zap.String("template", email.TemplateName))
	return nil
}
