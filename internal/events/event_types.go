package events

import (
	"time"

	"github.com/spec-kit/portal-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketReplyAdded      EventType = "ticket_reply_added"
	EventMacroExecuted         EventType = "macro_executed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	OrganizationID string      `json:"organization_id"`
	TicketID       string      `json:"ticket_id"`
	ActorID        string      `json:"actor_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber   string                `json:"ticket_number"`
	Title          string                `json:"title"`
	Priority       domain.TicketPriority `json:"priority"`
	RequesterEmail string                `json:"requester_email"`
	AssignedTo     *string               `json:"assigned_to,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketNumber   string              `json:"ticket_number"`
	OldStatus      domain.TicketStatus `json:"old_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
	RequesterEmail string              `json:"requester_email"`
	Suppressed     bool                `json:"suppressed,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	TicketNumber   string                `json:"ticket_number"`
	OldPriority    domain.TicketPriority `json:"old_priority"`
	NewPriority    domain.TicketPriority `json:"new_priority"`
	RequesterEmail string                `json:"requester_email"`
	SLADeadline    time.Time             `json:"sla_deadline"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketNumber string  `json:"ticket_number"`
	AssignedTo   *string `json:"assigned_to,omitempty"`
}

// TicketReplyAddedPayload payload.
type TicketReplyAddedPayload struct {
	ReplyID        string           `json:"reply_id"`
	ReplyType      domain.ReplyType `json:"reply_type"`
	IsInternal     bool             `json:"is_internal"`
	RequesterEmail string           `json:"requester_email"`
	BodyPreview    string           `json:"body_preview"`
}

// MacroExecutedPayload payload.
type MacroExecutedPayload struct {
	MacroID     string                 `json:"macro_id"`
	ExecutionID string                 `json:"execution_id"`
	Status      domain.ExecutionStatus `json:"status"`
}
