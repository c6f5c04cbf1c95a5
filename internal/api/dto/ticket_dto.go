package dto

import (
	"time"

	"github.com/spec-kit/portal-service/internal/domain"
)

// CreateTicketRequest is the POST /tickets payload.
type CreateTicketRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	CategoryID     *string `json:"category_id"`
	AssignedTo     *string `json:"assigned_to"`
	RequesterEmail string  `json:"requester_email"`
	RequesterName  string  `json:"requester_name"`
	Source         string  `json:"source"`
}

// UpdateTicketRequest carries optional edits; absent fields stay unchanged.
type UpdateTicketRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Priority      *string `json:"priority"`
	CategoryID    *string `json:"category_id"`
	AssignedTo    *string `json:"assigned_to"`
	RequesterName *string `json:"requester_name"`
	Source        *string `json:"source"`
}

// ChangeStatusRequest is the POST /tickets/:id/status payload.
type ChangeStatusRequest struct {
	Status               string  `json:"status"`
	Resolution           *string `json:"resolution"`
	Reason               string  `json:"reason"`
	SuppressNotification bool    `json:"suppress_notification"`
}

// AttachmentPayload carries base64-encoded attachment bytes.
type AttachmentPayload struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// CreateReplyRequest is the POST /tickets/:id/replies payload.
type CreateReplyRequest struct {
	Type        string              `json:"type"`
	Content     string              `json:"content"`
	IsInternal  bool                `json:"is_internal"`
	Attachments []AttachmentPayload `json:"attachments"`
}

// UpdateReplyRequest is the PATCH /replies/:id payload.
type UpdateReplyRequest struct {
	Content string `json:"content"`
}

// SLAStatus reports the computed resolution SLA position of a ticket.
type SLAStatus struct {
	Value           string `json:"value"`
	Breached        bool   `json:"breached"`
	MinutesToBreach *int   `json:"minutes_to_breach,omitempty"`
}

// TicketSummary is the listing shape.
type TicketSummary struct {
	ID             string     `json:"id"`
	TicketNumber   string     `json:"ticket_number"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	CategoryID     *string    `json:"category_id,omitempty"`
	AssignedTo     *string    `json:"assigned_to,omitempty"`
	RequesterEmail string     `json:"requester_email"`
	SLADeadline    time.Time  `json:"sla_deadline"`
	SLA            SLAStatus  `json:"sla"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// TicketDetail is the single-ticket shape with conversation and history.
type TicketDetail struct {
	TicketSummary
	Description           string            `json:"description"`
	RequesterName         string            `json:"requester_name"`
	Source                string            `json:"source"`
	Resolution            *string           `json:"resolution,omitempty"`
	FirstResponseDeadline time.Time         `json:"first_response_deadline"`
	FirstResponseAt       *time.Time        `json:"first_response_at,omitempty"`
	Replies               []ReplyResponse   `json:"replies"`
	History               []HistoryResponse `json:"history"`
}

// ReplyResponse is one conversation entry.
type ReplyResponse struct {
	ID          string               `json:"id"`
	TicketID    string               `json:"ticket_id"`
	Type        string               `json:"type"`
	Content     string               `json:"content"`
	IsInternal  bool                 `json:"is_internal"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// AttachmentResponse is attachment metadata.
type AttachmentResponse struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	FileSize     int64     `json:"file_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryResponse is one status transition record.
type HistoryResponse struct {
	ID         string    `json:"id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  string    `json:"changed_by"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items    []TicketSummary `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	HasNext  bool            `json:"has_next"`
	HasPrev  bool            `json:"has_prev"`
}

// TicketStatsResponse aggregates per-organization figures.
type TicketStatsResponse struct {
	ByStatus             map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority           map[domain.TicketPriority]int `json:"by_priority"`
	SLABreached          int                           `json:"sla_breached"`
	AvgResolutionSeconds float64                       `json:"avg_resolution_seconds"`
	CreatedLast30Days    int                           `json:"created_last_30_days"`
}
