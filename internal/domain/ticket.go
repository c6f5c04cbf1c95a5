package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate root for support requests.
type Ticket struct {
	ID                    string
	OrganizationID        string
	TicketNumber          string
	Title                 string
	Description           string
	Priority              TicketPriority
	Status                TicketStatus
	CategoryID            *string
	AssignedTo            *string
	RequesterEmail        string
	RequesterName         string
	Source                string
	Resolution            *string
	SLADeadline           time.Time
	FirstResponseDeadline time.Time
	FirstResponseAt       *time.Time
	ResolvedAt            *time.Time
	ClosedAt              *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             *time.Time
}

// SLABreached reports whether the ticket is past its resolution deadline and not closed.
func (t *Ticket) SLABreached(now time.Time) bool {
	return t.SLADeadline.Before(now) && t.Status != TicketStatusClosed
}

// TicketStats aggregates per-organization ticket figures.
type TicketStats struct {
	ByStatus             map[TicketStatus]int
	ByPriority           map[TicketPriority]int
	SLABreached          int
	AvgResolutionSeconds float64
	CreatedLast30Days    int
}
