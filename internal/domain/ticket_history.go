package domain

import "time"

// TicketStatusHistory is an immutable record of one status transition.
type TicketStatusHistory struct {
	ID         string
	TicketID   string
	FromStatus TicketStatus
	ToStatus   TicketStatus
	ChangedBy  string
	Reason     string
	CreatedAt  time.Time
}
