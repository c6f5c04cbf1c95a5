package service

import (
	"time"

	"github.com/spec-kit/portal-service/internal/domain"
)

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusOpen, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusOpen},
	domain.TicketStatusClosed:     {domain.TicketStatusOpen},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// applyTransition mutates the ticket's status and timestamps for entering
// next at the given instant. Callers must have checked isValidTransition.
func applyTransition(ticket *domain.Ticket, next domain.TicketStatus, resolution *string, now time.Time) {
	from := ticket.Status
	switch next {
	case domain.TicketStatusInProgress:
		// First pickup counts as the first response for SLA reporting,
		// even when no reply has been written yet.
		if from == domain.TicketStatusOpen && ticket.FirstResponseAt == nil {
			ticket.FirstResponseAt = &now
		}
	case domain.TicketStatusResolved:
		ticket.ResolvedAt = &now
		if resolution != nil {
			ticket.Resolution = resolution
		}
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &now
		// Closing implies resolution.
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
	case domain.TicketStatusOpen:
		// Reopening from closed is the only transition that clears the
		// terminal timestamps.
		if from == domain.TicketStatusClosed {
			ticket.ResolvedAt = nil
			ticket.ClosedAt = nil
		}
	}
	ticket.Status = next
}
