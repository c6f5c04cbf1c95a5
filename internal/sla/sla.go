// Package sla computes response and resolution deadlines from ticket
// priority. All functions are pure; callers supply the reference clock.
package sla

import (
	"math"
	"time"

	"github.com/spec-kit/portal-service/internal/domain"
)

// StatusValue classifies a ticket against its SLA deadline.
type StatusValue string

const (
	StatusOnTrack  StatusValue = "on_track"
	StatusAtRisk   StatusValue = "at_risk"
	StatusBreached StatusValue = "breached"
)

// Deadlines holds the computed SLA targets for a ticket.
type Deadlines struct {
	SLADeadline           time.Time
	FirstResponseDeadline time.Time
}

// Status describes the current SLA position of a ticket.
type Status struct {
	Value           StatusValue
	Breached        bool
	MinutesToBreach *int
}

// ResolutionHours returns the resolution commitment for a priority.
func ResolutionHours(p domain.TicketPriority) float64 {
	switch p {
	case domain.TicketPriorityUrgent:
		return 2
	case domain.TicketPriorityHigh:
		return 8
	case domain.TicketPriorityMedium:
		return 24
	default:
		return 72
	}
}

// ResponseHours returns the first-response commitment for a priority.
func ResponseHours(p domain.TicketPriority) float64 {
	switch p {
	case domain.TicketPriorityUrgent:
		return 0.5
	case domain.TicketPriorityHigh:
		return 2
	case domain.TicketPriorityMedium:
		return 8
	default:
		return 24
	}
}

// ComputeDeadlines derives both deadlines from priority and creation time.
func ComputeDeadlines(p domain.TicketPriority, createdAt time.Time) Deadlines {
	return Deadlines{
		SLADeadline:           createdAt.Add(hoursToDuration(ResolutionHours(p))),
		FirstResponseDeadline: createdAt.Add(hoursToDuration(ResponseHours(p))),
	}
}

// ComputeStatus classifies now against the given deadline. Once the deadline
// is past, minutes-to-breach is no longer meaningful and is nil.
func ComputeStatus(now, deadline time.Time) Status {
	minutes := int(math.Ceil(deadline.Sub(now).Minutes()))
	switch {
	case minutes < 0:
		return Status{Value: StatusBreached, Breached: true}
	case minutes <= 60:
		return Status{Value: StatusAtRisk, MinutesToBreach: &minutes}
	default:
		return Status{Value: StatusOnTrack, MinutesToBreach: &minutes}
	}
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
