package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-service/internal/domain"
)

var allStatuses = []domain.TicketStatus{
	domain.TicketStatusOpen,
	domain.TicketStatusInProgress,
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
}

func TestTransitionTable(t *testing.T) {
	allowed := map[domain.TicketStatus]map[domain.TicketStatus]bool{
		domain.TicketStatusOpen: {
			domain.TicketStatusInProgress: true,
			domain.TicketStatusResolved:   true,
			domain.TicketStatusClosed:     true,
		},
		domain.TicketStatusInProgress: {
			domain.TicketStatusOpen:     true,
			domain.TicketStatusResolved: true,
			domain.TicketStatusClosed:   true,
		},
		domain.TicketStatusResolved: {
			domain.TicketStatusClosed: true,
			domain.TicketStatusOpen:   true,
		},
		domain.TicketStatusClosed: {
			domain.TicketStatusOpen: true,
		},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, allowed[from][to], isValidTransition(from, to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestApplyTransitionSideEffects(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("open to in_progress marks first response once", func(t *testing.T) {
		ticket := &domain.Ticket{Status: domain.TicketStatusOpen}
		applyTransition(ticket, domain.TicketStatusInProgress, nil, now)
		require.NotNil(t, ticket.FirstResponseAt)
		assert.Equal(t, now, *ticket.FirstResponseAt)

		later := now.Add(time.Hour)
		applyTransition(ticket, domain.TicketStatusOpen, nil, later)
		applyTransition(ticket, domain.TicketStatusInProgress, nil, later)
		assert.Equal(t, now, *ticket.FirstResponseAt)
	})

	t.Run("resolve records timestamp and resolution text", func(t *testing.T) {
		resolution := "rebooted the widget"
		ticket := &domain.Ticket{Status: domain.TicketStatusInProgress}
		applyTransition(ticket, domain.TicketStatusResolved, &resolution, now)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, now, *ticket.ResolvedAt)
		require.NotNil(t, ticket.Resolution)
		assert.Equal(t, resolution, *ticket.Resolution)
	})

	t.Run("close backfills resolvedAt", func(t *testing.T) {
		ticket := &domain.Ticket{Status: domain.TicketStatusOpen}
		applyTransition(ticket, domain.TicketStatusClosed, nil, now)
		require.NotNil(t, ticket.ClosedAt)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, now, *ticket.ResolvedAt)
	})

	t.Run("close keeps an earlier resolvedAt", func(t *testing.T) {
		earlier := now.Add(-time.Hour)
		ticket := &domain.Ticket{Status: domain.TicketStatusResolved, ResolvedAt: &earlier}
		applyTransition(ticket, domain.TicketStatusClosed, nil, now)
		assert.Equal(t, earlier, *ticket.ResolvedAt)
	})

	t.Run("reopen from closed clears terminal timestamps", func(t *testing.T) {
		ticket := &domain.Ticket{Status: domain.TicketStatusOpen}
		applyTransition(ticket, domain.TicketStatusClosed, nil, now)
		applyTransition(ticket, domain.TicketStatusOpen, nil, now.Add(time.Hour))
		assert.Nil(t, ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	})

	t.Run("reopen from in_progress keeps nothing to clear", func(t *testing.T) {
		first := now.Add(-time.Hour)
		ticket := &domain.Ticket{Status: domain.TicketStatusInProgress, FirstResponseAt: &first}
		applyTransition(ticket, domain.TicketStatusOpen, nil, now)
		assert.Equal(t, first, *ticket.FirstResponseAt)
	})
}
