package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-service/internal/domain"
)

func TestComputeDeadlines(t *testing.T) {
	createdAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		priority         domain.TicketPriority
		wantSLA          time.Time
		wantFirstRespond time.Time
	}{
		{domain.TicketPriorityUrgent, createdAt.Add(2 * time.Hour), createdAt.Add(30 * time.Minute)},
		{domain.TicketPriorityHigh, createdAt.Add(8 * time.Hour), createdAt.Add(2 * time.Hour)},
		{domain.TicketPriorityMedium, createdAt.Add(24 * time.Hour), createdAt.Add(8 * time.Hour)},
		{domain.TicketPriorityLow, createdAt.Add(72 * time.Hour), createdAt.Add(24 * time.Hour)},
	}
	for _, tc := range tests {
		t.Run(string(tc.priority), func(t *testing.T) {
			deadlines := ComputeDeadlines(tc.priority, createdAt)
			assert.Equal(t, tc.wantSLA, deadlines.SLADeadline)
			assert.Equal(t, tc.wantFirstRespond, deadlines.FirstResponseDeadline)
		})
	}
}

func TestHoursMonotonicity(t *testing.T) {
	order := []domain.TicketPriority{
		domain.TicketPriorityUrgent,
		domain.TicketPriorityHigh,
		domain.TicketPriorityMedium,
		domain.TicketPriorityLow,
	}
	for i := 1; i < len(order); i++ {
		assert.LessOrEqual(t, ResolutionHours(order[i-1]), ResolutionHours(order[i]))
		assert.LessOrEqual(t, ResponseHours(order[i-1]), ResponseHours(order[i]))
	}
}

func TestComputeStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("on track beyond one hour", func(t *testing.T) {
		status := ComputeStatus(now, now.Add(3*time.Hour))
		assert.Equal(t, StatusOnTrack, status.Value)
		assert.False(t, status.Breached)
		require.NotNil(t, status.MinutesToBreach)
		assert.Equal(t, 180, *status.MinutesToBreach)
	})

	t.Run("at risk at exactly sixty minutes", func(t *testing.T) {
		status := ComputeStatus(now, now.Add(60*time.Minute))
		assert.Equal(t, StatusAtRisk, status.Value)
		require.NotNil(t, status.MinutesToBreach)
		assert.Equal(t, 60, *status.MinutesToBreach)
	})

	t.Run("partial minutes round up", func(t *testing.T) {
		status := ComputeStatus(now, now.Add(59*time.Minute+30*time.Second))
		require.NotNil(t, status.MinutesToBreach)
		assert.Equal(t, 60, *status.MinutesToBreach)
		assert.Equal(t, StatusAtRisk, status.Value)
	})

	t.Run("past deadline is breached with nil minutes", func(t *testing.T) {
		status := ComputeStatus(now, now.Add(-time.Minute))
		assert.Equal(t, StatusBreached, status.Value)
		assert.True(t, status.Breached)
		assert.Nil(t, status.MinutesToBreach)
	})
}
