package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-service/internal/domain"
)

// TicketHistoryRepository stores immutable status transition records.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketStatusHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketStatusHistory) error {
	const query = `
        INSERT INTO ticket_status_history (ticket_id, from_status, to_status, changed_by, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Reason,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusHistory, error) {
	const query = `
        SELECT id, ticket_id, from_status, to_status, changed_by, reason, created_at
        FROM ticket_status_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketStatusHistory
	for rows.Next() {
		var history domain.TicketStatusHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.FromStatus,
			&history.ToStatus,
			&history.ChangedBy,
			&history.Reason,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
