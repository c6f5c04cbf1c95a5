package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-service/internal/domain"
)

// TicketReplyRepository manages ticket conversation entries.
type TicketReplyRepository interface {
	Create(ctx context.Context, reply *domain.TicketReply) error
	CreateWithTicket(ctx context.Context, reply *domain.TicketReply, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.TicketReply, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketReply, error)
	Update(ctx context.Context, reply *domain.TicketReply) error
	Delete(ctx context.Context, id string) error
}

type ticketReplyRepository struct {
	pool *pgxpool.Pool
}

// NewTicketReplyRepository builds repository.
func NewTicketReplyRepository(pool *pgxpool.Pool) TicketReplyRepository {
	return &ticketReplyRepository{pool: pool}
}

func (r *ticketReplyRepository) Create(ctx context.Context, reply *domain.TicketReply) error {
	const query = `
        INSERT INTO ticket_replies (ticket_id, type, content, is_internal, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		reply.TicketID,
		reply.Type,
		reply.Content,
		reply.IsInternal,
		reply.CreatedBy,
	).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt)
}

// CreateWithTicket inserts the reply and applies the ticket's first-response
// and assignment side effects in one transaction. COALESCE keeps the first
// writer's values when two agents reply at once.
func (r *ticketReplyRepository) CreateWithTicket(ctx context.Context, reply *domain.TicketReply, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertQuery = `
        INSERT INTO ticket_replies (ticket_id, type, content, is_internal, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertQuery,
		reply.TicketID,
		reply.Type,
		reply.Content,
		reply.IsInternal,
		reply.CreatedBy,
	).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt); err != nil {
		return err
	}

	const ticketQuery = `
        UPDATE tickets SET
            assigned_to=COALESCE(assigned_to, $1),
            first_response_at=COALESCE(first_response_at, $2),
            updated_at=NOW()
        WHERE id=$3 AND organization_id=$4 AND deleted_at IS NULL`
	cmd, err := tx.Exec(ctx, ticketQuery,
		ticket.AssignedTo,
		ticket.FirstResponseAt,
		ticket.ID,
		ticket.OrganizationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *ticketReplyRepository) GetByID(ctx context.Context, id string) (*domain.TicketReply, error) {
	const query = `
        SELECT id, ticket_id, type, content, is_internal, created_by, created_at, updated_at
        FROM ticket_replies WHERE id=$1`
	var reply domain.TicketReply
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reply.ID,
		&reply.TicketID,
		&reply.Type,
		&reply.Content,
		&reply.IsInternal,
		&reply.CreatedBy,
		&reply.CreatedAt,
		&reply.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *ticketReplyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketReply, error) {
	const query = `
        SELECT id, ticket_id, type, content, is_internal, created_by, created_at, updated_at
        FROM ticket_replies WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketReply
	for rows.Next() {
		var reply domain.TicketReply
		if err := rows.Scan(
			&reply.ID,
			&reply.TicketID,
			&reply.Type,
			&reply.Content,
			&reply.IsInternal,
			&reply.CreatedBy,
			&reply.CreatedAt,
			&reply.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}

func (r *ticketReplyRepository) Update(ctx context.Context, reply *domain.TicketReply) error {
	const query = `
        UPDATE ticket_replies SET content=$1, is_internal=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, reply.Content, reply.IsInternal, reply.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketReplyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_replies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
