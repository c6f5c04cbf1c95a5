package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-service/internal/domain"
)

// TicketFilter captures listing parameters. OrganizationID is mandatory;
// every query is tenant scoped.
type TicketFilter struct {
	OrganizationID string
	Statuses       []domain.TicketStatus
	Priorities     []domain.TicketPriority
	CategoryID     *string
	AssignedTo     *string
	SearchTerm     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	SLABreachedAt  *time.Time
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence. Soft-deleted rows are
// filtered inside every query so callers cannot forget the tombstone check.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateWithHistory(ctx context.Context, ticket *domain.Ticket, history *domain.TicketStatusHistory) error
	GetByID(ctx context.Context, organizationID, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	Stats(ctx context.Context, organizationID string, now time.Time) (*domain.TicketStats, error)
	SoftDelete(ctx context.Context, organizationID, id string, now time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, organization_id, ticket_number, title, description, priority, status,
               category_id, assigned_to, requester_email, requester_name, source, resolution,
               sla_deadline, first_response_deadline, first_response_at, resolved_at, closed_at,
               created_at, updated_at`

// Create allocates the next ticket number for the organization/year and
// inserts the row in one transaction. The counter row is bumped with an
// atomic upsert, so concurrent creations cannot produce duplicate numbers.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	year := ticket.CreatedAt.Year()
	var seq int
	const counterQuery = `
        INSERT INTO ticket_counters (organization_id, year, value)
        VALUES ($1, $2, 1)
        ON CONFLICT (organization_id, year)
        DO UPDATE SET value = ticket_counters.value + 1
        RETURNING value`
	if err := tx.QueryRow(ctx, counterQuery, ticket.OrganizationID, year).Scan(&seq); err != nil {
		return err
	}
	ticket.TicketNumber = fmt.Sprintf("TICKET-%d-%06d", year, seq)

	const insertQuery = `
        INSERT INTO tickets (organization_id, ticket_number, title, description, priority, status,
            category_id, assigned_to, requester_email, requester_name, source,
            sla_deadline, first_response_deadline, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
        RETURNING id`
	if err := tx.QueryRow(ctx, insertQuery,
		ticket.OrganizationID,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.CategoryID,
		ticket.AssignedTo,
		ticket.RequesterEmail,
		ticket.RequesterName,
		ticket.Source,
		ticket.SLADeadline,
		ticket.FirstResponseDeadline,
		ticket.CreatedAt,
	).Scan(&ticket.ID); err != nil {
		return err
	}
	ticket.UpdatedAt = ticket.CreatedAt

	return tx.Commit(ctx)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	cmd, err := r.pool.Exec(ctx, updateTicketQuery, updateTicketArgs(ticket)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateWithHistory applies a status transition and its history row in one
// transaction so the read-modify-write is all-or-nothing.
func (r *ticketRepository) UpdateWithHistory(ctx context.Context, ticket *domain.Ticket, history *domain.TicketStatusHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, updateTicketQuery, updateTicketArgs(ticket)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const historyQuery = `
        INSERT INTO ticket_status_history (ticket_id, from_status, to_status, changed_by, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, historyQuery,
		history.TicketID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Reason,
	).Scan(&history.ID, &history.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const updateTicketQuery = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, status=$4, category_id=$5,
            assigned_to=$6, requester_email=$7, requester_name=$8, source=$9, resolution=$10,
            sla_deadline=$11, first_response_deadline=$12, first_response_at=$13,
            resolved_at=$14, closed_at=$15, updated_at=NOW()
        WHERE id=$16 AND organization_id=$17 AND deleted_at IS NULL`

func updateTicketArgs(ticket *domain.Ticket) []any {
	return []any{
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.CategoryID,
		ticket.AssignedTo,
		ticket.RequesterEmail,
		ticket.RequesterName,
		ticket.Source,
		ticket.Resolution,
		ticket.SLADeadline,
		ticket.FirstResponseDeadline,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
		ticket.OrganizationID,
	}
}

func (r *ticketRepository) GetByID(ctx context.Context, organizationID, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 AND organization_id=$2 AND deleted_at IS NULL`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id, organizationID), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"deleted_at IS NULL"}
	args := []any{}

	args = append(args, filter.OrganizationID)
	clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SLABreachedAt != nil {
		args = append(args, *filter.SLABreachedAt)
		clauses = append(clauses, fmt.Sprintf("sla_deadline < $%d AND status != 'closed'", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(ticket_number) LIKE %s OR LOWER(requester_email) LIKE %s OR LOWER(requester_name) LIKE %s)",
			placeholder, placeholder, placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, 0, err
		}
		result = append(result, ticket)
	}
	return result, total, rows.Err()
}

func (r *ticketRepository) Stats(ctx context.Context, organizationID string, now time.Time) (*domain.TicketStats, error) {
	stats := &domain.TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tickets WHERE organization_id=$1 AND deleted_at IS NULL GROUP BY status`,
		organizationID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT priority, COUNT(*) FROM tickets WHERE organization_id=$1 AND deleted_at IS NULL GROUP BY priority`,
		organizationID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var priority domain.TicketPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByPriority[priority] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets
         WHERE organization_id=$1 AND deleted_at IS NULL AND sla_deadline < $2 AND status != 'closed'`,
		organizationID, now).Scan(&stats.SLABreached); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at))), 0) FROM tickets
         WHERE organization_id=$1 AND deleted_at IS NULL AND resolved_at IS NOT NULL`,
		organizationID).Scan(&stats.AvgResolutionSeconds); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets
         WHERE organization_id=$1 AND deleted_at IS NULL AND created_at >= $2`,
		organizationID, now.AddDate(0, 0, -30)).Scan(&stats.CreatedLast30Days); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *ticketRepository) SoftDelete(ctx context.Context, organizationID, id string, now time.Time) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE tickets SET deleted_at=$1, updated_at=$1 WHERE id=$2 AND organization_id=$3 AND deleted_at IS NULL`,
		now, id, organizationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.OrganizationID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CategoryID,
		&ticket.AssignedTo,
		&ticket.RequesterEmail,
		&ticket.RequesterName,
		&ticket.Source,
		&ticket.Resolution,
		&ticket.SLADeadline,
		&ticket.FirstResponseDeadline,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
