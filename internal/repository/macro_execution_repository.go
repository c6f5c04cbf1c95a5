package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-service/internal/domain"
)

// MacroExecutionRepository stores immutable macro run records.
type MacroExecutionRepository interface {
	Create(ctx context.Context, execution *domain.MacroExecution) error
	ListByMacro(ctx context.Context, macroID string, limit, offset int) ([]domain.MacroExecution, error)
	CountByMacro(ctx context.Context, macroID string) (total int, successes int, err error)
}

type macroExecutionRepository struct {
	pool *pgxpool.Pool
}

// NewMacroExecutionRepository builds repository.
func NewMacroExecutionRepository(pool *pgxpool.Pool) MacroExecutionRepository {
	return &macroExecutionRepository{pool: pool}
}

func (r *macroExecutionRepository) Create(ctx context.Context, execution *domain.MacroExecution) error {
	results, err := json.Marshal(execution.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	metadata, err := json.Marshal(execution.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	const query = `
        INSERT INTO macro_executions (macro_id, ticket_id, executed_by, execution_type, status,
            started_at, completed_at, results, error_message, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		execution.MacroID,
		execution.TicketID,
		execution.ExecutedBy,
		execution.ExecutionType,
		execution.Status,
		execution.StartedAt,
		execution.CompletedAt,
		results,
		execution.ErrorMessage,
		metadata,
	).Scan(&execution.ID)
}

func (r *macroExecutionRepository) ListByMacro(ctx context.Context, macroID string, limit, offset int) ([]domain.MacroExecution, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, macro_id, ticket_id, executed_by, execution_type, status,
               started_at, completed_at, results, error_message, metadata
        FROM macro_executions WHERE macro_id=$1 ORDER BY started_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.pool.Query(ctx, query, macroID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MacroExecution
	for rows.Next() {
		var execution domain.MacroExecution
		var results, metadata []byte
		if err := rows.Scan(
			&execution.ID,
			&execution.MacroID,
			&execution.TicketID,
			&execution.ExecutedBy,
			&execution.ExecutionType,
			&execution.Status,
			&execution.StartedAt,
			&execution.CompletedAt,
			&results,
			&execution.ErrorMessage,
			&metadata,
		); err != nil {
			return nil, err
		}
		if len(results) > 0 {
			if err := json.Unmarshal(results, &execution.Results); err != nil {
				return nil, fmt.Errorf("unmarshal results: %w", err)
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &execution.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		result = append(result, execution)
	}
	return result, rows.Err()
}

func (r *macroExecutionRepository) CountByMacro(ctx context.Context, macroID string) (int, int, error) {
	const query = `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'success')
        FROM macro_executions WHERE macro_id=$1`
	var total, successes int
	if err := r.pool.QueryRow(ctx, query, macroID).Scan(&total, &successes); err != nil {
		return 0, 0, err
	}
	return total, successes, nil
}
