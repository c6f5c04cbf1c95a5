package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-service/internal/domain"
)

// MacroRepository persists automation macros. Conditions and actions are
// JSONB at the storage boundary and typed structs in memory.
type MacroRepository interface {
	Create(ctx context.Context, macro *domain.Macro) error
	Update(ctx context.Context, macro *domain.Macro) error
	GetByID(ctx context.Context, organizationID, id string) (*domain.Macro, error)
	GetByName(ctx context.Context, organizationID, name string) (*domain.Macro, error)
	List(ctx context.Context, organizationID string, limit, offset int) ([]domain.Macro, error)
	UpdateStats(ctx context.Context, id string, executionCount int, lastExecutedAt time.Time, successRate float64) error
	SoftDelete(ctx context.Context, organizationID, id string, now time.Time) error
}

type macroRepository struct {
	pool *pgxpool.Pool
}

// NewMacroRepository instantiates repository.
func NewMacroRepository(pool *pgxpool.Pool) MacroRepository {
	return &macroRepository{pool: pool}
}

const macroColumns = `id, organization_id, name, description, trigger_type, conditions, conditions_operator,
               actions, is_active, category, priority, keywords, execution_count, last_executed_at,
               success_rate, created_at, updated_at`

func (r *macroRepository) Create(ctx context.Context, macro *domain.Macro) error {
	conditions, actions, err := marshalRules(macro)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO macros (organization_id, name, description, trigger_type, conditions, conditions_operator,
            actions, is_active, category, priority, keywords)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		macro.OrganizationID,
		macro.Name,
		macro.Description,
		macro.TriggerType,
		conditions,
		macro.ConditionsOperator,
		actions,
		macro.IsActive,
		macro.Category,
		macro.Priority,
		macro.Keywords,
	).Scan(&macro.ID, &macro.CreatedAt, &macro.UpdatedAt)
}

func (r *macroRepository) Update(ctx context.Context, macro *domain.Macro) error {
	conditions, actions, err := marshalRules(macro)
	if err != nil {
		return err
	}
	const query = `
        UPDATE macros SET name=$1, description=$2, trigger_type=$3, conditions=$4, conditions_operator=$5,
            actions=$6, is_active=$7, category=$8, priority=$9, keywords=$10, updated_at=NOW()
        WHERE id=$11 AND organization_id=$12 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query,
		macro.Name,
		macro.Description,
		macro.TriggerType,
		conditions,
		macro.ConditionsOperator,
		actions,
		macro.IsActive,
		macro.Category,
		macro.Priority,
		macro.Keywords,
		macro.ID,
		macro.OrganizationID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *macroRepository) GetByID(ctx context.Context, organizationID, id string) (*domain.Macro, error) {
	query := fmt.Sprintf(`SELECT %s FROM macros WHERE id=$1 AND organization_id=$2 AND deleted_at IS NULL`, macroColumns)
	return r.fetchSingle(ctx, query, id, organizationID)
}

func (r *macroRepository) GetByName(ctx context.Context, organizationID, name string) (*domain.Macro, error) {
	query := fmt.Sprintf(`SELECT %s FROM macros WHERE name=$1 AND organization_id=$2 AND deleted_at IS NULL`, macroColumns)
	return r.fetchSingle(ctx, query, name, organizationID)
}

func (r *macroRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Macro, error) {
	var macro domain.Macro
	var conditions, actions []byte
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&macro.ID,
		&macro.OrganizationID,
		&macro.Name,
		&macro.Description,
		&macro.TriggerType,
		&conditions,
		&macro.ConditionsOperator,
		&actions,
		&macro.IsActive,
		&macro.Category,
		&macro.Priority,
		&macro.Keywords,
		&macro.ExecutionCount,
		&macro.LastExecutedAt,
		&macro.SuccessRate,
		&macro.CreatedAt,
		&macro.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalRules(&macro, conditions, actions); err != nil {
		return nil, err
	}
	return &macro, nil
}

func (r *macroRepository) List(ctx context.Context, organizationID string, limit, offset int) ([]domain.Macro, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM macros
        WHERE organization_id=$1 AND deleted_at IS NULL
        ORDER BY priority DESC, name ASC LIMIT %d OFFSET %d`, macroColumns, limit, offset)
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Macro
	for rows.Next() {
		var macro domain.Macro
		var conditions, actions []byte
		if err := rows.Scan(
			&macro.ID,
			&macro.OrganizationID,
			&macro.Name,
			&macro.Description,
			&macro.TriggerType,
			&conditions,
			&macro.ConditionsOperator,
			&actions,
			&macro.IsActive,
			&macro.Category,
			&macro.Priority,
			&macro.Keywords,
			&macro.ExecutionCount,
			&macro.LastExecutedAt,
			&macro.SuccessRate,
			&macro.CreatedAt,
			&macro.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalRules(&macro, conditions, actions); err != nil {
			return nil, err
		}
		result = append(result, macro)
	}
	return result, rows.Err()
}

func (r *macroRepository) UpdateStats(ctx context.Context, id string, executionCount int, lastExecutedAt time.Time, successRate float64) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE macros SET execution_count=$1, last_executed_at=$2, success_rate=$3, updated_at=NOW() WHERE id=$4`,
		executionCount, lastExecutedAt, successRate, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *macroRepository) SoftDelete(ctx context.Context, organizationID, id string, now time.Time) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE macros SET deleted_at=$1, updated_at=$1 WHERE id=$2 AND organization_id=$3 AND deleted_at IS NULL`,
		now, id, organizationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func marshalRules(macro *domain.Macro) ([]byte, []byte, error) {
	conditions, err := json.Marshal(macro.Conditions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal conditions: %w", err)
	}
	actions, err := json.Marshal(macro.Actions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal actions: %w", err)
	}
	return conditions, actions, nil
}

func unmarshalRules(macro *domain.Macro, conditions, actions []byte) error {
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &macro.Conditions); err != nil {
			return fmt.Errorf("unmarshal conditions: %w", err)
		}
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &macro.Actions); err != nil {
			return fmt.Errorf("unmarshal actions: %w", err)
		}
	}
	return nil
}
