package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type pgxSink struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgxSink creates an audit sink writing to the audit_log table.
func NewPgxSink(pool *pgxpool.Pool, logger *zap.Logger) Sink {
	return &pgxSink{pool: pool, logger: logger}
}

func (s *pgxSink) Log(ctx context.Context, entry Entry) {
	const query = `
        INSERT INTO audit_log (organization_id, user_id, action, resource_type, resource_id, details, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := s.pool.Exec(ctx, query,
		entry.OrganizationID,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
	)
	if err != nil {
		s.logger.Error("audit write failed",
			zap.String("action", entry.Action),
			zap.String("resource_id", entry.ResourceID),
			zap.Error(err))
	}
}
