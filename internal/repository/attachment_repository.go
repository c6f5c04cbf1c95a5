package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-service/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByReply(ctx context.Context, replyID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (reply_id, file_name, original_name, mime_type, file_size, file_path)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.ReplyID,
		attachment.FileName,
		attachment.OriginalName,
		attachment.MimeType,
		attachment.FileSize,
		attachment.FilePath,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	const query = `
        SELECT id, reply_id, file_name, original_name, mime_type, file_size, file_path, created_at
        FROM attachments WHERE id=$1`
	var attachment domain.Attachment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&attachment.ID,
		&attachment.ReplyID,
		&attachment.FileName,
		&attachment.OriginalName,
		&attachment.MimeType,
		&attachment.FileSize,
		&attachment.FilePath,
		&attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByReply(ctx context.Context, replyID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, reply_id, file_name, original_name, mime_type, file_size, file_path, created_at
        FROM attachments WHERE reply_id=$1`
	rows, err := r.pool.Query(ctx, query, replyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.ReplyID,
			&attachment.FileName,
			&attachment.OriginalName,
			&attachment.MimeType,
			&attachment.FileSize,
			&attachment.FilePath,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
