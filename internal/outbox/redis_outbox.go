package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisOutbox pushes email jobs onto a Redis list consumed by the mailer.
type redisOutbox struct {
	client *redis.Client
	queue  string
	logger *zap.Logger
}

type emailJob struct {
	ID         string    `json:"id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Email      Email     `json:"email"`
}

// NewRedisOutbox creates an outbox backed by the given Redis list key.
func NewRedisOutbox(client *redis.Client, queue string, logger *zap.Logger) EmailOutbox {
	return &redisOutbox{client: client, queue: queue, logger: logger}
}

func (o *redisOutbox) Enqueue(ctx context.Context, email Email) (string, error) {
	job := emailJob{
		ID:         uuid.NewString(),
		EnqueuedAt: time.Now(),
		Email:      email,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal email job: %w", err)
	}
	if err := o.client.LPush(ctx, o.queue, payload).Err(); err != nil {
		return "", fmt.Errorf("enqueue email job: %w", err)
	}
	o.logger.Debug("email enqueued",
		zap.String("job_id", job.ID),
		zap.String("recipient", email.RecipientEmail),
		zap.String("template", email.TemplateName))
	return job.ID, nil
}
