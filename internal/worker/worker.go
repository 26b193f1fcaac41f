package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinovkus/backend/internal/notifications"
	"github.com/kinovkus/backend/pkg/queue"
)

// UnreadCounter is the subset of the notifications repository the processor
// needs.
type UnreadCounter interface {
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

// BadgeProcessor processes badge refresh jobs: recompute a recipient's unread
// notification count from Postgres and repopulate the Redis cache, so the
// next inbox poll is served without a count query.
type BadgeProcessor struct {
	counter UnreadCounter
	cache   *notifications.Cache
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewBadgeProcessor creates a badge refresh processor.
func NewBadgeProcessor(counter UnreadCounter, cache *notifications.Cache, q *queue.Queue, logger *zap.Logger) *BadgeProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeProcessor{counter: counter, cache: cache, queue: q, logger: logger}
}

// Process executes one badge refresh job.
func (p *BadgeProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeBadgeRefresh {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.BadgeRefreshPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	count, err := p.counter.CountUnread(ctx, payload.RecipientID)
	if err != nil {
		return fmt.Errorf("count unread: %w", err)
	}
	p.cache.SetUnread(ctx, payload.RecipientID, count)

	p.logger.Debug("badge refreshed",
		zap.String("recipient_id", payload.RecipientID.String()),
		zap.Int("unread", count))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *BadgeProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("badge worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
