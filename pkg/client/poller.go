package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kinovkus/backend/internal/models"
)

// DefaultPollInterval is how often an active session polls its inbox.
const DefaultPollInterval = 30 * time.Second

// InboxSource fetches the full current inbox. *Client implements it.
type InboxSource interface {
	FetchInbox(ctx context.Context) models.Inbox
}

// Poller periodically fetches the notification inbox and keeps the latest
// snapshot. Every successful fetch replaces the snapshot wholesale; nothing
// is merged, so the poller needs no dedup logic. A fetch that completes after
// the poller's context is cancelled is discarded, never applied.
type Poller struct {
	source   InboxSource
	interval time.Duration
	logger   *zap.Logger
	onUpdate func(models.Inbox)

	mu    sync.Mutex
	inbox models.Inbox
}

// NewPoller creates an inbox poller. interval <= 0 uses DefaultPollInterval;
// onUpdate (may be nil) runs after each applied snapshot.
func NewPoller(source InboxSource, interval time.Duration, onUpdate func(models.Inbox), logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		source:   source,
		interval: interval,
		logger:   logger,
		onUpdate: onUpdate,
		inbox:    models.Inbox{Notifications: []models.Notification{}},
	}
}

// Run polls until ctx is cancelled: once immediately, then on every tick.
// It blocks; callers run it in a goroutine and cancel ctx to stop.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("inbox poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	inbox := p.source.FetchInbox(ctx)
	// The session may have been torn down while the request was in flight;
	// applying the late result would mutate torn-down state.
	if ctx.Err() != nil {
		return
	}
	p.mu.Lock()
	p.inbox = inbox
	p.mu.Unlock()
	if p.onUpdate != nil {
		p.onUpdate(inbox)
	}
}

// Snapshot returns the most recently applied inbox.
func (p *Poller) Snapshot() models.Inbox {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inbox
}
