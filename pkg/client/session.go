package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinovkus/backend/internal/models"
)

// Session is the explicit client-side lifecycle of an authenticated user:
// identity, role, API client, and the inbox poller that runs while the
// session is alive. Components receive the Session instead of reading
// ambient global auth state.
type Session struct {
	UserID uuid.UUID
	Role   models.Role

	client *Client
	poller *Poller
	cancel context.CancelFunc
	done   chan struct{}

	once sync.Once
}

// Establish creates a session and starts its inbox poller. The poller stops
// when Teardown is called; a poll in flight at that moment has its result
// discarded.
func Establish(c *Client, userID uuid.UUID, role models.Role, pollInterval time.Duration, onInbox func(models.Inbox), logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		UserID: userID,
		Role:   role,
		client: c,
		poller: NewPoller(c, pollInterval, onInbox, logger),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		s.poller.Run(ctx)
	}()
	return s
}

// Client returns the session's API client.
func (s *Session) Client() *Client {
	return s.client
}

// Inbox returns the latest polled inbox snapshot.
func (s *Session) Inbox() models.Inbox {
	return s.poller.Snapshot()
}

// UnreadBadge renders the badge for the latest snapshot.
func (s *Session) UnreadBadge() string {
	return Badge(s.poller.Snapshot().UnreadCount)
}

// Teardown stops the poller deterministically and waits for it to exit.
// Safe to call more than once; navigation code calls it on every unmount.
func (s *Session) Teardown() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}
