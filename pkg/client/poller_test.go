package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinovkus/backend/internal/models"
)

// scriptedSource returns the queued inboxes in order, then repeats the last
// one. release, when set, blocks each fetch until a value is sent.
type scriptedSource struct {
	mu      sync.Mutex
	queue   []models.Inbox
	release chan struct{}
}

func (s *scriptedSource) FetchInbox(ctx context.Context) models.Inbox {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return models.Inbox{Notifications: []models.Notification{}}
	}
	inbox := s.queue[0]
	if len(s.queue) > 1 {
		s.queue = s.queue[1:]
	}
	return inbox
}

func inboxWith(n int) models.Inbox {
	notifs := make([]models.Notification, n)
	for i := range notifs {
		notifs[i] = models.Notification{ID: uuid.New(), Message: "m"}
	}
	return models.Inbox{Notifications: notifs, UnreadCount: n}
}

func TestPollerPollsImmediately(t *testing.T) {
	updates := make(chan models.Inbox, 1)
	source := &scriptedSource{queue: []models.Inbox{inboxWith(3)}}
	p := NewPoller(source, time.Hour, func(in models.Inbox) { updates <- in }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case in := <-updates:
		assert.Equal(t, 3, in.UnreadCount)
	case <-time.After(time.Second):
		t.Fatal("no initial poll before the first tick")
	}
	assert.Equal(t, 3, p.Snapshot().UnreadCount)
}

func TestPollerReplacesSnapshotWholesale(t *testing.T) {
	updates := make(chan models.Inbox, 4)
	source := &scriptedSource{queue: []models.Inbox{inboxWith(5), inboxWith(1)}}
	p := NewPoller(source, 5*time.Millisecond, func(in models.Inbox) { updates <- in }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Equal(t, 5, (<-updates).UnreadCount)
	// A server-side deletion shrinks the set; the poller must not keep stale
	// entries from the previous snapshot.
	second := <-updates
	assert.Equal(t, 1, second.UnreadCount)
	assert.Len(t, second.Notifications, 1)
	assert.Len(t, p.Snapshot().Notifications, 1)
}

func TestPollerDiscardsFetchCompletingAfterCancel(t *testing.T) {
	source := &scriptedSource{
		queue:   []models.Inbox{inboxWith(7)},
		release: make(chan struct{}),
	}
	p := NewPoller(source, time.Hour, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	// Cancel while the first fetch is still in flight, then let it complete.
	cancel()
	close(source.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	assert.Zero(t, p.Snapshot().UnreadCount)
	assert.Empty(t, p.Snapshot().Notifications)
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "", Badge(0))
	assert.Equal(t, "", Badge(-1))
	assert.Equal(t, "1", Badge(1))
	assert.Equal(t, "9", Badge(9))
	assert.Equal(t, "9+", Badge(10))
	assert.Equal(t, "9+", Badge(250))
}

func TestSessionTeardownStopsPoller(t *testing.T) {
	c := New("http://unused", "", nil)
	s := Establish(c, uuid.New(), models.RoleUser, time.Hour, nil, nil)

	s.Teardown()
	// A second teardown must not panic or block.
	s.Teardown()
	assert.NotNil(t, s.Client())
}
