package moderation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinovkus/backend/internal/models"
	"github.com/kinovkus/backend/pkg/queue"
)

type memSubmission struct {
	kind     models.SubmissionKind
	authorID uuid.UUID
	title    string
	status   models.SubmissionStatus
	comment  *string
}

// memStore is an in-memory Store with the same compare-and-set contract as the
// Postgres repository: the status flip and the notification append happen
// under one lock, so they are observed together or not at all.
type memStore struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*memSubmission
	notifs []models.Notification
}

func newMemStore() *memStore {
	return &memStore{subs: make(map[uuid.UUID]*memSubmission)}
}

func (s *memStore) add(kind models.SubmissionKind, authorID uuid.UUID, title string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.subs[id] = &memSubmission{kind: kind, authorID: authorID, title: title, status: models.StatusPending}
	return id
}

func (s *memStore) Transition(_ context.Context, p TransitionParams) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[p.SubmissionID]
	if !ok || sub.kind != p.Kind {
		return nil, models.ErrNotFound
	}
	if sub.status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}
	sub.status = p.To
	sub.comment = p.Comment

	kind, msg := ComposeNotification(p.Kind, p.To, sub.title, p.Comment)
	n := models.Notification{
		ID:             uuid.New(),
		RecipientID:    sub.authorID,
		Kind:           kind,
		SubmissionKind: p.Kind,
		SubmissionID:   p.SubmissionID,
		Message:        msg,
	}
	s.notifs = append(s.notifs, n)
	return &Outcome{AuthorID: sub.authorID, Status: p.To, Notification: n}, nil
}

func (s *memStore) ListPlaylists(context.Context, models.SubmissionStatus) ([]models.Playlist, error) {
	return nil, nil
}

func (s *memStore) ListReviews(context.Context, models.SubmissionStatus) ([]models.Review, error) {
	return nil, nil
}

func (s *memStore) notificationsFor(recipient uuid.UUID) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifs {
		if n.RecipientID == recipient {
			out = append(out, n)
		}
	}
	return out
}

type memBadges struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (b *memBadges) EnqueueBadgeRefresh(_ context.Context, p queue.BadgeRefreshPayload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, p.RecipientID)
	return nil
}

func TestApproveEmitsSingleNotification(t *testing.T) {
	store := newMemStore()
	badges := &memBadges{}
	engine := NewEngine(store, badges, nil)

	author := uuid.New()
	moderator := uuid.New()
	id := store.add(models.KindPlaylist, author, "Best of Tarkovsky")

	out, err := engine.Approve(context.Background(), models.KindPlaylist, id, moderator)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)
	assert.Equal(t, author, out.AuthorID)

	notifs := store.notificationsFor(author)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationSubmissionApproved, notifs[0].Kind)
	assert.Equal(t, id, notifs[0].SubmissionID)
	assert.Contains(t, notifs[0].Message, "approved")

	require.Len(t, badges.calls, 1)
	assert.Equal(t, author, badges.calls[0])
}

func TestDoubleApproveFails(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, nil, nil)

	author := uuid.New()
	moderator := uuid.New()
	id := store.add(models.KindReview, author, "Stalker")

	_, err := engine.Approve(context.Background(), models.KindReview, id, moderator)
	require.NoError(t, err)

	_, err = engine.Approve(context.Background(), models.KindReview, id, moderator)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	// The losing call must not have emitted a second notification.
	assert.Len(t, store.notificationsFor(author), 1)
}

func TestRejectAfterApproveFails(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, nil, nil)

	author := uuid.New()
	id := store.add(models.KindPlaylist, author, "Noir Essentials")

	_, err := engine.Approve(context.Background(), models.KindPlaylist, id, uuid.New())
	require.NoError(t, err)

	_, err = engine.Reject(context.Background(), models.KindPlaylist, id, uuid.New(), "nope")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestConcurrentModerationHasOneWinner(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, nil, nil)

	author := uuid.New()
	id := store.add(models.KindPlaylist, author, "Contested")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := engine.Approve(context.Background(), models.KindPlaylist, id, uuid.New())
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := engine.Reject(context.Background(), models.KindPlaylist, id, uuid.New(), "duplicate")
		errs <- err
	}()
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, models.ErrInvalidTransition)
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Len(t, store.notificationsFor(author), 1)
}

func TestRejectCommentAppearsInMessage(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, nil, nil)

	author := uuid.New()
	id := store.add(models.KindReview, author, "Solaris")

	out, err := engine.Reject(context.Background(), models.KindReview, id, uuid.New(), "too short")
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSubmissionRejected, out.Notification.Kind)
	assert.Contains(t, out.Notification.Message, "too short")
}

func TestRejectNotFound(t *testing.T) {
	engine := NewEngine(newMemStore(), nil, nil)
	_, err := engine.Reject(context.Background(), models.KindPlaylist, uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestComposeNotification(t *testing.T) {
	kind, msg := ComposeNotification(models.KindPlaylist, models.StatusApproved, "Slow Cinema", nil)
	assert.Equal(t, models.NotificationSubmissionApproved, kind)
	assert.Equal(t, `Your playlist "Slow Cinema" has been approved and is now public`, msg)

	comment := "spam links"
	kind, msg = ComposeNotification(models.KindReview, models.StatusRejected, "Mirror", &comment)
	assert.Equal(t, models.NotificationSubmissionRejected, kind)
	assert.Equal(t, `Your review "Mirror" has been rejected: spam links`, msg)

	// An empty rejection comment produces the bare message, no trailing colon.
	empty := ""
	_, msg = ComposeNotification(models.KindReview, models.StatusRejected, "Mirror", &empty)
	assert.Equal(t, `Your review "Mirror" has been rejected`, msg)
}
