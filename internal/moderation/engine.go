// Package moderation implements the admin workflow that takes user submissions
// (playlists, reviews) from pending to approved or rejected. A transition is
// compare-and-set on the stored status and commits together with exactly one
// author notification; of two racing moderators, the loser observes
// ErrInvalidTransition and nothing else happens.
package moderation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinovkus/backend/internal/models"
	"github.com/kinovkus/backend/pkg/queue"
)

// TransitionParams describes one moderation transition.
type TransitionParams struct {
	Kind         models.SubmissionKind
	SubmissionID uuid.UUID
	To           models.SubmissionStatus
	Comment      *string // set on reject, may point at ""
	ModeratorID  uuid.UUID
}

// Outcome is the result of a successful transition.
type Outcome struct {
	AuthorID     uuid.UUID               `json:"author_id"`
	Status       models.SubmissionStatus `json:"status"`
	Notification models.Notification     `json:"notification"`
}

// Store executes moderation transitions and pending-queue listings.
// Transition must be atomic: either the status flip and the notification both
// exist afterwards, or neither does. It returns models.ErrInvalidTransition
// when the submission already left pending, and models.ErrNotFound when it
// does not exist.
type Store interface {
	Transition(ctx context.Context, p TransitionParams) (*Outcome, error)
	ListPlaylists(ctx context.Context, status models.SubmissionStatus) ([]models.Playlist, error)
	ListReviews(ctx context.Context, status models.SubmissionStatus) ([]models.Review, error)
}

// BadgeEnqueuer schedules an unread-badge cache refresh for a notification
// recipient. *queue.Queue implements it.
type BadgeEnqueuer interface {
	EnqueueBadgeRefresh(ctx context.Context, payload queue.BadgeRefreshPayload) error
}

// Engine is the moderation state machine.
type Engine struct {
	store  Store
	badges BadgeEnqueuer
	logger *zap.Logger
}

// NewEngine creates a moderation engine. badges may be nil.
func NewEngine(store Store, badges BadgeEnqueuer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, badges: badges, logger: logger}
}

// Approve transitions a pending submission to approved, making it publicly
// visible, and notifies the author. A second Approve on the same submission
// fails with models.ErrInvalidTransition rather than silently succeeding;
// silent success would re-emit the notification.
func (e *Engine) Approve(ctx context.Context, kind models.SubmissionKind, id, moderatorID uuid.UUID) (*Outcome, error) {
	return e.transition(ctx, TransitionParams{
		Kind:         kind,
		SubmissionID: id,
		To:           models.StatusApproved,
		ModeratorID:  moderatorID,
	})
}

// Reject transitions a pending submission to rejected, storing the moderator's
// comment (an empty comment is stored as "", distinct from the NULL a pending
// row carries) and notifies the author.
func (e *Engine) Reject(ctx context.Context, kind models.SubmissionKind, id, moderatorID uuid.UUID, comment string) (*Outcome, error) {
	return e.transition(ctx, TransitionParams{
		Kind:         kind,
		SubmissionID: id,
		To:           models.StatusRejected,
		Comment:      &comment,
		ModeratorID:  moderatorID,
	})
}

func (e *Engine) transition(ctx context.Context, p TransitionParams) (*Outcome, error) {
	out, err := e.store.Transition(ctx, p)
	if err != nil {
		return nil, err
	}

	e.logger.Info("submission moderated",
		zap.String("kind", string(p.Kind)),
		zap.String("submission_id", p.SubmissionID.String()),
		zap.String("status", string(p.To)),
		zap.String("moderator_id", p.ModeratorID.String()))

	// Best effort: the notification row is already committed, the badge cache
	// heals on its own TTL if this fails.
	if e.badges != nil {
		if err := e.badges.EnqueueBadgeRefresh(ctx, queue.BadgeRefreshPayload{RecipientID: out.AuthorID}); err != nil {
			e.logger.Warn("badge refresh enqueue failed",
				zap.Error(err), zap.String("recipient_id", out.AuthorID.String()))
		}
	}
	return out, nil
}

// ListPlaylists returns playlists in the given moderation status, oldest first.
func (e *Engine) ListPlaylists(ctx context.Context, status models.SubmissionStatus) ([]models.Playlist, error) {
	return e.store.ListPlaylists(ctx, status)
}

// ListReviews returns reviews in the given moderation status, oldest first.
func (e *Engine) ListReviews(ctx context.Context, status models.SubmissionStatus) ([]models.Review, error) {
	return e.store.ListReviews(ctx, status)
}

// ComposeNotification builds the notification kind and message for a
// transition outcome. Stores use it so the message text committed with the
// transition is uniform across backends.
func ComposeNotification(kind models.SubmissionKind, to models.SubmissionStatus, title string, comment *string) (models.NotificationKind, string) {
	label := "playlist"
	if kind == models.KindReview {
		label = "review"
	}
	if to == models.StatusApproved {
		return models.NotificationSubmissionApproved,
			fmt.Sprintf("Your %s %q has been approved and is now public", label, title)
	}
	msg := fmt.Sprintf("Your %s %q has been rejected", label, title)
	if comment != nil && *comment != "" {
		msg += ": " + *comment
	}
	return models.NotificationSubmissionRejected, msg
}
