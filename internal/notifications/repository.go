package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinovkus/backend/internal/models"
)

// Repository handles notification persistence. Rows are created by the
// moderation engine inside its transition transaction; this repository only
// reads them and flips is_read.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListInbox returns the recipient's complete current inbox, newest first:
// every unread notification plus the recent read ones. Clients replace their
// state with it wholesale on every poll.
func (r *Repository) ListInbox(ctx context.Context, recipientID uuid.UUID) ([]models.Notification, error) {
	const q = `SELECT id, recipient_id, kind, submission_kind, submission_id, message, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND (is_read = FALSE OR created_at > NOW() - INTERVAL '30 days')
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.SubmissionKind, &n.SubmissionID,
			&n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// CountUnread returns the recipient's unread notification count.
func (r *Repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID).Scan(&n)
	return n, err
}

// MarkRead flips is_read for one notification, or for all of the recipient's
// unread notifications when id is nil. The bulk case is a single statement so
// a poll firing mid-operation never observes a half-marked inbox. Marking an
// absent or already-read notification is a no-op.
func (r *Repository) MarkRead(ctx context.Context, recipientID uuid.UUID, id *uuid.UUID) error {
	if id == nil {
		_, err := r.pool.Exec(ctx,
			`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`,
			recipientID)
		return err
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`,
		*id, recipientID)
	return err
}

// Delete removes one of the recipient's notifications.
func (r *Repository) Delete(ctx context.Context, recipientID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
