package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinovkus/backend/internal/models"
)

// Repository is the PostgreSQL Store implementation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a moderation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Transition flips a pending submission and inserts the author notification in
// one transaction. The submission row is locked first; the status check under
// that lock is what serializes racing approve/reject calls.
func (r *Repository) Transition(ctx context.Context, p TransitionParams) (*Outcome, error) {
	table, titleExpr := "playlists", "title"
	if p.Kind == models.KindReview {
		table, titleExpr = "reviews", "movie_title"
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var out Outcome
	var title string
	var status models.SubmissionStatus
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT user_id, %s, status FROM %s WHERE id = $1 FOR UPDATE`, titleExpr, table),
		p.SubmissionID).Scan(&out.AuthorID, &title, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET status = $1, moderation_comment = $2, moderated_by = $3, moderated_at = NOW()
			WHERE id = $4`, table),
		p.To, p.Comment, p.ModeratorID, p.SubmissionID); err != nil {
		return nil, err
	}

	kind, message := ComposeNotification(p.Kind, p.To, title, p.Comment)
	n := models.Notification{
		RecipientID:    out.AuthorID,
		Kind:           kind,
		SubmissionKind: p.Kind,
		SubmissionID:   p.SubmissionID,
		Message:        message,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO notifications (id, recipient_id, kind, submission_kind, submission_id, message)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
			RETURNING id, is_read, created_at`,
		n.RecipientID, n.Kind, n.SubmissionKind, n.SubmissionID, n.Message).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	out.Status = p.To
	out.Notification = n
	return &out, nil
}

// ListPlaylists returns playlists in the given status, oldest first, with
// author username and movie counts for the moderation queue view.
func (r *Repository) ListPlaylists(ctx context.Context, status models.SubmissionStatus) ([]models.Playlist, error) {
	const q = `SELECT p.id, p.user_id, p.title, p.description, p.cover_image, p.status,
			p.moderation_comment, p.moderated_by, p.moderated_at, COALESCE(u.username, ''),
			(SELECT COUNT(*) FROM playlist_movies WHERE playlist_id = p.id), p.created_at
		FROM playlists p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.status = $1 ORDER BY p.created_at ASC`
	rows, err := r.pool.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CoverImage, &p.Status,
			&p.ModerationComment, &p.ModeratedBy, &p.ModeratedAt, &p.AuthorName, &p.MoviesCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListReviews returns reviews in the given status, oldest first.
func (r *Repository) ListReviews(ctx context.Context, status models.SubmissionStatus) ([]models.Review, error) {
	const q = `SELECT r.id, r.user_id, r.movie_id, r.movie_title, r.rating, r.body, r.status,
			r.moderation_comment, r.moderated_by, r.moderated_at, COALESCE(u.username, ''), r.created_at
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.status = $1 ORDER BY r.created_at ASC`
	rows, err := r.pool.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.MovieID, &rev.MovieTitle,
			&rev.Rating, &rev.Body, &rev.Status, &rev.ModerationComment, &rev.ModeratedBy,
			&rev.ModeratedAt, &rev.AuthorName, &rev.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rev)
	}
	return list, rows.Err()
}
