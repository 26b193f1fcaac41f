package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinovkus/backend/internal/models"
)

const reviewColumns = `r.id, r.user_id, r.movie_id, r.movie_title, r.rating, r.body, r.status,
	r.moderation_comment, r.moderated_by, r.moderated_at, COALESCE(u.username, ''), r.created_at`

// Repository handles review persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reviews repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new review in pending state. Validation of rating bounds
// and body happens in the handler; the CHECK constraint backs it up.
func (r *Repository) Create(ctx context.Context, rev *models.Review) error {
	const q = `INSERT INTO reviews (id, user_id, movie_id, movie_title, rating, body, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, rev.UserID, rev.MovieID, rev.MovieTitle, rev.Rating, rev.Body).
		Scan(&rev.ID, &rev.Status, &rev.CreatedAt)
}

// GetByID returns a review by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id WHERE r.id = $1`
	var rev models.Review
	err := r.pool.QueryRow(ctx, q, id).Scan(&rev.ID, &rev.UserID, &rev.MovieID, &rev.MovieTitle,
		&rev.Rating, &rev.Body, &rev.Status, &rev.ModerationComment, &rev.ModeratedBy,
		&rev.ModeratedAt, &rev.AuthorName, &rev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// ListByMovie returns approved reviews for a movie, newest first.
func (r *Repository) ListByMovie(ctx context.Context, movieID int) ([]models.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.movie_id = $1 AND r.status = 'approved'
		ORDER BY r.created_at DESC`
	return r.queryReviews(ctx, q, movieID)
}

// ListByUser returns all reviews of one author, including pending and
// rejected ones.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1 ORDER BY r.created_at DESC`
	return r.queryReviews(ctx, q, userID)
}

// Resubmit returns a rejected review to pending and clears the moderation
// verdict, compare-and-set on status.
func (r *Repository) Resubmit(ctx context.Context, userID, reviewID uuid.UUID) (*models.Review, error) {
	const q = `UPDATE reviews
		SET status = 'pending', moderation_comment = NULL, moderated_by = NULL, moderated_at = NULL
		WHERE id = $1 AND user_id = $2 AND status = 'rejected'`
	tag, err := r.pool.Exec(ctx, q, reviewID, userID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, reviewID)
		if err != nil {
			return nil, err
		}
		if existing.UserID != userID {
			return nil, models.ErrForbidden
		}
		return nil, models.ErrInvalidTransition
	}
	return r.GetByID(ctx, reviewID)
}

func (r *Repository) queryReviews(ctx context.Context, q string, args ...any) ([]models.Review, error) {
	rows, err := r.pool.Query(ctx, q, args...)
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
