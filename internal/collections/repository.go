package collections

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinovkus/backend/internal/models"
)

// Repository handles the per-user movie collection, a pure set keyed by
// (user, movie).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a collections repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the user's collection, most recently added first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.CollectionEntry, error) {
	const q = `SELECT id, user_id, movie_id, movie_title, movie_genre, movie_rating,
		movie_image, movie_description, added_at
		FROM user_collections WHERE user_id = $1 ORDER BY added_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.CollectionEntry
	for rows.Next() {
		var e models.CollectionEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.MovieID, &e.MovieTitle, &e.MovieGenre,
			&e.MovieRating, &e.MovieImage, &e.MovieDescription, &e.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Add inserts a movie into the collection. Duplicates surface as
// models.ErrAlreadyExists so the UI can tell the user explicitly.
func (r *Repository) Add(ctx context.Context, e *models.CollectionEntry) error {
	const q = `INSERT INTO user_collections
		(id, user_id, movie_id, movie_title, movie_genre, movie_rating, movie_image, movie_description)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, added_at`
	err := r.pool.QueryRow(ctx, q, e.UserID, e.MovieID, e.MovieTitle, e.MovieGenre,
		e.MovieRating, e.MovieImage, e.MovieDescription).Scan(&e.ID, &e.AddedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			return models.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Remove deletes a movie from the collection.
func (r *Repository) Remove(ctx context.Context, userID uuid.UUID, movieID int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_collections WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
