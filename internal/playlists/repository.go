package playlists

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinovkus/backend/internal/models"
)

const playlistColumns = `p.id, p.user_id, p.title, p.description, p.cover_image, p.status,
	p.moderation_comment, p.moderated_by, p.moderated_at, COALESCE(u.username, ''),
	(SELECT COUNT(*) FROM playlist_movies WHERE playlist_id = p.id), p.created_at`

// Repository handles playlist persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a playlists repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPlaylist(row pgx.Row) (*models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CoverImage, &p.Status,
		&p.ModerationComment, &p.ModeratedBy, &p.ModeratedAt, &p.AuthorName, &p.MoviesCount, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new playlist. Status is forced to pending by the insert;
// a caller-supplied status is never consulted.
func (r *Repository) Create(ctx context.Context, p *models.Playlist) error {
	const q = `INSERT INTO playlists (id, user_id, title, description, cover_image, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, 'pending')
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, p.UserID, p.Title, p.Description, p.CoverImage).
		Scan(&p.ID, &p.Status, &p.CreatedAt)
}

// GetByID returns a playlist with author name and movie count.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	q := `SELECT ` + playlistColumns + ` FROM playlists p
		LEFT JOIN users u ON u.id = p.user_id WHERE p.id = $1`
	return scanPlaylist(r.pool.QueryRow(ctx, q, id))
}

// ListPublic returns approved playlists, newest first.
func (r *Repository) ListPublic(ctx context.Context) ([]models.Playlist, error) {
	q := `SELECT ` + playlistColumns + ` FROM playlists p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.status = 'approved' ORDER BY p.created_at DESC`
	return r.queryPlaylists(ctx, q)
}

// ListByUser returns all playlists of one author, including pending and
// rejected ones with their moderation comments.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Playlist, error) {
	q := `SELECT ` + playlistColumns + ` FROM playlists p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1 ORDER BY p.created_at DESC`
	return r.queryPlaylists(ctx, q, userID)
}

// Movies returns the ordered entries of a playlist.
func (r *Repository) Movies(ctx context.Context, playlistID uuid.UUID) ([]models.PlaylistMovie, error) {
	const q = `SELECT playlist_id, movie_id, movie_title, movie_genre, movie_rating,
		movie_image, movie_description, position, added_at
		FROM playlist_movies WHERE playlist_id = $1 ORDER BY position, added_at`
	rows, err := r.pool.Query(ctx, q, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PlaylistMovie
	for rows.Next() {
		var m models.PlaylistMovie
		if err := rows.Scan(&m.PlaylistID, &m.MovieID, &m.MovieTitle, &m.MovieGenre, &m.MovieRating,
			&m.MovieImage, &m.MovieDescription, &m.Position, &m.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// AddMovie appends an entry while the parent playlist is still pending.
// The ownership and editable-window checks run inside one transaction with the
// parent row locked, so a concurrent approval cannot slip an entry in.
// Re-adding the same movie is a no-op.
func (r *Repository) AddMovie(ctx context.Context, userID uuid.UUID, m *models.PlaylistMovie) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := guardEditable(ctx, tx, m.PlaylistID, userID); err != nil {
		return err
	}

	const q = `INSERT INTO playlist_movies
		(playlist_id, movie_id, movie_title, movie_genre, movie_rating, movie_image, movie_description, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_movies WHERE playlist_id = $1))
		ON CONFLICT (playlist_id, movie_id) DO NOTHING`
	if _, err := tx.Exec(ctx, q, m.PlaylistID, m.MovieID, m.MovieTitle, m.MovieGenre,
		m.MovieRating, m.MovieImage, m.MovieDescription); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveMovie removes an entry, same window and ownership rules as AddMovie.
// Removing an absent entry is a no-op.
func (r *Repository) RemoveMovie(ctx context.Context, userID, playlistID uuid.UUID, movieID int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := guardEditable(ctx, tx, playlistID, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM playlist_movies WHERE playlist_id = $1 AND movie_id = $2`,
		playlistID, movieID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// guardEditable locks the parent row and verifies the caller owns it and the
// editable window is still open.
func guardEditable(ctx context.Context, tx pgx.Tx, playlistID, userID uuid.UUID) error {
	var ownerID uuid.UUID
	var status models.SubmissionStatus
	err := tx.QueryRow(ctx,
		`SELECT user_id, status FROM playlists WHERE id = $1 FOR UPDATE`,
		playlistID).Scan(&ownerID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return models.ErrForbidden
	}
	if status != models.StatusPending {
		return models.ErrImmutableState
	}
	return nil
}

// Delete removes an author's own playlist and its entries.
func (r *Repository) Delete(ctx context.Context, userID, playlistID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM playlists WHERE id = $1 AND user_id = $2`, playlistID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, playlistID); errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return models.ErrForbidden
	}
	return nil
}

// Resubmit returns a rejected playlist to pending and clears the moderation
// verdict. Compare-and-set on status: resubmitting anything but a rejected
// playlist fails.
func (r *Repository) Resubmit(ctx context.Context, userID, playlistID uuid.UUID) (*models.Playlist, error) {
	const q = `UPDATE playlists
		SET status = 'pending', moderation_comment = NULL, moderated_by = NULL, moderated_at = NULL
		WHERE id = $1 AND user_id = $2 AND status = 'rejected'`
	tag, err := r.pool.Exec(ctx, q, playlistID, userID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, playlistID)
		if err != nil {
			return nil, err
		}
		if existing.UserID != userID {
			return nil, models.ErrForbidden
		}
		return nil, models.ErrInvalidTransition
	}
	return r.GetByID(ctx, playlistID)
}

// Save adds the playlist to the caller's saved set. A repeated save is a
// no-op: the toggle must stay idempotent under retries and double-clicks.
func (r *Repository) Save(ctx context.Context, userID, playlistID uuid.UUID) error {
	const q = `INSERT INTO saved_playlists (user_id, playlist_id)
		SELECT $1, p.id FROM playlists p
		WHERE p.id = $2 AND (p.status = 'approved' OR p.user_id = $1)
		ON CONFLICT (user_id, playlist_id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, userID, playlistID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key
			return models.ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either already saved (fine) or not visible to this user.
		saved, err := r.isSaved(ctx, userID, playlistID)
		if err != nil {
			return err
		}
		if !saved {
			if _, err := r.GetByID(ctx, playlistID); errors.Is(err, models.ErrNotFound) {
				return models.ErrNotFound
			}
			return models.ErrForbidden
		}
	}
	return nil
}

// Unsave removes the playlist from the caller's saved set; absent membership
// is a no-op.
func (r *Repository) Unsave(ctx context.Context, userID, playlistID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM saved_playlists WHERE user_id = $1 AND playlist_id = $2`,
		userID, playlistID)
	return err
}

// ListSaved returns the caller's saved playlists, most recently saved first.
func (r *Repository) ListSaved(ctx context.Context, userID uuid.UUID) ([]models.Playlist, error) {
	q := `SELECT ` + playlistColumns + ` FROM saved_playlists s
		JOIN playlists p ON p.id = s.playlist_id
		LEFT JOIN users u ON u.id = p.user_id
		WHERE s.user_id = $1 ORDER BY s.saved_at DESC`
	return r.queryPlaylists(ctx, q, userID)
}

func (r *Repository) isSaved(ctx context.Context, userID, playlistID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM saved_playlists WHERE user_id = $1 AND playlist_id = $2)`,
		userID, playlistID).Scan(&exists)
	return exists, err
}

func (r *Repository) queryPlaylists(ctx context.Context, q string, args ...any) ([]models.Playlist, error) {
	rows, err := r.pool.Query(ctx, q, args...)
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
