package models

import (
	"time"

	"github.com/google/uuid"
)

// Playlist is a user-curated movie list subject to moderation.
// Only approved playlists are publicly visible; pending and rejected ones are
// shown to the author and to admins.
type Playlist struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"user_id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	CoverImage        string           `json:"cover_image,omitempty"`
	Status            SubmissionStatus `json:"status"`
	ModerationComment *string          `json:"moderation_comment,omitempty"`
	ModeratedBy       *uuid.UUID       `json:"moderated_by,omitempty"`
	ModeratedAt       *time.Time       `json:"moderated_at,omitempty"`
	AuthorName        string           `json:"author_name,omitempty"`
	MoviesCount       int              `json:"movies_count"`
	CreatedAt         time.Time        `json:"created_at"`
}

// VisibleTo reports whether the playlist may be shown to the given viewer.
func (p *Playlist) VisibleTo(viewerID uuid.UUID, role Role) bool {
	if p.Status == StatusApproved {
		return true
	}
	return p.UserID == viewerID || role == RoleAdmin
}

// PlaylistMovie is an entry of a playlist. Entries are owned by their parent
// playlist and may only be added or removed while the parent is pending.
type PlaylistMovie struct {
	PlaylistID       uuid.UUID `json:"playlist_id"`
	MovieID          int       `json:"movie_id"`
	MovieTitle       string    `json:"movie_title"`
	MovieGenre       string    `json:"movie_genre,omitempty"`
	MovieRating      float64   `json:"movie_rating,omitempty"`
	MovieImage       string    `json:"movie_image,omitempty"`
	MovieDescription string    `json:"movie_description,omitempty"`
	Position         int       `json:"position"`
	AddedAt          time.Time `json:"added_at"`
}
