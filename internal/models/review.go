package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds for reviews.
const (
	RatingMin = 1
	RatingMax = 10
)

// Review is a user movie review subject to moderation.
type Review struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"user_id"`
	MovieID           int              `json:"movie_id"`
	MovieTitle        string           `json:"movie_title"`
	Rating            int              `json:"rating"`
	Body              string           `json:"body"`
	Status            SubmissionStatus `json:"status"`
	ModerationComment *string          `json:"moderation_comment,omitempty"`
	ModeratedBy       *uuid.UUID       `json:"moderated_by,omitempty"`
	ModeratedAt       *time.Time       `json:"moderated_at,omitempty"`
	AuthorName        string           `json:"author_name,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}
