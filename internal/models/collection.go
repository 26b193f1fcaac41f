package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectionEntry is a movie saved to a user's personal collection.
// The collection is a set: at most one entry per (user, movie).
type CollectionEntry struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	MovieID          int       `json:"movie_id"`
	MovieTitle       string    `json:"movie_title"`
	MovieGenre       string    `json:"movie_genre,omitempty"`
	MovieRating      float64   `json:"movie_rating,omitempty"`
	MovieImage       string    `json:"movie_image,omitempty"`
	MovieDescription string    `json:"movie_description,omitempty"`
	AddedAt          time.Time `json:"added_at"`
}
