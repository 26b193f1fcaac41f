package collections

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kinovkus/backend/internal/middleware"
	"github.com/kinovkus/backend/internal/models"
	"github.com/kinovkus/backend/pkg/response"
)

// Store is the persistence surface the handler needs.
type Store interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CollectionEntry, error)
	Add(ctx context.Context, e *models.CollectionEntry) error
	Remove(ctx context.Context, userID uuid.UUID, movieID int) error
}

// AddRequest is the body for POST /collections.
type AddRequest struct {
	MovieID          int     `json:"movie_id" binding:"required"`
	MovieTitle       string  `json:"movie_title" binding:"required"`
	MovieGenre       string  `json:"movie_genre"`
	MovieRating      float64 `json:"movie_rating"`
	MovieImage       string  `json:"movie_image"`
	MovieDescription string  `json:"movie_description"`
}

// Handler handles collection HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a collections handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List handles GET /collections.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load collection")
		return
	}
	if list == nil {
		list = []models.CollectionEntry{}
	}
	response.OK(c, gin.H{"collections": list})
}

// Add handles POST /collections.
func (h *Handler) Add(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e := &models.CollectionEntry{
		UserID:           userID,
		MovieID:          req.MovieID,
		MovieTitle:       strings.TrimSpace(req.MovieTitle),
		MovieGenre:       req.MovieGenre,
		MovieRating:      req.MovieRating,
		MovieImage:       req.MovieImage,
		MovieDescription: req.MovieDescription,
	}
	if err := h.store.Add(c.Request.Context(), e); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			response.BadRequest(c, "movie already in collection")
			return
		}
		response.Internal(c, "failed to add to collection")
		return
	}
	response.Created(c, gin.H{"collection": e})
}

// Remove handles DELETE /collections?movie_id=.
func (h *Handler) Remove(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	movieID, err := strconv.Atoi(c.Query("movie_id"))
	if err != nil {
		response.BadRequest(c, "movie_id is required")
		return
	}
	if err := h.store.Remove(c.Request.Context(), userID, movieID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "movie not found in collection")
			return
		}
		response.Internal(c, "failed to remove from collection")
		return
	}
	response.OK(c, gin.H{"message": "movie removed from collection"})
}
