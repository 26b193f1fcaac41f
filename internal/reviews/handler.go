package reviews

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
	Create(ctx context.Context, rev *models.Review) error
	ListByMovie(ctx context.Context, movieID int) ([]models.Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error)
	Resubmit(ctx context.Context, userID, reviewID uuid.UUID) (*models.Review, error)
}

// ActionRequest is the body for POST /reviews.
type ActionRequest struct {
	Action     string `json:"action" binding:"required,oneof=create resubmit"`
	MovieID    int    `json:"movie_id"`
	MovieTitle string `json:"movie_title"`
	Rating     int    `json:"rating"`
	Body       string `json:"body"`
	ReviewID   string `json:"review_id"`
}

// Handler handles review HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a reviews handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Get handles GET /reviews?movie_id= (approved, public) and
// GET /reviews?user_id=me (caller's own, any status).
func (h *Handler) Get(c *gin.Context) {
	if c.Query("user_id") == "me" {
		userID, ok := currentUser(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			return
		}
		list, err := h.store.ListByUser(c.Request.Context(), userID)
		if err != nil {
			response.Internal(c, "failed to list reviews")
			return
		}
		response.OK(c, gin.H{"reviews": emptyIfNil(list)})
		return
	}

	movieID, err := strconv.Atoi(c.Query("movie_id"))
	if err != nil {
		response.BadRequest(c, "movie_id is required")
		return
	}
	list, err := h.store.ListByMovie(c.Request.Context(), movieID)
	if err != nil {
		response.Internal(c, "failed to list reviews")
		return
	}
	response.OK(c, gin.H{"reviews": emptyIfNil(list)})
}

// Post handles POST /reviews (create, resubmit).
func (h *Handler) Post(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	switch req.Action {
	case "create":
		h.create(c, userID, req)
	case "resubmit":
		reviewID, err := uuid.Parse(req.ReviewID)
		if err != nil {
			response.BadRequest(c, "invalid review_id")
			return
		}
		rev, err := h.store.Resubmit(c.Request.Context(), userID, reviewID)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		response.OK(c, gin.H{"review": rev})
	}
}

func (h *Handler) create(c *gin.Context, userID uuid.UUID, req ActionRequest) {
	body := strings.TrimSpace(req.Body)
	if req.MovieID == 0 {
		response.BadRequest(c, "movie_id is required")
		return
	}
	if body == "" {
		response.BadRequest(c, "review body is required")
		return
	}
	if req.Rating < models.RatingMin || req.Rating > models.RatingMax {
		response.BadRequest(c, "rating must be between 1 and 10")
		return
	}

	rev := &models.Review{
		UserID:     userID,
		MovieID:    req.MovieID,
		MovieTitle: strings.TrimSpace(req.MovieTitle),
		Rating:     req.Rating,
		Body:       body,
	}
	if err := h.store.Create(c.Request.Context(), rev); err != nil {
		response.Internal(c, "failed to create review")
		return
	}
	response.Created(c, gin.H{"review": rev})
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, "review not found")
	case errors.Is(err, models.ErrForbidden):
		response.Forbidden(c, "no access to this review")
	case errors.Is(err, models.ErrInvalidTransition):
		response.Conflict(c, "review is not in a resubmittable state")
	default:
		response.Internal(c, "review operation failed")
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func emptyIfNil(list []models.Review) []models.Review {
	if list == nil {
		return []models.Review{}
	}
	return list
}
