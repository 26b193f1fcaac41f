package moderation

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kinovkus/backend/internal/middleware"
	"github.com/kinovkus/backend/internal/models"
	"github.com/kinovkus/backend/pkg/response"
)

// ActionRequest is the body for POST /moderation.
type ActionRequest struct {
	Action  string `json:"action" binding:"required,oneof=approve reject"`
	Type    string `json:"type" binding:"required,oneof=playlist review"`
	ID      string `json:"id" binding:"required"`
	Comment string `json:"comment"`
}

// Handler handles moderation HTTP endpoints. Routes are admin-gated by
// middleware; the handler still never trusts body fields for authorization.
type Handler struct {
	engine *Engine
}

// NewHandler creates a moderation handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Post handles POST /moderation (approve/reject a submission).
func (h *Handler) Post(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	submissionID, err := uuid.Parse(req.ID)
	if err != nil {
		response.BadRequest(c, "invalid submission id")
		return
	}
	moderatorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	kind := models.SubmissionKind(req.Type)

	var out *Outcome
	if req.Action == "approve" {
		out, err = h.engine.Approve(c.Request.Context(), kind, submissionID, moderatorID)
	} else {
		out, err = h.engine.Reject(c.Request.Context(), kind, submissionID, moderatorID, req.Comment)
	}
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			response.NotFound(c, "submission not found")
		case errors.Is(err, models.ErrInvalidTransition):
			response.Conflict(c, "submission has already been moderated")
		default:
			response.Internal(c, "moderation failed")
		}
		return
	}
	response.OK(c, gin.H{"id": submissionID, "status": out.Status})
}

// Get handles GET /moderation?type=playlist|review&status=pending.
func (h *Handler) Get(c *gin.Context) {
	kind := c.DefaultQuery("type", string(models.KindPlaylist))
	if !models.ValidKind(kind) {
		response.BadRequest(c, "type must be playlist or review")
		return
	}
	status := models.SubmissionStatus(c.DefaultQuery("status", string(models.StatusPending)))
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		response.BadRequest(c, "invalid status filter")
		return
	}

	if models.SubmissionKind(kind) == models.KindReview {
		list, err := h.engine.ListReviews(c.Request.Context(), status)
		if err != nil {
			response.Internal(c, "failed to list reviews")
			return
		}
		if list == nil {
			list = []models.Review{}
		}
		response.OK(c, gin.H{"reviews": list})
		return
	}

	list, err := h.engine.ListPlaylists(c.Request.Context(), status)
	if err != nil {
		response.Internal(c, "failed to list playlists")
		return
	}
	if list == nil {
		list = []models.Playlist{}
	}
	response.OK(c, gin.H{"playlists": list})
}
