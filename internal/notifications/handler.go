package notifications

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinovkus/backend/internal/middleware"
	"github.com/kinovkus/backend/internal/models"
	"github.com/kinovkus/backend/pkg/response"
)

// Store is the persistence surface the handler needs.
type Store interface {
	ListInbox(ctx context.Context, recipientID uuid.UUID) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, recipientID uuid.UUID, id *uuid.UUID) error
	Delete(ctx context.Context, recipientID, id uuid.UUID) error
}

// MarkReadRequest is the body for POST /notifications. Omitting
// notification_id marks everything read in one call.
type MarkReadRequest struct {
	Action         string `json:"action" binding:"required,oneof=mark_read"`
	NotificationID string `json:"notification_id"`
}

// Handler handles notification HTTP endpoints. These routes sit behind the
// lenient auth middleware: the inbox poll runs unattended on a timer, so an
// anonymous or expired session gets an empty inbox instead of an error.
type Handler struct {
	store  Store
	cache  *Cache
	logger *zap.Logger
}

// NewHandler creates a notifications handler. cache may be nil.
func NewHandler(store Store, cache *Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, cache: cache, logger: logger}
}

// Get handles GET /notifications, returning the full inbox plus unread count.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		response.OK(c, models.Inbox{Notifications: []models.Notification{}, UnreadCount: 0})
		return
	}

	list, err := h.store.ListInbox(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list inbox", zap.Error(err))
		response.Internal(c, "failed to load notifications")
		return
	}
	if list == nil {
		list = []models.Notification{}
	}

	unread, err := h.unreadCount(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("count unread", zap.Error(err))
		response.Internal(c, "failed to load notifications")
		return
	}

	response.OK(c, models.Inbox{Notifications: list, UnreadCount: unread})
}

// unreadCount serves the badge count from the Redis cache when present and
// recomputes it from Postgres on a miss.
func (h *Handler) unreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if h.cache != nil {
		if n, ok := h.cache.GetUnread(ctx, userID); ok {
			return n, nil
		}
	}
	n, err := h.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if h.cache != nil {
		h.cache.SetUnread(ctx, userID, n)
	}
	return n, nil
}

// Post handles POST /notifications (mark_read). Without a valid session it is
// a silent no-op, matching the inbox poll's degrade policy.
func (h *Handler) Post(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		response.OK(c, gin.H{"marked": false})
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var id *uuid.UUID
	if req.NotificationID != "" {
		parsed, err := uuid.Parse(req.NotificationID)
		if err != nil {
			response.BadRequest(c, "invalid notification_id")
			return
		}
		id = &parsed
	}

	if err := h.store.MarkRead(c.Request.Context(), userID, id); err != nil {
		h.logger.Error("mark read", zap.Error(err))
		response.Internal(c, "failed to mark notifications read")
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context(), userID)
	}
	response.OK(c, gin.H{"marked": true})
}

// Delete handles DELETE /notifications?id=.
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		response.OK(c, gin.H{"deleted": false})
		return
	}
	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "notification not found")
			return
		}
		h.logger.Error("delete notification", zap.Error(err))
		response.Internal(c, "failed to delete notification")
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context(), userID)
	}
	response.OK(c, gin.H{"deleted": true})
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
