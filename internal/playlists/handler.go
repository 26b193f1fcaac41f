package playlists

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

// Store is the persistence surface the handler needs. *Repository implements
// it; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, p *models.Playlist) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error)
	ListPublic(ctx context.Context) ([]models.Playlist, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Playlist, error)
	Movies(ctx context.Context, playlistID uuid.UUID) ([]models.PlaylistMovie, error)
	AddMovie(ctx context.Context, userID uuid.UUID, m *models.PlaylistMovie) error
	RemoveMovie(ctx context.Context, userID, playlistID uuid.UUID, movieID int) error
	Delete(ctx context.Context, userID, playlistID uuid.UUID) error
	Resubmit(ctx context.Context, userID, playlistID uuid.UUID) (*models.Playlist, error)
	Save(ctx context.Context, userID, playlistID uuid.UUID) error
	Unsave(ctx context.Context, userID, playlistID uuid.UUID) error
	ListSaved(ctx context.Context, userID uuid.UUID) ([]models.Playlist, error)
}

// ActionRequest is the body for POST /playlists. The action field selects the
// operation; the remaining fields depend on it.
type ActionRequest struct {
	Action      string  `json:"action" binding:"required,oneof=create add_movie save unsave resubmit"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CoverImage  string  `json:"cover_image"`
	PlaylistID  string  `json:"playlist_id"`
	MovieID     int     `json:"movie_id"`
	MovieTitle  string  `json:"movie_title"`
	MovieGenre  string  `json:"movie_genre"`
	MovieRating float64 `json:"movie_rating"`
	MovieImage  string  `json:"movie_image"`
	MovieDesc   string  `json:"movie_description"`
}

// Handler handles playlist HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a playlists handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Get handles GET /playlists. Without parameters it lists approved playlists;
// ?id= returns one playlist with its movies, ?user_id=me the caller's own,
// ?action=saved the caller's saved set.
func (h *Handler) Get(c *gin.Context) {
	switch {
	case c.Query("action") == "saved":
		userID, ok := currentUser(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			return
		}
		list, err := h.store.ListSaved(c.Request.Context(), userID)
		if err != nil {
			response.Internal(c, "failed to list saved playlists")
			return
		}
		response.OK(c, gin.H{"playlists": emptyIfNil(list)})

	case c.Query("id") != "":
		h.getOne(c)

	case c.Query("user_id") != "":
		userID, ok := currentUser(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			return
		}
		list, err := h.store.ListByUser(c.Request.Context(), userID)
		if err != nil {
			response.Internal(c, "failed to list playlists")
			return
		}
		response.OK(c, gin.H{"playlists": emptyIfNil(list)})

	default:
		list, err := h.store.ListPublic(c.Request.Context())
		if err != nil {
			response.Internal(c, "failed to list playlists")
			return
		}
		response.OK(c, gin.H{"playlists": emptyIfNil(list)})
	}
}

func (h *Handler) getOne(c *gin.Context) {
	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		response.BadRequest(c, "invalid playlist id")
		return
	}
	p, err := h.store.GetByID(c.Request.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		response.NotFound(c, "playlist not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load playlist")
		return
	}

	viewerID, _ := currentUser(c)
	role, _ := c.Get(middleware.ContextUserRole)
	roleStr, _ := role.(string)
	if !p.VisibleTo(viewerID, models.Role(roleStr)) {
		// Hidden submissions look absent to outsiders.
		response.NotFound(c, "playlist not found")
		return
	}

	movies, err := h.store.Movies(c.Request.Context(), p.ID)
	if err != nil {
		response.Internal(c, "failed to load playlist movies")
		return
	}
	if movies == nil {
		movies = []models.PlaylistMovie{}
	}
	response.OK(c, gin.H{"playlist": p, "movies": movies})
}

// Post handles POST /playlists (create, add_movie, save, unsave, resubmit).
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
	case "add_movie":
		h.addMovie(c, userID, req)
	case "save", "unsave", "resubmit":
		playlistID, err := uuid.Parse(req.PlaylistID)
		if err != nil {
			response.BadRequest(c, "invalid playlist_id")
			return
		}
		switch req.Action {
		case "save":
			h.toggleSaved(c, req.Action, h.store.Save, userID, playlistID)
		case "unsave":
			h.toggleSaved(c, req.Action, h.store.Unsave, userID, playlistID)
		case "resubmit":
			h.resubmit(c, userID, playlistID)
		}
	}
}

func (h *Handler) create(c *gin.Context, userID uuid.UUID, req ActionRequest) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		response.BadRequest(c, "playlist title is required")
		return
	}
	p := &models.Playlist{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CoverImage:  req.CoverImage,
	}
	if err := h.store.Create(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to create playlist")
		return
	}
	response.Created(c, gin.H{"playlist": p})
}

func (h *Handler) addMovie(c *gin.Context, userID uuid.UUID, req ActionRequest) {
	playlistID, err := uuid.Parse(req.PlaylistID)
	if err != nil {
		response.BadRequest(c, "invalid playlist_id")
		return
	}
	if req.MovieID == 0 || strings.TrimSpace(req.MovieTitle) == "" {
		response.BadRequest(c, "movie_id and movie_title are required")
		return
	}
	m := &models.PlaylistMovie{
		PlaylistID:       playlistID,
		MovieID:          req.MovieID,
		MovieTitle:       strings.TrimSpace(req.MovieTitle),
		MovieGenre:       req.MovieGenre,
		MovieRating:      req.MovieRating,
		MovieImage:       req.MovieImage,
		MovieDescription: req.MovieDesc,
	}
	if err := h.store.AddMovie(c.Request.Context(), userID, m); err != nil {
		h.writeDomainError(c, err, "failed to add movie")
		return
	}
	response.OK(c, gin.H{"movie": m})
}

func (h *Handler) toggleSaved(c *gin.Context, action string, op func(context.Context, uuid.UUID, uuid.UUID) error, userID, playlistID uuid.UUID) {
	if err := op(c.Request.Context(), userID, playlistID); err != nil {
		h.writeDomainError(c, err, "failed to "+action+" playlist")
		return
	}
	response.OK(c, gin.H{"playlist_id": playlistID, "saved": action == "save"})
}

func (h *Handler) resubmit(c *gin.Context, userID, playlistID uuid.UUID) {
	p, err := h.store.Resubmit(c.Request.Context(), userID, playlistID)
	if err != nil {
		h.writeDomainError(c, err, "failed to resubmit playlist")
		return
	}
	response.OK(c, gin.H{"playlist": p})
}

// Delete handles DELETE /playlists?id=[&movie_id=]. With movie_id it removes
// one entry (editable window rules apply); without it the whole playlist.
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	playlistID, err := uuid.Parse(c.Query("id"))
	if err != nil {
		response.BadRequest(c, "invalid playlist id")
		return
	}

	if movieIDStr := c.Query("movie_id"); movieIDStr != "" {
		movieID, err := strconv.Atoi(movieIDStr)
		if err != nil {
			response.BadRequest(c, "invalid movie_id")
			return
		}
		if err := h.store.RemoveMovie(c.Request.Context(), userID, playlistID, movieID); err != nil {
			h.writeDomainError(c, err, "failed to remove movie")
			return
		}
		response.OK(c, gin.H{"message": "movie removed from playlist"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), userID, playlistID); err != nil {
		h.writeDomainError(c, err, "failed to delete playlist")
		return
	}
	response.OK(c, gin.H{"message": "playlist deleted"})
}

func (h *Handler) writeDomainError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, "playlist not found")
	case errors.Is(err, models.ErrForbidden):
		response.Forbidden(c, "no access to this playlist")
	case errors.Is(err, models.ErrImmutableState):
		response.Conflict(c, "playlist is no longer editable")
	case errors.Is(err, models.ErrInvalidTransition):
		response.Conflict(c, "playlist is not in a resubmittable state")
	default:
		response.Internal(c, fallback)
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

func emptyIfNil(list []models.Playlist) []models.Playlist {
	if list == nil {
		return []models.Playlist{}
	}
	return list
}
