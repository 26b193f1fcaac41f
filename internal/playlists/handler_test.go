package playlists

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinovkus/backend/internal/middleware"
	"github.com/kinovkus/backend/internal/models"
)

// fakeStore mirrors the repository's ownership and editable-window rules in
// memory. Entries may change only while the parent playlist is pending.
type fakeStore struct {
	mu        sync.Mutex
	playlists map[uuid.UUID]*models.Playlist
	movies    map[uuid.UUID][]models.PlaylistMovie
	saved     map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		playlists: make(map[uuid.UUID]*models.Playlist),
		movies:    make(map[uuid.UUID][]models.PlaylistMovie),
		saved:     make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *fakeStore) seed(owner uuid.UUID, status models.SubmissionStatus) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.playlists[id] = &models.Playlist{ID: id, UserID: owner, Title: "seeded", Status: status}
	return id
}

func (s *fakeStore) Create(_ context.Context, p *models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	p.Status = models.StatusPending
	s.playlists[p.ID] = p
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ListPublic(context.Context) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Playlist
	for _, p := range s.playlists {
		if p.Status == models.StatusApproved {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Playlist
	for _, p := range s.playlists {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) Movies(_ context.Context, playlistID uuid.UUID) ([]models.PlaylistMovie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PlaylistMovie(nil), s.movies[playlistID]...), nil
}

func (s *fakeStore) guardEditable(userID, playlistID uuid.UUID) error {
	p, ok := s.playlists[playlistID]
	if !ok {
		return models.ErrNotFound
	}
	if p.UserID != userID {
		return models.ErrForbidden
	}
	if p.Status != models.StatusPending {
		return models.ErrImmutableState
	}
	return nil
}

func (s *fakeStore) AddMovie(_ context.Context, userID uuid.UUID, m *models.PlaylistMovie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardEditable(userID, m.PlaylistID); err != nil {
		return err
	}
	for _, existing := range s.movies[m.PlaylistID] {
		if existing.MovieID == m.MovieID {
			return nil
		}
	}
	s.movies[m.PlaylistID] = append(s.movies[m.PlaylistID], *m)
	return nil
}

func (s *fakeStore) RemoveMovie(_ context.Context, userID, playlistID uuid.UUID, movieID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardEditable(userID, playlistID); err != nil {
		return err
	}
	kept := s.movies[playlistID][:0]
	for _, m := range s.movies[playlistID] {
		if m.MovieID != movieID {
			kept = append(kept, m)
		}
	}
	s.movies[playlistID] = kept
	return nil
}

func (s *fakeStore) Delete(_ context.Context, userID, playlistID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[playlistID]
	if !ok {
		return models.ErrNotFound
	}
	if p.UserID != userID {
		return models.ErrForbidden
	}
	delete(s.playlists, playlistID)
	return nil
}

func (s *fakeStore) Resubmit(_ context.Context, userID, playlistID uuid.UUID) (*models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[playlistID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if p.UserID != userID {
		return nil, models.ErrForbidden
	}
	if p.Status != models.StatusRejected {
		return nil, models.ErrInvalidTransition
	}
	p.Status = models.StatusPending
	p.ModerationComment = nil
	cp := *p
	return &cp, nil
}

func (s *fakeStore) Save(_ context.Context, userID, playlistID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[playlistID]
	if !ok || (p.Status != models.StatusApproved && p.UserID != userID) {
		return models.ErrNotFound
	}
	if s.saved[userID] == nil {
		s.saved[userID] = make(map[uuid.UUID]bool)
	}
	s.saved[userID][playlistID] = true
	return nil
}

func (s *fakeStore) Unsave(_ context.Context, userID, playlistID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved[userID], playlistID)
	return nil
}

func (s *fakeStore) ListSaved(_ context.Context, userID uuid.UUID) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Playlist
	for id := range s.saved[userID] {
		if p, ok := s.playlists[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func newRouter(store Store, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store)
	r := gin.New()
	identify := func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.ContextUserID, userID)
			c.Set(middleware.ContextUserRole, "user")
		}
		c.Next()
	}
	r.GET("/playlists", identify, h.Get)
	r.POST("/playlists", identify, h.Post)
	r.DELETE("/playlists", identify, h.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAddMovieWhilePending(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	id := store.seed(owner, models.StatusPending)
	r := newRouter(store, owner)

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{
		"action": "add_movie", "playlist_id": id.String(),
		"movie_id": 603, "movie_title": "The Matrix",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	movies, _ := store.Movies(context.Background(), id)
	assert.Len(t, movies, 1)
}

func TestAddMovieAfterApprovalConflicts(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	id := store.seed(owner, models.StatusApproved)
	r := newRouter(store, owner)

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{
		"action": "add_movie", "playlist_id": id.String(),
		"movie_id": 603, "movie_title": "The Matrix",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no longer editable")
}

func TestAddMovieToForeignPlaylistForbidden(t *testing.T) {
	store := newFakeStore()
	id := store.seed(uuid.New(), models.StatusPending)
	r := newRouter(store, uuid.New())

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{
		"action": "add_movie", "playlist_id": id.String(),
		"movie_id": 603, "movie_title": "The Matrix",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSaveIsIdempotent(t *testing.T) {
	store := newFakeStore()
	user := uuid.New()
	id := store.seed(uuid.New(), models.StatusApproved)
	r := newRouter(store, user)

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{"action": "save", "playlist_id": id.String()})
		assert.Equal(t, http.StatusOK, w.Code)
	}

	saved, _ := store.ListSaved(context.Background(), user)
	assert.Len(t, saved, 1)
}

func TestUnsaveAbsentIsNoOp(t *testing.T) {
	store := newFakeStore()
	id := store.seed(uuid.New(), models.StatusApproved)
	r := newRouter(store, uuid.New())

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{"action": "unsave", "playlist_id": id.String()})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSaveHiddenPlaylistNotFound(t *testing.T) {
	store := newFakeStore()
	id := store.seed(uuid.New(), models.StatusPending)
	r := newRouter(store, uuid.New())

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{"action": "save", "playlist_id": id.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResubmitRejectedPlaylist(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	id := store.seed(owner, models.StatusRejected)
	r := newRouter(store, owner)

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{"action": "resubmit", "playlist_id": id.String()})
	require.Equal(t, http.StatusOK, w.Code)

	p, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Nil(t, p.ModerationComment)
}

func TestResubmitPendingConflicts(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	id := store.seed(owner, models.StatusPending)
	r := newRouter(store, owner)

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{"action": "resubmit", "playlist_id": id.String()})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetOneHiddenFromAnonymous(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	pending := store.seed(owner, models.StatusPending)

	anon := newRouter(store, uuid.Nil)
	w := doJSON(t, anon, http.MethodGet, "/playlists?id="+pending.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	asOwner := newRouter(store, owner)
	w = doJSON(t, asOwner, http.MethodGet, "/playlists?id="+pending.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublicListOnlyApproved(t *testing.T) {
	store := newFakeStore()
	store.seed(uuid.New(), models.StatusApproved)
	store.seed(uuid.New(), models.StatusPending)
	store.seed(uuid.New(), models.StatusRejected)

	r := newRouter(store, uuid.Nil)
	w := doJSON(t, r, http.MethodGet, "/playlists", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Playlists []models.Playlist `json:"playlists"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Playlists, 1)
	assert.Equal(t, models.StatusApproved, body.Data.Playlists[0].Status)
}

func TestCreateRequiresTitle(t *testing.T) {
	store := newFakeStore()
	r := newRouter(store, uuid.New())

	w := doJSON(t, r, http.MethodPost, "/playlists", gin.H{"action": "create", "title": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
