package moderation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinovkus/backend/internal/middleware"
	"github.com/kinovkus/backend/internal/models"
)

func newRouter(store Store, moderatorID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewEngine(store, nil, nil))
	r := gin.New()
	asAdmin := func(c *gin.Context) {
		c.Set(middleware.ContextUserID, moderatorID)
		c.Set(middleware.ContextUserRole, "admin")
		c.Next()
	}
	r.GET("/moderation", asAdmin, h.Get)
	r.POST("/moderation", asAdmin, h.Post)
	return r
}

func post(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/moderation", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostApprove(t *testing.T) {
	store := newMemStore()
	author := uuid.New()
	id := store.add(models.KindPlaylist, author, "Heist Classics")
	r := newRouter(store, uuid.New())

	w := post(t, r, gin.H{"action": "approve", "type": "playlist", "id": id.String()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"approved"`)
	assert.Len(t, store.notificationsFor(author), 1)
}

func TestPostApproveTwiceConflicts(t *testing.T) {
	store := newMemStore()
	id := store.add(models.KindReview, uuid.New(), "Heat")
	r := newRouter(store, uuid.New())

	body := gin.H{"action": "approve", "type": "review", "id": id.String()}
	require.Equal(t, http.StatusOK, post(t, r, body).Code)

	w := post(t, r, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already been moderated")
}

func TestPostRejectStoresComment(t *testing.T) {
	store := newMemStore()
	author := uuid.New()
	id := store.add(models.KindPlaylist, author, "Low Effort")
	r := newRouter(store, uuid.New())

	w := post(t, r, gin.H{"action": "reject", "type": "playlist", "id": id.String(), "comment": "add descriptions"})
	require.Equal(t, http.StatusOK, w.Code)

	notifs := store.notificationsFor(author)
	require.Len(t, notifs, 1)
	assert.Contains(t, notifs[0].Message, "add descriptions")
}

func TestPostValidation(t *testing.T) {
	r := newRouter(newMemStore(), uuid.New())

	w := post(t, r, gin.H{"action": "publish", "type": "playlist", "id": uuid.New().String()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, r, gin.H{"action": "approve", "type": "playlist", "id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostUnknownSubmission(t *testing.T) {
	r := newRouter(newMemStore(), uuid.New())
	w := post(t, r, gin.H{"action": "approve", "type": "playlist", "id": uuid.New().String()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQueueDefaults(t *testing.T) {
	r := newRouter(newMemStore(), uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/moderation", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"playlists":[]`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/moderation?type=song", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
