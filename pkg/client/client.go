// Package client implements the consumer side of the portal's synchronization
// protocol: the polling notification channel, the unread badge rule, and the
// server-confirmed saved-set toggle. Any UI layer drives these types instead
// of re-deriving the protocol per screen.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinovkus/backend/internal/models"
)

// Client is a thin HTTP client for the portal API, authenticated with a
// bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// envelope mirrors the server's response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// New creates an API client. logger may be nil.
func New(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{},
		logger:  logger,
	}
}

// FetchInbox returns the recipient's full notification state. It never
// returns an error: the inbox poll runs unattended, so transport and decode
// failures degrade to an empty inbox instead of surfacing. Callers replace
// their local state with the result wholesale.
func (c *Client) FetchInbox(ctx context.Context) models.Inbox {
	empty := models.Inbox{Notifications: []models.Notification{}}
	var inbox models.Inbox
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &inbox); err != nil {
		c.logger.Debug("inbox fetch failed", zap.Error(err))
		return empty
	}
	if inbox.Notifications == nil {
		inbox.Notifications = []models.Notification{}
	}
	return inbox
}

// MarkRead marks one notification read, or every unread notification when id
// is nil. The bulk case is one request, never a per-item fan-out.
func (c *Client) MarkRead(ctx context.Context, id *uuid.UUID) error {
	body := map[string]string{"action": "mark_read"}
	if id != nil {
		body["notification_id"] = id.String()
	}
	return c.do(ctx, http.MethodPost, "/notifications", body, nil)
}

// DeleteNotification removes one of the caller's notifications.
func (c *Client) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/notifications?id="+url.QueryEscape(id.String()), nil, nil)
}

// SavePlaylist adds a playlist to the caller's saved set (idempotent).
func (c *Client) SavePlaylist(ctx context.Context, playlistID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/playlists",
		map[string]string{"action": "save", "playlist_id": playlistID.String()}, nil)
}

// UnsavePlaylist removes a playlist from the caller's saved set (idempotent).
func (c *Client) UnsavePlaylist(ctx context.Context, playlistID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/playlists",
		map[string]string{"action": "unsave", "playlist_id": playlistID.String()}, nil)
}

// SavedPlaylists returns the caller's saved playlists.
func (c *Client) SavedPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var out struct {
		Playlists []models.Playlist `json:"playlists"`
	}
	if err := c.do(ctx, http.MethodGet, "/playlists?action=saved", nil, &out); err != nil {
		return nil, err
	}
	return out.Playlists, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return statusError(resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// statusError maps server statuses onto the shared domain errors, keeping the
// server-reported message for display.
func statusError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", models.ErrValidation, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", models.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", models.ErrInvalidTransition, msg)
	default:
		return fmt.Errorf("server error (%d): %s", status, msg)
	}
}
