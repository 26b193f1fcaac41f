package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// OpState is the lifecycle of one confirmed-commit mutation.
type OpState int

const (
	// OpPending - the server call is in flight; local state is unchanged.
	OpPending OpState = iota
	// OpCommitted - the server confirmed; local state has been flipped.
	OpCommitted
	// OpFailed - the server call failed; local state was never touched.
	OpFailed
)

// Confirmed runs a server mutation and applies the local flip only after the
// server confirms. On failure the local state is untouched and the error is
// returned for display. This is the one commit discipline every toggle-style
// interaction in the portal uses; a flip shown before confirmation could
// display state that was never persisted.
func Confirmed(ctx context.Context, op func(context.Context) error, apply func()) (OpState, error) {
	if err := op(ctx); err != nil {
		return OpFailed, err
	}
	apply()
	return OpCommitted, nil
}

// SavedAPI is the server surface of the saved-playlist set. *Client
// implements it.
type SavedAPI interface {
	SavePlaylist(ctx context.Context, playlistID uuid.UUID) error
	UnsavePlaylist(ctx context.Context, playlistID uuid.UUID) error
}

// SavedSet is the client-side membership cache of the user's saved playlists,
// reconciled against the server-held set. Save is a set-insert and unsave a
// set-delete on the server, so retries and rapid double-clicks cannot
// double-count.
type SavedSet struct {
	api SavedAPI

	mu      sync.Mutex
	members map[uuid.UUID]bool
}

// NewSavedSet creates a saved-set cache seeded with the given membership.
func NewSavedSet(api SavedAPI, seed []uuid.UUID) *SavedSet {
	members := make(map[uuid.UUID]bool, len(seed))
	for _, id := range seed {
		members[id] = true
	}
	return &SavedSet{api: api, members: members}
}

// Contains reports local membership.
func (s *SavedSet) Contains(playlistID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[playlistID]
}

// Toggle saves or unsaves depending on current local membership and returns
// the new membership. The cache flips only after the server confirms; on
// error it is left unchanged.
func (s *SavedSet) Toggle(ctx context.Context, playlistID uuid.UUID) (bool, error) {
	s.mu.Lock()
	saved := s.members[playlistID]
	s.mu.Unlock()

	op := s.api.SavePlaylist
	if saved {
		op = s.api.UnsavePlaylist
	}

	_, err := Confirmed(ctx,
		func(ctx context.Context) error { return op(ctx, playlistID) },
		func() {
			s.mu.Lock()
			if saved {
				delete(s.members, playlistID)
			} else {
				s.members[playlistID] = true
			}
			s.mu.Unlock()
		})
	if err != nil {
		return saved, err
	}
	return !saved, nil
}
