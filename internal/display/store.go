package display

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StateKey is the Redis key holding the current display state hash.
	StateKey = "display:state"

	// StateTTL bounds how long a stale state survives a dead renderer.
	StateTTL = 24 * time.Hour
)

// Store mirrors the renderer's current state to Redis so the gateway can
// answer display queries without talking to the renderer directly.
type Store struct {
	client *redis.Client
}

// NewStore creates a display state store backed by Redis.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Put writes the full state hash and refreshes its TTL.
func (s *Store) Put(ctx context.Context, state *State) error {
	fields := map[string]interface{}{
		"text":       state.Text,
		"text_width": state.TextWidth,
		"mode":       state.Mode,
		"speed":      state.Speed,
		"brightness": state.Brightness,
		"scroll_pos": state.ScrollPos,
		"running":    state.Running,
		"updated_at": state.UpdatedAt,
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, StateKey, fields)
	pipe.Expire(ctx, StateKey, StateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("display: store state: %w", err)
	}
	return nil
}

// Get reads the current state. Returns nil if no renderer has written yet.
func (s *Store) Get(ctx context.Context) (*State, error) {
	var state State
	if err := s.client.HGetAll(ctx, StateKey).Scan(&state); err != nil {
		return nil, fmt.Errorf("display: load state: %w", err)
	}
	if state.UpdatedAt == 0 {
		return nil, nil // not found
	}
	return &state, nil
}
