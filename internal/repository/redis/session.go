package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ogura/location-service/internal/domain"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

// Key prefixes carried over from the storefront's local-storage keys.
// modelFavorites predates the ogura_ prefix convention and stays unprefixed
// so existing session migration tooling keeps working.
const (
	keyUserLocation    = "ogura_user_location:"
	keySelectedAddress = "ogura_selected_address:"
	keyRecentSearches  = "ogura_recent_searches:"
	keyFavorites       = "modelFavorites:"
	keyLocationAsked   = "ogura_location_asked:"
)

// maxRecentSearches caps the per-session search history.
const maxRecentSearches = 5

// SessionStateRepository implements repository.SessionStateRepository
// using Redis.
type SessionStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStateRepository creates a new Redis-backed session state
// repository.
func NewSessionStateRepository(client *redis.Client, ttl time.Duration) *SessionStateRepository {
	return &SessionStateRepository{
		client: client,
		ttl:    ttl,
	}
}

// GetLocation retrieves the cached location state for a session.
func (r *SessionStateRepository) GetLocation(ctx context.Context, sessionID string) (*domain.LocationState, error) {
	data, err := r.client.Get(ctx, keyUserLocation+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get location: %w", err)
	}

	var state domain.LocationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal location state: %w", err)
	}

	return &state, nil
}

// SaveLocation caches the location state for a session.
func (r *SessionStateRepository) SaveLocation(ctx context.Context, sessionID string, state *domain.LocationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal location state: %w", err)
	}

	if err := r.client.Set(ctx, keyUserLocation+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set location: %w", err)
	}

	return nil
}

// GetSelectedAddress returns the session's selected address ID, or empty
// when none is selected.
func (r *SessionStateRepository) GetSelectedAddress(ctx context.Context, sessionID string) (string, error) {
	id, err := r.client.Get(ctx, keySelectedAddress+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis get selected address: %w", err)
	}

	return id, nil
}

// SetSelectedAddress records the session's selected address.
func (r *SessionStateRepository) SetSelectedAddress(ctx context.Context, sessionID, addressID string) error {
	if err := r.client.Set(ctx, keySelectedAddress+sessionID, addressID, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set selected address: %w", err)
	}

	return nil
}

// ClearSelectedAddress removes the selection.
func (r *SessionStateRepository) ClearSelectedAddress(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, keySelectedAddress+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del selected address: %w", err)
	}

	return nil
}

func (r *SessionStateRepository) loadStrings(ctx context.Context, key string) ([]string, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []string{}, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}

	return values, nil
}

func (r *SessionStateRepository) saveStrings(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// RecentSearches returns the session's search terms, newest first.
func (r *SessionStateRepository) RecentSearches(ctx context.Context, sessionID string) ([]string, error) {
	return r.loadStrings(ctx, keyRecentSearches+sessionID)
}

// AddRecentSearch prepends a term, removing any earlier occurrence and
// capping the list at maxRecentSearches.
func (r *SessionStateRepository) AddRecentSearch(ctx context.Context, sessionID, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	searches, err := r.loadStrings(ctx, keyRecentSearches+sessionID)
	if err != nil {
		return err
	}

	updated := []string{term}
	for _, s := range searches {
		if !strings.EqualFold(s, term) {
			updated = append(updated, s)
		}
	}
	if len(updated) > maxRecentSearches {
		updated = updated[:maxRecentSearches]
	}

	return r.saveStrings(ctx, keyRecentSearches+sessionID, updated)
}

// Favorites returns the session's favorited model IDs.
func (r *SessionStateRepository) Favorites(ctx context.Context, sessionID string) ([]string, error) {
	return r.loadStrings(ctx, keyFavorites+sessionID)
}

// AddFavorite adds a model ID to the session's favorites. Adding an
// already-favorited ID is a no-op.
func (r *SessionStateRepository) AddFavorite(ctx context.Context, sessionID, modelID string) error {
	favorites, err := r.loadStrings(ctx, keyFavorites+sessionID)
	if err != nil {
		return err
	}

	for _, f := range favorites {
		if f == modelID {
			return nil
		}
	}

	return r.saveStrings(ctx, keyFavorites+sessionID, append(favorites, modelID))
}

// RemoveFavorite removes a model ID from the session's favorites.
func (r *SessionStateRepository) RemoveFavorite(ctx context.Context, sessionID, modelID string) error {
	favorites, err := r.loadStrings(ctx, keyFavorites+sessionID)
	if err != nil {
		return err
	}

	for i, f := range favorites {
		if f == modelID {
			return r.saveStrings(ctx, keyFavorites+sessionID, append(favorites[:i], favorites[i+1:]...))
		}
	}

	return nil
}

// LocationAsked reports whether the location prompt was already shown to
// this session.
func (r *SessionStateRepository) LocationAsked(ctx context.Context, sessionID string) (bool, error) {
	val, err := r.client.Get(ctx, keyLocationAsked+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis get location asked: %w", err)
	}

	return val == "true", nil
}

// MarkLocationAsked records that the location prompt was shown.
func (r *SessionStateRepository) MarkLocationAsked(ctx context.Context, sessionID string) error {
	if err := r.client.Set(ctx, keyLocationAsked+sessionID, "true", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set location asked: %w", err)
	}

	return nil
}
