package repository

import (
	"context"

	"github.com/ogura/location-service/internal/domain"
)

// AddressRepository defines address persistence operations. The owner key is
// a user ID for the PostgreSQL implementation and a session ID for the
// guest Redis implementation; callers obtain it from domain.Scope.Owner()
// and never know which store is active.
type AddressRepository interface {
	// Create inserts a new address for the owner.
	Create(ctx context.Context, owner string, address *domain.Address) error

	// Get retrieves a single address by its identifier.
	Get(ctx context.Context, owner, id string) (*domain.Address, error)

	// List returns all addresses for the owner, default first, then newest
	// first.
	List(ctx context.Context, owner string) ([]domain.Address, error)

	// Update modifies an existing address.
	Update(ctx context.Context, owner string, address *domain.Address) error

	// Delete removes an address by its identifier.
	Delete(ctx context.Context, owner, id string) error

	// SetDefault marks the given address as the owner's default, unsetting
	// any previous default so at most one address is ever flagged.
	SetDefault(ctx context.Context, owner, id string) error
}

// ProfileRepository persists the resolved location of authenticated users.
type ProfileRepository interface {
	// Get retrieves the profile for the given user.
	Get(ctx context.Context, userID string) (*domain.Profile, error)

	// Upsert creates or replaces the location fields of a user's profile.
	Upsert(ctx context.Context, profile *domain.Profile) error
}

// DeliveryZoneRepository looks up serviceability rows by pincode.
type DeliveryZoneRepository interface {
	// GetByPincode retrieves the zone row for a pincode.
	GetByPincode(ctx context.Context, pincode string) (*domain.DeliveryZone, error)
}

// SessionStateRepository holds per-session state: the cached location, the
// selected address pointer, recent searches, favorites, and the
// location-prompt sentinel.
type SessionStateRepository interface {
	// GetLocation retrieves the cached location state for a session.
	GetLocation(ctx context.Context, sessionID string) (*domain.LocationState, error)

	// SaveLocation caches the location state for a session.
	SaveLocation(ctx context.Context, sessionID string, state *domain.LocationState) error

	// GetSelectedAddress returns the ID of the session's selected address,
	// or empty when none is selected.
	GetSelectedAddress(ctx context.Context, sessionID string) (string, error)

	// SetSelectedAddress records the session's selected address.
	SetSelectedAddress(ctx context.Context, sessionID, addressID string) error

	// ClearSelectedAddress removes the selection.
	ClearSelectedAddress(ctx context.Context, sessionID string) error

	// RecentSearches returns the session's search terms, newest first.
	RecentSearches(ctx context.Context, sessionID string) ([]string, error)

	// AddRecentSearch prepends a term, deduplicating and capping the list.
	AddRecentSearch(ctx context.Context, sessionID, term string) error

	// Favorites returns the session's favorited model IDs.
	Favorites(ctx context.Context, sessionID string) ([]string, error)

	// AddFavorite adds a model ID to the session's favorites.
	AddFavorite(ctx context.Context, sessionID, modelID string) error

	// RemoveFavorite removes a model ID from the session's favorites.
	RemoveFavorite(ctx context.Context, sessionID, modelID string) error

	// LocationAsked reports whether the location prompt was already shown.
	LocationAsked(ctx context.Context, sessionID string) (bool, error)

	// MarkLocationAsked records that the location prompt was shown.
	MarkLocationAsked(ctx context.Context, sessionID string) error
}
