package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ogura/location-service/internal/domain"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

const keyGuestAddresses = "ogura_guest_addresses:"

// GuestAddressRepository implements repository.AddressRepository for guest
// sessions. Addresses are kept as a JSON array under a per-session key,
// newest first, matching the shape the storefront kept in local storage.
// The owner key is the session ID.
type GuestAddressRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuestAddressRepository creates a new Redis-backed guest address
// repository.
func NewGuestAddressRepository(client *redis.Client, ttl time.Duration) *GuestAddressRepository {
	return &GuestAddressRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *GuestAddressRepository) load(ctx context.Context, owner string) ([]domain.Address, error) {
	data, err := r.client.Get(ctx, keyGuestAddresses+owner).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []domain.Address{}, nil
		}
		return nil, fmt.Errorf("redis get guest addresses: %w", err)
	}

	var addresses []domain.Address
	if err := json.Unmarshal(data, &addresses); err != nil {
		return nil, fmt.Errorf("unmarshal guest addresses: %w", err)
	}

	return addresses, nil
}

func (r *GuestAddressRepository) save(ctx context.Context, owner string, addresses []domain.Address) error {
	data, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("marshal guest addresses: %w", err)
	}

	if err := r.client.Set(ctx, keyGuestAddresses+owner, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set guest addresses: %w", err)
	}

	return nil
}

// Create prepends a new address to the session's list.
func (r *GuestAddressRepository) Create(ctx context.Context, owner string, a *domain.Address) error {
	addresses, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	addresses = append([]domain.Address{*a}, addresses...)
	return r.save(ctx, owner, addresses)
}

// Get retrieves a single address from the session's list.
func (r *GuestAddressRepository) Get(ctx context.Context, owner, id string) (*domain.Address, error) {
	addresses, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	for i := range addresses {
		if addresses[i].ID == id {
			return &addresses[i], nil
		}
	}

	return nil, apperrors.NotFound("address", id)
}

// List returns the session's addresses, default first, then insertion order
// (newest first).
func (r *GuestAddressRepository) List(ctx context.Context, owner string) ([]domain.Address, error) {
	addresses, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	// Stable partition: the default address moves to the front, everything
	// else keeps its stored order.
	for i := range addresses {
		if addresses[i].IsDefault && i > 0 {
			def := addresses[i]
			copy(addresses[1:i+1], addresses[0:i])
			addresses[0] = def
			break
		}
	}

	return addresses, nil
}

// Update replaces the stored address with the same ID.
func (r *GuestAddressRepository) Update(ctx context.Context, owner string, a *domain.Address) error {
	addresses, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	for i := range addresses {
		if addresses[i].ID == a.ID {
			a.CreatedAt = addresses[i].CreatedAt
			a.IsDefault = addresses[i].IsDefault
			addresses[i] = *a
			return r.save(ctx, owner, addresses)
		}
	}

	return apperrors.NotFound("address", a.ID)
}

// Delete removes an address from the session's list.
func (r *GuestAddressRepository) Delete(ctx context.Context, owner, id string) error {
	addresses, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	for i := range addresses {
		if addresses[i].ID == id {
			addresses = append(addresses[:i], addresses[i+1:]...)
			return r.save(ctx, owner, addresses)
		}
	}

	return apperrors.NotFound("address", id)
}

// SetDefault marks the given address as default and unsets all others in a
// single rewrite.
func (r *GuestAddressRepository) SetDefault(ctx context.Context, owner, id string) error {
	addresses, err := r.load(ctx, owner)
	if err != nil {
		return err
	}

	found := false
	for i := range addresses {
		addresses[i].IsDefault = addresses[i].ID == id
		if addresses[i].IsDefault {
			found = true
		}
	}

	if !found {
		return apperrors.NotFound("address", id)
	}

	return r.save(ctx, owner, addresses)
}
