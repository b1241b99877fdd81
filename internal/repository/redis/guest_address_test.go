package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogura/location-service/internal/domain"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

func setupGuestAddressRepo(t *testing.T) (*GuestAddressRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewGuestAddressRepository(client, time.Hour)
	return repo, mr
}

func guestAddress(id string) *domain.Address {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Address{
		ID:          id,
		FullName:    "Priya Sharma",
		Mobile:      "9876543210",
		Pincode:     "110001",
		AddressLine: "14 Janpath Lane",
		City:        "New Delhi",
		State:       "Delhi",
		AddressType: domain.AddressHome,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestGuestAddressRepository_Create_UsesPrefixedKey(t *testing.T) {
	repo, mr := setupGuestAddressRepo(t)

	err := repo.Create(context.Background(), "sess-1", guestAddress("addr-1"))
	require.NoError(t, err)

	// Stored under the storefront's legacy key shape.
	assert.True(t, mr.Exists("ogura_guest_addresses:sess-1"))
}

func TestGuestAddressRepository_Create_PrependsNewest(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))
	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-2")))

	got, err := repo.List(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "addr-2", got[0].ID)
	assert.Equal(t, "addr-1", got[1].ID)
}

func TestGuestAddressRepository_Get_Success(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))

	got, err := repo.Get(ctx, "sess-1", "addr-1")
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", got.FullName)
}

func TestGuestAddressRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)

	got, err := repo.Get(context.Background(), "sess-1", "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGuestAddressRepository_Get_CorruptData(t *testing.T) {
	repo, mr := setupGuestAddressRepo(t)

	require.NoError(t, mr.Set("ogura_guest_addresses:sess-bad", "{{not-json"))

	got, err := repo.Get(context.Background(), "sess-bad", "addr-1")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal guest addresses")
}

func TestGuestAddressRepository_List_DefaultFirst(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))
	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-2")))
	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-3")))
	require.NoError(t, repo.SetDefault(ctx, "sess-1", "addr-1"))

	got, err := repo.List(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "addr-1", got[0].ID)
	assert.True(t, got[0].IsDefault)
	// Remaining addresses keep their stored order.
	assert.Equal(t, "addr-3", got[1].ID)
	assert.Equal(t, "addr-2", got[2].ID)
}

func TestGuestAddressRepository_List_EmptySession(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)

	got, err := repo.List(context.Background(), "sess-new")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGuestAddressRepository_Update_Success(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	orig := guestAddress("addr-1")
	require.NoError(t, repo.Create(ctx, "sess-1", orig))

	updated := guestAddress("addr-1")
	updated.City = "Gurugram"
	updated.State = "Haryana"
	updated.CreatedAt = time.Time{}

	require.NoError(t, repo.Update(ctx, "sess-1", updated))

	got, err := repo.Get(ctx, "sess-1", "addr-1")
	require.NoError(t, err)
	assert.Equal(t, "Gurugram", got.City)
	// CreatedAt survives updates.
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
}

func TestGuestAddressRepository_Update_PreservesDefaultFlag(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))
	require.NoError(t, repo.SetDefault(ctx, "sess-1", "addr-1"))

	updated := guestAddress("addr-1")
	updated.IsDefault = false
	require.NoError(t, repo.Update(ctx, "sess-1", updated))

	got, err := repo.Get(ctx, "sess-1", "addr-1")
	require.NoError(t, err)
	assert.True(t, got.IsDefault)
}

func TestGuestAddressRepository_Update_NotFound(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)

	err := repo.Update(context.Background(), "sess-1", guestAddress("missing"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGuestAddressRepository_Delete_Success(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))
	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-2")))

	require.NoError(t, repo.Delete(ctx, "sess-1", "addr-2"))

	got, err := repo.List(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "addr-1", got[0].ID)
}

func TestGuestAddressRepository_Delete_NotFound(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)

	err := repo.Delete(context.Background(), "sess-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGuestAddressRepository_SetDefault_AtMostOne(t *testing.T) {
	repo, mr := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))
	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-2")))
	require.NoError(t, repo.SetDefault(ctx, "sess-1", "addr-1"))
	require.NoError(t, repo.SetDefault(ctx, "sess-1", "addr-2"))

	raw, err := mr.Get("ogura_guest_addresses:sess-1")
	require.NoError(t, err)

	var stored []domain.Address
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))

	defaults := 0
	for _, a := range stored {
		if a.IsDefault {
			defaults++
			assert.Equal(t, "addr-2", a.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestGuestAddressRepository_SetDefault_NotFound(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))

	err := repo.SetDefault(ctx, "sess-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGuestAddressRepository_SessionsAreIsolated(t *testing.T) {
	repo, _ := setupGuestAddressRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "sess-1", guestAddress("addr-1")))

	got, err := repo.List(ctx, "sess-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
