package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ogura/location-service/pkg/errors"
)

func newPreferencesFixture() (*PreferencesService, *mockSessionStateRepository) {
	sessions := new(mockSessionStateRepository)
	svc := NewPreferencesService(sessions, newTestLogger())
	return svc, sessions
}

func TestPreferences_RecentSearches(t *testing.T) {
	svc, sessions := newPreferencesFixture()
	ctx := context.Background()

	sessions.On("RecentSearches", ctx, "sess-1").Return([]string{"saree", "kurta"}, nil)

	got, err := svc.RecentSearches(ctx, "sess-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"saree", "kurta"}, got)
}

func TestPreferences_RecordSearch(t *testing.T) {
	svc, sessions := newPreferencesFixture()
	ctx := context.Background()

	sessions.On("AddRecentSearch", ctx, "sess-1", "lehenga").Return(nil)

	assert.NoError(t, svc.RecordSearch(ctx, "sess-1", "lehenga"))
}

func TestPreferences_RecordSearch_BlankTerm(t *testing.T) {
	svc, sessions := newPreferencesFixture()

	err := svc.RecordSearch(context.Background(), "sess-1", "   ")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	sessions.AssertNotCalled(t, "AddRecentSearch", mock.Anything, mock.Anything, mock.Anything)
}

func TestPreferences_Favorites(t *testing.T) {
	svc, sessions := newPreferencesFixture()
	ctx := context.Background()

	sessions.On("Favorites", ctx, "sess-1").Return([]string{"model-1"}, nil)

	got, err := svc.Favorites(ctx, "sess-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"model-1"}, got)
}

func TestPreferences_AddFavorite_EmptyID(t *testing.T) {
	svc, sessions := newPreferencesFixture()

	err := svc.AddFavorite(context.Background(), "sess-1", "")

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	sessions.AssertNotCalled(t, "AddFavorite", mock.Anything, mock.Anything, mock.Anything)
}

func TestPreferences_RemoveFavorite(t *testing.T) {
	svc, sessions := newPreferencesFixture()
	ctx := context.Background()

	sessions.On("RemoveFavorite", ctx, "sess-1", "model-1").Return(nil)

	assert.NoError(t, svc.RemoveFavorite(ctx, "sess-1", "model-1"))
}

func TestPreferences_RepoErrorPropagates(t *testing.T) {
	svc, sessions := newPreferencesFixture()
	ctx := context.Background()

	sessions.On("RecentSearches", ctx, "sess-1").Return(nil, errors.New("redis down"))

	got, err := svc.RecentSearches(ctx, "sess-1")

	assert.Nil(t, got)
	assert.Error(t, err)
}
