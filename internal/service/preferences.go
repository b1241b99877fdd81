package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ogura/location-service/internal/repository"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

// PreferencesService manages lightweight per-session state: recent search
// terms and favorited model IDs.
type PreferencesService struct {
	sessions repository.SessionStateRepository
	logger   *slog.Logger
}

// NewPreferencesService creates a new preferences service.
func NewPreferencesService(sessions repository.SessionStateRepository, logger *slog.Logger) *PreferencesService {
	return &PreferencesService{
		sessions: sessions,
		logger:   logger,
	}
}

// RecentSearches returns the session's search history, newest first.
func (s *PreferencesService) RecentSearches(ctx context.Context, sessionID string) ([]string, error) {
	searches, err := s.sessions.RecentSearches(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	return searches, nil
}

// RecordSearch stores a search term in the session's history.
func (s *PreferencesService) RecordSearch(ctx context.Context, sessionID, term string) error {
	if strings.TrimSpace(term) == "" {
		return apperrors.InvalidInput("search term is required")
	}

	if err := s.sessions.AddRecentSearch(ctx, sessionID, term); err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	return nil
}

// Favorites returns the session's favorited model IDs.
func (s *PreferencesService) Favorites(ctx context.Context, sessionID string) ([]string, error) {
	favorites, err := s.sessions.Favorites(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("favorites: %w", err)
	}
	return favorites, nil
}

// AddFavorite favorites a model for the session.
func (s *PreferencesService) AddFavorite(ctx context.Context, sessionID, modelID string) error {
	if modelID == "" {
		return apperrors.InvalidInput("model id is required")
	}

	if err := s.sessions.AddFavorite(ctx, sessionID, modelID); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	return nil
}

// RemoveFavorite unfavorites a model for the session. Removing an ID that
// was never favorited is a no-op.
func (s *PreferencesService) RemoveFavorite(ctx context.Context, sessionID, modelID string) error {
	if modelID == "" {
		return apperrors.InvalidInput("model id is required")
	}

	if err := s.sessions.RemoveFavorite(ctx, sessionID, modelID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	return nil
}
