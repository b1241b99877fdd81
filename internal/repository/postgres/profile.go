package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ogura/location-service/internal/domain"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

// ProfileRepository implements repository.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves the profile row for the given user.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, city, state, country, pincode, latitude, longitude, updated_at
		FROM profiles
		WHERE user_id = $1`

	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.City,
		&p.State,
		&p.Country,
		&p.Pincode,
		&p.Latitude,
		&p.Longitude,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	return &p, nil
}

// Upsert creates or replaces the location fields of a user's profile.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, city, state, country, pincode, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET city = EXCLUDED.city, state = EXCLUDED.state, country = EXCLUDED.country,
		    pincode = EXCLUDED.pincode, latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude, updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		p.UserID,
		p.City,
		p.State,
		p.Country,
		p.Pincode,
		p.Latitude,
		p.Longitude,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}
