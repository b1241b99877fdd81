package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ogura/location-service/internal/domain"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

// DeliveryZoneRepository implements repository.DeliveryZoneRepository using
// PostgreSQL.
type DeliveryZoneRepository struct {
	db DB
}

// NewDeliveryZoneRepository creates a new PostgreSQL-backed delivery zone
// repository.
func NewDeliveryZoneRepository(db DB) *DeliveryZoneRepository {
	return &DeliveryZoneRepository{db: db}
}

// GetByPincode retrieves the serviceability row for a pincode.
func (r *DeliveryZoneRepository) GetByPincode(ctx context.Context, pincode string) (*domain.DeliveryZone, error) {
	query := `
		SELECT pincode, is_deliverable, delivery_days, express_available, city, state
		FROM delivery_zones
		WHERE pincode = $1`

	var z domain.DeliveryZone
	err := r.db.QueryRow(ctx, query, pincode).Scan(
		&z.Pincode,
		&z.IsDeliverable,
		&z.DeliveryDays,
		&z.ExpressAvailable,
		&z.City,
		&z.State,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan delivery zone: %w", err)
	}

	return &z, nil
}
