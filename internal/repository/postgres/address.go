package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ogura/location-service/internal/domain"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

// AddressRepository implements repository.AddressRepository for
// authenticated users. The owner key is the user ID.
type AddressRepository struct {
	db DB
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(db DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// Create inserts a new address row for the user.
func (r *AddressRepository) Create(ctx context.Context, owner string, a *domain.Address) error {
	query := `
		INSERT INTO addresses (id, user_id, full_name, mobile, pincode, address_line, city, state, landmark, address_type, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		owner,
		a.FullName,
		a.Mobile,
		a.Pincode,
		a.AddressLine,
		a.City,
		a.State,
		a.Landmark,
		a.AddressType,
		a.IsDefault,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return nil
}

// Get retrieves a single address owned by the user.
func (r *AddressRepository) Get(ctx context.Context, owner, id string) (*domain.Address, error) {
	query := `
		SELECT id, user_id, full_name, mobile, pincode, address_line, city, state, landmark, address_type, is_default, created_at, updated_at
		FROM addresses
		WHERE id = $1 AND user_id = $2`

	var a domain.Address
	err := r.db.QueryRow(ctx, query, id, owner).Scan(
		&a.ID,
		&a.UserID,
		&a.FullName,
		&a.Mobile,
		&a.Pincode,
		&a.AddressLine,
		&a.City,
		&a.State,
		&a.Landmark,
		&a.AddressType,
		&a.IsDefault,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	return &a, nil
}

// List returns all addresses for the user, default first, then newest first.
func (r *AddressRepository) List(ctx context.Context, owner string) ([]domain.Address, error) {
	query := `
		SELECT id, user_id, full_name, mobile, pincode, address_line, city, state, landmark, address_type, is_default, created_at, updated_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.FullName,
			&a.Mobile,
			&a.Pincode,
			&a.AddressLine,
			&a.City,
			&a.State,
			&a.Landmark,
			&a.AddressType,
			&a.IsDefault,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	if addresses == nil {
		addresses = []domain.Address{}
	}

	return addresses, nil
}

// Update modifies an existing address owned by the user.
func (r *AddressRepository) Update(ctx context.Context, owner string, a *domain.Address) error {
	query := `
		UPDATE addresses
		SET full_name = $1, mobile = $2, pincode = $3, address_line = $4,
		    city = $5, state = $6, landmark = $7, address_type = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11`

	ct, err := r.db.Exec(ctx, query,
		a.FullName,
		a.Mobile,
		a.Pincode,
		a.AddressLine,
		a.City,
		a.State,
		a.Landmark,
		a.AddressType,
		a.UpdatedAt,
		a.ID,
		owner,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", a.ID)
	}

	return nil
}

// Delete removes an address owned by the user.
func (r *AddressRepository) Delete(ctx context.Context, owner, id string) error {
	query := `DELETE FROM addresses WHERE id = $1 AND user_id = $2`

	ct, err := r.db.Exec(ctx, query, id, owner)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}

	return nil
}

// SetDefault marks the specified address as the user's default, unsetting
// any previous default within a transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, owner, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default = true`,
		owner,
	)
	if err != nil {
		return fmt.Errorf("unset default address: %w", err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE addresses SET is_default = true WHERE id = $1 AND user_id = $2`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
