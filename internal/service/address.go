package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ogura/location-service/internal/domain"
	"github.com/ogura/location-service/internal/event"
	"github.com/ogura/location-service/internal/repository"
	apperrors "github.com/ogura/location-service/pkg/errors"
)

// AddressService implements the address book. Authenticated users get the
// PostgreSQL store, guests get the Redis session store; the split is decided
// per request from the scope and is invisible above this layer.
type AddressService struct {
	userAddresses  repository.AddressRepository
	guestAddresses repository.AddressRepository
	sessions       repository.SessionStateRepository
	producer       *event.Producer
	logger         *slog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(
	userAddresses repository.AddressRepository,
	guestAddresses repository.AddressRepository,
	sessions repository.SessionStateRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *AddressService {
	return &AddressService{
		userAddresses:  userAddresses,
		guestAddresses: guestAddresses,
		sessions:       sessions,
		producer:       producer,
		logger:         logger,
	}
}

func (s *AddressService) repoFor(scope domain.Scope) repository.AddressRepository {
	if scope.Authenticated() {
		return s.userAddresses
	}
	return s.guestAddresses
}

// AddressInput holds the fields for creating or updating an address.
type AddressInput struct {
	FullName    string `json:"full_name" validate:"required"`
	Mobile      string `json:"mobile" validate:"required,len=10,numeric"`
	Pincode     string `json:"pincode" validate:"required,len=6,numeric"`
	AddressLine string `json:"address_line" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Landmark    string `json:"landmark"`
	AddressType string `json:"address_type" validate:"required,oneof=home work"`
	IsDefault   bool   `json:"is_default"`
}

// AddressBook is an address list together with the session's current
// selection.
type AddressBook struct {
	Addresses  []domain.Address `json:"addresses"`
	SelectedID string           `json:"selected_id,omitempty"`
}

// List returns the scope's addresses and reconciles the selection: a
// dangling selection is replaced by the default address, else the first,
// and cleared when the list is empty.
func (s *AddressService) List(ctx context.Context, scope domain.Scope) (*AddressBook, error) {
	addresses, err := s.repoFor(scope).List(ctx, scope.Owner())
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	selectedID, err := s.sessions.GetSelectedAddress(ctx, scope.SessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "selected address read failed",
			slog.String("session_id", scope.SessionID),
			slog.String("error", err.Error()),
		)
		selectedID = ""
	}

	selectedID = s.reconcileSelection(ctx, scope, addresses, selectedID)

	return &AddressBook{Addresses: addresses, SelectedID: selectedID}, nil
}

// Get retrieves a single address.
func (s *AddressService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.Address, error) {
	address, err := s.repoFor(scope).Get(ctx, scope.Owner(), id)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return address, nil
}

// Add creates an address and selects it as the session's current address.
// When the input asks for the default flag, the new address goes through
// the same default path as SetDefault, so the at-most-one invariant holds.
func (s *AddressService) Add(ctx context.Context, scope domain.Scope, input *AddressInput) (*domain.Address, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("address input is required")
	}

	now := time.Now().UTC()
	address := &domain.Address{
		ID:          uuid.New().String(),
		UserID:      scope.UserID,
		FullName:    input.FullName,
		Mobile:      input.Mobile,
		Pincode:     input.Pincode,
		AddressLine: input.AddressLine,
		City:        input.City,
		State:       input.State,
		Landmark:    input.Landmark,
		AddressType: domain.AddressType(input.AddressType),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	repo := s.repoFor(scope)
	if err := repo.Create(ctx, scope.Owner(), address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	if input.IsDefault {
		if err := repo.SetDefault(ctx, scope.Owner(), address.ID); err != nil {
			return nil, fmt.Errorf("set default on new address: %w", err)
		}
		address.IsDefault = true
	}

	if err := s.sessions.SetSelectedAddress(ctx, scope.SessionID, address.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to select new address",
			slog.String("address_id", address.ID),
			slog.String("error", err.Error()),
		)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishAddressCreated(ctx, scope, address); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish address.created event",
			slog.String("address_id", address.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "address created",
		slog.String("address_id", address.ID),
		slog.String("city", address.City),
		slog.Bool("authenticated", scope.Authenticated()),
	)

	return address, nil
}

// Update modifies an existing address. The stored record is only replaced
// once the backing store confirms the write.
func (s *AddressService) Update(ctx context.Context, scope domain.Scope, id string, input *AddressInput) (*domain.Address, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("address input is required")
	}

	address := &domain.Address{
		ID:          id,
		UserID:      scope.UserID,
		FullName:    input.FullName,
		Mobile:      input.Mobile,
		Pincode:     input.Pincode,
		AddressLine: input.AddressLine,
		City:        input.City,
		State:       input.State,
		Landmark:    input.Landmark,
		AddressType: domain.AddressType(input.AddressType),
		UpdatedAt:   time.Now().UTC(),
	}

	repo := s.repoFor(scope)
	if err := repo.Update(ctx, scope.Owner(), address); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}

	updated, err := repo.Get(ctx, scope.Owner(), id)
	if err != nil {
		return nil, fmt.Errorf("reload updated address: %w", err)
	}

	s.logger.InfoContext(ctx, "address updated",
		slog.String("address_id", id),
	)

	return updated, nil
}

// Remove deletes an address. When the deleted address was selected, the
// selection falls back to the first remaining address, or is cleared when
// none remain.
func (s *AddressService) Remove(ctx context.Context, scope domain.Scope, id string) error {
	repo := s.repoFor(scope)

	address, err := repo.Get(ctx, scope.Owner(), id)
	if err != nil {
		return fmt.Errorf("get address for removal: %w", err)
	}

	if err := repo.Delete(ctx, scope.Owner(), id); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	selectedID, err := s.sessions.GetSelectedAddress(ctx, scope.SessionID)
	if err == nil && selectedID == id {
		remaining, listErr := repo.List(ctx, scope.Owner())
		switch {
		case listErr != nil:
			s.logger.WarnContext(ctx, "failed to list addresses after removal",
				slog.String("error", listErr.Error()),
			)
		case len(remaining) == 0:
			if err := s.sessions.ClearSelectedAddress(ctx, scope.SessionID); err != nil {
				s.logger.WarnContext(ctx, "failed to clear address selection",
					slog.String("error", err.Error()),
				)
			}
		default:
			if err := s.sessions.SetSelectedAddress(ctx, scope.SessionID, remaining[0].ID); err != nil {
				s.logger.WarnContext(ctx, "failed to reassign address selection",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishAddressDeleted(ctx, scope, address); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish address.deleted event",
			slog.String("address_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "address removed",
		slog.String("address_id", id),
	)

	return nil
}

// Select marks an existing address as the session's current address.
func (s *AddressService) Select(ctx context.Context, scope domain.Scope, id string) error {
	if _, err := s.repoFor(scope).Get(ctx, scope.Owner(), id); err != nil {
		return fmt.Errorf("get address for selection: %w", err)
	}

	if err := s.sessions.SetSelectedAddress(ctx, scope.SessionID, id); err != nil {
		return fmt.Errorf("set selected address: %w", err)
	}

	return nil
}

// SetDefault marks an address as the scope's default. At most one address
// is ever flagged; the previous default is unset in the same operation.
func (s *AddressService) SetDefault(ctx context.Context, scope domain.Scope, id string) error {
	if err := s.repoFor(scope).SetDefault(ctx, scope.Owner(), id); err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	s.logger.InfoContext(ctx, "default address set",
		slog.String("address_id", id),
	)

	return nil
}

// reconcileSelection validates the stored selection against the current
// list and repairs it when needed. Returns the effective selection.
func (s *AddressService) reconcileSelection(ctx context.Context, scope domain.Scope, addresses []domain.Address, selectedID string) string {
	if len(addresses) == 0 {
		if selectedID != "" {
			if err := s.sessions.ClearSelectedAddress(ctx, scope.SessionID); err != nil {
				s.logger.WarnContext(ctx, "failed to clear dangling address selection",
					slog.String("error", err.Error()),
				)
			}
		}
		return ""
	}

	if selectedID != "" {
		for _, a := range addresses {
			if a.ID == selectedID {
				return selectedID
			}
		}
	}

	// Auto-select the default address, else the first.
	effective := addresses[0].ID
	for _, a := range addresses {
		if a.IsDefault {
			effective = a.ID
			break
		}
	}

	if err := s.sessions.SetSelectedAddress(ctx, scope.SessionID, effective); err != nil {
		s.logger.WarnContext(ctx, "failed to persist reconciled address selection",
			slog.String("error", err.Error()),
		)
	}

	return effective
}
