package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogura/location-service/internal/domain"
	pkgkafka "github.com/ogura/location-service/pkg/kafka"
)

// Kafka topic constants for location domain events.
const (
	TopicLocationChanged = "ogura.location.changed"
	TopicAddressCreated  = "ogura.address.created"
	TopicAddressDeleted  = "ogura.address.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeSession = "session"
	AggregateTypeAddress = "address"
)

// Source identifier for events originating from the location service.
const SourceLocationService = "location-service"

// LocationChangedData is the payload for a location.changed event.
type LocationChangedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Pincode   string `json:"pincode,omitempty"`
	Source    string `json:"source"`
}

// AddressChangedData is the payload for address.created and address.deleted
// events.
type AddressChangedData struct {
	AddressID string `json:"address_id"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
}

// Producer publishes location domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the location service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishLocationChanged publishes a location.changed event.
func (p *Producer) PublishLocationChanged(ctx context.Context, scope domain.Scope, state *domain.LocationState) error {
	data := LocationChangedData{
		SessionID: scope.SessionID,
		UserID:    scope.UserID,
		City:      state.Location.City,
		State:     state.Location.State,
		Country:   state.Location.Country,
		Pincode:   state.Location.Pincode,
		Source:    string(state.Source),
	}

	event, err := pkgkafka.NewEvent(TopicLocationChanged, scope.SessionID, AggregateTypeSession, SourceLocationService, data)
	if err != nil {
		return fmt.Errorf("create location.changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicLocationChanged, event); err != nil {
		return fmt.Errorf("publish location.changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published location.changed event",
		slog.String("session_id", scope.SessionID),
		slog.String("city", state.Location.City),
	)

	return nil
}

// PublishAddressCreated publishes an address.created event.
func (p *Producer) PublishAddressCreated(ctx context.Context, scope domain.Scope, address *domain.Address) error {
	return p.publishAddressEvent(ctx, TopicAddressCreated, scope, address)
}

// PublishAddressDeleted publishes an address.deleted event.
func (p *Producer) PublishAddressDeleted(ctx context.Context, scope domain.Scope, address *domain.Address) error {
	return p.publishAddressEvent(ctx, TopicAddressDeleted, scope, address)
}

func (p *Producer) publishAddressEvent(ctx context.Context, topic string, scope domain.Scope, address *domain.Address) error {
	data := AddressChangedData{
		AddressID: address.ID,
		SessionID: scope.SessionID,
		UserID:    scope.UserID,
		City:      address.City,
		Pincode:   address.Pincode,
	}

	event, err := pkgkafka.NewEvent(topic, address.ID, AggregateTypeAddress, SourceLocationService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published address event",
		slog.String("topic", topic),
		slog.String("address_id", address.ID),
	)

	return nil
}
