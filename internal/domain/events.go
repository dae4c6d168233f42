package domain

import (
	"context"

	"everpack/internal/core/id"
)

// Event is a domain event destined for the transactional outbox.
type Event struct {
	// AggregateType names the entity kind (e.g., "Sale", "StockAlert")
	AggregateType string

	// AggregateID is the entity the event is about
	AggregateID id.ID

	// EventType is the routing key (e.g., "sale.created")
	EventType string

	// Payload is marshalled to JSON by the publisher
	Payload any
}

// Event types emitted by the domain services.
const (
	EventSaleCreated        = "sale.created"
	EventBulkOrderConverted = "bulkorder.converted"
	EventAlertCreated       = "alert.created"
)

// EventPublisher writes events to the outbox within the current transaction.
// Implementations must be safe to call with a nil receiver check upstream;
// services treat a nil publisher as "events disabled".
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
