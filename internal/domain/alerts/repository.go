// Package alerts provides stock alert evaluation and management.
package alerts

import (
	"context"
	"time"

	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/domain"
)

// Filter narrows alert listings.
type Filter struct {
	ProductID *id.ID
	AlertType *entity.AlertType
	Resolved  *bool
	Limit     int
	Offset    int
}

// Repository defines operations for stock alert persistence.
type Repository interface {
	// Create inserts a new alert.
	Create(ctx context.Context, alert *entity.StockAlert) error

	// GetByID retrieves an alert.
	GetByID(ctx context.Context, alertID id.ID) (entity.StockAlert, error)

	// ExistsUnresolved reports whether the product already has an open
	// alert of the given type.
	ExistsUnresolved(ctx context.Context, productID id.ID, alertType entity.AlertType) (bool, error)

	// ResolveForProduct marks every unresolved alert of the given types
	// resolved at the given time. Returns the number of alerts resolved.
	ResolveForProduct(ctx context.Context, productID id.ID, alertTypes []entity.AlertType, at time.Time) (int64, error)

	// Resolve marks a single alert resolved. Resolving an already
	// resolved alert reports false with no error.
	Resolve(ctx context.Context, alertID id.ID, at time.Time) (bool, error)

	// List retrieves alerts matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[entity.StockAlert], error)
}
