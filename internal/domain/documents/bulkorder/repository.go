package bulkorder

import (
	"context"
	"time"

	"everpack/internal/core/id"
	"everpack/internal/domain"
)

// Repository defines persistence operations for bulk orders.
type Repository interface {
	// Create inserts the order header
	Create(ctx context.Context, b *BulkOrder) error

	// GetByID retrieves the header (items loaded separately)
	GetByID(ctx context.Context, orderID id.ID) (*BulkOrder, error)

	// GetByNumber retrieves the header by order number
	GetByNumber(ctx context.Context, number string) (*BulkOrder, error)

	// GetForUpdate retrieves the header with a row lock
	GetForUpdate(ctx context.Context, orderID id.ID) (*BulkOrder, error)

	// Update modifies the header (optimistic locking via version)
	Update(ctx context.Context, b *BulkOrder) error

	// Delete removes the order and its items
	Delete(ctx context.Context, orderID id.ID) error

	// GetItems retrieves the order's lines
	GetItems(ctx context.Context, orderID id.ID) ([]Item, error)

	// SaveItems replaces the order's lines
	SaveItems(ctx context.Context, orderID id.ID, items []Item) error

	// List retrieves orders matching the filter
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*BulkOrder], error)
}

// ListFilter narrows List results.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *Status
	CreatedBy  string
	DateFrom   *time.Time
	DateTo     *time.Time
}
