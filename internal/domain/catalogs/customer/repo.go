package customer

import (
	"context"

	"everpack/internal/core/id"
	"everpack/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// GetForUpdate retrieves a customer with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Customer, error)

	// GetBalances derives the customer's outstanding balance (sum of
	// PENDING invoice totals) and lifetime purchases from the sales table.
	GetBalances(ctx context.Context, id id.ID) (Balances, error)
}
