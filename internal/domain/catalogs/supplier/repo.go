package supplier

import (
	"context"

	"everpack/internal/core/id"
	"everpack/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// GetForUpdate retrieves a supplier with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Supplier, error)
}
