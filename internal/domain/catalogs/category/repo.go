package category

import (
	"context"

	"everpack/internal/domain"
)

// Repository defines the interface for Category persistence.
type Repository interface {
	domain.CatalogRepository[*Category]

	// FindByName retrieves a category by exact name (unique).
	FindByName(ctx context.Context, name string) (*Category, error)
}
