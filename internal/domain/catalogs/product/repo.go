package product

import (
	"context"

	"everpack/internal/core/id"
	"everpack/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves a product by SKU (the catalog code).
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindByBarcode retrieves a product by barcode.
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// GetForUpdate retrieves a product with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// FindLowStock retrieves active products whose ledger stock is at or
	// below their minimum stock level.
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// ListActive retrieves every active, non-deleted product (alert sweeps).
	ListActive(ctx context.Context) ([]*Product, error)
}
