// Package documents provides helpers shared by document services.
package documents

import (
	"context"
	"fmt"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain/catalogs/product"
)

// ProductSource supplies products for price resolution.
type ProductSource interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// PriceResolver determines the unit price for a document line.
type PriceResolver struct {
	products ProductSource
}

// NewPriceResolver creates a new PriceResolver.
func NewPriceResolver(products ProductSource) *PriceResolver {
	return &PriceResolver{products: products}
}

// ResolveUnitPrice determines the line price based on explicit input or the
// product's current selling price.
func (r *PriceResolver) ResolveUnitPrice(
	ctx context.Context,
	productID id.ID,
	explicit *types.Money,
) (types.Money, error) {
	// 1. Explicit price on the line
	if explicit != nil {
		return *explicit, nil
	}

	// 2. Product selling price
	p, err := r.products.GetByID(ctx, productID)
	if err != nil {
		return types.Zero(), fmt.Errorf("failed to determine unit price: %w", err)
	}

	return p.SellingPrice, nil
}
