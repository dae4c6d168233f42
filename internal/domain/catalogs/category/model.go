// Package category provides the product Category catalog.
package category

import (
	"context"

	"everpack/internal/core/entity"
)

// Category groups products (bags, tapes, wraps, disposables, ...).
// Names are unique across the catalog.
type Category struct {
	entity.Catalog

	// Description is a free-form note
	Description *string `db:"description" json:"description,omitempty"`
}

// New creates a new Category with required fields.
func New(code, name string) *Category {
	return &Category{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Category) Validate(ctx context.Context) error {
	return c.Catalog.Validate(ctx)
}
