// Package product provides the Product catalog.
// Products are the packaging goods the business stocks and sells.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

// Unit defines the sales unit of a product.
type Unit string

const (
	UnitPack   Unit = "PACK"
	UnitCarton Unit = "CARTON"
	UnitPiece  Unit = "PIECE"
	UnitRoll   Unit = "ROLL"
)

// DefaultMinimumStock is the reorder threshold applied when none is given.
const DefaultMinimumStock = 10

// Product represents a stocked item.
// The catalog Code field holds the SKU; it is unique and immutable after creation.
type Product struct {
	entity.Catalog

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`

	// Barcode is the item barcode (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Unit is the sales unit
	Unit Unit `db:"unit" json:"unit"`

	// CategoryID is the reference to the product category
	CategoryID id.ID `db:"category_id" json:"categoryId"`

	// SupplierID is the reference to the primary supplier
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// CostPrice is the purchase price per unit
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// SellingPrice is the sales price per unit
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// MinimumStock is the reorder threshold; at or below it the item is low on stock
	MinimumStock int64 `db:"minimum_stock" json:"minimumStock"`

	// IsActive indicates the product can be sold and restocked
	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates a new Product with required fields.
// SKU becomes the catalog code.
func New(sku, name string, categoryID, supplierID id.ID) *Product {
	return &Product{
		Catalog:      entity.NewCatalog(sku, name),
		Unit:         UnitPack,
		CategoryID:   categoryID,
		SupplierID:   supplierID,
		CostPrice:    types.Zero(),
		SellingPrice: types.Zero(),
		MinimumStock: DefaultMinimumStock,
		IsActive:     true,
	}
}

// SKU returns the stock keeping unit (the catalog code).
func (p *Product) SKU() string {
	return p.Code
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	// SKU is user-assigned, never generated
	if p.Code == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if !isValidUnit(p.Unit) {
		return apperror.NewValidation("invalid unit").
			WithDetail("field", "unit").
			WithDetail("value", string(p.Unit))
	}

	if id.IsNil(p.CategoryID) {
		return apperror.NewValidation("category is required").
			WithDetail("field", "categoryId")
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price cannot be negative").
			WithDetail("field", "costPrice")
	}

	if p.SellingPrice.IsNegative() {
		return apperror.NewValidation("selling price cannot be negative").
			WithDetail("field", "sellingPrice")
	}

	if p.MinimumStock < 0 {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minimumStock")
	}

	return nil
}

// IsLowStock reports whether the given stock level is at or below the minimum.
func (p *Product) IsLowStock(currentStock int64) bool {
	return currentStock <= p.MinimumStock
}

// StockValue returns currentStock * cost price.
func (p *Product) StockValue(currentStock int64) types.Money {
	return p.CostPrice.Mul(decimal.NewFromInt(currentStock))
}

// ProfitMargin returns (selling - cost) / cost * 100.
// Returns zero when the cost price is zero.
func (p *Product) ProfitMargin() types.Money {
	if !p.CostPrice.IsPositive() {
		return types.Zero()
	}
	return p.SellingPrice.Sub(p.CostPrice).Div(p.CostPrice).Mul(decimal.NewFromInt(100))
}

// UnitProfit returns selling price minus cost price.
func (p *Product) UnitProfit() types.Money {
	return p.SellingPrice.Sub(p.CostPrice)
}

// --- Validation Helpers ---

func isValidUnit(u Unit) bool {
	switch u {
	case UnitPack, UnitCarton, UnitPiece, UnitRoll:
		return true
	}
	return false
}
