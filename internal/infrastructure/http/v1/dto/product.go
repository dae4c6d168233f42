package dto

import (
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
// The SKU becomes the catalog code; when empty one is generated.
type CreateProductRequest struct {
	SKU          string       `json:"sku"`
	Name         string       `json:"name" binding:"required"`
	Description  *string      `json:"description"`
	Barcode      *string      `json:"barcode"`
	Unit         product.Unit `json:"unit"`
	CategoryID   string       `json:"categoryId" binding:"required"`
	SupplierID   string       `json:"supplierId" binding:"required"`
	CostPrice    types.Money  `json:"costPrice"`
	SellingPrice types.Money  `json:"sellingPrice"`
	MinimumStock *int64       `json:"minimumStock"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	categoryID, _ := id.Parse(r.CategoryID)
	supplierID, _ := id.Parse(r.SupplierID)

	p := product.New(r.SKU, r.Name, categoryID, supplierID)
	p.Description = r.Description
	p.Barcode = r.Barcode
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	p.CostPrice = r.CostPrice
	p.SellingPrice = r.SellingPrice
	if r.MinimumStock != nil {
		p.MinimumStock = *r.MinimumStock
	}
	return p
}

// UpdateProductRequest is the request body for updating a product.
// The SKU (catalog code) is immutable and cannot be changed here.
type UpdateProductRequest struct {
	Name         string       `json:"name" binding:"required"`
	Description  *string      `json:"description"`
	Barcode      *string      `json:"barcode"`
	Unit         product.Unit `json:"unit"`
	CategoryID   string       `json:"categoryId" binding:"required"`
	SupplierID   string       `json:"supplierId" binding:"required"`
	CostPrice    types.Money  `json:"costPrice"`
	SellingPrice types.Money  `json:"sellingPrice"`
	MinimumStock int64        `json:"minimumStock"`
	IsActive     bool         `json:"isActive"`
	Version      int          `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	categoryID, _ := id.Parse(r.CategoryID)
	supplierID, _ := id.Parse(r.SupplierID)

	p.Name = r.Name
	p.Description = r.Description
	p.Barcode = r.Barcode
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	p.CategoryID = categoryID
	p.SupplierID = supplierID
	p.CostPrice = r.CostPrice
	p.SellingPrice = r.SellingPrice
	p.MinimumStock = r.MinimumStock
	p.IsActive = r.IsActive
	p.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID           string       `json:"id"`
	SKU          string       `json:"sku"`
	Name         string       `json:"name"`
	Description  *string      `json:"description,omitempty"`
	Barcode      *string      `json:"barcode,omitempty"`
	Unit         product.Unit `json:"unit"`
	CategoryID   string       `json:"categoryId"`
	SupplierID   string       `json:"supplierId"`
	CostPrice    types.Money  `json:"costPrice"`
	SellingPrice types.Money  `json:"sellingPrice"`
	MinimumStock int64        `json:"minimumStock"`
	IsActive     bool         `json:"isActive"`
	DeletionMark bool         `json:"deletionMark"`
	Version      int          `json:"version"`
}

// FromProduct creates a response DTO from a domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU(),
		Name:         p.Name,
		Description:  p.Description,
		Barcode:      p.Barcode,
		Unit:         p.Unit,
		CategoryID:   p.CategoryID.String(),
		SupplierID:   p.SupplierID.String(),
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		MinimumStock: p.MinimumStock,
		IsActive:     p.IsActive,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}
