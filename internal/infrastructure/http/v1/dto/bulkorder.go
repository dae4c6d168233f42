package dto

import (
	"time"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain/documents/bulkorder"
)

// --- Request DTOs ---

// BulkOrderItemRequest represents one order line in create/item requests.
// UnitPrice falls back to the product's selling price when omitted.
type BulkOrderItemRequest struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required,gt=0"`
	UnitPrice *types.Money `json:"unitPrice"`
	Notes     string       `json:"notes"`
}

// ToInput converts the line to a service input.
func (r *BulkOrderItemRequest) ToInput() bulkorder.ItemInput {
	productID, _ := id.Parse(r.ProductID)
	return bulkorder.ItemInput{
		ProductID: productID,
		Quantity:  types.Quantity(r.Quantity),
		UnitPrice: r.UnitPrice,
		Notes:     r.Notes,
	}
}

// CreateBulkOrderRequest is the request body for creating a bulk order.
type CreateBulkOrderRequest struct {
	CustomerID string                 `json:"customerId" binding:"required"`
	Date       *time.Time             `json:"date"`
	Notes      string                 `json:"notes"`
	Items      []BulkOrderItemRequest `json:"items" binding:"dive"`
}

// ToEntity converts the request to a domain entity. Lines keep a zero
// unit price when none was given; the service prices them on create.
func (r *CreateBulkOrderRequest) ToEntity() *bulkorder.BulkOrder {
	customerID, _ := id.Parse(r.CustomerID)

	b := bulkorder.New(customerID)
	if r.Date != nil {
		b.Date = *r.Date
	}
	b.Notes = r.Notes

	for _, item := range r.Items {
		price := types.Zero()
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		productID, _ := id.Parse(item.ProductID)
		b.AddItem(productID, types.Quantity(item.Quantity), price, item.Notes)
	}
	return b
}

// UpdateBulkOrderRequest is the request body for updating an order header.
// Items are managed through the dedicated item endpoints and only in DRAFT.
type UpdateBulkOrderRequest struct {
	Date    *time.Time `json:"date"`
	Notes   *string    `json:"notes"`
	Version int        `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing entity.
func (r *UpdateBulkOrderRequest) ApplyTo(b *bulkorder.BulkOrder) {
	if r.Date != nil {
		b.Date = *r.Date
	}
	if r.Notes != nil {
		b.Notes = *r.Notes
	}
	b.Version = r.Version
}

// --- Response DTOs ---

// ConvertResponse reports the sale created from a bulk order.
type ConvertResponse struct {
	OrderID string `json:"orderId"`
	SaleID  string `json:"saleId"`
	Number  string `json:"number"`
}
