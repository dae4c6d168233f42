package dto

import (
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain/registers/stock"
)

// --- Request DTOs ---

// CreateMovementRequest is the request body for recording a stock movement.
type CreateMovementRequest struct {
	ProductID    string `json:"productId" binding:"required"`
	MovementType string `json:"movementType" binding:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity     int64  `json:"quantity" binding:"required,gt=0"`
	Reason       string `json:"reason" binding:"required"`
	Reference    string `json:"reference"`
	Notes        string `json:"notes"`
}

// ToInput converts the request to a service input.
func (r *CreateMovementRequest) ToInput() stock.MovementInput {
	productID, _ := id.Parse(r.ProductID)
	return stock.MovementInput{
		ProductID:    productID,
		MovementType: entity.MovementType(r.MovementType),
		Quantity:     types.Quantity(r.Quantity),
		Reason:       entity.MovementReason(r.Reason),
		Reference:    r.Reference,
		Notes:        r.Notes,
	}
}

// --- Response DTOs ---

// StockLevelResponse reports the current balance for one product.
type StockLevelResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}

// StockValueResponse reports the balance valued at cost price.
type StockValueResponse struct {
	ProductID string      `json:"productId"`
	Value     types.Money `json:"value"`
}
