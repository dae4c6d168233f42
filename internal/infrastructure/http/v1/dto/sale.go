package dto

import (
	"time"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain/documents/sale"
)

// --- Request DTOs ---

// SaleItemRequest represents one invoice line in create/item requests.
// UnitPrice falls back to the product's selling price when omitted.
type SaleItemRequest struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required,gt=0"`
	UnitPrice *types.Money `json:"unitPrice"`
}

// ToInput converts the line to a service input.
func (r *SaleItemRequest) ToInput() sale.ItemInput {
	productID, _ := id.Parse(r.ProductID)
	return sale.ItemInput{
		ProductID: productID,
		Quantity:  types.Quantity(r.Quantity),
		UnitPrice: r.UnitPrice,
	}
}

// CreateSaleRequest is the request body for creating a sale.
type CreateSaleRequest struct {
	CustomerID     string             `json:"customerId" binding:"required"`
	Date           *time.Time         `json:"date"`
	PaymentMethod  sale.PaymentMethod `json:"paymentMethod"`
	DiscountAmount types.Money        `json:"discountAmount"`
	TaxAmount      types.Money        `json:"taxAmount"`
	Notes          string             `json:"notes"`
	Items          []SaleItemRequest  `json:"items" binding:"dive"`
}

// ToEntity converts the request to a domain entity. Lines keep a zero
// unit price when none was given; the service prices them on create.
func (r *CreateSaleRequest) ToEntity() *sale.Sale {
	customerID, _ := id.Parse(r.CustomerID)

	s := sale.NewSale(customerID)
	if r.Date != nil {
		s.Date = *r.Date
	}
	if r.PaymentMethod != "" {
		s.PaymentMethod = r.PaymentMethod
	}
	s.DiscountAmount = r.DiscountAmount
	s.TaxAmount = r.TaxAmount
	s.Notes = r.Notes

	for _, item := range r.Items {
		price := types.Zero()
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		productID, _ := id.Parse(item.ProductID)
		s.AddItem(productID, types.Quantity(item.Quantity), price)
	}
	return s
}

// UpdateSaleRequest is the request body for updating a sale header.
// Items are managed through the dedicated item endpoints.
type UpdateSaleRequest struct {
	Date           *time.Time          `json:"date"`
	PaymentMethod  *sale.PaymentMethod `json:"paymentMethod"`
	DiscountAmount *types.Money        `json:"discountAmount"`
	TaxAmount      *types.Money        `json:"taxAmount"`
	Notes          *string             `json:"notes"`
	Version        int                 `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing entity.
func (r *UpdateSaleRequest) ApplyTo(s *sale.Sale) {
	if r.Date != nil {
		s.Date = *r.Date
	}
	if r.PaymentMethod != nil {
		s.PaymentMethod = *r.PaymentMethod
	}
	if r.DiscountAmount != nil {
		s.DiscountAmount = *r.DiscountAmount
	}
	if r.TaxAmount != nil {
		s.TaxAmount = *r.TaxAmount
	}
	if r.Notes != nil {
		s.Notes = *r.Notes
	}
	s.Version = r.Version
}

// RecordPaymentRequest is the request body for recording a payment.
type RecordPaymentRequest struct {
	Amount    types.Money        `json:"amount" binding:"required"`
	Method    sale.PaymentMethod `json:"paymentMethod" binding:"required"`
	Reference string             `json:"reference"`
	Notes     string             `json:"notes"`
}

// ToInput converts the request to a service input.
func (r *RecordPaymentRequest) ToInput() sale.PaymentInput {
	return sale.PaymentInput{
		Amount:    r.Amount,
		Method:    r.Method,
		Reference: r.Reference,
		Notes:     r.Notes,
	}
}

// --- Response DTOs ---

// SaleProfitResponse reports the invoice profit at current cost prices.
type SaleProfitResponse struct {
	SaleID string      `json:"saleId"`
	Profit types.Money `json:"profit"`
}
