// Package customer provides the Customer catalog.
package customer

import (
	"context"
	"regexp"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/types"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CustomerType defines the pricing tier of a customer.
type CustomerType string

const (
	TypeRetail      CustomerType = "RETAIL"
	TypeWholesale   CustomerType = "WHOLESALE"
	TypeDistributor CustomerType = "DISTRIBUTOR"
)

// Customer represents a buyer.
type Customer struct {
	entity.Catalog

	// Type defines the customer tier
	Type CustomerType `db:"customer_type" json:"customerType"`

	// Phone is the primary contact phone
	Phone string `db:"phone" json:"phone"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Address is the customer's address
	Address *string `db:"address" json:"address,omitempty"`

	// TINNumber is the tax identification number
	TINNumber *string `db:"tin_number" json:"tinNumber,omitempty"`

	// CreditLimit caps credit sales for the customer
	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`

	// IsActive indicates the customer can place orders
	IsActive bool `db:"is_active" json:"isActive"`
}

// Balances carries the derived financial position of a customer.
// Outstanding is the sum of the customer's PENDING invoice totals;
// TotalPurchases sums every invoice total regardless of status.
type Balances struct {
	Outstanding    types.Money `db:"outstanding" json:"outstanding"`
	TotalPurchases types.Money `db:"total_purchases" json:"totalPurchases"`
}

// New creates a new Customer with required fields.
func New(code, name string) *Customer {
	return &Customer{
		Catalog:     entity.NewCatalog(code, name),
		Type:        TypeRetail,
		CreditLimit: types.Zero(),
		IsActive:    true,
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidCustomerType(c.Type) {
		return apperror.NewValidation("invalid customer type").
			WithDetail("field", "customerType").
			WithDetail("value", string(c.Type))
	}

	if c.Phone == "" {
		return apperror.NewValidation("phone is required").
			WithDetail("field", "phone")
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative").
			WithDetail("field", "creditLimit")
	}

	return nil
}

// --- Validation Helpers ---

func isValidCustomerType(t CustomerType) bool {
	switch t {
	case TypeRetail, TypeWholesale, TypeDistributor:
		return true
	}
	return false
}
