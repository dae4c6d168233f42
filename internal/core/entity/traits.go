package entity

import (
	"context"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
)

// CustomerAware is a trait for documents addressed to a customer.
// Used for composition in Sale and BulkOrder.
type CustomerAware struct {
	// CustomerID is the customer this document belongs to
	CustomerID id.ID `db:"customer_id" json:"customerId"`
}

// ValidateCustomer ensures a customer is set.
func (c *CustomerAware) ValidateCustomer(ctx context.Context) error {
	if id.IsNil(c.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	return nil
}

// GetCustomerID returns the customer ID (useful for interfaces).
func (c *CustomerAware) GetCustomerID() id.ID {
	return c.CustomerID
}

// ICustomerAware is an interface for any document that has a customer.
type ICustomerAware interface {
	GetCustomerID() id.ID
	ValidateCustomer(ctx context.Context) error
}
