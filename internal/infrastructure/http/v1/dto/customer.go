package dto

import (
	"everpack/internal/core/types"
	"everpack/internal/domain/catalogs/customer"
)

// --- Request DTOs ---

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Code        string                `json:"code"`
	Name        string                `json:"name" binding:"required"`
	Type        customer.CustomerType `json:"customerType"`
	Phone       string                `json:"phone"`
	Email       *string               `json:"email"`
	Address     *string               `json:"address"`
	TINNumber   *string               `json:"tinNumber"`
	CreditLimit types.Money           `json:"creditLimit"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.New(r.Code, r.Name)
	if r.Type != "" {
		c.Type = r.Type
	}
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.TINNumber = r.TINNumber
	c.CreditLimit = r.CreditLimit
	return c
}

// UpdateCustomerRequest is the request body for updating a customer.
type UpdateCustomerRequest struct {
	Code        string                `json:"code"`
	Name        string                `json:"name" binding:"required"`
	Type        customer.CustomerType `json:"customerType"`
	Phone       string                `json:"phone"`
	Email       *string               `json:"email"`
	Address     *string               `json:"address"`
	TINNumber   *string               `json:"tinNumber"`
	CreditLimit types.Money           `json:"creditLimit"`
	IsActive    bool                  `json:"isActive"`
	Version     int                   `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing entity.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	if r.Code != "" {
		c.Code = r.Code
	}
	c.Name = r.Name
	if r.Type != "" {
		c.Type = r.Type
	}
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.TINNumber = r.TINNumber
	c.CreditLimit = r.CreditLimit
	c.IsActive = r.IsActive
	c.Version = r.Version
}

// --- Response DTOs ---

// CustomerResponse is the response body for a customer.
type CustomerResponse struct {
	ID           string                `json:"id"`
	Code         string                `json:"code"`
	Name         string                `json:"name"`
	Type         customer.CustomerType `json:"customerType"`
	Phone        string                `json:"phone"`
	Email        *string               `json:"email,omitempty"`
	Address      *string               `json:"address,omitempty"`
	TINNumber    *string               `json:"tinNumber,omitempty"`
	CreditLimit  types.Money           `json:"creditLimit"`
	IsActive     bool                  `json:"isActive"`
	DeletionMark bool                  `json:"deletionMark"`
	Version      int                   `json:"version"`
}

// FromCustomer creates a response DTO from a domain entity.
func FromCustomer(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		Name:         c.Name,
		Type:         c.Type,
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      c.Address,
		TINNumber:    c.TINNumber,
		CreditLimit:  c.CreditLimit,
		IsActive:     c.IsActive,
		DeletionMark: c.DeletionMark,
		Version:      c.Version,
	}
}
