package dto

import (
	"everpack/internal/domain/catalogs/supplier"
)

// --- Request DTOs ---

// CreateSupplierRequest is the request body for creating a supplier.
type CreateSupplierRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name" binding:"required"`
	ContactPerson string  `json:"contactPerson"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email"`
	Address       string  `json:"address"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.New(r.Code, r.Name)
	s.ContactPerson = r.ContactPerson
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
	return s
}

// UpdateSupplierRequest is the request body for updating a supplier.
type UpdateSupplierRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name" binding:"required"`
	ContactPerson string  `json:"contactPerson"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email"`
	Address       string  `json:"address"`
	IsActive      bool    `json:"isActive"`
	Version       int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing entity.
func (r *UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	if r.Code != "" {
		s.Code = r.Code
	}
	s.Name = r.Name
	s.ContactPerson = r.ContactPerson
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
	s.IsActive = r.IsActive
	s.Version = r.Version
}

// --- Response DTOs ---

// SupplierResponse is the response body for a supplier.
type SupplierResponse struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	ContactPerson string  `json:"contactPerson"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email,omitempty"`
	Address       string  `json:"address"`
	IsActive      bool    `json:"isActive"`
	DeletionMark  bool    `json:"deletionMark"`
	Version       int     `json:"version"`
}

// FromSupplier creates a response DTO from a domain entity.
func FromSupplier(s *supplier.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:            s.ID.String(),
		Code:          s.Code,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		IsActive:      s.IsActive,
		DeletionMark:  s.DeletionMark,
		Version:       s.Version,
	}
}
