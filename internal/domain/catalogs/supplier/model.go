// Package supplier provides the Supplier catalog.
// Suppliers are the vendors products are purchased from.
package supplier

import (
	"context"
	"regexp"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Supplier represents a product vendor.
type Supplier struct {
	entity.Catalog

	// ContactPerson is the primary contact name
	ContactPerson string `db:"contact_person" json:"contactPerson"`

	// Phone is the primary contact phone
	Phone string `db:"phone" json:"phone"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Address is the supplier's physical address
	Address string `db:"address" json:"address"`

	// IsActive indicates the supplier is currently used
	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates a new Supplier with required fields.
func New(code, name string) *Supplier {
	return &Supplier{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.ContactPerson == "" {
		return apperror.NewValidation("contact person is required").
			WithDetail("field", "contactPerson")
	}

	if s.Phone == "" {
		return apperror.NewValidation("phone is required").
			WithDetail("field", "phone")
	}

	if s.Email != nil && *s.Email != "" && !emailRE.MatchString(*s.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}
