package entity

import (
	"context"
	"time"

	"everpack/internal/core/apperror"
)

// Document is the base type for business transactions.
// Examples: Sale, BulkOrder.
type Document struct {
	BaseDocument

	// Number is the document number (generated, unique per document type)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Notes is an optional user comment
	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewDocument creates a new Document with generated ID dated now.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// IsBackdated checks if the document date falls before today.
func (d *Document) IsBackdated() bool {
	return d.Date.Before(time.Now().UTC().Truncate(24 * time.Hour))
}

// IsFutureDated checks if the document date falls after today.
func (d *Document) IsFutureDated() bool {
	return d.Date.After(time.Now().UTC())
}
