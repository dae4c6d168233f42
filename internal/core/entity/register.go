// Package entity provides core domain entities.
package entity

import (
	"time"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

// MovementType defines the direction of a stock ledger entry.
type MovementType string

const (
	// MovementIn increases stock (purchases, customer returns)
	MovementIn MovementType = "IN"
	// MovementOut decreases stock (sales, damage, theft)
	MovementOut MovementType = "OUT"
	// MovementAdjustment records a correction note.
	// Adjustments are kept in the ledger but excluded from the balance sum;
	// corrections that must change stock are recorded as IN or OUT.
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// ValidMovementType reports whether t is a known movement type.
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// MovementReason classifies why stock moved.
type MovementReason string

const (
	ReasonPurchase   MovementReason = "PURCHASE"
	ReasonSale       MovementReason = "SALE"
	ReasonReturn     MovementReason = "RETURN"
	ReasonDamage     MovementReason = "DAMAGE"
	ReasonTheft      MovementReason = "THEFT"
	ReasonAdjustment MovementReason = "ADJUSTMENT"
	ReasonTransfer   MovementReason = "TRANSFER"
)

// ValidMovementReason reports whether r is a known reason code.
func ValidMovementReason(r MovementReason) bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonReturn, ReasonDamage,
		ReasonTheft, ReasonAdjustment, ReasonTransfer:
		return true
	}
	return false
}

// StockMovement is one immutable ledger entry. Movements are never updated
// or deleted; corrections are recorded as new movements.
type StockMovement struct {
	// ID is unique identifier for this ledger line (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// ProductID is the product whose stock moved
	ProductID id.ID `db:"product_id" json:"productId"`

	// MovementType: IN, OUT or ADJUSTMENT
	MovementType MovementType `db:"movement_type" json:"movementType"`

	// Quantity moved; always positive, direction comes from MovementType
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Reason classifies the movement (PURCHASE, SALE, RETURN, ...)
	Reason MovementReason `db:"reason" json:"reason"`

	// Reference links to the originating document (invoice number, PO, ...)
	Reference string `db:"reference" json:"reference,omitempty"`

	// Notes is free-form context for the movement
	Notes string `db:"notes" json:"notes,omitempty"`

	// CreatedBy is the user who recorded the movement
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a ledger entry stamped now.
func NewStockMovement(
	productID id.ID,
	movementType MovementType,
	quantity types.Quantity,
	reason MovementReason,
) StockMovement {
	return StockMovement{
		ID:           id.New(),
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
		Reason:       reason,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedQuantity returns the balance contribution of this movement.
// IN is positive, OUT is negative, ADJUSTMENT contributes nothing.
func (m *StockMovement) SignedQuantity() types.Quantity {
	switch m.MovementType {
	case MovementIn:
		return m.Quantity
	case MovementOut:
		return m.Quantity.Neg()
	default:
		return 0
	}
}

// StockBalance is a derived per-product balance (query result, never stored).
type StockBalance struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
}

// AlertType classifies stock alerts.
type AlertType string

const (
	AlertLowStock   AlertType = "LOW_STOCK"
	AlertOutOfStock AlertType = "OUT_OF_STOCK"
	// AlertOverstock exists for imported history; the evaluator never raises it.
	AlertOverstock AlertType = "OVERSTOCK"
)

// ValidAlertType reports whether t is a known alert type.
func ValidAlertType(t AlertType) bool {
	switch t {
	case AlertLowStock, AlertOutOfStock, AlertOverstock:
		return true
	}
	return false
}

// StockAlert is derived notification state for threshold breaches.
// At most one unresolved alert exists per (product, alert type).
type StockAlert struct {
	ID         id.ID      `db:"id" json:"id"`
	ProductID  id.ID      `db:"product_id" json:"productId"`
	AlertType  AlertType  `db:"alert_type" json:"alertType"`
	Message    string     `db:"message" json:"message"`
	IsResolved bool       `db:"is_resolved" json:"isResolved"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// NewStockAlert creates an unresolved alert stamped now.
func NewStockAlert(productID id.ID, alertType AlertType, message string) StockAlert {
	return StockAlert{
		ID:        id.New(),
		ProductID: productID,
		AlertType: alertType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Resolve marks the alert resolved at the given time. Resolving twice is a no-op.
func (a *StockAlert) Resolve(at time.Time) {
	if a.IsResolved {
		return
	}
	a.IsResolved = true
	a.ResolvedAt = &at
}
