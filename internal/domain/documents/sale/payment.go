package sale

import (
	"context"
	"time"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
)

// Payment is an immutable settlement record against a sale.
// Credit is not a settlement, so CREDIT is rejected here.
type Payment struct {
	ID id.ID `db:"id" json:"id"`

	SaleID id.ID `db:"sale_id" json:"saleId"`

	// Amount settled by this payment
	Amount types.Money `db:"amount" json:"amount"`

	// Method used to settle
	Method PaymentMethod `db:"payment_method" json:"paymentMethod"`

	// PaymentDate is when the money was received
	PaymentDate time.Time `db:"payment_date" json:"paymentDate"`

	// Reference is a receipt or transfer reference
	Reference string `db:"reference" json:"reference,omitempty"`

	// Notes is a free-form comment
	Notes string `db:"notes" json:"notes,omitempty"`

	// ReceivedBy is the user who recorded the payment
	ReceivedBy string `db:"received_by" json:"receivedBy,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewPayment creates a payment record stamped now.
func NewPayment(saleID id.ID, amount types.Money, method PaymentMethod) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:          id.New(),
		SaleID:      saleID,
		Amount:      amount,
		Method:      method,
		PaymentDate: now,
		CreatedAt:   now,
	}
}

// Validate implements entity.Validatable.
func (p *Payment) Validate(ctx context.Context) error {
	if id.IsNil(p.SaleID) {
		return apperror.NewValidation("sale is required").
			WithDetail("field", "saleId")
	}

	if !p.Amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}

	if p.Method == MethodCredit {
		return apperror.NewValidation("credit is not a payment method").
			WithDetail("field", "paymentMethod")
	}

	if !ValidPaymentMethod(p.Method) {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(p.Method))
	}

	return nil
}
