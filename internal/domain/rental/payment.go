package rental

import (
	"strings"
	"time"

	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType classifies what a payment is for
type PaymentType string

const (
	PaymentTypeRentalFee PaymentType = "rental_fee"
	PaymentTypeDeposit   PaymentType = "deposit"
	PaymentTypePenalty   PaymentType = "penalty"
	PaymentTypeRefund    PaymentType = "refund"
	PaymentTypeOther     PaymentType = "other"
)

// ParsePaymentType classifies a free-form payment label. Unrecognized
// labels fall back to PaymentTypeOther rather than failing.
func ParsePaymentType(label string) PaymentType {
	normalized := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(normalized, "deposit"):
		return PaymentTypeDeposit
	case strings.Contains(normalized, "refund"):
		return PaymentTypeRefund
	case strings.Contains(normalized, "penalty"), strings.Contains(normalized, "fine"), strings.Contains(normalized, "damage"):
		return PaymentTypePenalty
	case strings.Contains(normalized, "rent"):
		return PaymentTypeRentalFee
	}
	return PaymentTypeOther
}

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSettled PaymentStatus = "settled"
	PaymentStatusVoided  PaymentStatus = "voided"
)

// Payment is a single charge or credit attached to a contract
type Payment struct {
	shared.CompanyAggregateRoot
	ContractID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type       PaymentType
	Label      string
	Amount     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status     PaymentStatus
	SettledAt  *time.Time
}

// TableName returns the database table name
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a pending payment classified from its label
func NewPayment(companyID, contractID uuid.UUID, label string, amount decimal.Decimal) (*Payment, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Contract ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Amount cannot be negative")
	}

	return &Payment{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		ContractID:           contractID,
		Type:                 ParsePaymentType(label),
		Label:                strings.TrimSpace(label),
		Amount:               amount,
		Status:               PaymentStatusPending,
	}, nil
}

// Settle marks the payment as collected
func (p *Payment) Settle() error {
	if p.Status != PaymentStatusPending {
		return shared.ErrInvalidState
	}

	now := time.Now()
	p.Status = PaymentStatusSettled
	p.SettledAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}

// Void cancels a pending payment
func (p *Payment) Void() error {
	if p.Status != PaymentStatusPending {
		return shared.ErrInvalidState
	}

	p.Status = PaymentStatusVoided
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}
