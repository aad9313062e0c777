package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
)

// PaymentMethod identifies the channel a payment arrived through
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"     // Collected over the counter by a cashier
	PaymentMethodBankApp PaymentMethod = "BANK_APP" // Reported by the bank webhook
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodBankApp
}

// Receipt is the immutable proof that a payment settled an invoice.
// Receipts are never updated or deleted after creation.
type Receipt struct {
	shared.BaseEntity
	ReceiptNumber      string          `json:"receipt_number"`
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	PaymentDate        time.Time       `json:"payment_date"`
	BankTransactionID  *string         `json:"bank_transaction_id"` // Non-nil for BANK_APP receipts
	AmountMismatch     bool            `json:"amount_mismatch"`     // Transferred amount differed from the invoice total
	CollectedByStaffID *uuid.UUID      `json:"collected_by_staff_id"`
}

// NewCashReceipt records an over-the-counter payment for the full invoice total.
// The receipt number is derived from the invoice number so a cashier can read
// the mapping off the paper slip.
func NewCashReceipt(inv *Invoice, staffID uuid.UUID, paidAt time.Time) (*Receipt, error) {
	if inv == nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice cannot be nil")
	}
	if staffID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STAFF", "Collecting staff ID cannot be empty")
	}
	return &Receipt{
		BaseEntity:         shared.NewBaseEntity(),
		ReceiptNumber:      fmt.Sprintf("BL-%s", inv.InvoiceNumber),
		InvoiceID:          inv.ID,
		CustomerID:         inv.CustomerID,
		Amount:             inv.TotalAmount,
		PaymentMethod:      PaymentMethodCash,
		PaymentDate:        paidAt,
		CollectedByStaffID: &staffID,
	}, nil
}

// NewBankReceipt records a payment reported by the bank webhook. The recorded
// amount is what the bank actually transferred; when it differs from the
// invoice total the receipt is flagged for back-office review rather than
// rejected, because the money has already moved.
func NewBankReceipt(inv *Invoice, bankTransactionID string, transferred valueobject.Money, paidAt time.Time) (*Receipt, error) {
	if inv == nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice cannot be nil")
	}
	if bankTransactionID == "" {
		return nil, shared.NewDomainError("INVALID_BANK_TRANSACTION", "Bank transaction ID cannot be empty")
	}
	if !transferred.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transferred amount must be positive")
	}
	txID := bankTransactionID
	return &Receipt{
		BaseEntity:        shared.NewBaseEntity(),
		ReceiptNumber:     fmt.Sprintf("BK-%s", bankTransactionID),
		InvoiceID:         inv.ID,
		CustomerID:        inv.CustomerID,
		Amount:            transferred.Amount(),
		PaymentMethod:     PaymentMethodBankApp,
		PaymentDate:       paidAt,
		BankTransactionID: &txID,
		AmountMismatch:    !transferred.Amount().Equal(inv.TotalAmount),
	}, nil
}

// GetAmountMoney returns the receipt amount as Money
func (r *Receipt) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(r.Amount)
}
