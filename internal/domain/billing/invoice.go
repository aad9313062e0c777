package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "PENDING"        // Issued, no payment recorded
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID" // Some payment recorded upstream, balance outstanding
	InvoiceStatusPaid          InvoiceStatus = "PAID"           // Fully settled
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"        // Past due date, late fee accrued
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"      // Voided before payment
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanSettle returns true if a payment can settle the invoice in this status
func (s InvoiceStatus) CanSettle() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartiallyPaid || s == InvoiceStatusOverdue
}

// CanAccrueLateFee returns true if a late-payment penalty may be applied in this status
func (s InvoiceStatus) CanAccrueLateFee() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartiallyPaid
}

// InvoiceType classifies what an invoice bills. It is stored explicitly
// rather than re-derived from which optional references happen to be set.
type InvoiceType string

const (
	InvoiceTypeWater        InvoiceType = "WATER"        // Metered water consumption
	InvoiceTypeInstallation InvoiceType = "INSTALLATION" // Meter/connection installation charge
	InvoiceTypeService      InvoiceType = "SERVICE"      // Ad-hoc service charge, e.g. meter calibration
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeWater || t == InvoiceTypeInstallation || t == InvoiceTypeService
}

// Label returns a human-readable label for notification texts
func (t InvoiceType) Label() string {
	switch t {
	case InvoiceTypeWater:
		return "water bill"
	case InvoiceTypeInstallation:
		return "installation invoice"
	case InvoiceTypeService:
		return "service invoice"
	}
	return "invoice"
}

// Invoice is the billable unit of the ledger. It is created in PENDING and
// moves through a small state machine; it is never physically deleted,
// cancellation is a status transition.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber        string          `json:"invoice_number"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	ContractID           *uuid.UUID      `json:"contract_id"`
	MeterReadingID       *uuid.UUID      `json:"meter_reading_id"` // Non-nil for metered water bills
	Type                 InvoiceType     `json:"type"`
	PeriodFrom           time.Time       `json:"period_from"`
	PeriodTo             time.Time       `json:"period_to"`
	TotalConsumption     decimal.Decimal `json:"total_consumption"` // Cubic meters, zero for non-water invoices
	SubtotalAmount       decimal.Decimal `json:"subtotal_amount"`
	VATAmount            decimal.Decimal `json:"vat_amount"`
	EnvironmentFeeAmount decimal.Decimal `json:"environment_fee_amount"`
	LateFeeAmount        decimal.Decimal `json:"late_fee_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	InvoiceDate          time.Time       `json:"invoice_date"`
	DueDate              time.Time       `json:"due_date"`
	PaidDate             *time.Time      `json:"paid_date"`
	Status               InvoiceStatus   `json:"status"`
	IssuedByStaffID      uuid.UUID       `json:"issued_by_staff_id"`
}

// NewInvoiceParams carries the validated inputs for creating an invoice.
// Monetary fields must already satisfy the totals invariant.
type NewInvoiceParams struct {
	InvoiceNumber    string
	CustomerID       uuid.UUID
	ContractID       *uuid.UUID
	MeterReadingID   *uuid.UUID
	Type             InvoiceType
	PeriodFrom       time.Time
	PeriodTo         time.Time
	TotalConsumption decimal.Decimal
	Subtotal         valueobject.Money
	VAT              valueobject.Money
	EnvironmentFee   valueobject.Money
	Total            valueobject.Money
	InvoiceDate      time.Time
	DueDate          time.Time
	IssuedByStaffID  uuid.UUID
}

// NewInvoice creates a new invoice in PENDING status.
// The late fee starts at zero; Total must equal Subtotal + VAT + EnvironmentFee.
func NewInvoice(p NewInvoiceParams) (*Invoice, error) {
	if p.InvoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(p.InvoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if p.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type is not valid")
	}
	if p.Type == InvoiceTypeWater && p.MeterReadingID == nil {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Water invoice requires a meter reading reference")
	}
	if p.Type != InvoiceTypeWater && p.MeterReadingID != nil {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Only water invoices carry a meter reading reference")
	}
	if p.Subtotal.IsNegative() || p.VAT.IsNegative() || p.EnvironmentFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Monetary components cannot be negative")
	}
	if !p.Total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	expected := p.Subtotal.MustAdd(p.VAT).MustAdd(p.EnvironmentFee)
	if !expected.Equals(p.Total) {
		return nil, shared.NewDomainError("TOTALS_MISMATCH",
			fmt.Sprintf("Total %s does not equal subtotal + VAT + environment fee (%s)", p.Total, expected))
	}
	if p.DueDate.Before(p.InvoiceDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot precede the invoice date")
	}

	inv := &Invoice{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		InvoiceNumber:        p.InvoiceNumber,
		CustomerID:           p.CustomerID,
		ContractID:           p.ContractID,
		MeterReadingID:       p.MeterReadingID,
		Type:                 p.Type,
		PeriodFrom:           p.PeriodFrom,
		PeriodTo:             p.PeriodTo,
		TotalConsumption:     p.TotalConsumption,
		SubtotalAmount:       p.Subtotal.Amount(),
		VATAmount:            p.VAT.Amount(),
		EnvironmentFeeAmount: p.EnvironmentFee.Amount(),
		LateFeeAmount:        decimal.Zero,
		TotalAmount:          p.Total.Amount(),
		InvoiceDate:          p.InvoiceDate,
		DueDate:              p.DueDate,
		Status:               InvoiceStatusPending,
		IssuedByStaffID:      p.IssuedByStaffID,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// Settle marks the invoice as fully paid at the given time.
// Legal from PENDING, PARTIALLY_PAID and OVERDUE; terminal states reject.
func (inv *Invoice) Settle(paidAt time.Time) error {
	if !inv.Status.CanSettle() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot settle invoice %s in %s status", inv.InvoiceNumber, inv.Status))
	}
	inv.Status = InvoiceStatusPaid
	inv.PaidDate = &paidAt
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaidEvent(inv))

	return nil
}

// Cancel voids the invoice. Legal only from PENDING; a paid, overdue or
// already cancelled invoice cannot be cancelled.
func (inv *Invoice) Cancel(staffID uuid.UUID) error {
	if inv.Status != InvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only PENDING invoices can be cancelled, invoice %s is %s", inv.InvoiceNumber, inv.Status))
	}
	inv.Status = InvoiceStatusCancelled
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, staffID))

	return nil
}

// ApplyLateFee adds the late-payment penalty once and moves the invoice to
// OVERDUE. The zero-late-fee gate makes repeated daily accrual runs no-ops:
// an invoice that already carries a penalty is never charged again.
func (inv *Invoice) ApplyLateFee(penalty valueobject.Money) error {
	if !inv.Status.CanAccrueLateFee() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot accrue late fee on invoice %s in %s status", inv.InvoiceNumber, inv.Status))
	}
	if !penalty.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Late fee must be positive")
	}
	if !inv.LateFeeAmount.IsZero() {
		return shared.NewDomainError("LATE_FEE_ALREADY_APPLIED",
			fmt.Sprintf("Invoice %s already carries a late fee", inv.InvoiceNumber))
	}

	inv.LateFeeAmount = penalty.Amount()
	inv.TotalAmount = inv.TotalAmount.Add(penalty.Amount())
	inv.Status = InvoiceStatusOverdue
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceOverdueEvent(inv))

	return nil
}

// TotalsConsistent reports whether the committed monetary breakdown still
// satisfies total = subtotal + VAT + environment fee + late fee.
func (inv *Invoice) TotalsConsistent() bool {
	sum := inv.SubtotalAmount.Add(inv.VATAmount).Add(inv.EnvironmentFeeAmount).Add(inv.LateFeeAmount)
	return sum.Equal(inv.TotalAmount)
}

// IsOverdueAsOf returns true if the invoice is past due and still collectible
func (inv *Invoice) IsOverdueAsOf(today time.Time) bool {
	if inv.Status.IsTerminal() {
		return false
	}
	return inv.DueDate.Before(today)
}

// IsWaterBill returns true for metered water invoices
func (inv *Invoice) IsWaterBill() bool {
	return inv.Type == InvoiceTypeWater
}

// GetTotalAmountMoney returns the total amount as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(inv.TotalAmount)
}

// GetLateFeeAmountMoney returns the late fee as Money
func (inv *Invoice) GetLateFeeAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(inv.LateFeeAmount)
}
