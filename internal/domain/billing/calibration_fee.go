package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
)

// CalibrationFee is a chargeable meter-calibration job. It starts unbilled
// and is bound to exactly one service invoice; cancelling that invoice
// releases the fee back to the unbilled pool so it can be rebilled.
type CalibrationFee struct {
	shared.BaseAggregateRoot
	MeterCode          string          `json:"meter_code"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	ContractID         *uuid.UUID      `json:"contract_id"`
	CalibrationDate    time.Time       `json:"calibration_date"`
	FeeAmount          decimal.Decimal `json:"fee_amount"`
	PerformedByStaffID uuid.UUID       `json:"performed_by_staff_id"`
	InvoiceID          *uuid.UUID      `json:"invoice_id"` // Nil while unbilled
	Notes              string          `json:"notes"`
}

// NewCalibrationFee records a completed calibration job awaiting billing
func NewCalibrationFee(meterCode string, customerID uuid.UUID, contractID *uuid.UUID,
	calibrationDate time.Time, fee valueobject.Money, performedBy uuid.UUID, notes string) (*CalibrationFee, error) {
	if meterCode == "" {
		return nil, shared.NewDomainError("INVALID_METER_CODE", "Meter code cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if performedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STAFF", "Performing staff ID cannot be empty")
	}
	if !fee.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Calibration fee must be positive")
	}
	return &CalibrationFee{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		MeterCode:          meterCode,
		CustomerID:         customerID,
		ContractID:         contractID,
		CalibrationDate:    calibrationDate,
		FeeAmount:          fee.Amount(),
		PerformedByStaffID: performedBy,
		Notes:              notes,
	}, nil
}

// IsBound returns true once the fee has been attached to an invoice
func (f *CalibrationFee) IsBound() bool {
	return f.InvoiceID != nil
}

// BindToInvoice attaches the fee to a service invoice. A fee can back at
// most one live invoice at a time.
func (f *CalibrationFee) BindToInvoice(invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if f.IsBound() {
		return shared.NewDomainError("FEE_ALREADY_BILLED",
			fmt.Sprintf("Calibration fee for meter %s is already billed on invoice %s", f.MeterCode, f.InvoiceID))
	}
	f.InvoiceID = &invoiceID
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
	return nil
}

// ReleaseFromInvoice detaches the fee when its invoice is cancelled,
// returning it to the unbilled pool.
func (f *CalibrationFee) ReleaseFromInvoice() error {
	if !f.IsBound() {
		return shared.NewDomainError("FEE_NOT_BILLED",
			fmt.Sprintf("Calibration fee for meter %s is not bound to any invoice", f.MeterCode))
	}
	f.InvoiceID = nil
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
	return nil
}

// GetFeeAmountMoney returns the fee as Money
func (f *CalibrationFee) GetFeeAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(f.FeeAmount)
}
