package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/billing"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber        string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_number"`
	CustomerID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	ContractID           *uuid.UUID            `gorm:"type:uuid;index"`
	MeterReadingID       *uuid.UUID            `gorm:"type:uuid;index"`
	Type                 billing.InvoiceType   `gorm:"type:varchar(20);not null;index"`
	PeriodFrom           time.Time             `gorm:""`
	PeriodTo             time.Time             `gorm:"index"`
	TotalConsumption     decimal.Decimal       `gorm:"type:decimal(12,3);not null"`
	SubtotalAmount       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	VATAmount            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	EnvironmentFeeAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	LateFeeAmount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalAmount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	InvoiceDate          time.Time             `gorm:"not null;index"`
	DueDate              time.Time             `gorm:"not null;index"`
	PaidDate             *time.Time            `gorm:""`
	Status               billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	IssuedByStaffID      uuid.UUID             `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		InvoiceNumber:        m.InvoiceNumber,
		CustomerID:           m.CustomerID,
		ContractID:           m.ContractID,
		MeterReadingID:       m.MeterReadingID,
		Type:                 m.Type,
		PeriodFrom:           m.PeriodFrom,
		PeriodTo:             m.PeriodTo,
		TotalConsumption:     m.TotalConsumption,
		SubtotalAmount:       m.SubtotalAmount,
		VATAmount:            m.VATAmount,
		EnvironmentFeeAmount: m.EnvironmentFeeAmount,
		LateFeeAmount:        m.LateFeeAmount,
		TotalAmount:          m.TotalAmount,
		InvoiceDate:          m.InvoiceDate,
		DueDate:              m.DueDate,
		PaidDate:             m.PaidDate,
		Status:               m.Status,
		IssuedByStaffID:      m.IssuedByStaffID,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.ContractID = inv.ContractID
	m.MeterReadingID = inv.MeterReadingID
	m.Type = inv.Type
	m.PeriodFrom = inv.PeriodFrom
	m.PeriodTo = inv.PeriodTo
	m.TotalConsumption = inv.TotalConsumption
	m.SubtotalAmount = inv.SubtotalAmount
	m.VATAmount = inv.VATAmount
	m.EnvironmentFeeAmount = inv.EnvironmentFeeAmount
	m.LateFeeAmount = inv.LateFeeAmount
	m.TotalAmount = inv.TotalAmount
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.PaidDate = inv.PaidDate
	m.Status = inv.Status
	m.IssuedByStaffID = inv.IssuedByStaffID
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// ReceiptModel is the persistence model for payment receipts. Rows are
// append-only; the unique index on the bank transaction id backs webhook
// idempotency at the storage level.
type ReceiptModel struct {
	BaseModel
	ReceiptNumber      string                `gorm:"type:varchar(60);not null;uniqueIndex:idx_receipts_number"`
	InvoiceID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount             decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaymentMethod      billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentDate        time.Time             `gorm:"not null;index"`
	BankTransactionID  *string               `gorm:"type:varchar(100);uniqueIndex:idx_receipts_bank_txn"`
	AmountMismatch     bool                  `gorm:"not null;default:false"`
	CollectedByStaffID *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt.
func (m *ReceiptModel) ToDomain() *billing.Receipt {
	return &billing.Receipt{
		BaseEntity:         m.BaseModel.ToDomain(),
		ReceiptNumber:      m.ReceiptNumber,
		InvoiceID:          m.InvoiceID,
		CustomerID:         m.CustomerID,
		Amount:             m.Amount,
		PaymentMethod:      m.PaymentMethod,
		PaymentDate:        m.PaymentDate,
		BankTransactionID:  m.BankTransactionID,
		AmountMismatch:     m.AmountMismatch,
		CollectedByStaffID: m.CollectedByStaffID,
	}
}

// ReceiptModelFromDomain creates a new persistence model from a domain Receipt.
func ReceiptModelFromDomain(receipt *billing.Receipt) *ReceiptModel {
	m := &ReceiptModel{}
	m.FromDomainBaseEntity(receipt.BaseEntity)
	m.ReceiptNumber = receipt.ReceiptNumber
	m.InvoiceID = receipt.InvoiceID
	m.CustomerID = receipt.CustomerID
	m.Amount = receipt.Amount
	m.PaymentMethod = receipt.PaymentMethod
	m.PaymentDate = receipt.PaymentDate
	m.BankTransactionID = receipt.BankTransactionID
	m.AmountMismatch = receipt.AmountMismatch
	m.CollectedByStaffID = receipt.CollectedByStaffID
	return m
}

// CalibrationFeeModel is the persistence model for the CalibrationFee aggregate.
type CalibrationFeeModel struct {
	AggregateModel
	MeterCode          string          `gorm:"type:varchar(50);not null;index"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ContractID         *uuid.UUID      `gorm:"type:uuid;index"`
	CalibrationDate    time.Time       `gorm:"not null"`
	FeeAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PerformedByStaffID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID          *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_calibration_fees_invoice"`
	Notes              string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CalibrationFeeModel) TableName() string {
	return "calibration_fees"
}

// ToDomain converts the persistence model to a domain CalibrationFee.
func (m *CalibrationFeeModel) ToDomain() *billing.CalibrationFee {
	return &billing.CalibrationFee{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		MeterCode:          m.MeterCode,
		CustomerID:         m.CustomerID,
		ContractID:         m.ContractID,
		CalibrationDate:    m.CalibrationDate,
		FeeAmount:          m.FeeAmount,
		PerformedByStaffID: m.PerformedByStaffID,
		InvoiceID:          m.InvoiceID,
		Notes:              m.Notes,
	}
}

// FromDomain populates the persistence model from a domain CalibrationFee.
func (m *CalibrationFeeModel) FromDomain(fee *billing.CalibrationFee) {
	m.FromDomainAggregateRoot(fee.BaseAggregateRoot)
	m.MeterCode = fee.MeterCode
	m.CustomerID = fee.CustomerID
	m.ContractID = fee.ContractID
	m.CalibrationDate = fee.CalibrationDate
	m.FeeAmount = fee.FeeAmount
	m.PerformedByStaffID = fee.PerformedByStaffID
	m.InvoiceID = fee.InvoiceID
	m.Notes = fee.Notes
}

// CalibrationFeeModelFromDomain creates a new persistence model from a domain CalibrationFee.
func CalibrationFeeModelFromDomain(fee *billing.CalibrationFee) *CalibrationFeeModel {
	m := &CalibrationFeeModel{}
	m.FromDomain(fee)
	return m
}
