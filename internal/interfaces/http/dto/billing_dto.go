package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/billing"
)

// InvoiceListRequest carries the query parameters of the invoice listing
type InvoiceListRequest struct {
	ListRequest
	Status     string `form:"status"`
	Type       string `form:"type"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
}

// ToInvoiceFilter converts the request into a repository filter
func (r InvoiceListRequest) ToInvoiceFilter() billing.InvoiceFilter {
	filter := billing.InvoiceFilter{Filter: r.ToFilter()}
	if r.Status != "" {
		status := billing.InvoiceStatus(r.Status)
		filter.Status = &status
	}
	if r.Type != "" {
		invoiceType := billing.InvoiceType(r.Type)
		filter.Type = &invoiceType
	}
	if r.CustomerID != "" {
		if id, err := uuid.Parse(r.CustomerID); err == nil {
			filter.CustomerID = &id
		}
	}
	return filter
}

// CashPaymentRequest is the body for recording an over-the-counter payment
type CashPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	CashierID string  `json:"cashier_id" binding:"required,uuid"`
}

// BankWebhookRequest is the payload posted by the banking partner
// for incoming transfers
type BankWebhookRequest struct {
	TransactionID string  `json:"transaction_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Description   string  `json:"description"`
	PaidAt        string  `json:"paid_at"`
}

// CreateInvoiceFromFeeRequest is the body for billing a calibration fee
type CreateInvoiceFromFeeRequest struct {
	StaffID string `json:"staff_id" binding:"required,uuid"`
}

// CancelInvoiceRequest is the body for voiding an unpaid invoice
type CancelInvoiceRequest struct {
	StaffID string `json:"staff_id" binding:"required,uuid"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                   string     `json:"id"`
	InvoiceNumber        string     `json:"invoice_number"`
	CustomerID           string     `json:"customer_id"`
	Type                 string     `json:"type"`
	TotalConsumption     float64    `json:"total_consumption"`
	SubtotalAmount       float64    `json:"subtotal_amount"`
	VATAmount            float64    `json:"vat_amount"`
	EnvironmentFeeAmount float64    `json:"environment_fee_amount"`
	LateFeeAmount        float64    `json:"late_fee_amount"`
	TotalAmount          float64    `json:"total_amount"`
	InvoiceDate          time.Time  `json:"invoice_date"`
	DueDate              time.Time  `json:"due_date"`
	PaidDate             *time.Time `json:"paid_date,omitempty"`
	Status               string     `json:"status"`
	Version              int        `json:"version"`
}

// ToInvoiceResponse maps a domain invoice to its API representation
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                   inv.ID.String(),
		InvoiceNumber:        inv.InvoiceNumber,
		CustomerID:           inv.CustomerID.String(),
		Type:                 string(inv.Type),
		TotalConsumption:     inv.TotalConsumption.InexactFloat64(),
		SubtotalAmount:       inv.SubtotalAmount.InexactFloat64(),
		VATAmount:            inv.VATAmount.InexactFloat64(),
		EnvironmentFeeAmount: inv.EnvironmentFeeAmount.InexactFloat64(),
		LateFeeAmount:        inv.LateFeeAmount.InexactFloat64(),
		TotalAmount:          inv.TotalAmount.InexactFloat64(),
		InvoiceDate:          inv.InvoiceDate,
		DueDate:              inv.DueDate,
		PaidDate:             inv.PaidDate,
		Status:               string(inv.Status),
		Version:              inv.Version,
	}
}

// ReceiptResponse represents a payment receipt in API responses
type ReceiptResponse struct {
	ID                string    `json:"id"`
	ReceiptNumber     string    `json:"receipt_number"`
	InvoiceID         string    `json:"invoice_id"`
	CustomerID        string    `json:"customer_id"`
	Amount            float64   `json:"amount"`
	PaymentMethod     string    `json:"payment_method"`
	PaymentDate       time.Time `json:"payment_date"`
	BankTransactionID *string   `json:"bank_transaction_id,omitempty"`
	AmountMismatch    bool      `json:"amount_mismatch,omitempty"`
}

// ToReceiptResponse maps a domain receipt to its API representation
func ToReceiptResponse(r *billing.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:                r.ID.String(),
		ReceiptNumber:     r.ReceiptNumber,
		InvoiceID:         r.InvoiceID.String(),
		CustomerID:        r.CustomerID.String(),
		Amount:            r.Amount.InexactFloat64(),
		PaymentMethod:     string(r.PaymentMethod),
		PaymentDate:       r.PaymentDate,
		BankTransactionID: r.BankTransactionID,
		AmountMismatch:    r.AmountMismatch,
	}
}

// CalibrationFeeResponse represents an unbilled calibration fee
type CalibrationFeeResponse struct {
	ID              string    `json:"id"`
	MeterCode       string    `json:"meter_code"`
	CustomerID      string    `json:"customer_id"`
	CalibrationDate time.Time `json:"calibration_date"`
	FeeAmount       float64   `json:"fee_amount"`
	InvoiceID       *string   `json:"invoice_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// ToCalibrationFeeResponse maps a domain calibration fee to its API representation
func ToCalibrationFeeResponse(f *billing.CalibrationFee) CalibrationFeeResponse {
	resp := CalibrationFeeResponse{
		ID:              f.ID.String(),
		MeterCode:       f.MeterCode,
		CustomerID:      f.CustomerID.String(),
		CalibrationDate: f.CalibrationDate,
		FeeAmount:       f.FeeAmount.InexactFloat64(),
		Notes:           f.Notes,
	}
	if f.InvoiceID != nil {
		id := f.InvoiceID.String()
		resp.InvoiceID = &id
	}
	return resp
}
