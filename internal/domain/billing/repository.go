package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/shared"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID     // Filter by customer
	Status     *InvoiceStatus // Filter by status
	Type       *InvoiceType   // Filter by invoice type
	FromDate   *time.Time     // Filter by invoice date range start
	ToDate     *time.Time     // Filter by invoice date range end
	DueFrom    *time.Time     // Filter by due date range start
	DueTo      *time.Time     // Filter by due date range end
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its business number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindByNumberInText finds the settleable invoice whose number appears as
	// a substring of the given free text, e.g. a bank remittance description
	FindByNumberInText(ctx context.Context, text string) (*Invoice, error)

	// FindAll finds invoices with filtering and pagination
	FindAll(ctx context.Context, filter InvoiceFilter) (*shared.Paginated[Invoice], error)

	// FindByCustomer finds invoices for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter InvoiceFilter) (*shared.Paginated[Invoice], error)

	// FindDueOn finds invoices in the given statuses whose due date falls on the given day
	FindDueOn(ctx context.Context, dueDate time.Time, statuses []InvoiceStatus) ([]Invoice, error)

	// FindOverdueUnpenalized finds collectible invoices past due as of the
	// given day that do not yet carry a late fee
	FindOverdueUnpenalized(ctx context.Context, asOf time.Time) ([]Invoice, error)

	// FindRecentWaterBills finds the customer's newest metered water invoices,
	// ordered by period end descending
	FindRecentWaterBills(ctx context.Context, customerID uuid.UUID, limit int) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// GenerateInvoiceNumber generates the next unique invoice number
	GenerateInvoiceNumber(ctx context.Context) (string, error)

	// CountByStatus counts invoices by status
	CountByStatus(ctx context.Context, status InvoiceStatus) (int64, error)

	// SumOutstanding calculates the total amount of all collectible invoices
	SumOutstanding(ctx context.Context) (decimal.Decimal, error)
}

// ReceiptRepository defines the interface for receipt persistence.
// Receipts are append-only; there is no update or delete.
type ReceiptRepository interface {
	// FindByID finds a receipt by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)

	// FindByNumber finds a receipt by its business number
	FindByNumber(ctx context.Context, receiptNumber string) (*Receipt, error)

	// FindByInvoiceID finds all receipts recorded against an invoice
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]Receipt, error)

	// FindByBankTransactionID finds the receipt recorded for a bank transaction
	FindByBankTransactionID(ctx context.Context, bankTransactionID string) (*Receipt, error)

	// Save persists a new receipt
	Save(ctx context.Context, receipt *Receipt) error
}

// CalibrationFeeRepository defines the interface for calibration fee persistence
type CalibrationFeeRepository interface {
	// FindByID finds a calibration fee by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CalibrationFee, error)

	// FindUnbilledByStaff finds a page of the unbilled fees recorded by a
	// staff member, oldest calibration first, with the total count. The
	// filter's search term narrows by meter code.
	FindUnbilledByStaff(ctx context.Context, staffID uuid.UUID, filter shared.Filter) ([]CalibrationFee, int64, error)

	// FindByInvoiceID finds the fee bound to an invoice
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*CalibrationFee, error)

	// Save creates or updates a calibration fee
	Save(ctx context.Context, fee *CalibrationFee) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, fee *CalibrationFee) error
}
