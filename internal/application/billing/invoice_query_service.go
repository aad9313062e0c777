package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceQueryService serves the invoice ledger's read side: back-office
// listings, lookup by business number and a customer's invoice history.
type InvoiceQueryService struct {
	invoiceRepo billing.InvoiceRepository
	logger      *zap.Logger
}

// InvoiceQueryServiceConfig holds configuration for the invoice query service
type InvoiceQueryServiceConfig struct {
	InvoiceRepo billing.InvoiceRepository
	Logger      *zap.Logger
}

// NewInvoiceQueryService creates a new InvoiceQueryService
func NewInvoiceQueryService(config InvoiceQueryServiceConfig) *InvoiceQueryService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceQueryService{
		invoiceRepo: config.InvoiceRepo,
		logger:      logger,
	}
}

// ListInvoices returns a page of invoices matching the filter.
func (s *InvoiceQueryService) ListInvoices(ctx context.Context, filter billing.InvoiceFilter) (*shared.Paginated[billing.Invoice], error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown invoice status %q", shared.ErrInvalidInput, *filter.Status)
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown invoice type %q", shared.ErrInvalidInput, *filter.Type)
	}
	page, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return page, nil
}

// GetInvoiceByNumber looks an invoice up by its business number.
func (s *InvoiceQueryService) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	if invoiceNumber == "" {
		return nil, fmt.Errorf("%w: invoice number cannot be empty", shared.ErrInvalidInput)
	}
	inv, err := s.invoiceRepo.FindByNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice %s: %w", invoiceNumber, err)
	}
	return inv, nil
}

// ListCustomerInvoices returns a page of a customer's invoices.
func (s *InvoiceQueryService) ListCustomerInvoices(ctx context.Context, customerID uuid.UUID, filter billing.InvoiceFilter) (*shared.Paginated[billing.Invoice], error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer ID cannot be empty", shared.ErrInvalidInput)
	}
	page, err := s.invoiceRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer invoices: %w", err)
	}
	return page, nil
}
