package billing

import (
	"context"

	"github.com/waterworks/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to the billing repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// The invoice ledger's paired writes run through this scope: an invoice and
// the calibration fee bound to it move together, and a settled invoice and
// its receipt move together.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// FeeRepo returns the calibration fee repository scoped to the current transaction
	FeeRepo() billing.CalibrationFeeRepository
	// ReceiptRepo returns the receipt repository scoped to the current transaction
	ReceiptRepo() billing.ReceiptRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	invoiceRepo billing.InvoiceRepository
	feeRepo     billing.CalibrationFeeRepository
	receiptRepo billing.ReceiptRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories. Repositories a caller never touches may be nil.
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	feeRepo billing.CalibrationFeeRepository,
	receiptRepo billing.ReceiptRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		feeRepo:     feeRepo,
		receiptRepo: receiptRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// FeeRepo returns the calibration fee repository.
func (s *NoOpTransactionScope) FeeRepo() billing.CalibrationFeeRepository {
	return s.feeRepo
}

// ReceiptRepo returns the receipt repository.
func (s *NoOpTransactionScope) ReceiptRepo() billing.ReceiptRepository {
	return s.receiptRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
