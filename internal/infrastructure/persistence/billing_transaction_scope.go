package persistence

import (
	"context"

	appbilling "github.com/waterworks/backend/internal/application/billing"
	"github.com/waterworks/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormBillingTransactionScope implements TransactionScope using GORM
// transactions. It provides atomic execution of the ledger's paired writes:
// invoice plus bound fee, and settled invoice plus receipt.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope.
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormBillingTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormBillingTransactionalRepositories provides access to the billing
// repositories within a transaction.
type gormBillingTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormBillingTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// FeeRepo returns the calibration fee repository scoped to the current transaction.
func (r *gormBillingTransactionalRepositories) FeeRepo() billing.CalibrationFeeRepository {
	return NewGormCalibrationFeeRepository(r.tx)
}

// ReceiptRepo returns the receipt repository scoped to the current transaction.
func (r *gormBillingTransactionalRepositories) ReceiptRepo() billing.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

// Ensure GormBillingTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormBillingTransactionScope)(nil)

// Ensure gormBillingTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormBillingTransactionalRepositories)(nil)
