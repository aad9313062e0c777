package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
	"github.com/waterworks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// defaultWebhookIdemTTL bounds how long a processed bank transaction id is
// remembered. Banks do not retry beyond days.
const defaultWebhookIdemTTL = 7 * 24 * time.Hour

// SettlementService reconciles payments against the invoice ledger. Cash
// settles over the counter with an exact-amount check; webhook settlement is
// idempotent on the bank transaction id and tolerant of amount differences.
// Both paths converge on Invoice.Settle plus SaveWithLock, so the version
// check arbitrates when cash and webhook race on the same invoice.
type SettlementService struct {
	invoiceRepo billing.InvoiceRepository
	receiptRepo billing.ReceiptRepository
	notifRepo   notification.NotificationRepository
	renderer    notification.Renderer
	tx          TransactionScope
	idempotency shared.IdempotencyStore
	idemTTL     time.Duration
	metrics     *telemetry.BillingMetrics
	logger      *zap.Logger
}

// SettlementServiceConfig holds configuration for the settlement service
type SettlementServiceConfig struct {
	InvoiceRepo billing.InvoiceRepository
	ReceiptRepo billing.ReceiptRepository
	NotifRepo   notification.NotificationRepository
	Renderer    notification.Renderer
	Tx          TransactionScope // Defaults to a no-op scope over the configured repos
	Idempotency shared.IdempotencyStore
	IdemTTL     time.Duration // Default 7 days
	Metrics     *telemetry.BillingMetrics
	Logger      *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(config SettlementServiceConfig) *SettlementService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idemTTL := config.IdemTTL
	if idemTTL <= 0 {
		idemTTL = defaultWebhookIdemTTL
	}
	tx := config.Tx
	if tx == nil {
		tx = NewNoOpTransactionScope(config.InvoiceRepo, nil, config.ReceiptRepo)
	}
	return &SettlementService{
		invoiceRepo: config.InvoiceRepo,
		receiptRepo: config.ReceiptRepo,
		notifRepo:   config.NotifRepo,
		renderer:    config.Renderer,
		tx:          tx,
		idempotency: config.Idempotency,
		idemTTL:     idemTTL,
		metrics:     config.Metrics,
		logger:      logger,
	}
}

// SettleCash settles an invoice with cash collected at the counter. The
// tendered amount must match the invoice total exactly; partial cash payments
// are not accepted.
func (s *SettlementService) SettleCash(ctx context.Context, invoiceID uuid.UUID, amount valueobject.Money, cashierID uuid.UUID) (*billing.Receipt, error) {
	if cashierID == uuid.Nil {
		return nil, fmt.Errorf("%w: cashier ID cannot be empty", shared.ErrInvalidInput)
	}

	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	if !amount.Amount().Equal(inv.TotalAmount) {
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodCash), telemetry.PaymentOutcomeAmountMismatch)
		return nil, fmt.Errorf("%w: tendered %s, invoice total %s",
			shared.ErrAmountMismatch, amount.Amount().String(), inv.TotalAmount.String())
	}

	paidAt := time.Now()
	if err := inv.Settle(paidAt); err != nil {
		return nil, err
	}

	// The settled invoice and its receipt commit together; a PAID invoice
	// without a receipt must never be observable.
	var receipt *billing.Receipt
	err = s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return fmt.Errorf("failed to save settled invoice: %w", err)
		}
		r, err := billing.NewCashReceipt(inv, cashierID, paidAt)
		if err != nil {
			return err
		}
		if err := repos.ReceiptRepo().Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save receipt: %w", err)
		}
		receipt = r
		return nil
	})
	if err != nil {
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodCash), telemetry.PaymentOutcomeFailed)
		return nil, err
	}

	s.logger.Info("Invoice settled with cash",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("amount", receipt.Amount.String()),
		zap.String("cashier_id", cashierID.String()))

	s.metrics.RecordPayment(ctx, string(billing.PaymentMethodCash), telemetry.PaymentOutcomeSettled)

	s.notifyPaymentConfirmed(ctx, inv, receipt)

	return receipt, nil
}

// WebhookPayment is a successful transfer reported by the bank
type WebhookPayment struct {
	TransactionID string
	Description   string
	Amount        decimal.Decimal
	PaidAt        time.Time
}

// WebhookResult reports what the reconciler did with a bank webhook
type WebhookResult struct {
	AlreadyProcessed bool             `json:"already_processed,omitempty"`
	AlreadyPaid      bool             `json:"already_paid,omitempty"`
	AmountMismatch   bool             `json:"amount_mismatch,omitempty"`
	Invoice          *billing.Invoice `json:"invoice,omitempty"`
	Receipt          *billing.Receipt `json:"receipt,omitempty"`
}

// SettleWebhook reconciles a bank transfer against the ledger. The call is
// idempotent on the bank transaction id; the invoice is located by finding an
// invoice number inside the free-text remittance description. A transfer whose
// amount differs from the invoice total still settles, with the receipt
// flagged for back-office review, because the money has already moved.
func (s *SettlementService) SettleWebhook(ctx context.Context, payment WebhookPayment) (*WebhookResult, error) {
	if payment.TransactionID == "" {
		return nil, fmt.Errorf("%w: bank transaction ID cannot be empty", shared.ErrInvalidInput)
	}

	idempotencyKey := fmt.Sprintf("webhook:bank:%s", payment.TransactionID)
	processed, err := s.idempotency.IsProcessed(ctx, idempotencyKey)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed, continuing with version check only",
			zap.String("bank_transaction_id", payment.TransactionID),
			zap.Error(err))
	}
	if processed {
		s.logger.Info("Duplicate bank webhook skipped",
			zap.String("bank_transaction_id", payment.TransactionID))
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodBankApp), telemetry.PaymentOutcomeDuplicateWebhook)
		return &WebhookResult{AlreadyProcessed: true}, nil
	}

	// The receipt table is the durable record; it catches retries the
	// idempotency store has lost, and retries of a webhook that settled but
	// failed before being marked processed.
	if _, err := s.receiptRepo.FindByBankTransactionID(ctx, payment.TransactionID); err == nil {
		s.logger.Info("Bank transaction already has a receipt, webhook skipped",
			zap.String("bank_transaction_id", payment.TransactionID))
		s.markWebhookProcessed(ctx, idempotencyKey)
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodBankApp), telemetry.PaymentOutcomeDuplicateWebhook)
		return &WebhookResult{AlreadyProcessed: true}, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing receipt: %w", err)
	}

	inv, err := s.invoiceRepo.FindByNumberInText(ctx, payment.Description)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("No invoice matched in remittance description",
				zap.String("bank_transaction_id", payment.TransactionID),
				zap.String("description", payment.Description))
			s.metrics.RecordPayment(ctx, string(billing.PaymentMethodBankApp), telemetry.PaymentOutcomeInvoiceNotFound)
		}
		return nil, fmt.Errorf("failed to match invoice for webhook: %w", err)
	}

	if inv.Status == billing.InvoiceStatusPaid {
		s.logger.Info("Webhook for already settled invoice, nothing to do",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("bank_transaction_id", payment.TransactionID))
		s.markWebhookProcessed(ctx, idempotencyKey)
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodBankApp), telemetry.PaymentOutcomeAlreadyPaid)
		return &WebhookResult{AlreadyPaid: true, Invoice: inv}, nil
	}

	paidAt := payment.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	if err := inv.Settle(paidAt); err != nil {
		return nil, err
	}

	var receipt *billing.Receipt
	err = s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return fmt.Errorf("failed to save settled invoice: %w", err)
		}
		r, err := billing.NewBankReceipt(inv, payment.TransactionID, valueobject.NewMoneyVND(payment.Amount), paidAt)
		if err != nil {
			return err
		}
		if err := repos.ReceiptRepo().Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save receipt: %w", err)
		}
		receipt = r
		return nil
	})
	if err != nil {
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodBankApp), telemetry.PaymentOutcomeFailed)
		return nil, err
	}

	s.markWebhookProcessed(ctx, idempotencyKey)

	if receipt.AmountMismatch {
		s.logger.Warn("Bank transfer amount differs from invoice total, receipt flagged",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("transferred", receipt.Amount.String()),
			zap.String("invoice_total", inv.TotalAmount.String()))
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodBankApp), telemetry.PaymentOutcomeAmountMismatch)
	} else {
		s.metrics.RecordPayment(ctx, string(billing.PaymentMethodBankApp), telemetry.PaymentOutcomeSettled)
	}

	s.logger.Info("Invoice settled via bank webhook",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("bank_transaction_id", payment.TransactionID),
		zap.Bool("amount_mismatch", receipt.AmountMismatch))

	s.notifyPaymentConfirmed(ctx, inv, receipt)

	return &WebhookResult{
		Invoice:        inv,
		Receipt:        receipt,
		AmountMismatch: receipt.AmountMismatch,
	}, nil
}

func (s *SettlementService) markWebhookProcessed(ctx context.Context, key string) {
	if _, err := s.idempotency.MarkProcessed(ctx, key, s.idemTTL); err != nil {
		s.logger.Warn("Failed to mark webhook processed", zap.String("key", key), zap.Error(err))
	}
}

// notifyPaymentConfirmed writes the settlement notification after the ledger
// write has committed. Best-effort; failures never undo the settlement.
func (s *SettlementService) notifyPaymentConfirmed(ctx context.Context, inv *billing.Invoice, receipt *billing.Receipt) {
	if s.notifRepo == nil || s.renderer == nil {
		return
	}

	title, body, err := s.renderer.Render(notification.MessageTypePaymentConfirmation, map[string]string{
		"invoice_number": inv.InvoiceNumber,
		"receipt_number": receipt.ReceiptNumber,
		"amount":         receipt.Amount.String(),
	})
	if err != nil {
		s.logger.Warn("Failed to render payment confirmation", zap.Error(err))
		return
	}

	n, err := notification.NewInvoiceNotification(inv.CustomerID, inv.ID, notification.MessageTypePaymentConfirmation, title, body)
	if err != nil {
		s.logger.Warn("Failed to build payment confirmation", zap.Error(err))
		return
	}
	if err := s.notifRepo.Save(ctx, n); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Warn("Failed to save payment confirmation",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
		}
		return
	}
	s.metrics.RecordNotificationCreated(ctx, string(notification.MessageTypePaymentConfirmation))
}
