package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
	"github.com/waterworks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LateFeeService runs the daily late-fee accrual pass. The pass is safe to
// re-run: the query only selects invoices without a late fee, and
// Invoice.ApplyLateFee rejects a second accrual outright.
type LateFeeService struct {
	invoiceRepo billing.InvoiceRepository
	notifRepo   notification.NotificationRepository
	renderer    notification.Renderer
	metrics     *telemetry.BillingMetrics
	logger      *zap.Logger
	penalty     valueobject.Money
}

// LateFeeServiceConfig holds configuration for the late fee service
type LateFeeServiceConfig struct {
	InvoiceRepo billing.InvoiceRepository
	NotifRepo   notification.NotificationRepository
	Renderer    notification.Renderer
	Metrics     *telemetry.BillingMetrics
	Logger      *zap.Logger
	Penalty     valueobject.Money // Default 35000 VND
}

// NewLateFeeService creates a new LateFeeService
func NewLateFeeService(config LateFeeServiceConfig) *LateFeeService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	penalty := config.Penalty
	if !penalty.IsPositive() {
		penalty = valueobject.NewMoneyVNDFromInt(35000)
	}
	return &LateFeeService{
		invoiceRepo: config.InvoiceRepo,
		notifRepo:   config.NotifRepo,
		renderer:    config.Renderer,
		metrics:     config.Metrics,
		logger:      logger,
		penalty:     penalty,
	}
}

// BatchResult summarizes one accrual pass
type BatchResult struct {
	Scanned int `json:"scanned"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// RunLateFeeBatch accrues the late-payment penalty on every collectible
// invoice past its due date that does not yet carry one. Per-invoice failures
// are logged and counted, never aborting the pass.
func (s *LateFeeService) RunLateFeeBatch(ctx context.Context) (*BatchResult, error) {
	today := time.Now().Truncate(24 * time.Hour)

	invoices, err := s.invoiceRepo.FindOverdueUnpenalized(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to scan overdue invoices: %w", err)
	}

	result := &BatchResult{Scanned: len(invoices)}
	for i := range invoices {
		inv := &invoices[i]
		if err := s.accrue(ctx, inv); err != nil {
			result.Failed++
			s.logger.Error("Late fee accrual failed for invoice",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
			continue
		}
		result.Applied++
	}

	s.logger.Info("Late fee batch completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("applied", result.Applied),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (s *LateFeeService) accrue(ctx context.Context, inv *billing.Invoice) error {
	if err := inv.ApplyLateFee(s.penalty); err != nil {
		return err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return fmt.Errorf("failed to save overdue invoice: %w", err)
	}

	s.metrics.RecordLateFeeApplied(ctx)

	s.notifyLatePayment(ctx, inv)

	return nil
}

func (s *LateFeeService) notifyLatePayment(ctx context.Context, inv *billing.Invoice) {
	if s.notifRepo == nil || s.renderer == nil {
		return
	}

	title, body, err := s.renderer.Render(notification.MessageTypeLatePaymentNotice, map[string]string{
		"invoice_number":  inv.InvoiceNumber,
		"late_fee_amount": inv.LateFeeAmount.String(),
		"total_amount":    inv.TotalAmount.String(),
		"due_date":        inv.DueDate.Format("2006-01-02"),
	})
	if err != nil {
		s.logger.Warn("Failed to render late payment notice", zap.Error(err))
		return
	}

	n, err := notification.NewInvoiceNotification(inv.CustomerID, inv.ID, notification.MessageTypeLatePaymentNotice, title, body)
	if err != nil {
		s.logger.Warn("Failed to build late payment notice", zap.Error(err))
		return
	}
	if err := s.notifRepo.Save(ctx, n); err != nil {
		// Re-runs of the pass hit the dedup index; that is expected
		if !errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Warn("Failed to save late payment notice",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
		}
		return
	}
	s.metrics.RecordNotificationCreated(ctx, string(notification.MessageTypeLatePaymentNotice))
}
