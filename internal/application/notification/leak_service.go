package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/contract"
	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// leakHistorySize is the window the detector needs: the triggering invoice
// plus three prior ones.
const leakHistorySize = 4

// LeakDetectionService flags probable leaks after a new water bill is issued,
// by comparing its consumption against the trailing average of the three
// bills before it. The detector is deliberately conservative: with fewer than
// four bills of history, or a non-positive trailing average, it stays silent.
type LeakDetectionService struct {
	invoiceRepo billing.InvoiceRepository
	readingRepo contract.MeterReadingRepository
	notifRepo   notification.NotificationRepository
	renderer    notification.Renderer
	metrics     *telemetry.BillingMetrics
	logger      *zap.Logger
	threshold   decimal.Decimal
}

// LeakDetectionServiceConfig holds configuration for the leak detector
type LeakDetectionServiceConfig struct {
	InvoiceRepo billing.InvoiceRepository
	ReadingRepo contract.MeterReadingRepository // Optional, enriches the warning with the meter code
	NotifRepo   notification.NotificationRepository
	Renderer    notification.Renderer
	Metrics     *telemetry.BillingMetrics
	Logger      *zap.Logger
	Threshold   decimal.Decimal // Consumption ratio that trips a warning, default 1.5
}

// NewLeakDetectionService creates a new LeakDetectionService
func NewLeakDetectionService(config LeakDetectionServiceConfig) *LeakDetectionService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := config.Threshold
	if threshold.LessThanOrEqual(decimal.Zero) {
		threshold = decimal.NewFromFloat(1.5)
	}
	return &LeakDetectionService{
		invoiceRepo: config.InvoiceRepo,
		readingRepo: config.ReadingRepo,
		notifRepo:   config.NotifRepo,
		renderer:    config.Renderer,
		metrics:     config.Metrics,
		logger:      logger,
		threshold:   threshold,
	}
}

// RunLeakCheck evaluates a freshly issued water invoice against the
// customer's consumption history and writes at most one leak warning for it.
func (s *LeakDetectionService) RunLeakCheck(ctx context.Context, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to load invoice: %w", err)
	}
	if !inv.IsWaterBill() {
		return fmt.Errorf("%w: leak check only applies to water invoices", shared.ErrInvalidInput)
	}

	history, err := s.invoiceRepo.FindRecentWaterBills(ctx, inv.CustomerID, leakHistorySize)
	if err != nil {
		return fmt.Errorf("failed to load consumption history: %w", err)
	}
	if len(history) < leakHistorySize {
		s.logger.Debug("Skipping leak check, not enough history",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Int("history", len(history)))
		return nil
	}
	if history[0].ID != inv.ID {
		// A newer bill exists; the check belongs to that one
		s.logger.Debug("Skipping leak check, triggering invoice is not the newest",
			zap.String("invoice_number", inv.InvoiceNumber))
		return nil
	}

	sum := decimal.Zero
	for _, prior := range history[1:leakHistorySize] {
		sum = sum.Add(prior.TotalConsumption)
	}
	avgPrev := sum.Div(decimal.NewFromInt(leakHistorySize - 1))
	if avgPrev.LessThanOrEqual(decimal.Zero) {
		s.logger.Debug("Skipping leak check, trailing average not positive",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("avg_prev", avgPrev.String()))
		return nil
	}

	ratio := inv.TotalConsumption.Div(avgPrev)
	if ratio.LessThan(s.threshold) {
		return nil
	}

	s.logger.Info("Abnormal consumption detected",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("customer_id", inv.CustomerID.String()),
		zap.String("consumption", inv.TotalConsumption.String()),
		zap.String("avg_prev", avgPrev.String()),
		zap.String("ratio", ratio.StringFixed(2)))

	params := map[string]string{
		"invoice_number": inv.InvoiceNumber,
		"consumption":    inv.TotalConsumption.String(),
		"avg_prev":       avgPrev.StringFixed(1),
		"ratio":          ratio.StringFixed(2),
	}
	if s.readingRepo != nil && inv.MeterReadingID != nil {
		if reading, err := s.readingRepo.FindByID(ctx, *inv.MeterReadingID); err == nil {
			params["meter_code"] = reading.MeterCode
		}
	}

	title, body, err := s.renderer.Render(notification.MessageTypeLeakWarning, params)
	if err != nil {
		return fmt.Errorf("failed to render leak warning: %w", err)
	}

	n, err := notification.NewInvoiceNotification(inv.CustomerID, inv.ID,
		notification.MessageTypeLeakWarning, title, body)
	if err != nil {
		return err
	}
	if inv.MeterReadingID != nil {
		rt := notification.RelatedTypeMeterReading
		n.RelatedType = &rt
		n.RelatedID = inv.MeterReadingID
	}
	if err := s.notifRepo.Save(ctx, n); err != nil {
		// A repeated check over the same data hits the dedup index
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to save leak warning: %w", err)
	}

	s.metrics.RecordNotificationCreated(ctx, string(notification.MessageTypeLeakWarning))
	return nil
}
