package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BillingMetrics provides business metrics for the billing engine.
// It tracks invoice issuance, payment reconciliation, late-fee accrual and
// notification activity.
type BillingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	invoiceIssuedTotal    *Counter
	invoiceAmountTotal    *Counter
	paymentTotal          *Counter
	lateFeeAppliedTotal   *Counter
	notificationTotal     *Counter
	notificationSentTotal *Counter

	// Gauge metrics (point-in-time values)
	outstandingAmount *Gauge
	overdueCount      *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider provides ledger data for periodic metrics collection.
// The interface keeps the telemetry layer from depending on the billing
// domain directly.
type LedgerMetricsProvider interface {
	// GetOutstandingAmount returns the summed total of all collectible invoices
	GetOutstandingAmount(ctx context.Context) (decimal.Decimal, error)

	// GetOverdueCount returns the number of invoices currently overdue
	GetOverdueCount(ctx context.Context) (int64, error)
}

// BillingMetricsConfig holds configuration for billing metrics.
type BillingMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	LedgerProvider  LedgerMetricsProvider
}

// NewBillingMetrics creates a new BillingMetrics instance.
func NewBillingMetrics(cfg BillingMetricsConfig) (*BillingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BillingMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	var err error

	bm.invoiceIssuedTotal, err = NewCounter(
		cfg.Meter,
		"billing_invoice_issued_total",
		"Total number of invoices issued",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.invoiceAmountTotal, err = NewCounter(
		cfg.Meter,
		"billing_invoice_amount_total",
		"Total issued invoice amount in dong",
		"{dong}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"billing_payment_total",
		"Total number of payment settlements",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.lateFeeAppliedTotal, err = NewCounter(
		cfg.Meter,
		"billing_late_fee_applied_total",
		"Total number of late-payment penalties accrued",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.notificationTotal, err = NewCounter(
		cfg.Meter,
		"billing_notification_created_total",
		"Total number of customer notifications created",
		"{notifications}",
	)
	if err != nil {
		return nil, err
	}

	bm.notificationSentTotal, err = NewCounter(
		cfg.Meter,
		"billing_notification_dispatched_total",
		"Total number of notification dispatch attempts",
		"{notifications}",
	)
	if err != nil {
		return nil, err
	}

	bm.outstandingAmount, err = NewGauge(
		cfg.Meter,
		"billing_outstanding_amount",
		"Current total collectible invoice amount in dong",
		"{dong}",
	)
	if err != nil {
		return nil, err
	}

	bm.overdueCount, err = NewGauge(
		cfg.Meter,
		"billing_overdue_invoice_count",
		"Number of invoices currently overdue",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Invoice Metrics
// =============================================================================

// RecordInvoiceIssued records an invoice creation with its amount.
// Called from the application layer after the invoice is committed.
func (bm *BillingMetrics) RecordInvoiceIssued(ctx context.Context, invoiceType string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.invoiceIssuedTotal.Inc(ctx, AttrInvoiceType.String(invoiceType))
	bm.invoiceAmountTotal.Add(ctx, amount.IntPart(), AttrInvoiceType.String(invoiceType))
}

// RecordLateFeeApplied records a late-payment penalty accrual.
func (bm *BillingMetrics) RecordLateFeeApplied(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.lateFeeAppliedTotal.Inc(ctx)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentOutcome labels the result of a settlement attempt.
type PaymentOutcome string

const (
	PaymentOutcomeSettled          PaymentOutcome = "settled"
	PaymentOutcomeAlreadyPaid      PaymentOutcome = "already_paid"
	PaymentOutcomeAmountMismatch   PaymentOutcome = "amount_mismatch"
	PaymentOutcomeInvoiceNotFound  PaymentOutcome = "invoice_not_found"
	PaymentOutcomeDuplicateWebhook PaymentOutcome = "duplicate_webhook"
	PaymentOutcomeFailed           PaymentOutcome = "failed"
)

// RecordPayment records a settlement attempt and its outcome.
func (bm *BillingMetrics) RecordPayment(ctx context.Context, method string, outcome PaymentOutcome) {
	if bm == nil {
		return
	}
	bm.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Notification Metrics
// =============================================================================

// RecordNotificationCreated records a new customer notification.
func (bm *BillingMetrics) RecordNotificationCreated(ctx context.Context, messageType string) {
	if bm == nil {
		return
	}
	bm.notificationTotal.Inc(ctx, AttrMessageType.String(messageType))
}

// RecordNotificationDispatched records a delivery attempt result.
func (bm *BillingMetrics) RecordNotificationDispatched(ctx context.Context, messageType string, success bool) {
	if bm == nil {
		return
	}
	outcome := "sent"
	if !success {
		outcome = "failed"
	}
	bm.notificationSentTotal.Inc(ctx,
		AttrMessageType.String(messageType),
		AttrOutcome.String(outcome),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of ledger gauge metrics.
// Non-blocking; use Stop() to stop collection.
func (bm *BillingMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BillingMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectLedgerMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic billing metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic billing metrics collection")
			return
		case <-ticker.C:
			bm.collectLedgerMetrics(ctx)
		}
	}
}

func (bm *BillingMetrics) collectLedgerMetrics(ctx context.Context) {
	if bm.ledgerProvider == nil {
		return
	}

	outstanding, err := bm.ledgerProvider.GetOutstandingAmount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to collect outstanding amount", zap.Error(err))
	} else {
		bm.outstandingAmount.Record(ctx, outstanding.IntPart())
	}

	overdue, err := bm.ledgerProvider.GetOverdueCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to collect overdue count", zap.Error(err))
	} else {
		bm.overdueCount.Record(ctx, overdue)
	}
}

// Stop stops periodic collection.
func (bm *BillingMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// MetricsError represents a metrics configuration error.
type MetricsError struct {
	Op  string
	Err string
}

// Error implements the error interface.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBillingMetrics", Err: "meter cannot be nil"}
