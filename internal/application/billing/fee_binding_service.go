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

// FeeBindingService turns unbilled calibration fees into service invoices and
// handles the cancel/rebill path. A fee backs at most one live invoice;
// cancelling the invoice releases the fee so it can be billed again.
type FeeBindingService struct {
	invoiceRepo billing.InvoiceRepository
	feeRepo     billing.CalibrationFeeRepository
	notifRepo   notification.NotificationRepository
	renderer    notification.Renderer
	tx          TransactionScope
	metrics     *telemetry.BillingMetrics
	logger      *zap.Logger
	vatRate     decimal.Decimal
	dueDays     int
}

// FeeBindingServiceConfig holds configuration for the fee binding service
type FeeBindingServiceConfig struct {
	InvoiceRepo billing.InvoiceRepository
	FeeRepo     billing.CalibrationFeeRepository
	NotifRepo   notification.NotificationRepository
	Renderer    notification.Renderer
	Tx          TransactionScope // Defaults to a no-op scope over the configured repos
	Metrics     *telemetry.BillingMetrics
	Logger      *zap.Logger
	VATRate     decimal.Decimal // Default 0.10
	DueDays     int             // Default 15
}

// NewFeeBindingService creates a new FeeBindingService
func NewFeeBindingService(config FeeBindingServiceConfig) *FeeBindingService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	vatRate := config.VATRate
	if vatRate.IsZero() {
		vatRate = decimal.NewFromFloat(0.10)
	}
	dueDays := config.DueDays
	if dueDays <= 0 {
		dueDays = 15
	}
	tx := config.Tx
	if tx == nil {
		tx = NewNoOpTransactionScope(config.InvoiceRepo, config.FeeRepo, nil)
	}
	return &FeeBindingService{
		invoiceRepo: config.InvoiceRepo,
		feeRepo:     config.FeeRepo,
		notifRepo:   config.NotifRepo,
		renderer:    config.Renderer,
		tx:          tx,
		metrics:     config.Metrics,
		logger:      logger,
		vatRate:     vatRate,
		dueDays:     dueDays,
	}
}

// CreateInvoiceFromFeeInput carries the request to bill a calibration fee
type CreateInvoiceFromFeeInput struct {
	FeeID   uuid.UUID
	StaffID uuid.UUID
}

// CreateInvoiceFromFee issues a service invoice for an unbilled calibration
// fee and binds the fee to it. An already-billed fee is rejected with
// shared.ErrAlreadyExists.
func (s *FeeBindingService) CreateInvoiceFromFee(ctx context.Context, input CreateInvoiceFromFeeInput) (*billing.Invoice, error) {
	fee, err := s.feeRepo.FindByID(ctx, input.FeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load calibration fee: %w", err)
	}
	if fee.IsBound() {
		return nil, fmt.Errorf("%w: calibration fee %s is already billed", shared.ErrAlreadyExists, fee.ID)
	}

	invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}

	subtotal := valueobject.NewMoneyVND(fee.FeeAmount)
	vat := valueobject.NewMoneyVND(fee.FeeAmount.Mul(s.vatRate).Round(0))
	total := subtotal.MustAdd(vat)

	today := time.Now().Truncate(24 * time.Hour)
	inv, err := billing.NewInvoice(billing.NewInvoiceParams{
		InvoiceNumber:   invoiceNumber,
		CustomerID:      fee.CustomerID,
		ContractID:      fee.ContractID,
		Type:            billing.InvoiceTypeService,
		PeriodFrom:      fee.CalibrationDate,
		PeriodTo:        fee.CalibrationDate,
		Subtotal:        subtotal,
		VAT:             vat,
		EnvironmentFee:  valueobject.ZeroVND(),
		Total:           total,
		InvoiceDate:     today,
		DueDate:         today.AddDate(0, 0, s.dueDays),
		IssuedByStaffID: input.StaffID,
	})
	if err != nil {
		return nil, err
	}

	if err := fee.BindToInvoice(inv.ID); err != nil {
		return nil, err
	}

	// The invoice and the fee binding commit together. When another request
	// billed the fee first the version check fails and the rollback discards
	// the invoice we just issued.
	err = s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		if err := repos.FeeRepo().SaveWithLock(ctx, fee); err != nil {
			return fmt.Errorf("failed to bind calibration fee: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Service invoice issued from calibration fee",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("fee_id", fee.ID.String()),
		zap.String("meter_code", fee.MeterCode),
		zap.String("total_amount", inv.TotalAmount.String()))

	s.metrics.RecordInvoiceIssued(ctx, string(inv.Type), inv.TotalAmount)

	s.notifyInvoiceIssued(ctx, inv)

	return inv, nil
}

// CancelInvoice voids a pending invoice and releases any calibration fee
// bound to it back to the unbilled pool.
func (s *FeeBindingService) CancelInvoice(ctx context.Context, invoiceID, staffID uuid.UUID) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	if err := inv.Cancel(staffID); err != nil {
		return nil, err
	}

	// Cancellation and the fee release commit together. A cancelled invoice
	// must never keep a fee bound, so a failed lookup or release rolls the
	// whole cancellation back.
	var released *billing.CalibrationFee
	err = s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return fmt.Errorf("failed to save cancelled invoice: %w", err)
		}

		fee, err := repos.FeeRepo().FindByInvoiceID(ctx, inv.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to look up fee for cancelled invoice: %w", err)
		}

		if err := fee.ReleaseFromInvoice(); err != nil {
			return err
		}
		if err := repos.FeeRepo().SaveWithLock(ctx, fee); err != nil {
			return fmt.Errorf("failed to release calibration fee: %w", err)
		}
		released = fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	if released != nil {
		s.logger.Info("Calibration fee released for rebilling",
			zap.String("fee_id", released.ID.String()),
			zap.String("invoice_number", inv.InvoiceNumber))
	}

	s.logger.Info("Invoice cancelled",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("cancelled_by", staffID.String()))

	return inv, nil
}

// ListUnboundFees returns a page of the unbilled calibration fees recorded
// by a staff member, oldest calibration first. The filter's search term
// narrows by meter code.
func (s *FeeBindingService) ListUnboundFees(ctx context.Context, staffID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.CalibrationFee], error) {
	if staffID == uuid.Nil {
		return nil, fmt.Errorf("%w: staff ID cannot be empty", shared.ErrInvalidInput)
	}
	fees, total, err := s.feeRepo.FindUnbilledByStaff(ctx, staffID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list unbilled fees: %w", err)
	}
	page := shared.NewPaginated(fees, total, filter.Page, filter.PageSize)
	return &page, nil
}

// notifyInvoiceIssued writes the issuance notification after the bind has
// committed. Delivery is best-effort; failures are logged and swallowed.
func (s *FeeBindingService) notifyInvoiceIssued(ctx context.Context, inv *billing.Invoice) {
	if s.notifRepo == nil || s.renderer == nil {
		return
	}

	title, body, err := s.renderer.Render(notification.MessageTypeInvoiceIssued, map[string]string{
		"invoice_number": inv.InvoiceNumber,
		"total_amount":   inv.TotalAmount.String(),
		"due_date":       inv.DueDate.Format("2006-01-02"),
	})
	if err != nil {
		s.logger.Warn("Failed to render invoice issuance notification", zap.Error(err))
		return
	}

	n, err := notification.NewInvoiceNotification(inv.CustomerID, inv.ID, notification.MessageTypeInvoiceIssued, title, body)
	if err != nil {
		s.logger.Warn("Failed to build invoice issuance notification", zap.Error(err))
		return
	}
	if err := s.notifRepo.Save(ctx, n); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Warn("Failed to save invoice issuance notification",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
		}
		return
	}
	s.metrics.RecordNotificationCreated(ctx, string(notification.MessageTypeInvoiceIssued))
}
