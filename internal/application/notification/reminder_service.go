package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/contract"
	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReminderService runs the daily reminder passes: payment reminders for
// invoices approaching their due date and expiry reminders for contracts
// nearing their end date. Both passes deduplicate through the notification
// ledger, so re-running a pass on the same day writes nothing new.
type ReminderService struct {
	invoiceRepo  billing.InvoiceRepository
	contractRepo contract.ContractRepository
	notifRepo    notification.NotificationRepository
	renderer     notification.Renderer
	metrics      *telemetry.BillingMetrics
	logger       *zap.Logger
	reminderDays int
	expiryDays   int
}

// ReminderServiceConfig holds configuration for the reminder service
type ReminderServiceConfig struct {
	InvoiceRepo  billing.InvoiceRepository
	ContractRepo contract.ContractRepository
	NotifRepo    notification.NotificationRepository
	Renderer     notification.Renderer
	Metrics      *telemetry.BillingMetrics
	Logger       *zap.Logger
	ReminderDays int // Payment reminder lead time, default 5
	ExpiryDays   int // Contract expiry look-ahead window, default 10
}

// NewReminderService creates a new ReminderService
func NewReminderService(config ReminderServiceConfig) *ReminderService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reminderDays := config.ReminderDays
	if reminderDays <= 0 {
		reminderDays = 5
	}
	expiryDays := config.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = 10
	}
	return &ReminderService{
		invoiceRepo:  config.InvoiceRepo,
		contractRepo: config.ContractRepo,
		notifRepo:    config.NotifRepo,
		renderer:     config.Renderer,
		metrics:      config.Metrics,
		logger:       logger,
		reminderDays: reminderDays,
		expiryDays:   expiryDays,
	}
}

// PassResult summarizes one reminder or dispatch pass
type PassResult struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RunPaymentReminderPass emits one payment reminder for every collectible
// invoice whose due date is exactly the configured number of days out. A
// previously rendered bill attachment is reused when one exists.
func (s *ReminderService) RunPaymentReminderPass(ctx context.Context) (*PassResult, error) {
	today := time.Now().Truncate(24 * time.Hour)
	targetDue := today.AddDate(0, 0, s.reminderDays)

	invoices, err := s.invoiceRepo.FindDueOn(ctx, targetDue,
		[]billing.InvoiceStatus{billing.InvoiceStatusPending, billing.InvoiceStatusPartiallyPaid})
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoices due on %s: %w", targetDue.Format("2006-01-02"), err)
	}

	result := &PassResult{Scanned: len(invoices)}
	for i := range invoices {
		inv := &invoices[i]

		title, body, err := s.renderer.Render(notification.MessageTypePaymentReminder, map[string]string{
			"invoice_number": inv.InvoiceNumber,
			"total_amount":   inv.TotalAmount.String(),
			"due_date":       inv.DueDate.Format("2006-01-02"),
			"days_left":      strconv.Itoa(s.reminderDays),
		})
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to render payment reminder",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
			continue
		}

		n, err := notification.NewInvoiceNotification(inv.CustomerID, inv.ID,
			notification.MessageTypePaymentReminder, title, body)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to build payment reminder",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
			continue
		}

		if url, err := s.notifRepo.FindLatestAttachmentURL(ctx, inv.ID); err == nil && url != "" {
			n.WithAttachment(url)
		}

		switch err := s.notifRepo.Save(ctx, n); {
		case err == nil:
			result.Created++
			s.metrics.RecordNotificationCreated(ctx, string(notification.MessageTypePaymentReminder))
		case errors.Is(err, shared.ErrAlreadyExists):
			result.Skipped++
		default:
			result.Failed++
			s.logger.Error("Failed to save payment reminder",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err))
		}
	}

	s.logger.Info("Payment reminder pass completed",
		zap.String("due_date", targetDue.Format("2006-01-02")),
		zap.Int("scanned", result.Scanned),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

// RunContractExpiryPass emits one expiry reminder for every active contract
// whose end date falls inside the look-ahead window.
func (s *ReminderService) RunContractExpiryPass(ctx context.Context) (*PassResult, error) {
	today := time.Now().Truncate(24 * time.Hour)

	contracts, err := s.contractRepo.FindActiveExpiringWithin(ctx, today, s.expiryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expiring contracts: %w", err)
	}

	result := &PassResult{Scanned: len(contracts)}
	for i := range contracts {
		c := &contracts[i]

		title, body, err := s.renderer.Render(notification.MessageTypeContractExpiry, map[string]string{
			"contract_number": c.ContractNumber,
			"end_date":        c.EndDate.Format("2006-01-02"),
			"days_left":       strconv.Itoa(c.DaysUntilExpiry(today)),
		})
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to render contract expiry reminder",
				zap.String("contract_number", c.ContractNumber),
				zap.Error(err))
			continue
		}

		n, err := notification.NewRelatedNotification(c.CustomerID, notification.RelatedTypeContract, c.ID,
			notification.MessageTypeContractExpiry, title, body)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to build contract expiry reminder",
				zap.String("contract_number", c.ContractNumber),
				zap.Error(err))
			continue
		}

		switch err := s.notifRepo.Save(ctx, n); {
		case err == nil:
			result.Created++
			s.metrics.RecordNotificationCreated(ctx, string(notification.MessageTypeContractExpiry))
		case errors.Is(err, shared.ErrAlreadyExists):
			result.Skipped++
		default:
			result.Failed++
			s.logger.Error("Failed to save contract expiry reminder",
				zap.String("contract_number", c.ContractNumber),
				zap.Error(err))
		}
	}

	s.logger.Info("Contract expiry pass completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}
