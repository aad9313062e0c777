package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/contract"
	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// newWaterBill builds a pending metered invoice with the given consumption.
// Monetary amounts are kept flat so the tests read on consumption alone.
func newWaterBill(t *testing.T, number string, customerID uuid.UUID, consumption int64, periodTo time.Time) *billing.Invoice {
	t.Helper()
	readingID := uuid.New()
	inv, err := billing.NewInvoice(billing.NewInvoiceParams{
		InvoiceNumber:    number,
		CustomerID:       customerID,
		MeterReadingID:   &readingID,
		Type:             billing.InvoiceTypeWater,
		PeriodFrom:       periodTo.AddDate(0, -1, 0),
		PeriodTo:         periodTo,
		TotalConsumption: decimal.NewFromInt(consumption),
		Subtotal:         valueobject.NewMoneyVNDFromInt(100000),
		VAT:              valueobject.NewMoneyVNDFromInt(10000),
		EnvironmentFee:   valueobject.NewMoneyVNDFromInt(0),
		Total:            valueobject.NewMoneyVNDFromInt(110000),
		InvoiceDate:      periodTo.AddDate(0, 0, 1),
		DueDate:          periodTo.AddDate(0, 0, 15),
		IssuedByStaffID:  uuid.New(),
	})
	require.NoError(t, err)
	return inv
}

// waterBillHistory builds newest-first invoices from newest-first consumptions.
func waterBillHistory(t *testing.T, customerID uuid.UUID, consumptions []int64) []billing.Invoice {
	t.Helper()
	history := make([]billing.Invoice, 0, len(consumptions))
	periodTo := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	for i, c := range consumptions {
		inv := newWaterBill(t, "HD-2026-00030"+string(rune('0'+i)), customerID, c, periodTo.AddDate(0, -i, 0))
		history = append(history, *inv)
	}
	return history
}

func newLeakService(invoiceRepo *MockInvoiceRepository, notifRepo *MockNotificationRepository,
	renderer *MockRenderer) *LeakDetectionService {
	return NewLeakDetectionService(LeakDetectionServiceConfig{
		InvoiceRepo: invoiceRepo,
		NotifRepo:   notifRepo,
		Renderer:    renderer,
		Logger:      zap.NewNop(),
	})
}

func TestLeakDetectionService_RunLeakCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("fires one warning when consumption triples the trailing average", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		notifRepo := new(MockNotificationRepository)
		renderer := new(MockRenderer)
		svc := newLeakService(invoiceRepo, notifRepo, renderer)

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{30, 10, 10, 10})
		triggering := &history[0]

		invoiceRepo.On("FindByID", ctx, triggering.ID).Return(triggering, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)
		renderer.On("Render", notification.MessageTypeLeakWarning, mock.MatchedBy(func(p map[string]string) bool {
			return p["ratio"] == "3.00" && p["avg_prev"] == "10.0"
		})).Return("Possible leak", "Consumption tripled against your recent average", nil)
		notifRepo.On("Save", ctx, mock.MatchedBy(func(n *notification.Notification) bool {
			return n.MessageType == notification.MessageTypeLeakWarning &&
				n.CustomerID == customerID &&
				n.InvoiceID != nil && *n.InvoiceID == triggering.ID &&
				n.RelatedType != nil && *n.RelatedType == notification.RelatedTypeMeterReading &&
				n.RelatedID != nil && *n.RelatedID == *triggering.MeterReadingID
		})).Return(nil).Once()

		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		notifRepo.AssertExpectations(t)

		// A second run over the same data lands on the dedup index and stays quiet
		notifRepo.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists)
		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		notifRepo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("includes the meter code when the reading repository is wired", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		readingRepo := new(MockMeterReadingRepository)
		notifRepo := new(MockNotificationRepository)
		renderer := new(MockRenderer)
		svc := NewLeakDetectionService(LeakDetectionServiceConfig{
			InvoiceRepo: invoiceRepo,
			ReadingRepo: readingRepo,
			NotifRepo:   notifRepo,
			Renderer:    renderer,
			Logger:      zap.NewNop(),
		})

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{30, 10, 10, 10})
		triggering := &history[0]

		invoiceRepo.On("FindByID", ctx, triggering.ID).Return(triggering, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)
		readingRepo.On("FindByID", ctx, *triggering.MeterReadingID).
			Return(&contract.MeterReading{MeterCode: "DH-07-3301"}, nil)
		renderer.On("Render", notification.MessageTypeLeakWarning, mock.MatchedBy(func(p map[string]string) bool {
			return p["meter_code"] == "DH-07-3301"
		})).Return("Possible leak", "body", nil)
		notifRepo.On("Save", ctx, mock.Anything).Return(nil)

		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		readingRepo.AssertExpectations(t)
		renderer.AssertExpectations(t)
	})

	t.Run("stays silent just under the threshold", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		notifRepo := new(MockNotificationRepository)
		svc := newLeakService(invoiceRepo, notifRepo, new(MockRenderer))

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{14, 10, 10, 10})
		triggering := &history[0]

		invoiceRepo.On("FindByID", ctx, triggering.ID).Return(triggering, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)

		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		notifRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("fires exactly at the threshold", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		notifRepo := new(MockNotificationRepository)
		renderer := new(MockRenderer)
		svc := newLeakService(invoiceRepo, notifRepo, renderer)

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{15, 10, 10, 10})
		triggering := &history[0]

		invoiceRepo.On("FindByID", ctx, triggering.ID).Return(triggering, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)
		renderer.On("Render", notification.MessageTypeLeakWarning, mock.Anything).
			Return("Possible leak", "body", nil)
		notifRepo.On("Save", ctx, mock.Anything).Return(nil)

		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		notifRepo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("skips with fewer than four bills of history", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		notifRepo := new(MockNotificationRepository)
		svc := newLeakService(invoiceRepo, notifRepo, new(MockRenderer))

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{30, 10, 10})
		triggering := &history[0]

		invoiceRepo.On("FindByID", ctx, triggering.ID).Return(triggering, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)

		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		notifRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("skips zero trailing average", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		notifRepo := new(MockNotificationRepository)
		svc := newLeakService(invoiceRepo, notifRepo, new(MockRenderer))

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{30, 0, 0, 0})
		triggering := &history[0]

		invoiceRepo.On("FindByID", ctx, triggering.ID).Return(triggering, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)

		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		notifRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("skips when the invoice is no longer the newest", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		notifRepo := new(MockNotificationRepository)
		svc := newLeakService(invoiceRepo, notifRepo, new(MockRenderer))

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{30, 10, 10, 10})
		older := &history[1]

		invoiceRepo.On("FindByID", ctx, older.ID).Return(older, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)

		require.NoError(t, svc.RunLeakCheck(ctx, older.ID))
		notifRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-water invoices", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		svc := newLeakService(invoiceRepo, new(MockNotificationRepository), new(MockRenderer))

		inv, err := billing.NewInvoice(billing.NewInvoiceParams{
			InvoiceNumber:   "DV-2026-000001",
			CustomerID:      uuid.New(),
			Type:            billing.InvoiceTypeService,
			Subtotal:        valueobject.NewMoneyVNDFromInt(150000),
			VAT:             valueobject.NewMoneyVNDFromInt(15000),
			EnvironmentFee:  valueobject.NewMoneyVNDFromInt(0),
			Total:           valueobject.NewMoneyVNDFromInt(165000),
			InvoiceDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			DueDate:         time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC),
			IssuedByStaffID: uuid.New(),
		})
		require.NoError(t, err)

		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)

		err = svc.RunLeakCheck(ctx, inv.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("custom threshold applies", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		notifRepo := new(MockNotificationRepository)
		svc := NewLeakDetectionService(LeakDetectionServiceConfig{
			InvoiceRepo: invoiceRepo,
			NotifRepo:   notifRepo,
			Renderer:    new(MockRenderer),
			Threshold:   decimal.NewFromInt(4),
		})

		customerID := uuid.New()
		history := waterBillHistory(t, customerID, []int64{30, 10, 10, 10})
		triggering := &history[0]

		invoiceRepo.On("FindByID", ctx, triggering.ID).Return(triggering, nil)
		invoiceRepo.On("FindRecentWaterBills", ctx, customerID, 4).Return(history, nil)

		require.NoError(t, svc.RunLeakCheck(ctx, triggering.ID))
		notifRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
