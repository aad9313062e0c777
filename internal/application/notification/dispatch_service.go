package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// defaultDispatchBatchSize bounds how many notifications one pass drains.
const defaultDispatchBatchSize = 200

// DispatchService drains pending notifications through the outbound
// dispatcher. The ledger write always happens first, in the service that
// produced the notification; this pass only attempts delivery and records
// the outcome. A failed delivery is recorded on the row and retried by the
// next pass, never surfaced to the producer.
type DispatchService struct {
	notifRepo  notification.NotificationRepository
	dispatcher notification.Dispatcher
	metrics    *telemetry.BillingMetrics
	logger     *zap.Logger
	batchSize  int
}

// DispatchServiceConfig holds configuration for the dispatch service
type DispatchServiceConfig struct {
	NotifRepo  notification.NotificationRepository
	Dispatcher notification.Dispatcher
	Metrics    *telemetry.BillingMetrics
	Logger     *zap.Logger
	BatchSize  int // Default 200
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(config DispatchServiceConfig) *DispatchService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultDispatchBatchSize
	}
	return &DispatchService{
		notifRepo:  config.NotifRepo,
		dispatcher: config.Dispatcher,
		metrics:    config.Metrics,
		logger:     logger,
		batchSize:  batchSize,
	}
}

// DispatchPending attempts delivery of pending notifications, oldest first.
func (s *DispatchService) DispatchPending(ctx context.Context) (*PassResult, error) {
	pending, err := s.notifRepo.FindPending(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending notifications: %w", err)
	}

	result := &PassResult{Scanned: len(pending)}
	for i := range pending {
		n := &pending[i]

		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			n.MarkFailed(err.Error())
			result.Failed++
			s.metrics.RecordNotificationDispatched(ctx, string(n.MessageType), false)
			s.logger.Warn("Notification delivery failed",
				zap.String("notification_id", n.ID.String()),
				zap.String("message_type", string(n.MessageType)),
				zap.Error(err))
		} else {
			n.MarkSent(time.Now())
			result.Created++
			s.metrics.RecordNotificationDispatched(ctx, string(n.MessageType), true)
		}

		if err := s.notifRepo.Save(ctx, n); err != nil {
			s.logger.Error("Failed to record notification delivery status",
				zap.String("notification_id", n.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Notification dispatch pass completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("sent", result.Created),
		zap.Int("failed", result.Failed))

	return result, nil
}
