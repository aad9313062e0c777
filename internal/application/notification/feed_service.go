package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FeedService serves a customer's notification history, newest first. The
// daily passes write the notifications; this is the read side behind the
// customer-facing feed.
type FeedService struct {
	notifRepo notification.NotificationRepository
	logger    *zap.Logger
}

// FeedServiceConfig holds configuration for the feed service
type FeedServiceConfig struct {
	NotifRepo notification.NotificationRepository
	Logger    *zap.Logger
}

// NewFeedService creates a new FeedService
func NewFeedService(config FeedServiceConfig) *FeedService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{
		notifRepo: config.NotifRepo,
		logger:    logger,
	}
}

// ListCustomerNotifications returns a page of the customer's notifications.
func (s *FeedService) ListCustomerNotifications(ctx context.Context, customerID uuid.UUID, filter notification.NotificationFilter) (*shared.Paginated[notification.Notification], error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer ID cannot be empty", shared.ErrInvalidInput)
	}
	if filter.MessageType != nil && !filter.MessageType.IsValid() {
		return nil, fmt.Errorf("%w: unknown message type %q", shared.ErrInvalidInput, *filter.MessageType)
	}
	page, err := s.notifRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer notifications: %w", err)
	}
	return page, nil
}
