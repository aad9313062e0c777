package notify

import (
	"context"

	"github.com/waterworks/backend/internal/domain/notification"
	"go.uber.org/zap"
)

// LogDispatcher delivers notifications to the application log. It stands in
// for the SMS/Zalo gateway in environments without one; the dispatch loop
// treats it like any other channel.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher creates a new LogDispatcher
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch attempts delivery of a single notification
func (d *LogDispatcher) Dispatch(ctx context.Context, n *notification.Notification) error {
	d.logger.Info("Notification delivered",
		zap.String("notification_id", n.ID.String()),
		zap.String("customer_id", n.CustomerID.String()),
		zap.String("message_type", string(n.MessageType)),
		zap.String("title", n.Title),
	)
	return nil
}

// Ensure LogDispatcher implements Dispatcher
var _ notification.Dispatcher = (*LogDispatcher)(nil)
