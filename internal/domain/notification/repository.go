package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/shared"
)

// NotificationFilter defines filtering options for notification queries
type NotificationFilter struct {
	shared.Filter
	CustomerID  *uuid.UUID
	MessageType *MessageType
	Status      *NotificationStatus
}

// NotificationRepository defines the interface for notification persistence.
// Save must return shared.ErrAlreadyExists when a notification for the same
// invoice or related record and message type has already been written.
type NotificationRepository interface {
	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// FindByCustomer finds notifications for a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter NotificationFilter) (*shared.Paginated[Notification], error)

	// FindPending finds undelivered notifications, oldest first
	FindPending(ctx context.Context, limit int) ([]Notification, error)

	// FindLatestAttachmentURL returns the newest non-empty attachment URL
	// written for an invoice, or empty when none exists
	FindLatestAttachmentURL(ctx context.Context, invoiceID uuid.UUID) (string, error)

	// Save creates a notification or updates its delivery status
	Save(ctx context.Context, n *Notification) error
}
