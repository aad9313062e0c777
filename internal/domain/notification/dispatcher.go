package notification

import "context"

// Dispatcher delivers a notification to the customer over an outbound
// channel. Implementations must be safe for concurrent use; delivery is
// best-effort and a failed dispatch never rolls back the ledger write that
// produced the notification.
type Dispatcher interface {
	// Dispatch attempts delivery of a single notification
	Dispatch(ctx context.Context, n *Notification) error
}

// Renderer builds the customer-facing title and body for a message type from
// named parameters, e.g. invoice number, amount, due date.
type Renderer interface {
	// Render returns the title and body for the given message type
	Render(messageType MessageType, params map[string]string) (title string, body string, err error)
}
