package dto

import (
	"time"

	"github.com/waterworks/backend/internal/domain/notification"
)

// NotificationListRequest carries the query parameters of the customer
// notification feed
type NotificationListRequest struct {
	ListRequest
	MessageType string `form:"message_type"`
	Status      string `form:"status"`
}

// ToNotificationFilter converts the request into a repository filter
func (r NotificationListRequest) ToNotificationFilter() notification.NotificationFilter {
	filter := notification.NotificationFilter{Filter: r.ToFilter()}
	if r.MessageType != "" {
		messageType := notification.MessageType(r.MessageType)
		filter.MessageType = &messageType
	}
	if r.Status != "" {
		status := notification.NotificationStatus(r.Status)
		filter.Status = &status
	}
	return filter
}

// NotificationResponse represents a customer notification in API responses
type NotificationResponse struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	InvoiceID     *string    `json:"invoice_id,omitempty"`
	MessageType   string     `json:"message_type"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	AttachmentURL string     `json:"attachment_url,omitempty"`
	Status        string     `json:"status"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToNotificationResponse maps a domain notification to its API representation
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:            n.ID.String(),
		CustomerID:    n.CustomerID.String(),
		MessageType:   string(n.MessageType),
		Title:         n.Title,
		Content:       n.Content,
		AttachmentURL: n.AttachmentURL,
		Status:        string(n.Status),
		SentAt:        n.SentAt,
		CreatedAt:     n.CreatedAt,
	}
	if n.InvoiceID != nil {
		id := n.InvoiceID.String()
		resp.InvoiceID = &id
	}
	return resp
}
