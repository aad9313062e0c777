package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/shared"
)

// MessageType classifies what a customer notification is about
type MessageType string

const (
	MessageTypePaymentReminder     MessageType = "PAYMENT_REMINDER"         // Due date approaching
	MessageTypeLatePaymentNotice   MessageType = "LATE_PAYMENT_NOTICE"      // Late fee accrued
	MessageTypePaymentConfirmation MessageType = "PAYMENT_CONFIRMATION"     // Invoice settled
	MessageTypeContractExpiry      MessageType = "CONTRACT_EXPIRY_REMINDER" // Contract ends soon
	MessageTypeLeakWarning         MessageType = "LEAK_WARNING"             // Abnormal consumption spike
	MessageTypeInvoiceIssued       MessageType = "SERVICE_INVOICE_ISSUED"   // New service invoice created
)

// IsValid checks if the message type is valid
func (m MessageType) IsValid() bool {
	switch m {
	case MessageTypePaymentReminder, MessageTypeLatePaymentNotice, MessageTypePaymentConfirmation,
		MessageTypeContractExpiry, MessageTypeLeakWarning, MessageTypeInvoiceIssued:
		return true
	}
	return false
}

// NotificationStatus tracks delivery of a notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// RelatedType names the non-invoice record a notification refers to
type RelatedType string

const (
	RelatedTypeContract     RelatedType = "CONTRACT"
	RelatedTypeMeterReading RelatedType = "METER_READING"
)

// Notification is a customer-facing message. A notification about an invoice
// carries InvoiceID; one about another record carries the RelatedType and
// RelatedID pair. The persistence layer enforces at most one notification per
// (invoice, message type) and per (related record, message type), which is
// what keeps the daily passes from double-sending.
type Notification struct {
	shared.BaseEntity
	CustomerID    uuid.UUID          `json:"customer_id"`
	InvoiceID     *uuid.UUID         `json:"invoice_id"`
	RelatedType   *RelatedType       `json:"related_type"`
	RelatedID     *uuid.UUID         `json:"related_id"`
	MessageType   MessageType        `json:"message_type"`
	Title         string             `json:"title"`
	Content       string             `json:"content"`
	AttachmentURL string             `json:"attachment_url"` // Rendered bill document, when one exists
	Status        NotificationStatus `json:"status"`
	SentAt        *time.Time         `json:"sent_at"`
	FailureReason string             `json:"failure_reason"`
}

// NewInvoiceNotification creates a pending notification tied to an invoice
func NewInvoiceNotification(customerID, invoiceID uuid.UUID, messageType MessageType, title, content string) (*Notification, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !messageType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MESSAGE_TYPE", "Message type is not valid")
	}
	if content == "" {
		return nil, shared.NewDomainError("INVALID_CONTENT", "Notification content cannot be empty")
	}
	return &Notification{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		InvoiceID:   &invoiceID,
		MessageType: messageType,
		Title:       title,
		Content:     content,
		Status:      NotificationStatusPending,
	}, nil
}

// NewRelatedNotification creates a pending notification tied to a non-invoice
// record, e.g. an expiring contract or the meter reading behind a leak warning
func NewRelatedNotification(customerID uuid.UUID, relatedType RelatedType, relatedID uuid.UUID,
	messageType MessageType, title, content string) (*Notification, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if relatedID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RELATED", "Related record ID cannot be empty")
	}
	if !messageType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MESSAGE_TYPE", "Message type is not valid")
	}
	if content == "" {
		return nil, shared.NewDomainError("INVALID_CONTENT", "Notification content cannot be empty")
	}
	rt := relatedType
	return &Notification{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		RelatedType: &rt,
		RelatedID:   &relatedID,
		MessageType: messageType,
		Title:       title,
		Content:     content,
		Status:      NotificationStatusPending,
	}, nil
}

// WithAttachment sets the rendered document URL on the notification
func (n *Notification) WithAttachment(url string) *Notification {
	n.AttachmentURL = url
	return n
}

// MarkSent records successful delivery
func (n *Notification) MarkSent(at time.Time) {
	n.Status = NotificationStatusSent
	n.SentAt = &at
	n.FailureReason = ""
	n.UpdatedAt = time.Now()
}

// MarkFailed records a delivery failure. The notification stays in the ledger
// and can be retried by a later dispatch pass.
func (n *Notification) MarkFailed(reason string) {
	n.Status = NotificationStatusFailed
	n.FailureReason = reason
	n.UpdatedAt = time.Now()
}
