package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for customer notifications.
// Two partial unique indexes (created by migration, see the notifications
// migration file) deduplicate one message type per invoice and per related
// record; the repository maps their violation to shared.ErrAlreadyExists.
type NotificationModel struct {
	BaseModel
	CustomerID    uuid.UUID                       `gorm:"type:uuid;not null;index"`
	InvoiceID     *uuid.UUID                      `gorm:"type:uuid;index"`
	RelatedType   *notification.RelatedType       `gorm:"type:varchar(30)"`
	RelatedID     *uuid.UUID                      `gorm:"type:uuid"`
	MessageType   notification.MessageType        `gorm:"type:varchar(40);not null;index"`
	Title         string                          `gorm:"type:varchar(200);not null"`
	Content       string                          `gorm:"type:text;not null"`
	AttachmentURL string                          `gorm:"type:varchar(500)"`
	Status        notification.NotificationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SentAt        *time.Time
	FailureReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification.
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity:    m.BaseModel.ToDomain(),
		CustomerID:    m.CustomerID,
		InvoiceID:     m.InvoiceID,
		RelatedType:   m.RelatedType,
		RelatedID:     m.RelatedID,
		MessageType:   m.MessageType,
		Title:         m.Title,
		Content:       m.Content,
		AttachmentURL: m.AttachmentURL,
		Status:        m.Status,
		SentAt:        m.SentAt,
		FailureReason: m.FailureReason,
	}
}

// NotificationModelFromDomain creates a new persistence model from a domain Notification.
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{}
	m.FromDomainBaseEntity(n.BaseEntity)
	m.CustomerID = n.CustomerID
	m.InvoiceID = n.InvoiceID
	m.RelatedType = n.RelatedType
	m.RelatedID = n.RelatedID
	m.MessageType = n.MessageType
	m.Title = n.Title
	m.Content = n.Content
	m.AttachmentURL = n.AttachmentURL
	m.Status = n.Status
	m.SentAt = n.SentAt
	m.FailureReason = n.FailureReason
	return m
}
