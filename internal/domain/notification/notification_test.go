package notification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageType_IsValid(t *testing.T) {
	tests := []struct {
		messageType MessageType
		isValid     bool
	}{
		{MessageTypePaymentReminder, true},
		{MessageTypeLatePaymentNotice, true},
		{MessageTypePaymentConfirmation, true},
		{MessageTypeContractExpiry, true},
		{MessageTypeLeakWarning, true},
		{MessageTypeInvoiceIssued, true},
		{MessageType("SPAM"), false},
		{MessageType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.messageType), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.messageType.IsValid())
		})
	}
}

func TestNewInvoiceNotification(t *testing.T) {
	t.Run("creates pending notification", func(t *testing.T) {
		customerID := uuid.New()
		invoiceID := uuid.New()

		n, err := NewInvoiceNotification(customerID, invoiceID, MessageTypePaymentReminder,
			"Payment reminder", "Invoice HD-2026-000123 is due on 2026-09-04")
		require.NoError(t, err)

		assert.Equal(t, NotificationStatusPending, n.Status)
		assert.Equal(t, invoiceID, *n.InvoiceID)
		assert.Nil(t, n.RelatedID)
		assert.Nil(t, n.SentAt)
	})

	t.Run("rejects nil invoice", func(t *testing.T) {
		_, err := NewInvoiceNotification(uuid.New(), uuid.Nil, MessageTypePaymentReminder, "t", "c")
		assert.Error(t, err)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := NewInvoiceNotification(uuid.New(), uuid.New(), MessageTypePaymentReminder, "t", "")
		assert.Error(t, err)
	})

	t.Run("rejects invalid message type", func(t *testing.T) {
		_, err := NewInvoiceNotification(uuid.New(), uuid.New(), MessageType("SPAM"), "t", "c")
		assert.Error(t, err)
	})
}

func TestNewRelatedNotification(t *testing.T) {
	t.Run("creates contract expiry notification", func(t *testing.T) {
		contractID := uuid.New()

		n, err := NewRelatedNotification(uuid.New(), RelatedTypeContract, contractID,
			MessageTypeContractExpiry, "Contract expiring", "Contract HDN-2025-00042 ends in 7 days")
		require.NoError(t, err)

		assert.Nil(t, n.InvoiceID)
		require.NotNil(t, n.RelatedType)
		assert.Equal(t, RelatedTypeContract, *n.RelatedType)
		assert.Equal(t, contractID, *n.RelatedID)
	})

	t.Run("rejects nil related id", func(t *testing.T) {
		_, err := NewRelatedNotification(uuid.New(), RelatedTypeContract, uuid.Nil,
			MessageTypeContractExpiry, "t", "c")
		assert.Error(t, err)
	})
}

func TestNotification_DeliveryTransitions(t *testing.T) {
	newNotification := func(t *testing.T) *Notification {
		n, err := NewInvoiceNotification(uuid.New(), uuid.New(), MessageTypeLatePaymentNotice,
			"Overdue", "Invoice HD-2026-000123 is overdue")
		require.NoError(t, err)
		return n
	}

	t.Run("mark sent", func(t *testing.T) {
		n := newNotification(t)
		sentAt := time.Now()

		n.MarkSent(sentAt)

		assert.Equal(t, NotificationStatusSent, n.Status)
		require.NotNil(t, n.SentAt)
		assert.Equal(t, sentAt, *n.SentAt)
	})

	t.Run("mark failed keeps the record for retry", func(t *testing.T) {
		n := newNotification(t)

		n.MarkFailed("smtp timeout")

		assert.Equal(t, NotificationStatusFailed, n.Status)
		assert.Equal(t, "smtp timeout", n.FailureReason)
		assert.Nil(t, n.SentAt)
	})

	t.Run("retry after failure clears the reason", func(t *testing.T) {
		n := newNotification(t)
		n.MarkFailed("smtp timeout")

		n.MarkSent(time.Now())

		assert.Equal(t, NotificationStatusSent, n.Status)
		assert.Empty(t, n.FailureReason)
	})
}
