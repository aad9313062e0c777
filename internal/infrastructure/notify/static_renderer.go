// Package notify provides the delivery-side adapters for customer
// notifications: message rendering and channel dispatch.
package notify

import (
	"fmt"
	"strings"

	"github.com/waterworks/backend/internal/domain/notification"
)

// messageTemplate holds the title and body patterns for one message type.
// Placeholders are written as {param} and substituted from the render params.
type messageTemplate struct {
	title string
	body  string
}

var defaultTemplates = map[notification.MessageType]messageTemplate{
	notification.MessageTypeInvoiceIssued: {
		title: "Hoa don {invoice_number} da phat hanh",
		body:  "Hoa don {invoice_number} voi tong tien {total_amount} VND da duoc phat hanh. Vui long thanh toan truoc ngay {due_date}.",
	},
	notification.MessageTypePaymentReminder: {
		title: "Nhac thanh toan hoa don {invoice_number}",
		body:  "Hoa don {invoice_number} voi tong tien {total_amount} VND se den han vao ngay {due_date} (con {days_left} ngay).",
	},
	notification.MessageTypeLatePaymentNotice: {
		title: "Thong bao qua han hoa don {invoice_number}",
		body:  "Hoa don {invoice_number} da qua han thanh toan ngay {due_date}. Phi tre han {late_fee_amount} VND da duoc cong vao tong tien {total_amount} VND.",
	},
	notification.MessageTypePaymentConfirmation: {
		title: "Xac nhan thanh toan hoa don {invoice_number}",
		body:  "Khoan thanh toan {amount} VND cho hoa don {invoice_number} da duoc ghi nhan. So bien lai: {receipt_number}.",
	},
	notification.MessageTypeContractExpiry: {
		title: "Hop dong {contract_number} sap het han",
		body:  "Hop dong cap nuoc {contract_number} se het han vao ngay {end_date} (con {days_left} ngay). Vui long lien he de gia han.",
	},
	notification.MessageTypeLeakWarning: {
		title: "Canh bao ro ri nuoc",
		body:  "Luong tieu thu cua hoa don {invoice_number} la {consumption} m3, gap {ratio} lan muc trung binh {avg_prev} m3 cac ky truoc. Vui long kiem tra duong ong.",
	},
}

// StaticRenderer renders notification messages from a fixed template per
// message type.
type StaticRenderer struct {
	templates map[notification.MessageType]messageTemplate
}

// NewStaticRenderer creates a renderer with the built-in templates
func NewStaticRenderer() *StaticRenderer {
	return &StaticRenderer{templates: defaultTemplates}
}

// Render returns the title and body for the given message type
func (r *StaticRenderer) Render(messageType notification.MessageType, params map[string]string) (string, string, error) {
	tmpl, ok := r.templates[messageType]
	if !ok {
		return "", "", fmt.Errorf("no template for message type %s", messageType)
	}
	return substitute(tmpl.title, params), substitute(tmpl.body, params), nil
}

func substitute(pattern string, params map[string]string) string {
	out := pattern
	for key, value := range params {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// Ensure StaticRenderer implements Renderer
var _ notification.Renderer = (*StaticRenderer)(nil)
