package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	billingapp "github.com/waterworks/backend/internal/application/billing"
	"github.com/waterworks/backend/internal/interfaces/http/dto"
)

// WebhookTokenHeader carries the shared secret the banking partner presents
// on every notification.
const WebhookTokenHeader = "X-Webhook-Token"

// BankWebhookHandler receives incoming-transfer notifications from the
// banking partner. Once the caller is authenticated the endpoint always
// acknowledges with 200 so the bank does not retry; processing failures are
// logged and resolved out of band.
type BankWebhookHandler struct {
	BaseHandler
	settlementService *billingapp.SettlementService
	logger            *zap.Logger
	secret            string
}

// BankWebhookHandlerOption customizes a BankWebhookHandler
type BankWebhookHandlerOption func(*BankWebhookHandler)

// WithWebhookSecret enables shared-token authentication. Requests whose
// X-Webhook-Token header does not match are rejected with 401 before any
// processing. An empty secret leaves the endpoint open.
func WithWebhookSecret(secret string) BankWebhookHandlerOption {
	return func(h *BankWebhookHandler) {
		h.secret = secret
	}
}

// NewBankWebhookHandler creates a new BankWebhookHandler
func NewBankWebhookHandler(settlementService *billingapp.SettlementService, logger *zap.Logger, opts ...BankWebhookHandlerOption) *BankWebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &BankWebhookHandler{
		settlementService: settlementService,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers webhook routes
func (h *BankWebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/bank", h.HandleBankTransfer)
	}
}

// HandleBankTransfer godoc
//
//	@ID			handleBankTransferWebhook
//	@Summary	Process a bank transfer notification
//	@Tags		webhooks
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.BankWebhookRequest	true	"Transfer notification"
//	@Success	200		{object}	SuccessResponse
//	@Router		/webhooks/bank [post]
func (h *BankWebhookHandler) HandleBankTransfer(c *gin.Context) {
	if h.secret != "" && c.GetHeader(WebhookTokenHeader) != h.secret {
		h.logger.Warn("Bank webhook token mismatch",
			zap.String("remote_addr", c.ClientIP()),
		)
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, "invalid webhook token"))
		return
	}

	var req dto.BankWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Bank webhook payload rejected",
			zap.Error(err),
		)
		h.acknowledge(c)
		return
	}

	paidAt := time.Now()
	if req.PaidAt != "" {
		if parsed, err := time.Parse(time.RFC3339, req.PaidAt); err == nil {
			paidAt = parsed
		} else {
			h.logger.Warn("Bank webhook carries unparseable paid_at, using receive time",
				zap.String("transaction_id", req.TransactionID),
				zap.String("paid_at", req.PaidAt),
			)
		}
	}

	result, err := h.settlementService.SettleWebhook(c.Request.Context(), billingapp.WebhookPayment{
		TransactionID: req.TransactionID,
		Amount:        decimal.NewFromFloat(req.Amount),
		Description:   req.Description,
		PaidAt:        paidAt,
	})
	if err != nil {
		h.logger.Error("Bank webhook settlement failed",
			zap.String("transaction_id", req.TransactionID),
			zap.Float64("amount", req.Amount),
			zap.Error(err),
		)
		h.acknowledge(c)
		return
	}

	switch {
	case result.AlreadyProcessed:
		h.logger.Info("Bank webhook replay ignored",
			zap.String("transaction_id", req.TransactionID),
		)
	case result.AlreadyPaid:
		h.logger.Warn("Bank webhook targets an invoice that is already paid",
			zap.String("transaction_id", req.TransactionID),
		)
	case result.AmountMismatch:
		h.logger.Warn("Bank webhook amount differs from invoice total",
			zap.String("transaction_id", req.TransactionID),
			zap.Float64("amount", req.Amount),
		)
	}

	h.acknowledge(c)
}

// acknowledge sends the fixed 200 response the bank expects
func (h *BankWebhookHandler) acknowledge(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
