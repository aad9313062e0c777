package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/waterworks/backend/internal/application/billing"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
	"github.com/waterworks/backend/internal/interfaces/http/dto"
)

// SettlementHandler handles over-the-counter payment endpoints
type SettlementHandler struct {
	BaseHandler
	settlementService *billingapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *billingapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// RegisterRoutes registers settlement routes
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("/:id/payments/cash", h.SettleCash)
	}
}

// SettleCash godoc
//
//	@ID			settleCashSettlement
//	@Summary	Record a cash payment for an invoice
//	@Description	The amount must cover the invoice total exactly, late fees included
//	@Tags		settlement
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Invoice ID"
//	@Param		request	body		dto.CashPaymentRequest	true	"Payment details"
//	@Success	201		{object}	APIResponse[dto.ReceiptResponse]
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Failure	422		{object}	ErrorResponse
//	@Router		/invoices/{id}/payments/cash [post]
func (h *SettlementHandler) SettleCash(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req dto.CashPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cashierID, err := uuid.Parse(req.CashierID)
	if err != nil {
		h.BadRequest(c, "Invalid cashier ID")
		return
	}

	amount := valueobject.NewMoneyVND(decimal.NewFromFloat(req.Amount))

	receipt, err := h.settlementService.SettleCash(c.Request.Context(), invoiceID, amount, cashierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToReceiptResponse(receipt))
}
