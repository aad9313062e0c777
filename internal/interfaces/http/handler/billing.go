package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/waterworks/backend/internal/application/billing"
	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/interfaces/http/dto"
)

// BillingHandler handles invoice endpoints: binding calibration fees to
// invoices, listing unbound fees, cancelling unpaid invoices and the
// back-office invoice listings.
type BillingHandler struct {
	BaseHandler
	feeBindingService   *billingapp.FeeBindingService
	invoiceQueryService *billingapp.InvoiceQueryService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(feeBindingService *billingapp.FeeBindingService, invoiceQueryService *billingapp.InvoiceQueryService) *BillingHandler {
	return &BillingHandler{
		feeBindingService:   feeBindingService,
		invoiceQueryService: invoiceQueryService,
	}
}

// RegisterRoutes registers billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fees := rg.Group("/fees")
	{
		fees.GET("/unbound", h.ListUnboundFees)
		fees.POST("/:id/invoice", h.CreateInvoiceFromFee)
	}

	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/number/:number", h.GetInvoiceByNumber)
		invoices.POST("/:id/cancel", h.CancelInvoice)
	}

	rg.GET("/customers/:id/invoices", h.ListCustomerInvoices)
}

// CreateInvoiceFromFee godoc
//
//	@ID			createInvoiceFromFeeBilling
//	@Summary	Create an invoice for a calibration fee
//	@Tags		billing
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Calibration fee ID"
//	@Param		request	body		dto.CreateInvoiceFromFeeRequest	true	"Issuing staff"
//	@Success	201		{object}	APIResponse[dto.InvoiceResponse]
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/fees/{id}/invoice [post]
func (h *BillingHandler) CreateInvoiceFromFee(c *gin.Context) {
	feeID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid fee ID")
		return
	}

	var req dto.CreateInvoiceFromFeeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		h.BadRequest(c, "Invalid staff ID")
		return
	}

	inv, err := h.feeBindingService.CreateInvoiceFromFee(c.Request.Context(), billingapp.CreateInvoiceFromFeeInput{
		FeeID:   feeID,
		StaffID: staffID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ToInvoiceResponse(inv))
}

// ListUnboundFees godoc
//
//	@ID			listUnboundFeesBilling
//	@Summary	List calibration fees awaiting billing
//	@Tags		billing
//	@Produce	json
//	@Param		staff_id	query		string	true	"Performing staff ID"
//	@Param		page		query		int		false	"Page number"
//	@Param		page_size	query		int		false	"Page size"
//	@Param		search		query		string	false	"Meter code search"
//	@Success	200			{object}	APIResponse[[]dto.CalibrationFeeResponse]
//	@Router		/fees/unbound [get]
func (h *BillingHandler) ListUnboundFees(c *gin.Context) {
	staffID, err := uuid.Parse(c.Query("staff_id"))
	if err != nil {
		h.BadRequest(c, "Invalid staff ID")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	page, err := h.feeBindingService.ListUnboundFees(c.Request.Context(), staffID, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.CalibrationFeeResponse, 0, len(page.Items))
	for i := range page.Items {
		responses = append(responses, dto.ToCalibrationFeeResponse(&page.Items[i]))
	}

	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// ListInvoices godoc
//
//	@ID			listInvoicesBilling
//	@Summary	List invoices
//	@Tags		billing
//	@Produce	json
//	@Param		status		query		string	false	"Invoice status"
//	@Param		type		query		string	false	"Invoice type"
//	@Param		customer_id	query		string	false	"Customer ID"
//	@Param		page		query		int		false	"Page number"
//	@Param		page_size	query		int		false	"Page size"
//	@Success	200			{object}	APIResponse[[]dto.InvoiceResponse]
//	@Router		/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	req := dto.InvoiceListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	page, err := h.invoiceQueryService.ListInvoices(c.Request.Context(), req.ToInvoiceFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetInvoiceByNumber godoc
//
//	@ID			getInvoiceByNumberBilling
//	@Summary	Look an invoice up by its business number
//	@Tags		billing
//	@Produce	json
//	@Param		number	path		string	true	"Invoice number"
//	@Success	200		{object}	APIResponse[dto.InvoiceResponse]
//	@Failure	404		{object}	ErrorResponse
//	@Router		/invoices/number/{number} [get]
func (h *BillingHandler) GetInvoiceByNumber(c *gin.Context) {
	inv, err := h.invoiceQueryService.GetInvoiceByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToInvoiceResponse(inv))
}

// ListCustomerInvoices godoc
//
//	@ID			listCustomerInvoicesBilling
//	@Summary	List a customer's invoices
//	@Tags		billing
//	@Produce	json
//	@Param		id			path		string	true	"Customer ID"
//	@Param		page		query		int		false	"Page number"
//	@Param		page_size	query		int		false	"Page size"
//	@Success	200			{object}	APIResponse[[]dto.InvoiceResponse]
//	@Router		/customers/{id}/invoices [get]
func (h *BillingHandler) ListCustomerInvoices(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	req := dto.InvoiceListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	page, err := h.invoiceQueryService.ListCustomerInvoices(c.Request.Context(), customerID, req.ToInvoiceFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toInvoiceResponses(page.Items), page.Total, page.Page, page.PageSize)
}

func toInvoiceResponses(invoices []billing.Invoice) []dto.InvoiceResponse {
	responses := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, dto.ToInvoiceResponse(&invoices[i]))
	}
	return responses
}

// CancelInvoice godoc
//
//	@ID			cancelInvoiceBilling
//	@Summary	Cancel an unpaid invoice
//	@Tags		billing
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Invoice ID"
//	@Param		request	body		dto.CancelInvoiceRequest	true	"Cancelling staff"
//	@Success	200		{object}	APIResponse[dto.InvoiceResponse]
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/invoices/{id}/cancel [post]
func (h *BillingHandler) CancelInvoice(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req dto.CancelInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		h.BadRequest(c, "Invalid staff ID")
		return
	}

	inv, err := h.feeBindingService.CancelInvoice(c.Request.Context(), invoiceID, staffID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToInvoiceResponse(inv))
}
