package handler

import (
	"github.com/gin-gonic/gin"
	notificationapp "github.com/waterworks/backend/internal/application/notification"
	"github.com/waterworks/backend/internal/interfaces/http/dto"
)

// NotificationHandler serves the customer notification feed.
type NotificationHandler struct {
	BaseHandler
	feedService *notificationapp.FeedService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(feedService *notificationapp.FeedService) *NotificationHandler {
	return &NotificationHandler{
		feedService: feedService,
	}
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/customers/:id/notifications", h.ListCustomerNotifications)
}

// ListCustomerNotifications godoc
//
//	@ID			listCustomerNotifications
//	@Summary	List a customer's notifications
//	@Tags		notifications
//	@Produce	json
//	@Param		id				path		string	true	"Customer ID"
//	@Param		message_type	query		string	false	"Message type"
//	@Param		status			query		string	false	"Delivery status"
//	@Param		page			query		int		false	"Page number"
//	@Param		page_size		query		int		false	"Page size"
//	@Success	200				{object}	APIResponse[[]dto.NotificationResponse]
//	@Router		/customers/{id}/notifications [get]
func (h *NotificationHandler) ListCustomerNotifications(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	req := dto.NotificationListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	page, err := h.feedService.ListCustomerNotifications(c.Request.Context(), customerID, req.ToNotificationFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.NotificationResponse, 0, len(page.Items))
	for i := range page.Items {
		responses = append(responses, dto.ToNotificationResponse(&page.Items[i]))
	}

	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}
