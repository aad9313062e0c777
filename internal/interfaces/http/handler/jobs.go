package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/waterworks/backend/internal/application/billing"
	notifapp "github.com/waterworks/backend/internal/application/notification"
)

// JobsHandler exposes manual triggers for the daily batch jobs. The
// scheduler runs them on its own; these endpoints exist for operators
// re-running a pass after an outage.
type JobsHandler struct {
	BaseHandler
	lateFeeService  *billingapp.LateFeeService
	reminderService *notifapp.ReminderService
	leakService     *notifapp.LeakDetectionService
}

// NewJobsHandler creates a new JobsHandler
func NewJobsHandler(lateFeeService *billingapp.LateFeeService, reminderService *notifapp.ReminderService,
	leakService *notifapp.LeakDetectionService) *JobsHandler {
	return &JobsHandler{
		lateFeeService:  lateFeeService,
		reminderService: reminderService,
		leakService:     leakService,
	}
}

// RegisterRoutes registers job trigger routes
func (h *JobsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	jobs := rg.Group("/jobs")
	{
		jobs.POST("/late-fees", h.RunLateFees)
		jobs.POST("/reminders", h.RunReminders)
		jobs.POST("/leak-check/:id", h.RunLeakCheck)
	}
}

// ReminderRunResponse aggregates the two reminder passes
type ReminderRunResponse struct {
	PaymentReminders *notifapp.PassResult `json:"payment_reminders"`
	ContractExpiry   *notifapp.PassResult `json:"contract_expiry"`
}

// RunLateFees godoc
//
//	@ID			runLateFeesJobs
//	@Summary	Run the late fee accrual batch now
//	@Tags		jobs
//	@Produce	json
//	@Success	200	{object}	APIResponse[billingapp.BatchResult]
//	@Router		/jobs/late-fees [post]
func (h *JobsHandler) RunLateFees(c *gin.Context) {
	result, err := h.lateFeeService.RunLateFeeBatch(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RunReminders godoc
//
//	@ID			runRemindersJobs
//	@Summary	Run the payment reminder and contract expiry passes now
//	@Tags		jobs
//	@Produce	json
//	@Success	200	{object}	APIResponse[ReminderRunResponse]
//	@Router		/jobs/reminders [post]
func (h *JobsHandler) RunReminders(c *gin.Context) {
	payment, err := h.reminderService.RunPaymentReminderPass(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	expiry, err := h.reminderService.RunContractExpiryPass(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReminderRunResponse{
		PaymentReminders: payment,
		ContractExpiry:   expiry,
	})
}

// RunLeakCheck godoc
//
//	@ID			runLeakCheckJobs
//	@Summary	Run the leak detector against a water invoice
//	@Tags		jobs
//	@Produce	json
//	@Param		id	path		string	true	"Invoice ID"
//	@Success	200	{object}	APIResponse[any]
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/jobs/leak-check/{id} [post]
func (h *JobsHandler) RunLeakCheck(c *gin.Context) {
	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.leakService.RunLeakCheck(c.Request.Context(), invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"checked": true})
}
