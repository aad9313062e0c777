package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/waterworks/backend/internal/interfaces/http/dto"
)

// SystemHandler handles liveness and system info endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
}

// Health godoc
//
//	@ID			healthSystem
//	@Summary	Liveness probe
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/healthz [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		GoVersion: runtime.Version(),
	})
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name    string `json:"name" example:"Waterworks Billing API"`
	Version string `json:"version" example:"1.0.0"`
	Uptime  string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
//
//	@ID			getSystemSystemInfo
//	@Summary	Get system information
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	APIResponse[SystemInfoResponse]
//	@Router		/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:    "Waterworks Billing API",
		Version: "1.0.0",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// RegisterRoutes registers system routes under the API group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
	}
}
