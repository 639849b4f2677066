package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger.With("handler", "dashboard")),
		service:     service,
	}
}

// GetDashboard returns user counts per role and record counts per entity
// @Summary Get admin dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard")

	dashboard, err := h.service.GetDashboard(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
