package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/service"
)

// AlertHandler serves and resolves alerts.
type AlertHandler struct {
	alerts *service.AlertEngine
}

// NewAlertHandler creates an alert handler.
func NewAlertHandler(alerts *service.AlertEngine) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// RegisterRoutes registers alert routes.
func (h *AlertHandler) RegisterRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		alerts.GET("", h.List)
		alerts.POST("/:id/dismiss", h.Dismiss)
	}
}

// List returns the active alerts
// @Summary List active alerts
// @Description Get all non-resolved alerts, escalated first, then by severity and age
// @Tags Alerts
// @Accept json
// @Produce json
// @Success 200 {array} model.Alert
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.alerts.ActiveAlerts())
}

// Dismiss resolves an alert on behalf of an operator
// @Summary Dismiss alert
// @Description Resolve an alert by ID. Dismissing an already resolved alert is a no-op.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /alerts/{id}/dismiss [post]
func (h *AlertHandler) Dismiss(c *gin.Context) {
	id := c.Param("id")

	if err := h.alerts.Dismiss(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyResolved):
			c.JSON(http.StatusOK, gin.H{"status": "already_resolved"})
		case errors.Is(err, service.ErrAlertNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}
