package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/service"
)

// StatsHandler reports engine counters.
type StatsHandler struct {
	pipeline *service.Pipeline
	alerts   *service.AlertEngine
	hub      *Hub
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(pipeline *service.Pipeline, alerts *service.AlertEngine, hub *Hub) *StatsHandler {
	return &StatsHandler{pipeline: pipeline, alerts: alerts, hub: hub}
}

// RegisterRoutes registers stats routes.
func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)
}

// GetStats returns monitoring counters
// @Summary Engine statistics
// @Description Get herd size, active alert count, stale report drops and connected observers
// @Tags Stats
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"horses":            len(h.pipeline.Horses()),
		"active_alerts":     len(h.alerts.ActiveAlerts()),
		"stale_drops":       h.pipeline.StaleDrops(),
		"connected_clients": h.hub.ClientCount(),
	})
}
