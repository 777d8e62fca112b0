package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/service"
)

// ReportHandler accepts collar reports over HTTP, for integrations
// that cannot reach the brokers.
type ReportHandler struct {
	pipeline *service.Pipeline
}

// NewReportHandler creates a report handler.
func NewReportHandler(pipeline *service.Pipeline) *ReportHandler {
	return &ReportHandler{pipeline: pipeline}
}

// RegisterRoutes registers report routes.
func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reports", h.Submit)
}

// Submit ingests a single location report
// @Summary Submit location report
// @Description Apply one collar location report to the live herd state
// @Tags Reports
// @Accept json
// @Produce json
// @Param report body model.LocationReport true "Location report"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	var report model.LocationReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.pipeline.Process(c.Request.Context(), &report); err != nil {
		switch {
		case errors.Is(err, service.ErrStaleReport):
			// An out-of-order report is not a client error, there is
			// just nothing to apply.
			c.JSON(http.StatusAccepted, gin.H{"status": "discarded"})
		case errors.Is(err, service.ErrInvalidReport):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
