package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/service"
)

// HorseHandler serves the tracked herd.
type HorseHandler struct {
	pipeline *service.Pipeline
}

// NewHorseHandler creates a horse handler.
func NewHorseHandler(pipeline *service.Pipeline) *HorseHandler {
	return &HorseHandler{pipeline: pipeline}
}

// RegisterRoutes registers horse routes.
func (h *HorseHandler) RegisterRoutes(r *gin.RouterGroup) {
	horses := r.Group("/horses")
	{
		horses.GET("", h.List)
		horses.GET("/positions", h.Positions)
	}
}

// List returns the tracked herd
// @Summary List horses
// @Description Get all tracked horses with their last known state
// @Tags Horses
// @Accept json
// @Produce json
// @Success 200 {array} model.Horse
// @Router /horses [get]
func (h *HorseHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Horses())
}

// Positions returns the latest position of every horse
// @Summary Latest positions
// @Description Get the most recent position update for every horse
// @Tags Horses
// @Accept json
// @Produce json
// @Success 200 {array} model.HorseUpdate
// @Router /horses/positions [get]
func (h *HorseHandler) Positions(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.AllUpdates())
}
