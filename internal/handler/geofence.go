package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
	"github.com/BarkanovEugen/HorseTracker-sub001/internal/service"
)

// GeofenceHandler manages paddock geofences.
type GeofenceHandler struct {
	fences *service.FenceIndex
}

// NewGeofenceHandler creates a geofence handler.
func NewGeofenceHandler(fences *service.FenceIndex) *GeofenceHandler {
	return &GeofenceHandler{fences: fences}
}

// RegisterRoutes registers geofence routes.
func (h *GeofenceHandler) RegisterRoutes(r *gin.RouterGroup) {
	fences := r.Group("/geofences")
	{
		fences.GET("", h.List)
		fences.POST("", h.Register)
		fences.DELETE("/:id", h.Deactivate)
	}
}

// List returns the active geofences
// @Summary List geofences
// @Description Get all active geofences
// @Tags Geofences
// @Accept json
// @Produce json
// @Success 200 {array} model.Geofence
// @Router /geofences [get]
func (h *GeofenceHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.fences.ActiveGeofences())
}

// Register creates a new geofence
// @Summary Register geofence
// @Description Register a polygon or circle geofence and start monitoring it
// @Tags Geofences
// @Accept json
// @Produce json
// @Param geofence body model.RegisterGeofenceRequest true "Geofence definition"
// @Success 201 {object} model.Geofence
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /geofences [post]
func (h *GeofenceHandler) Register(c *gin.Context) {
	var req model.RegisterGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fence, err := h.fences.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidGeometry) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, fence)
}

// Deactivate retires a geofence
// @Summary Deactivate geofence
// @Description Stop monitoring a geofence. The fence is kept for alert history.
// @Tags Geofences
// @Accept json
// @Produce json
// @Param id path string true "Geofence ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /geofences/{id} [delete]
func (h *GeofenceHandler) Deactivate(c *gin.Context) {
	id := c.Param("id")

	if err := h.fences.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrGeofenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
