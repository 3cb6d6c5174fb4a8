package handlers

import (
	"net/http"

	"face-match-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves liveness and status endpoints.
type SystemHandler struct{}

// NewSystemHandler creates a new system handler.
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// RegisterRoutes registers the system routes.
func (h *SystemHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
	router.GET("/system/status", h.Status)
}

// Health is a plain liveness probe.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports process and host statistics.
func (h *SystemHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetSystemStats())
}
