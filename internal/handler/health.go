package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/bp-insights/internal/repository"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint
var Version = "dev"

// HealthHandler reports service liveness and store reachability
type HealthHandler struct {
	repo   repository.ReadingRepository
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(repo repository.ReadingRepository, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		repo:   repo,
		logger: logger,
	}
}

// GetHealth implements the health check endpoint
func (h *HealthHandler) GetHealth(c *gin.Context) {
	if _, err := h.repo.List(c.Request.Context()); err != nil {
		h.logger.Error("health check failed: reading store unreadable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"store":  "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"store":   "available",
		"service": "bp-insights",
		"version": Version,
	})
}
