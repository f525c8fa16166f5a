package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/logigrain/portauth/internal/application/dto"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Live handles GET /live. It answers as long as the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Ready handles GET /ready. It pings the database so the load balancer stops
// routing to an instance that lost its store.
func (h *HealthHandler) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
