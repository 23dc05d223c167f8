package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/service/visit"
)

type VisitHandler struct {
	service visit.VisitUseCase
	logger  *zap.Logger
}

func NewVisitHandler(service visit.VisitUseCase, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{service: service, logger: logger}
}

func (h *VisitHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/hit", h.hit)
	rg.GET("/stats", h.stats)
}

func (h *VisitHandler) hit(c *gin.Context) {
	result, err := h.service.Hit(c.Request.Context(), c.Query("key"), c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		h.logger.Error("visit hit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	if !result.Counted {
		c.JSON(http.StatusOK, gin.H{"ok": true, "counted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "counted": true, "count": result.Count})
}

func (h *VisitHandler) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("visit stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Failed to fetch visit data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"totalVisits":    stats.TotalVisits,
		"uniqueVisitors": stats.UniqueVisitors,
		"details":        stats.Counters,
	})
}
