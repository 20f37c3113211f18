package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/metrics/service"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// Handler exposes the sprint analytics as read-only endpoints.
type Handler struct {
	metrics *service.Service
}

func NewHandler(metrics *service.Service) *Handler {
	return &Handler{metrics: metrics}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/metrics/burndown", h.burndown)
	rg.GET("/metrics/velocity", h.velocity)
	rg.GET("/metrics/sprint-comparison", h.sprintComparison)
}

func (h *Handler) burndown(c *gin.Context) {
	report, err := h.metrics.Burndown(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "burndown": report})
}

func (h *Handler) velocity(c *gin.Context) {
	points, err := h.metrics.VelocityTrend(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "velocity": points})
}

func (h *Handler) sprintComparison(c *gin.Context) {
	rows, err := h.metrics.SprintComparison(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sprints": rows})
}

func respondErr(c *gin.Context, err error) {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": nf.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}
