package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

type createSprintReq struct {
	Name          string `json:"name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	DurationWeeks int    `json:"duration_weeks"`
	Status        string `json:"status"`
}

func (h *Handler) createSprint(c *gin.Context) {
	var req createSprintReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	start, err1 := parseDate(req.StartDate)
	end, err2 := parseDate(req.EndDate)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "start_date and end_date must be RFC3339 or YYYY-MM-DD"})
		return
	}

	sp, err := h.items.CreateSprint(c.Request.Context(), c.Param("project_id"), domain.Sprint{
		Name:          req.Name,
		StartDate:     start,
		EndDate:       end,
		DurationWeeks: req.DurationWeeks,
		Status:        req.Status,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "sprint": sp})
}

func (h *Handler) getSprint(c *gin.Context) {
	sp, err := h.items.GetSprint(c.Request.Context(), c.Param("project_id"), c.Param("sprint_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sprint": sp})
}

func (h *Handler) listSprints(c *gin.Context) {
	sprints, err := h.items.ListSprints(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sprints": sprints})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
