package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

func (h *Handler) createBug(c *gin.Context) {
	var bug domain.Bug
	if err := c.ShouldBindJSON(&bug); err != nil || strings.TrimSpace(bug.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	bug.DocID = ""

	created, err := h.items.CreateBug(c.Request.Context(), c.Param("project_id"), bug)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "bug": created})
}

func (h *Handler) getBug(c *gin.Context) {
	bug, err := h.items.GetBug(c.Request.Context(), c.Param("project_id"), c.Param("bug_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bug": bug})
}

func (h *Handler) listBugs(c *gin.Context) {
	bugs, err := h.items.ListBugs(c.Request.Context(), c.Param("project_id"), c.Query("user_story"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bugs": bugs})
}

func (h *Handler) updateBug(c *gin.Context) {
	var bug domain.Bug
	if err := c.ShouldBindJSON(&bug); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	updated, err := h.items.UpdateBug(c.Request.Context(), c.Param("project_id"), c.Param("bug_id"), bug)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bug": updated})
}

func (h *Handler) updateBugStatus(c *gin.Context) {
	var req struct {
		StatusKhanban string `json:"status_khanban"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.StatusKhanban == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	err := h.items.UpdateBugStatus(c.Request.Context(), c.Param("project_id"), c.Param("bug_id"), req.StatusKhanban)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) deleteBug(c *gin.Context) {
	err := h.items.DeleteBug(c.Request.Context(), c.Param("project_id"), c.Param("bug_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
