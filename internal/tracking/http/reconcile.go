package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/service"
)

// Reconcile endpoints accept the client's full desired list for a collection
// and diff it against the store: matches by idTitle update, the rest insert,
// and with archive_missing set the leftovers are archived.

type reconcileEpicsReq struct {
	Items          []domain.Epic `json:"items"`
	ArchiveMissing bool          `json:"archive_missing"`
}

func (h *Handler) reconcileEpics(c *gin.Context) {
	var req reconcileEpicsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	epics, err := h.reconcile.ReconcileEpics(c.Request.Context(), c.Param("project_id"), req.Items,
		service.ReconcileOptions{ArchiveMissing: req.ArchiveMissing})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "epics": epics})
}

type reconcileRequirementsReq struct {
	Items          []domain.Requirement `json:"items"`
	ArchiveMissing bool                 `json:"archive_missing"`
	ScopeEpic      string               `json:"scope_epic"`
}

func (h *Handler) reconcileRequirements(c *gin.Context) {
	var req reconcileRequirementsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	reqs, err := h.reconcile.ReconcileRequirements(c.Request.Context(), c.Param("project_id"), req.Items,
		service.ReconcileOptions{ArchiveMissing: req.ArchiveMissing, ScopeEpicID: req.ScopeEpic})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "requirements": reqs})
}

type reconcileStoriesReq struct {
	Items          []domain.UserStory `json:"items"`
	ArchiveMissing bool               `json:"archive_missing"`
	ScopeEpic      string             `json:"scope_epic"`
}

func (h *Handler) reconcileStories(c *gin.Context) {
	var req reconcileStoriesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	stories, err := h.reconcile.ReconcileUserStories(c.Request.Context(), c.Param("project_id"), req.Items,
		service.ReconcileOptions{ArchiveMissing: req.ArchiveMissing, ScopeEpicID: req.ScopeEpic})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user_stories": stories})
}

func (h *Handler) listEpics(c *gin.Context) {
	epics, err := h.items.ListEpics(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "epics": epics})
}

func (h *Handler) listRequirements(c *gin.Context) {
	reqs, err := h.items.ListRequirements(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "requirements": reqs})
}
