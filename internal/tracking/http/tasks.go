package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

func (h *Handler) createTask(c *gin.Context) {
	var t domain.Task
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	t.DocID = ""

	created, err := h.tasks.Create(c.Request.Context(), c.Param("project_id"), t)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "task": created})
}

func (h *Handler) getTask(c *gin.Context) {
	t, err := h.tasks.Get(c.Request.Context(), c.Param("project_id"), c.Param("task_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": t})
}

func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), c.Param("project_id"), c.Query("user_story"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": tasks})
}

func (h *Handler) updateTask(c *gin.Context) {
	var t domain.Task
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	updated, err := h.tasks.Update(c.Request.Context(), c.Param("project_id"), c.Param("task_id"), t)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": updated})
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("project_id"), c.Param("task_id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type batchTasksReq struct {
	Tasks []domain.Task `json:"tasks"`
}

func (h *Handler) batchUpsertTasks(c *gin.Context) {
	var req batchTasksReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Tasks) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	res, err := h.tasks.BatchUpsert(c.Request.Context(), c.Param("project_id"), req.Tasks)
	if err != nil {
		// Partial progress is real progress; report it alongside the error.
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":      false,
			"error":   err.Error(),
			"created": res.Created,
			"updated": res.Updated,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "created": res.Created, "updated": res.Updated})
}
