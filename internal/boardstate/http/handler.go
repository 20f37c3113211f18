package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/auth"
	"github.com/Raices-25-26J-118/raices-backend/internal/boardstate/domain"
	"github.com/Raices-25-26J-118/raices-backend/internal/boardstate/repository"
)

type Handler struct {
	repo *repository.BoardRepository
}

func NewHandler(repo *repository.BoardRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.PUT("/user/:user_id/store_state", h.save)
	rg.GET("/user/:user_id/store_state", h.load)
	rg.DELETE("/user/:user_id/store_state", h.delete)
}

// callerOwns rejects requests against another user's board.
func callerOwns(c *gin.Context) bool {
	uid, ok := auth.UID(c)
	if !ok || uid != c.Param("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "cannot access another user's board state"})
		return false
	}
	return true
}

func (h *Handler) save(c *gin.Context) {
	if !callerOwns(c) {
		return
	}
	var state json.RawMessage
	if err := c.ShouldBindJSON(&state); err != nil || len(state) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	bs, err := h.repo.Save(c.Request.Context(), c.Param("user_id"), state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "saved_at": bs.SavedAt})
}

func (h *Handler) load(c *gin.Context) {
	if !callerOwns(c) {
		return
	}
	bs, err := h.repo.Load(c.Request.Context(), c.Param("user_id"))
	if errors.Is(err, domain.ErrStateNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no saved board state"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": bs.State, "saved_at": bs.SavedAt})
}

func (h *Handler) delete(c *gin.Context) {
	if !callerOwns(c) {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), c.Param("user_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
