package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

func (h *Handler) createStory(c *gin.Context) {
	var story domain.UserStory
	if err := c.ShouldBindJSON(&story); err != nil || strings.TrimSpace(story.IDTitle) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	created, err := h.items.CreateUserStory(c.Request.Context(), c.Param("project_id"), story)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "user_story": created})
}

func (h *Handler) getStory(c *gin.Context) {
	story, err := h.items.GetUserStory(c.Request.Context(), c.Param("project_id"), c.Param("story_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user_story": story})
}

func (h *Handler) listStories(c *gin.Context) {
	stories, err := h.items.ListUserStories(
		c.Request.Context(),
		c.Param("project_id"),
		c.Query("epic"),
		c.Query("active") == "true",
	)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user_stories": stories})
}

// deleteStory removes the story and everything hanging off it: its tasks,
// its bugs, and its entries in sprint membership lists.
func (h *Handler) deleteStory(c *gin.Context) {
	err := h.cascade.DeleteUserStoryAndRelated(c.Request.Context(), c.Param("project_id"), c.Param("story_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
