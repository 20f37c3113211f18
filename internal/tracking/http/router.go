package http

import "github.com/gin-gonic/gin"

// Register attaches tracking routes to a project-scoped router group
// (expected to carry the :project_id param).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/tasks", h.createTask)
	rg.GET("/tasks", h.listTasks)
	rg.POST("/tasks/batch", h.batchUpsertTasks)
	rg.GET("/tasks/:task_id", h.getTask)
	rg.PUT("/tasks/:task_id", h.updateTask)
	rg.DELETE("/tasks/:task_id", h.deleteTask)

	rg.POST("/user-stories", h.createStory)
	rg.GET("/user-stories", h.listStories)
	rg.POST("/user-stories/reconcile", h.reconcileStories)
	rg.GET("/user-stories/:story_id", h.getStory)
	rg.DELETE("/user-stories/:story_id", h.deleteStory)

	rg.GET("/epics", h.listEpics)
	rg.POST("/epics/reconcile", h.reconcileEpics)

	rg.GET("/requirements", h.listRequirements)
	rg.POST("/requirements/reconcile", h.reconcileRequirements)

	rg.POST("/bugs", h.createBug)
	rg.GET("/bugs", h.listBugs)
	rg.GET("/bugs/:bug_id", h.getBug)
	rg.PUT("/bugs/:bug_id", h.updateBug)
	rg.PATCH("/bugs/:bug_id/status", h.updateBugStatus)
	rg.DELETE("/bugs/:bug_id", h.deleteBug)

	rg.POST("/sprints", h.createSprint)
	rg.GET("/sprints", h.listSprints)
	rg.GET("/sprints/:sprint_id", h.getSprint)
}
