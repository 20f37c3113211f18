package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/service"
)

// Handler is a thin gin layer over the tracking services. All business rules
// live in the services; handlers only bind, call and translate errors.
type Handler struct {
	tasks     *service.TaskService
	items     *service.ItemService
	cascade   *service.CascadeService
	reconcile *service.ReconcileService
}

func NewHandler(tasks *service.TaskService, items *service.ItemService, cascade *service.CascadeService, reconcile *service.ReconcileService) *Handler {
	return &Handler{tasks: tasks, items: items, cascade: cascade, reconcile: reconcile}
}

// respondErr maps domain errors onto HTTP statuses. Mismatched or duplicated
// natural keys are conflicts, not server faults.
func respondErr(c *gin.Context, err error) {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": nf.Error()})
		return
	}
	var pm *domain.ProjectMismatchError
	if errors.As(err, &pm) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": pm.Error()})
		return
	}
	var ie *domain.IntegrityError
	if errors.As(err, &ie) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": ie.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}
