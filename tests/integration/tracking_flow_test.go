package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raices-25-26J-118/raices-backend/internal/bootstrap"
	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// The flow tests run the full router against the in-memory store, with auth
// and Redis left out of the dependency set.
func newTestServer(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "raices-backend",
		Version:     "test",
		Store:       st,
	})
	require.NoError(t, st.Set(context.Background(), store.ColProjects, "p1", map[string]any{
		"name": "Raices", "totalTasks": 0, "tasksCompleted": 0,
	}))
	return router, st
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	out := map[string]any{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func TestTrackingFlow(t *testing.T) {
	router, st := newTestServer(t)
	ctx := context.Background()

	// Import two stories via reconciliation.
	rr, resp := do(t, router, "POST", "/api/v1/projects/p1/user-stories/reconcile", map[string]any{
		"items": []map[string]any{
			{"idTitle": "US-001", "projectRef": "p1", "title": "login"},
			{"idTitle": "US-002", "projectRef": "p1", "title": "signup"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	stories := resp["user_stories"].([]any)
	require.Len(t, stories, 2)
	storyUUID := stories[0].(map[string]any)["uuid"].(string)
	require.NotEmpty(t, storyUUID)

	// Create a done task under the first story.
	rr, resp = do(t, router, "POST", "/api/v1/projects/p1/tasks", map[string]any{
		"title":          "build login form",
		"user_story_id":  storyUUID,
		"story_points":   5,
		"status_khanban": "Done",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	taskID := resp["task"].(map[string]any)["id"].(string)

	// The story's rollups reflect the task.
	doc, err := st.FindOne(ctx, store.ColUserStories, store.Filter{Field: "uuid", Value: storyUUID})
	require.NoError(t, err)
	story := domain.UserStoryFromDoc(doc.ID, doc.Fields)
	assert.Equal(t, []string{taskID}, story.TaskList)
	assert.Equal(t, 1, story.TotalTasks)
	assert.Equal(t, 1, story.TaskCompleted)
	assert.Equal(t, 5, story.Points)

	// So do the project counters.
	pdoc, err := st.GetByID(ctx, store.ColProjects, "p1")
	require.NoError(t, err)
	project := domain.ProjectFromDoc(pdoc.ID, pdoc.Fields)
	assert.Equal(t, 1, project.TotalTasks)
	assert.Equal(t, 1, project.TasksCompleted)

	// Re-reconciling with archive_missing keeps US-001 and archives US-002.
	rr, _ = do(t, router, "POST", "/api/v1/projects/p1/user-stories/reconcile", map[string]any{
		"items": []map[string]any{
			{"idTitle": "US-001", "projectRef": "p1", "title": "login v2"},
		},
		"archive_missing": true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	doc, err = st.FindOne(ctx, store.ColUserStories, store.Filter{Field: "idTitle", Value: "US-001"})
	require.NoError(t, err)
	kept := domain.UserStoryFromDoc(doc.ID, doc.Fields)
	assert.Equal(t, "login v2", kept.Title)
	assert.Equal(t, storyUUID, kept.UUID)
	assert.Equal(t, 1, kept.TotalTasks) // rollups survive reconciliation

	doc, err = st.FindOne(ctx, store.ColUserStories, store.Filter{Field: "idTitle", Value: "US-002"})
	require.NoError(t, err)
	assert.Equal(t, "archived", domain.UserStoryFromDoc(doc.ID, doc.Fields).Status)

	// Cascade delete removes the story and its task.
	rr, _ = do(t, router, "DELETE", fmt.Sprintf("/api/v1/projects/p1/user-stories/%s", kept.DocID), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	_, err = st.GetByID(ctx, store.ColTasks, taskID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetByID(ctx, store.ColUserStories, kept.DocID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrackingFlow_ProjectMismatchIsConflict(t *testing.T) {
	router, _ := newTestServer(t)

	rr, _ := do(t, router, "POST", "/api/v1/projects/p1/user-stories/reconcile", map[string]any{
		"items": []map[string]any{
			{"idTitle": "US-001", "projectRef": "someone-elses-project"},
		},
	})
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
}

func TestTrackingFlow_UnknownProjectIs404(t *testing.T) {
	router, _ := newTestServer(t)

	rr, _ := do(t, router, "POST", "/api/v1/projects/ghost/user-stories/reconcile", map[string]any{
		"items": []map[string]any{},
	})
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}

func TestMetricsFlow(t *testing.T) {
	router, st := newTestServer(t)
	ctx := context.Background()

	rr, resp := do(t, router, "POST", "/api/v1/projects/p1/sprints", map[string]any{
		"name":       "Sprint One",
		"start_date": "2026-03-02",
		"end_date":   "2026-03-11",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	sprintID := resp["sprint"].(map[string]any)["id"].(string)

	task := domain.Task{
		ProjectID: "p1", SprintID: sprintID, StoryPoints: 5,
		StatusKhanban: domain.KhanbanDone,
	}
	require.NoError(t, st.Set(ctx, store.ColTasks, "t1", task.Fields()))

	rr, resp = do(t, router, "GET", "/api/v1/projects/p1/metrics/burndown", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	burndown := resp["burndown"].(map[string]any)
	info := burndown["sprint_info"].(map[string]any)
	assert.Equal(t, "Sprint One", info["name"])
	assert.Equal(t, float64(10), info["duration_days"])
	assert.Len(t, burndown["chart_data"].([]any), 10)

	rr, _ = do(t, router, "GET", "/api/v1/projects/p1/metrics/sprint-comparison", nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
