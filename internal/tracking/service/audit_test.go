package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

func TestAudit_ReportsWithoutRepairing(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewAuditService(st)

	// Consistent story.
	seedStory(t, st, "us1", domain.UserStory{
		UUID: "uuid-1", ProjectRef: "p1", Status: domain.StatusActive,
		TaskList: []string{"t1"}, TotalTasks: 1, TaskCompleted: 1, Points: 3,
	})
	require.NoError(t, st.Set(ctx, store.ColTasks, "t1", domain.Task{
		ProjectID: "p1", UserStoryID: "uuid-1",
		StatusKhanban: domain.KhanbanDone, StoryPoints: 3,
	}.Fields()))

	// Drifted story: counters claim more than the tasks support.
	seedStory(t, st, "us2", domain.UserStory{
		UUID: "uuid-2", ProjectRef: "p1", Status: domain.StatusActive,
		TaskList: []string{"t2"}, TotalTasks: 2, TaskCompleted: 1, Points: 9,
	})
	require.NoError(t, st.Set(ctx, store.ColTasks, "t2", domain.Task{
		ProjectID: "p1", UserStoryID: "uuid-2",
		StatusKhanban: domain.KhanbanInProgress, StoryPoints: 4,
	}.Fields()))

	// Archived stories are out of scope.
	seedStory(t, st, "us3", domain.UserStory{
		UUID: "uuid-3", ProjectRef: "p1", Status: domain.StatusArchived, TotalTasks: 99,
	})

	findings, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 3)

	byField := map[string]AuditFinding{}
	for _, f := range findings {
		assert.Equal(t, "uuid-2", f.StoryUUID)
		byField[f.Field] = f
	}
	assert.Equal(t, 2, byField["total_tasks"].Stored)
	assert.Equal(t, 1, byField["total_tasks"].Computed)
	assert.Equal(t, 1, byField["task_completed"].Stored)
	assert.Equal(t, 0, byField["task_completed"].Computed)
	assert.Equal(t, 9, byField["points"].Stored)
	assert.Equal(t, 4, byField["points"].Computed)

	// The audit only reports; the stored document is untouched.
	got := loadStory(t, st, "us2")
	assert.Equal(t, 2, got.TotalTasks)
	assert.Equal(t, 9, got.Points)
}
