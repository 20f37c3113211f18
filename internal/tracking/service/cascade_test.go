package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

func TestCascade_DeleteUserStoryAndRelated(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewCascadeService(st)

	seedStory(t, st, "us1", domain.UserStory{
		IDTitle: "US-001", UUID: "uuid-1", ProjectRef: "p1",
		TaskList: []string{"t1", "t2"}, TotalTasks: 2,
	})
	require.NoError(t, st.Set(ctx, store.ColTasks, "t1", map[string]any{"project_id": "p1"}))
	// t2 referenced in task_list but its document is already gone.

	require.NoError(t, st.Set(ctx, store.ColBugs, "b1", map[string]any{
		"projectId": "p1", "userStoryRelated": "uuid-1",
	}))
	require.NoError(t, st.Set(ctx, store.ColBugs, "b2", map[string]any{
		"projectId": "p1", "userStoryRelated": "uuid-other",
	}))
	require.NoError(t, st.Set(ctx, store.ColBugs, "b3", map[string]any{
		"projectId": "p2", "userStoryRelated": "uuid-1",
	}))

	sprint := domain.Sprint{
		ProjectID: "p1",
		UserStories: []domain.SprintStoryEntry{
			{ID: "uuid-1", Tasks: []string{"t1", "t2"}},
			{ID: "uuid-2", Tasks: []string{"t9"}},
		},
	}
	require.NoError(t, st.Set(ctx, store.ColSprints, "sp1", sprint.Fields()))

	require.NoError(t, svc.DeleteUserStoryAndRelated(ctx, "p1", "us1"))

	_, err := st.GetByID(ctx, store.ColUserStories, "us1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetByID(ctx, store.ColTasks, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Only the bug tied to this story in this project goes.
	_, err = st.GetByID(ctx, store.ColBugs, "b1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetByID(ctx, store.ColBugs, "b2")
	assert.NoError(t, err)
	_, err = st.GetByID(ctx, store.ColBugs, "b3")
	assert.NoError(t, err)

	doc, err := st.GetByID(ctx, store.ColSprints, "sp1")
	require.NoError(t, err)
	got := domain.SprintFromDoc(doc.ID, doc.Fields)
	require.Len(t, got.UserStories, 1)
	assert.Equal(t, "uuid-2", got.UserStories[0].ID)
	assert.Equal(t, []string{"t9"}, got.UserStories[0].Tasks)
}

func TestCascade_MissingStoryIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc := NewCascadeService(store.NewMemoryStore())

	err := svc.DeleteUserStoryAndRelated(ctx, "p1", "nope")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCascade_RerunAfterPartialProgressIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewCascadeService(st)

	// Mid-cascade state: tasks and bugs already gone, parent still there.
	seedStory(t, st, "us1", domain.UserStory{
		UUID: "uuid-1", ProjectRef: "p1", TaskList: []string{"t1"},
	})
	sprint := domain.Sprint{
		ProjectID:   "p1",
		UserStories: []domain.SprintStoryEntry{{ID: "uuid-1", Tasks: []string{"t1"}}},
	}
	require.NoError(t, st.Set(ctx, store.ColSprints, "sp1", sprint.Fields()))

	require.NoError(t, svc.DeleteUserStoryAndRelated(ctx, "p1", "us1"))

	doc, err := st.GetByID(ctx, store.ColSprints, "sp1")
	require.NoError(t, err)
	assert.Empty(t, domain.SprintFromDoc(doc.ID, doc.Fields).UserStories)
}
