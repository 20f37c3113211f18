package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_FindOne(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	require.NoError(t, st.Set(ctx, ColEpics, "e1", map[string]any{"idTitle": "EP-001", "projectRef": "p1"}))
	require.NoError(t, st.Set(ctx, ColEpics, "e2", map[string]any{"idTitle": "EP-002", "projectRef": "p1"}))

	t.Run("single match", func(t *testing.T) {
		doc, err := st.FindOne(ctx, ColEpics, Filter{Field: "idTitle", Value: "EP-001"})
		require.NoError(t, err)
		assert.Equal(t, "e1", doc.ID)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := st.FindOne(ctx, ColEpics, Filter{Field: "idTitle", Value: "EP-999"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicates are ambiguous", func(t *testing.T) {
		_, err := st.FindOne(ctx, ColEpics, Filter{Field: "projectRef", Value: "p1"})
		assert.ErrorIs(t, err, ErrAmbiguous)
	})
}

func TestMemoryStore_NumericEquality(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	// Firestore returns int64 for integers written as int; filters must not
	// care about the width.
	require.NoError(t, st.Set(ctx, ColTasks, "t1", map[string]any{"story_points": int64(5)}))

	doc, err := st.FindOne(ctx, ColTasks, Filter{Field: "story_points", Value: 5})
	require.NoError(t, err)
	assert.Equal(t, "t1", doc.ID)
}

func TestMemoryStore_DeleteAbsentSucceeds(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	assert.NoError(t, st.Delete(ctx, ColTasks, "never-existed"))
}

func TestMemoryStore_IsolatesCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	fields := map[string]any{"task_list": []string{"a"}}
	require.NoError(t, st.Set(ctx, ColUserStories, "s1", fields))
	fields["task_list"] = []string{"mutated"}

	doc, err := st.GetByID(ctx, ColUserStories, "s1")
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, doc.Fields["task_list"])
}

func TestMemoryBatch_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Set(ctx, ColEpics, "e1", map[string]any{"status": "active"}))

	b := st.NewBatch()
	b.Update(ColEpics, "e1", map[string]any{"status": "archived"})
	b.Update(ColEpics, "missing", map[string]any{"status": "archived"})
	require.Error(t, b.Commit(ctx))

	doc, err := st.GetByID(ctx, ColEpics, "e1")
	require.NoError(t, err)
	assert.Equal(t, "active", doc.Fields["status"])
}

func TestMemoryBatch_LastWriteWinsPerDoc(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	b := st.NewBatch()
	b.Set(ColEpics, "e1", map[string]any{"title": "first"})
	b.Set(ColEpics, "e1", map[string]any{"title": "second"})
	require.NoError(t, b.Commit(ctx))

	doc, err := st.GetByID(ctx, ColEpics, "e1")
	require.NoError(t, err)
	assert.Equal(t, "second", doc.Fields["title"])
}

func TestMemoryStore_StreamFiltered(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Set(ctx, ColTasks, "t1", map[string]any{"project_id": "p1"}))
	require.NoError(t, st.Set(ctx, ColTasks, "t2", map[string]any{"project_id": "p2"}))
	require.NoError(t, st.Set(ctx, ColTasks, "t3", map[string]any{"project_id": "p1"}))

	it := st.Stream(ctx, ColTasks, Filter{Field: "project_id", Value: "p1"})
	defer it.Stop()

	var ids []string
	for {
		doc, err := it.Next()
		if err == Done {
			break
		}
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}
	assert.Equal(t, []string{"t1", "t3"}, ids)
}
