package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raices-25-26J-118/raices-backend/internal/boardstate/domain"
)

func newTestRepo(t *testing.T) (*BoardRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBoardRepository(client), mr
}

func TestBoardRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	state := json.RawMessage(`{"columns":["todo","doing","done"],"collapsed":false}`)
	saved, err := repo.Save(ctx, "user-1", state)
	require.NoError(t, err)
	assert.False(t, saved.SavedAt.IsZero())

	got, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.JSONEq(t, string(state), string(got.State))
	assert.Equal(t, saved.SavedAt.Unix(), got.SavedAt.Unix())
}

func TestBoardRepository_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Save(ctx, "user-1", json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	_, err = repo.Save(ctx, "user-1", json.RawMessage(`{"v":2}`))
	require.NoError(t, err)

	got, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got.State))
}

func TestBoardRepository_LoadMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestBoardRepository_StateExpires(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t)

	_, err := repo.Save(ctx, "user-1", json.RawMessage(`{"v":1}`))
	require.NoError(t, err)

	mr.FastForward(stateTTL + 1)

	_, err = repo.Load(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestBoardRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Save(ctx, "user-1", json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "user-1"))

	_, err = repo.Load(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	// Deleting again is fine.
	assert.NoError(t, repo.Delete(ctx, "user-1"))
}
