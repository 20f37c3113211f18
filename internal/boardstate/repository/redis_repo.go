package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Raices-25-26J-118/raices-backend/internal/boardstate/domain"
)

const (
	stateKeyPrefix = "board:state:" // board:state:{user_id}
	savedSetKey    = "board:users"  // set of user_ids with saved state
	stateTTL       = 30 * 24 * time.Hour
)

// BoardRepository persists per-user board state in Redis. Each save refreshes
// the TTL, so actively used boards never expire.
type BoardRepository struct {
	client *redis.Client
}

func NewBoardRepository(client *redis.Client) *BoardRepository {
	return &BoardRepository{client: client}
}

func (r *BoardRepository) Save(ctx context.Context, userID string, state json.RawMessage) (domain.BoardState, error) {
	bs := domain.BoardState{
		UserID:  userID,
		State:   state,
		SavedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(bs)
	if err != nil {
		return domain.BoardState{}, fmt.Errorf("marshal board state: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.stateKey(userID), data, stateTTL)
	pipe.SAdd(ctx, savedSetKey, userID)
	pipe.Expire(ctx, savedSetKey, stateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.BoardState{}, fmt.Errorf("save board state: %w", err)
	}
	return bs, nil
}

func (r *BoardRepository) Load(ctx context.Context, userID string) (domain.BoardState, error) {
	data, err := r.client.Get(ctx, r.stateKey(userID)).Result()
	if err == redis.Nil {
		return domain.BoardState{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.BoardState{}, fmt.Errorf("load board state: %w", err)
	}

	var bs domain.BoardState
	if err := json.Unmarshal([]byte(data), &bs); err != nil {
		return domain.BoardState{}, fmt.Errorf("unmarshal board state: %w", err)
	}
	return bs, nil
}

// Delete removes a user's saved state. Deleting absent state is not an error.
func (r *BoardRepository) Delete(ctx context.Context, userID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.stateKey(userID))
	pipe.SRem(ctx, savedSetKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete board state: %w", err)
	}
	return nil
}

func (r *BoardRepository) stateKey(userID string) string {
	return stateKeyPrefix + userID
}
