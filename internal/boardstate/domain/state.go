package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrStateNotFound is returned when a user has never saved board state or it
// has expired.
var ErrStateNotFound = errors.New("board state not found")

// BoardState is one user's planning-board layout, stored as an opaque JSON
// document the client fully owns.
type BoardState struct {
	UserID  string          `json:"user_id"`
	State   json.RawMessage `json:"state"`
	SavedAt time.Time       `json:"saved_at"`
}
