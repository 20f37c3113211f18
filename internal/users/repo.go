package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
)

const collection = "users"

// Repository keeps one document per Firebase user so the rest of the
// system can attach display data to UIDs.
type Repository struct {
	store store.Store
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// EnsureUser upserts the user document for the given UID. The document id is
// the UID itself, so repeated calls are idempotent.
func (r *Repository) EnsureUser(ctx context.Context, uid, email string) error {
	if uid == "" {
		return fmt.Errorf("ensure user: empty uid")
	}

	fields := map[string]any{
		"uid":       uid,
		"lastLogin": time.Now().UTC().Format(time.RFC3339),
	}
	if email != "" {
		fields["email"] = email
	}

	existing, err := r.store.GetByID(ctx, collection, uid)
	if err == nil {
		if created, ok := existing.Fields["createdAt"]; ok {
			fields["createdAt"] = created
		}
		if err := r.store.Update(ctx, collection, uid, fields); err != nil {
			return fmt.Errorf("ensure user %s: %w", uid, err)
		}
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("ensure user %s: %w", uid, err)
	}

	fields["createdAt"] = fields["lastLogin"]
	if err := r.store.Set(ctx, collection, uid, fields); err != nil {
		return fmt.Errorf("ensure user %s: %w", uid, err)
	}
	return nil
}
