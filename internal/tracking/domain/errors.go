package domain

import "fmt"

// NotFoundError reports a referenced entity that does not exist. The caller
// decides whether that aborts its own operation; task deletion, for example,
// proceeds even when the owning user story is already gone.
type NotFoundError struct {
	Kind string // "project", "user story", "sprint", "epic", ...
	Key  string // natural key, uuid or document id that failed to resolve
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// ProjectMismatchError reports an item whose own project reference disagrees
// with the project the operation was invoked for.
type ProjectMismatchError struct {
	Kind string
	Key  string
	Want string
	Got  string
}

func (e *ProjectMismatchError) Error() string {
	return fmt.Sprintf("%s %q belongs to project %q, not %q", e.Kind, e.Key, e.Got, e.Want)
}

// IntegrityError reports a natural-key lookup that was expected to be unique
// but matched more than one document. It is never resolved by silently
// picking one of the duplicates.
type IntegrityError struct {
	Kind string
	Key  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %q matched more than one document", e.Kind, e.Key)
}

// DriftWarning records a counter that would have gone negative and was
// clamped to zero instead. It is non-fatal: the clamped value is written and
// the operation completes.
type DriftWarning struct {
	StoryUUID string
	Field     string
	Attempted int
}

func (w DriftWarning) String() string {
	return fmt.Sprintf("drift on story %s: %s clamped to 0 (would have been %d)", w.StoryUUID, w.Field, w.Attempted)
}
