package domain

// Lifecycle status shared by epics, requirements and user stories. Batch
// reconciliation never hard-deletes these kinds: absence from a batch
// transitions them to archived.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Kanban column for tasks and bugs.
const (
	KhanbanBacklog    = "Backlog"
	KhanbanToDo       = "To Do"
	KhanbanInProgress = "In Progress"
	KhanbanInReview   = "In Review"
	KhanbanDone       = "Done"
)

// Sprint lifecycle.
const (
	SprintPlanning  = "planning"
	SprintActive    = "active"
	SprintCompleted = "completed"
)

// IsValidKhanban reports whether s is a known kanban column.
func IsValidKhanban(s string) bool {
	switch s {
	case KhanbanBacklog, KhanbanToDo, KhanbanInProgress, KhanbanInReview, KhanbanDone:
		return true
	}
	return false
}
