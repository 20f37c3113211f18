package store

import (
	"context"
	"errors"
)

// Collection names, matching the documents the frontend already reads.
const (
	ColProjects     = "projects"
	ColEpics        = "epics"
	ColRequirements = "requirements"
	ColUserStories  = "userStories"
	ColTasks        = "tasks"
	ColSprints      = "sprints"
	ColBugs         = "bugs"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAmbiguous is returned by FindOne when an equality query that is
	// expected to be unique matched more than one document. Callers must
	// never resolve this by picking one of the matches.
	ErrAmbiguous = errors.New("query matched more than one document")
	// Done is returned by Iterator.Next when the stream is exhausted.
	Done = errors.New("no more documents")
)

// Document is a raw store document: the surrogate id plus its fields.
type Document struct {
	ID     string
	Fields map[string]any
}

// Filter is a single equality condition on a field.
type Filter struct {
	Field string
	Value any
}

// Iterator walks a finite query result. The query is restartable by
// re-issuing Stream.
type Iterator interface {
	// Next returns the next document, or Done when exhausted.
	Next() (Document, error)
	Stop()
}

// Batch accumulates writes and commits them atomically. It offers no read
// capability; queueing a second write for the same document replaces the
// first (last write wins within the batch).
type Batch interface {
	Set(collection, id string, fields map[string]any)
	Update(collection, id string, updates map[string]any)
	Commit(ctx context.Context) error
}

// Store is the thin adapter over the document store. It exposes exactly the
// operations the consistency engine needs: point lookups, equality-filter
// queries, partial updates and atomic multi-writes. There are no
// cross-document transactions and no read capability inside a batch.
type Store interface {
	GetByID(ctx context.Context, collection, id string) (Document, error)
	FindOne(ctx context.Context, collection string, filters ...Filter) (Document, error)
	Stream(ctx context.Context, collection string, filters ...Filter) Iterator

	Set(ctx context.Context, collection, id string, fields map[string]any) error
	Update(ctx context.Context, collection, id string, updates map[string]any) error
	Delete(ctx context.Context, collection, id string) error

	// NewDocID allocates a fresh document id without writing anything.
	NewDocID(collection string) string
	NewBatch() Batch
}
