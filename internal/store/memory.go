package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore is an in-process Store used by tests. It mimics the document
// store's semantics: equality-only filters, no cross-document transactions,
// atomic batches, deletes of absent documents succeed.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]map[string]map[string]any // collection -> id -> fields
	counter int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) GetByID(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.data[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return Document{ID: id, Fields: deepCopy(fields)}, nil
}

func (s *MemoryStore) FindOne(_ context.Context, collection string, filters ...Filter) (Document, error) {
	docs := s.match(collection, filters)
	switch len(docs) {
	case 0:
		return Document{}, fmt.Errorf("%s %v: %w", collection, filters, ErrNotFound)
	case 1:
		return docs[0], nil
	default:
		return Document{}, fmt.Errorf("%s %v: %w", collection, filters, ErrAmbiguous)
	}
}

func (s *MemoryStore) Stream(_ context.Context, collection string, filters ...Filter) Iterator {
	return &sliceIterator{docs: s.match(collection, filters)}
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(collection, id, fields)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(collection, id, updates)
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}

func (s *MemoryStore) NewDocID(collection string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return collection + "-" + strconv.Itoa(s.counter)
}

func (s *MemoryStore) NewBatch() Batch {
	return &memoryBatch{store: s, plan: newWritePlan()}
}

func (s *MemoryStore) setLocked(collection, id string, fields map[string]any) {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]map[string]any)
	}
	s.data[collection][id] = deepCopy(fields)
}

func (s *MemoryStore) updateLocked(collection, id string, updates map[string]any) error {
	existing, ok := s.data[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range deepCopy(updates) {
		existing[k] = v
	}
	return nil
}

func (s *MemoryStore) match(collection string, filters []Filter) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data[collection]))
	for id := range s.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Document
	for _, id := range ids {
		fields := s.data[collection][id]
		matched := true
		for _, f := range filters {
			if !equalValues(fields[f.Field], f.Value) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, Document{ID: id, Fields: deepCopy(fields)})
		}
	}
	return out
}

type sliceIterator struct {
	docs []Document
	pos  int
}

func (it *sliceIterator) Next() (Document, error) {
	if it.pos >= len(it.docs) {
		return Document{}, Done
	}
	doc := it.docs[it.pos]
	it.pos++
	return doc, nil
}

func (it *sliceIterator) Stop() {}

type memoryBatch struct {
	store *MemoryStore
	plan  *writePlan
}

func (b *memoryBatch) Set(collection, id string, fields map[string]any) {
	b.plan.add(pendingWrite{collection: collection, id: id, fields: fields, isSet: true})
}

func (b *memoryBatch) Update(collection, id string, updates map[string]any) {
	b.plan.add(pendingWrite{collection: collection, id: id, fields: updates})
}

func (b *memoryBatch) Commit(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	// Validate first so the commit is all-or-nothing.
	for _, w := range b.plan.ordered() {
		if !w.isSet {
			if _, ok := b.store.data[w.collection][w.id]; !ok {
				return fmt.Errorf("%s/%s: %w", w.collection, w.id, ErrNotFound)
			}
		}
	}
	for _, w := range b.plan.ordered() {
		if w.isSet {
			b.store.setLocked(w.collection, w.id, w.fields)
		} else {
			if err := b.store.updateLocked(w.collection, w.id, w.fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func deepCopy(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = copyValue(e)
		}
		return cp
	case []string:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = e
		}
		return cp
	default:
		return v
	}
}

// equalValues compares loosely across numeric widths, since Firestore hands
// integers back as int64 regardless of what was written.
func equalValues(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
