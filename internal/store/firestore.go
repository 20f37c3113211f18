package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on top of the Firestore client.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Client exposes the underlying Firestore client for health probes.
func (s *FirestoreStore) Client() *firestore.Client {
	return s.client
}

func (s *FirestoreStore) GetByID(ctx context.Context, collection, id string) (Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *FirestoreStore) FindOne(ctx context.Context, collection string, filters ...Filter) (Document, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}

	// Fetch up to two documents so duplicates are detected instead of
	// silently taking the first match.
	it := q.Limit(2).Documents(ctx)
	defer it.Stop()

	first, err := it.Next()
	if err == iterator.Done {
		return Document{}, fmt.Errorf("%s %v: %w", collection, filters, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("query %s: %w", collection, err)
	}
	if _, err := it.Next(); err != iterator.Done {
		if err != nil {
			return Document{}, fmt.Errorf("query %s: %w", collection, err)
		}
		return Document{}, fmt.Errorf("%s %v: %w", collection, filters, ErrAmbiguous)
	}
	return Document{ID: first.Ref.ID, Fields: first.Data()}, nil
}

func (s *FirestoreStore) Stream(ctx context.Context, collection string, filters ...Filter) Iterator {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	return &firestoreIterator{it: q.Documents(ctx)}
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, updates map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, toFirestoreUpdates(updates))
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	// Firestore deletes are no-ops for absent documents, which is exactly
	// the contract cascade deletion relies on.
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) NewDocID(collection string) string {
	return s.client.Collection(collection).NewDoc().ID
}

func (s *FirestoreStore) NewBatch() Batch {
	return &firestoreBatch{store: s, plan: newWritePlan()}
}

type firestoreIterator struct {
	it *firestore.DocumentIterator
}

func (f *firestoreIterator) Next() (Document, error) {
	snap, err := f.it.Next()
	if err == iterator.Done {
		return Document{}, Done
	}
	if err != nil {
		return Document{}, err
	}
	return Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (f *firestoreIterator) Stop() { f.it.Stop() }

type firestoreBatch struct {
	store *FirestoreStore
	plan  *writePlan
}

func (b *firestoreBatch) Set(collection, id string, fields map[string]any) {
	b.plan.add(pendingWrite{collection: collection, id: id, fields: fields, isSet: true})
}

func (b *firestoreBatch) Update(collection, id string, updates map[string]any) {
	b.plan.add(pendingWrite{collection: collection, id: id, fields: updates})
}

func (b *firestoreBatch) Commit(ctx context.Context) error {
	wb := b.store.client.Batch()
	for _, w := range b.plan.ordered() {
		ref := b.store.client.Collection(w.collection).Doc(w.id)
		if w.isSet {
			wb.Set(ref, w.fields)
		} else {
			wb.Update(ref, toFirestoreUpdates(w.fields))
		}
	}
	if _, err := wb.Commit(ctx); err != nil {
		return fmt.Errorf("batch commit: %w", err)
	}
	return nil
}

func toFirestoreUpdates(updates map[string]any) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for k, v := range updates {
		out = append(out, firestore.Update{Path: k, Value: v})
	}
	return out
}
