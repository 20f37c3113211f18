package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// ReconcileService replaces a project's set of epics, requirements or user
// stories from an externally generated batch. Items are upserted by natural
// key (idTitle); active items missing from the batch are archived, never
// hard-deleted.
//
// The snapshot-then-diff window is deliberate: the full per-project
// collection is read into a map first, because the store has no
// upsert-and-delete-rest primitive. A document created concurrently between
// that read and the batch commit is invisible to this pass — neither
// archived nor duplicated — which is the accepted trade-off of a store
// without snapshot isolation across queries.
type ReconcileService struct {
	store store.Store
	now   func() time.Time
}

func NewReconcileService(st store.Store) *ReconcileService {
	return &ReconcileService{store: st, now: time.Now}
}

// ReconcileOptions tunes a reconciliation pass.
type ReconcileOptions struct {
	// ScopeEpicID restricts the pass to one epic: it must resolve to
	// exactly one active epic in the project, and items arriving without a
	// parent reference inherit it.
	ScopeEpicID string
	// ArchiveMissing archives active items absent from the incoming batch.
	ArchiveMissing bool
}

// snapshotRef is what the pre-batch collection read retains per natural key.
type snapshotRef struct {
	docID string
	uuid  string // user stories only: the durable cross-reference key
}

// ReconcileEpics upserts the given epics and, in a second independent batch,
// re-links every requirement named in an epic's relatedRequirements list.
func (s *ReconcileService) ReconcileEpics(ctx context.Context, projectID string, items []domain.Epic, opts ReconcileOptions) ([]domain.Epic, error) {
	if err := s.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	existing, err := s.snapshot(ctx, store.ColEpics, projectID)
	if err != nil {
		return nil, err
	}

	batch := s.store.NewBatch()
	seen := make(map[string]bool)
	stamp := s.now().UTC().Format(time.RFC3339)
	out := make([]domain.Epic, 0, len(items))

	for _, item := range items {
		if item.ProjectRef != projectID {
			return nil, &domain.ProjectMismatchError{Kind: "epic", Key: item.IDTitle, Want: projectID, Got: item.ProjectRef}
		}
		item.Status = domain.StatusActive
		item.LastUpdated = stamp

		if ref, ok := existing[item.IDTitle]; ok {
			item.DocID = ref.docID
			batch.Update(store.ColEpics, ref.docID, item.Fields())
		} else {
			item.DocID = s.store.NewDocID(store.ColEpics)
			batch.Set(store.ColEpics, item.DocID, item.Fields())
		}
		seen[item.IDTitle] = true
		out = append(out, item)
	}

	s.queueArchives(batch, store.ColEpics, existing, seen, opts, stamp)
	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit epics: %w", err)
	}

	if err := s.relinkRequirements(ctx, projectID, out, stamp); err != nil {
		return nil, err
	}
	return out, nil
}

// ReconcileRequirements upserts the given requirements. An epicRef naming an
// epic that does not exist is accepted as-is: requirements are routinely
// imported before their epic, so epic existence is only enforced for
// ScopeEpicID.
func (s *ReconcileService) ReconcileRequirements(ctx context.Context, projectID string, items []domain.Requirement, opts ReconcileOptions) ([]domain.Requirement, error) {
	if err := s.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	scopeEpic, err := s.resolveScopeEpic(ctx, projectID, opts.ScopeEpicID)
	if err != nil {
		return nil, err
	}
	existing, err := s.snapshot(ctx, store.ColRequirements, projectID)
	if err != nil {
		return nil, err
	}

	batch := s.store.NewBatch()
	seen := make(map[string]bool)
	stamp := s.now().UTC().Format(time.RFC3339)
	out := make([]domain.Requirement, 0, len(items))

	for _, item := range items {
		if item.ProjectRef != projectID {
			return nil, &domain.ProjectMismatchError{Kind: "requirement", Key: item.IDTitle, Want: projectID, Got: item.ProjectRef}
		}
		if item.EpicRef == "" && scopeEpic != "" {
			item.EpicRef = scopeEpic
		}
		item.Status = domain.StatusActive
		item.LastUpdated = stamp

		if ref, ok := existing[item.IDTitle]; ok {
			item.DocID = ref.docID
			batch.Update(store.ColRequirements, ref.docID, item.Fields())
		} else {
			item.DocID = s.store.NewDocID(store.ColRequirements)
			batch.Set(store.ColRequirements, item.DocID, item.Fields())
		}
		seen[item.IDTitle] = true
		out = append(out, item)
	}

	s.queueArchives(batch, store.ColRequirements, existing, seen, opts, stamp)
	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit requirements: %w", err)
	}
	return out, nil
}

// ReconcileUserStories upserts the given stories. The durable uuid and the
// task rollups of an existing story survive the update: reconciliation
// resets status and content, not the counters the rollup engine maintains.
func (s *ReconcileService) ReconcileUserStories(ctx context.Context, projectID string, items []domain.UserStory, opts ReconcileOptions) ([]domain.UserStory, error) {
	if err := s.checkProject(ctx, projectID); err != nil {
		return nil, err
	}
	scopeEpic, err := s.resolveScopeEpic(ctx, projectID, opts.ScopeEpicID)
	if err != nil {
		return nil, err
	}
	existing, err := s.snapshot(ctx, store.ColUserStories, projectID)
	if err != nil {
		return nil, err
	}

	batch := s.store.NewBatch()
	seen := make(map[string]bool)
	stamp := s.now().UTC().Format(time.RFC3339)
	out := make([]domain.UserStory, 0, len(items))

	for _, item := range items {
		if item.ProjectRef != projectID {
			return nil, &domain.ProjectMismatchError{Kind: "user story", Key: item.IDTitle, Want: projectID, Got: item.ProjectRef}
		}
		if item.EpicRef == "" && scopeEpic != "" {
			item.EpicRef = scopeEpic
		}
		item.Status = domain.StatusActive
		item.LastUpdated = stamp

		if ref, ok := existing[item.IDTitle]; ok {
			item.DocID = ref.docID
			item.UUID = ref.uuid
			fields := item.Fields()
			// Keep the cross-reference key and the incrementally
			// maintained rollups out of the update.
			delete(fields, "uuid")
			delete(fields, "task_list")
			delete(fields, "total_tasks")
			delete(fields, "task_completed")
			batch.Update(store.ColUserStories, ref.docID, fields)
		} else {
			item.DocID = s.store.NewDocID(store.ColUserStories)
			if item.UUID == "" {
				item.UUID = uuid.NewString()
			}
			batch.Set(store.ColUserStories, item.DocID, item.Fields())
		}
		seen[item.IDTitle] = true
		out = append(out, item)
	}

	s.queueArchives(batch, store.ColUserStories, existing, seen, opts, stamp)
	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit user stories: %w", err)
	}
	return out, nil
}

func (s *ReconcileService) checkProject(ctx context.Context, projectID string) error {
	_, err := s.store.GetByID(ctx, store.ColProjects, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Kind: "project", Key: projectID}
	}
	return err
}

// resolveScopeEpic validates that the scoping epic resolves to exactly one
// active epic of the project and returns its natural key.
func (s *ReconcileService) resolveScopeEpic(ctx context.Context, projectID, scopeEpicID string) (string, error) {
	if scopeEpicID == "" {
		return "", nil
	}
	doc, err := s.store.FindOne(ctx, store.ColEpics,
		store.Filter{Field: "idTitle", Value: scopeEpicID},
		store.Filter{Field: "projectRef", Value: projectID},
		store.Filter{Field: "status", Value: domain.StatusActive},
	)
	if errors.Is(err, store.ErrNotFound) {
		return "", &domain.NotFoundError{Kind: "epic", Key: scopeEpicID}
	}
	if errors.Is(err, store.ErrAmbiguous) {
		return "", &domain.IntegrityError{Kind: "epic", Key: scopeEpicID}
	}
	if err != nil {
		return "", err
	}
	return domain.EpicFromDoc(doc.ID, doc.Fields).IDTitle, nil
}

// snapshot loads every document of the collection for the project into a map
// keyed by natural key. Reading the whole per-project collection up front is
// what makes "missing" detectable without per-item existence probes.
func (s *ReconcileService) snapshot(ctx context.Context, collection, projectID string) (map[string]snapshotRef, error) {
	it := s.store.Stream(ctx, collection, store.Filter{Field: "projectRef", Value: projectID})
	defer it.Stop()

	out := make(map[string]snapshotRef)
	for {
		doc, err := it.Next()
		if err == store.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", collection, err)
		}
		key, ok := doc.Fields["idTitle"].(string)
		if !ok || key == "" {
			continue
		}
		ref := snapshotRef{docID: doc.ID}
		if collection == store.ColUserStories {
			if u, ok := doc.Fields["uuid"].(string); ok {
				ref.uuid = u
			}
		}
		out[key] = ref
	}
}

func (s *ReconcileService) queueArchives(batch store.Batch, collection string, existing map[string]snapshotRef, seen map[string]bool, opts ReconcileOptions, stamp string) {
	if !opts.ArchiveMissing {
		return
	}
	archived := 0
	for key, ref := range existing {
		if seen[key] {
			continue
		}
		batch.Update(collection, ref.docID, map[string]any{
			"status":      domain.StatusArchived,
			"lastUpdated": stamp,
		})
		archived++
	}
	if archived > 0 {
		log.Printf("[reconcile] archiving %d %s absent from batch", archived, collection)
	}
}

// relinkRequirements runs after the epic batch lands: every requirement an
// epic names in relatedRequirements gets its epicRef pointed back at that
// epic. This is a second, independent commit, not atomic with the epic
// batch; a requirement not imported yet is simply skipped.
func (s *ReconcileService) relinkRequirements(ctx context.Context, projectID string, epics []domain.Epic, stamp string) error {
	batch := s.store.NewBatch()
	queued := 0
	for _, epic := range epics {
		for _, reqKey := range epic.RelatedRequirements {
			doc, err := s.store.FindOne(ctx, store.ColRequirements,
				store.Filter{Field: "idTitle", Value: reqKey},
				store.Filter{Field: "projectRef", Value: projectID},
			)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if errors.Is(err, store.ErrAmbiguous) {
				return &domain.IntegrityError{Kind: "requirement", Key: reqKey}
			}
			if err != nil {
				return err
			}
			batch.Update(store.ColRequirements, doc.ID, map[string]any{
				"epicRef":     epic.IDTitle,
				"lastUpdated": stamp,
			})
			queued++
		}
	}
	if queued == 0 {
		return nil
	}
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("relink requirements: %w", err)
	}
	return nil
}
