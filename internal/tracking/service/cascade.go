package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// CascadeService removes a user story together with everything that
// denormalizes it: its tasks, the bugs linked to its uuid, and the sprint
// entries embedding it. Children go first because steps 2-4 need the parent
// document's task_list and uuid; the parent delete is last. A rerun after a
// partial failure is safe, since deleting an already-deleted child and
// pruning an already-pruned sprint entry are both no-ops.
type CascadeService struct {
	store store.Store
}

func NewCascadeService(st store.Store) *CascadeService {
	return &CascadeService{store: st}
}

// DeleteUserStoryAndRelated deletes the story identified by its document id
// within projectID. A missing story is the only terminal failure.
func (s *CascadeService) DeleteUserStoryAndRelated(ctx context.Context, projectID, storyID string) error {
	doc, err := s.store.GetByID(ctx, store.ColUserStories, storyID)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Kind: "user story", Key: storyID}
	}
	if err != nil {
		return err
	}
	story := domain.UserStoryFromDoc(doc.ID, doc.Fields)

	// Tasks: best effort, a task document already gone is not an error.
	for _, taskID := range story.TaskList {
		if err := s.store.Delete(ctx, store.ColTasks, taskID); err != nil {
			return fmt.Errorf("delete task %s: %w", taskID, err)
		}
	}

	if err := s.deleteRelatedBugs(ctx, projectID, story.UUID); err != nil {
		return err
	}
	if err := s.pruneSprintEntries(ctx, projectID, story.UUID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, store.ColUserStories, storyID); err != nil {
		return fmt.Errorf("delete user story %s: %w", storyID, err)
	}
	log.Printf("[cascade] deleted story %s (%d tasks) from project %s", storyID, len(story.TaskList), projectID)
	return nil
}

func (s *CascadeService) deleteRelatedBugs(ctx context.Context, projectID, storyUUID string) error {
	it := s.store.Stream(ctx, store.ColBugs,
		store.Filter{Field: "userStoryRelated", Value: storyUUID},
		store.Filter{Field: "projectId", Value: projectID},
	)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == store.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream bugs: %w", err)
		}
		if err := s.store.Delete(ctx, store.ColBugs, doc.ID); err != nil {
			return fmt.Errorf("delete bug %s: %w", doc.ID, err)
		}
	}
}

// pruneSprintEntries removes the story's embedded entry from every sprint in
// the project, writing back only sprints whose list actually changed.
func (s *CascadeService) pruneSprintEntries(ctx context.Context, projectID, storyUUID string) error {
	it := s.store.Stream(ctx, store.ColSprints,
		store.Filter{Field: "project_id", Value: projectID},
	)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == store.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream sprints: %w", err)
		}
		sprint := domain.SprintFromDoc(doc.ID, doc.Fields)

		kept := make([]domain.SprintStoryEntry, 0, len(sprint.UserStories))
		for _, entry := range sprint.UserStories {
			if entry.ID != storyUUID {
				kept = append(kept, entry)
			}
		}
		if len(kept) == len(sprint.UserStories) {
			continue
		}
		err = s.store.Update(ctx, store.ColSprints, sprint.DocID, map[string]any{
			"user_stories": domain.SprintStoriesValue(kept),
		})
		if err != nil {
			return fmt.Errorf("prune sprint %s: %w", sprint.DocID, err)
		}
	}
}
