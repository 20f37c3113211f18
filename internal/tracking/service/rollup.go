package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// RollupService maintains the denormalized rollups a user story keeps about
// its tasks (task_list, total_tasks, task_completed, points) and the task
// membership lists sprints embed per story.
//
// Every operation is one read-modify-write pair against the store. There is
// no optimistic concurrency token: two concurrent calls against the same
// story can both read the pre-update rollup and the later write wins. That
// drift is bounded by the nightly audit (cmd/worker), not repaired here.
type RollupService struct {
	store store.Store
	drift func(domain.DriftWarning)
}

func NewRollupService(st store.Store) *RollupService {
	return &RollupService{
		store: st,
		drift: func(w domain.DriftWarning) { log.Printf("[rollup] %s", w) },
	}
}

// OnDrift replaces the drift recorder. Warnings are recorded, never returned:
// the clamped value is written and the operation completes.
func (s *RollupService) OnDrift(f func(domain.DriftWarning)) {
	if f != nil {
		s.drift = f
	}
}

// AttachTask adds taskID to the story's task list and bumps the rollups.
// Re-attaching a task already in the list is a complete no-op so points are
// never double counted.
func (s *RollupService) AttachTask(ctx context.Context, projectID, storyUUID, taskID string, storyPoints int, isDone bool) error {
	story, err := s.findStory(ctx, projectID, storyUUID)
	if err != nil {
		return err
	}
	if containsID(story.TaskList, taskID) {
		return nil
	}

	completed := story.TaskCompleted
	if isDone {
		completed++
	}
	return s.writeRollup(ctx, story.DocID, map[string]any{
		"task_list":      append(story.TaskList, taskID),
		"total_tasks":    story.TotalTasks + 1,
		"points":         story.Points + storyPoints,
		"task_completed": completed,
	})
}

// DetachTask is the inverse of AttachTask. A task absent from the list is a
// no-op; counters being decremented are clamped at zero, since a negative
// counter only means the rollup had already drifted.
func (s *RollupService) DetachTask(ctx context.Context, projectID, storyUUID, taskID string, storyPoints int, wasDone bool) error {
	story, err := s.findStory(ctx, projectID, storyUUID)
	if err != nil {
		return err
	}
	if !containsID(story.TaskList, taskID) {
		return nil
	}

	completed := story.TaskCompleted
	if wasDone {
		completed = s.clamp(story.UUID, "task_completed", completed-1)
	}
	return s.writeRollup(ctx, story.DocID, map[string]any{
		"task_list":      removeID(story.TaskList, taskID),
		"total_tasks":    s.clamp(story.UUID, "total_tasks", story.TotalTasks-1),
		"points":         s.clamp(story.UUID, "points", story.Points-storyPoints),
		"task_completed": completed,
	})
}

// MoveTask reparents a task between user stories and keeps the sprint's
// embedded membership list in step. An empty old or new story id skips that
// half, so moving in from the backlog only attaches and moving out to
// nowhere only detaches.
func (s *RollupService) MoveTask(ctx context.Context, projectID, sprintID, oldStoryUUID, newStoryUUID, taskID string, storyPoints int, isDone bool) error {
	if oldStoryUUID == newStoryUUID {
		return s.syncSprintMembership(ctx, projectID, sprintID, oldStoryUUID, newStoryUUID, taskID)
	}
	if oldStoryUUID != "" {
		if err := s.DetachTask(ctx, projectID, oldStoryUUID, taskID, storyPoints, isDone); err != nil {
			return err
		}
	}
	if newStoryUUID != "" {
		if err := s.AttachTask(ctx, projectID, newStoryUUID, taskID, storyPoints, isDone); err != nil {
			return err
		}
	}
	return s.syncSprintMembership(ctx, projectID, sprintID, oldStoryUUID, newStoryUUID, taskID)
}

// UpdateTaskStatus adjusts task_completed when a tracked task crosses the
// Done boundary in either direction.
func (s *RollupService) UpdateTaskStatus(ctx context.Context, projectID, storyUUID, taskID string, wasDone, isDone bool) error {
	if wasDone == isDone {
		return nil
	}
	story, err := s.findStory(ctx, projectID, storyUUID)
	if err != nil {
		return err
	}
	if !containsID(story.TaskList, taskID) {
		return nil
	}

	completed := story.TaskCompleted + 1
	if wasDone {
		completed = s.clamp(story.UUID, "task_completed", story.TaskCompleted-1)
	}
	return s.writeRollup(ctx, story.DocID, map[string]any{"task_completed": completed})
}

// AdjustPoints applies a story-point delta for a task that stays on its
// story. Untracked tasks are ignored.
func (s *RollupService) AdjustPoints(ctx context.Context, projectID, storyUUID, taskID string, delta int) error {
	if delta == 0 {
		return nil
	}
	story, err := s.findStory(ctx, projectID, storyUUID)
	if err != nil {
		return err
	}
	if !containsID(story.TaskList, taskID) {
		return nil
	}
	return s.writeRollup(ctx, story.DocID, map[string]any{
		"points": s.clamp(story.UUID, "points", story.Points+delta),
	})
}

// BumpProjectCounters applies a delta to the project's denormalized task
// totals, clamped at zero like the story rollups.
func (s *RollupService) BumpProjectCounters(ctx context.Context, projectID string, dTotal, dDone int) error {
	doc, err := s.store.GetByID(ctx, store.ColProjects, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Kind: "project", Key: projectID}
	}
	if err != nil {
		return err
	}
	p := domain.ProjectFromDoc(doc.ID, doc.Fields)
	return s.store.Update(ctx, store.ColProjects, projectID, map[string]any{
		"totalTasks":     s.clamp(projectID, "totalTasks", p.TotalTasks+dTotal),
		"tasksCompleted": s.clamp(projectID, "tasksCompleted", p.TasksCompleted+dDone),
	})
}

// syncSprintMembership removes taskID from the embedded entry for the old
// story and adds it to the entry for the new one, writing the whole
// user_stories array back only when something actually changed. This is the
// single place the load-array-mutate-write pattern lives.
func (s *RollupService) syncSprintMembership(ctx context.Context, projectID, sprintID, oldStoryUUID, newStoryUUID, taskID string) error {
	if sprintID == "" {
		return nil
	}
	doc, err := s.store.GetByID(ctx, store.ColSprints, sprintID)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Kind: "sprint", Key: sprintID}
	}
	if err != nil {
		return err
	}
	sprint := domain.SprintFromDoc(doc.ID, doc.Fields)
	if sprint.ProjectID != projectID {
		return &domain.NotFoundError{Kind: "sprint", Key: sprintID}
	}

	changed := false
	for i := range sprint.UserStories {
		entry := &sprint.UserStories[i]
		if oldStoryUUID != "" && entry.ID == oldStoryUUID && containsID(entry.Tasks, taskID) {
			entry.Tasks = removeID(entry.Tasks, taskID)
			changed = true
		}
		if newStoryUUID != "" && entry.ID == newStoryUUID && !containsID(entry.Tasks, taskID) {
			entry.Tasks = append(entry.Tasks, taskID)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.store.Update(ctx, store.ColSprints, sprint.DocID, map[string]any{
		"user_stories": domain.SprintStoriesValue(sprint.UserStories),
	})
}

// findStory resolves a user story by (uuid, projectRef). Zero matches and
// duplicate matches are both reported, never papered over.
func (s *RollupService) findStory(ctx context.Context, projectID, storyUUID string) (domain.UserStory, error) {
	doc, err := s.store.FindOne(ctx, store.ColUserStories,
		store.Filter{Field: "uuid", Value: storyUUID},
		store.Filter{Field: "projectRef", Value: projectID},
	)
	if errors.Is(err, store.ErrNotFound) {
		return domain.UserStory{}, &domain.NotFoundError{Kind: "user story", Key: storyUUID}
	}
	if errors.Is(err, store.ErrAmbiguous) {
		return domain.UserStory{}, &domain.IntegrityError{Kind: "user story", Key: storyUUID}
	}
	if err != nil {
		return domain.UserStory{}, fmt.Errorf("find user story %s: %w", storyUUID, err)
	}
	return domain.UserStoryFromDoc(doc.ID, doc.Fields), nil
}

func (s *RollupService) writeRollup(ctx context.Context, docID string, updates map[string]any) error {
	if err := s.store.Update(ctx, store.ColUserStories, docID, updates); err != nil {
		return fmt.Errorf("update rollup: %w", err)
	}
	return nil
}

func (s *RollupService) clamp(key, field string, v int) int {
	if v < 0 {
		s.drift(domain.DriftWarning{StoryUUID: key, Field: field, Attempted: v})
		return 0
	}
	return v
}

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
