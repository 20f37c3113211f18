package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// TaskService owns task persistence and drives the rollup engine so the
// denormalized story, sprint and project documents stay in step with every
// task write.
type TaskService struct {
	store  store.Store
	rollup *RollupService
	now    func() time.Time
}

func NewTaskService(st store.Store, rollup *RollupService) *TaskService {
	return &TaskService{store: st, rollup: rollup, now: time.Now}
}

// Create stores the task and attaches it to its story, sprint and project
// counters. A task with no story lands in the backlog and only bumps the
// project total.
func (s *TaskService) Create(ctx context.Context, projectID string, t domain.Task) (domain.Task, error) {
	t.ProjectID = projectID
	if t.DocID == "" {
		t.DocID = s.store.NewDocID(store.ColTasks)
	}
	if t.StatusKhanban == "" {
		t.StatusKhanban = domain.KhanbanBacklog
	}
	if !domain.IsValidKhanban(t.StatusKhanban) {
		return domain.Task{}, fmt.Errorf("create task: invalid status %q", t.StatusKhanban)
	}
	now := s.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	isDone := t.StatusKhanban == domain.KhanbanDone
	if isDone && t.DateCompleted.IsZero() {
		t.DateCompleted = now
	}

	if err := s.store.Set(ctx, store.ColTasks, t.DocID, t.Fields()); err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}

	if t.UserStoryID != "" {
		if err := s.rollup.MoveTask(ctx, projectID, t.SprintID, "", t.UserStoryID, t.DocID, t.StoryPoints, isDone); err != nil {
			return domain.Task{}, err
		}
	}
	dDone := 0
	if isDone {
		dDone = 1
	}
	if err := s.rollup.BumpProjectCounters(ctx, projectID, 1, dDone); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// Update rewrites the task document and reconciles every rollup the change
// touches: story reparenting, sprint membership, done-count and project
// completed-count.
func (s *TaskService) Update(ctx context.Context, projectID, taskID string, t domain.Task) (domain.Task, error) {
	doc, err := s.store.GetByID(ctx, store.ColTasks, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Task{}, &domain.NotFoundError{Kind: "task", Key: taskID}
	}
	if err != nil {
		return domain.Task{}, err
	}
	old := domain.TaskFromDoc(doc.ID, doc.Fields)
	if old.ProjectID != projectID {
		return domain.Task{}, &domain.NotFoundError{Kind: "task", Key: taskID}
	}

	if t.StatusKhanban == "" {
		t.StatusKhanban = old.StatusKhanban
	}
	if !domain.IsValidKhanban(t.StatusKhanban) {
		return domain.Task{}, fmt.Errorf("update task: invalid status %q", t.StatusKhanban)
	}

	t.DocID = taskID
	t.ProjectID = projectID
	t.CreatedAt = old.CreatedAt
	t.CreatedBy = old.CreatedBy
	t.UpdatedAt = s.now().UTC()

	wasDone := old.StatusKhanban == domain.KhanbanDone
	isDone := t.StatusKhanban == domain.KhanbanDone
	if isDone && !wasDone && t.DateCompleted.IsZero() {
		t.DateCompleted = t.UpdatedAt
	}
	if !isDone {
		t.DateCompleted = time.Time{}
		t.FinishedBy = domain.Assignee{}
	}

	if err := s.store.Set(ctx, store.ColTasks, taskID, t.Fields()); err != nil {
		return domain.Task{}, fmt.Errorf("update task %s: %w", taskID, err)
	}

	moved := old.UserStoryID != t.UserStoryID || old.SprintID != t.SprintID
	if moved {
		// A detach from the old sprint first, in case the sprint changed too.
		if old.SprintID != "" && old.SprintID != t.SprintID && old.UserStoryID != "" {
			if err := s.rollup.MoveTask(ctx, projectID, old.SprintID, old.UserStoryID, "", taskID, old.StoryPoints, wasDone); err != nil {
				return domain.Task{}, err
			}
			// MoveTask already detached the old story; do not detach twice.
			old.UserStoryID = ""
		}
		if err := s.rollup.MoveTask(ctx, projectID, t.SprintID, old.UserStoryID, t.UserStoryID, taskID, t.StoryPoints, isDone); err != nil {
			return domain.Task{}, err
		}
	} else if t.UserStoryID != "" {
		if err := s.rollup.UpdateTaskStatus(ctx, projectID, t.UserStoryID, taskID, wasDone, isDone); err != nil {
			return domain.Task{}, err
		}
		if err := s.rollup.AdjustPoints(ctx, projectID, t.UserStoryID, taskID, t.StoryPoints-old.StoryPoints); err != nil {
			return domain.Task{}, err
		}
	}

	if wasDone != isDone {
		dDone := 1
		if wasDone {
			dDone = -1
		}
		if err := s.rollup.BumpProjectCounters(ctx, projectID, 0, dDone); err != nil {
			return domain.Task{}, err
		}
	}
	return t, nil
}

// Delete removes the task and unwinds its rollup contributions.
func (s *TaskService) Delete(ctx context.Context, projectID, taskID string) error {
	doc, err := s.store.GetByID(ctx, store.ColTasks, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Kind: "task", Key: taskID}
	}
	if err != nil {
		return err
	}
	t := domain.TaskFromDoc(doc.ID, doc.Fields)
	if t.ProjectID != projectID {
		return &domain.NotFoundError{Kind: "task", Key: taskID}
	}

	if err := s.store.Delete(ctx, store.ColTasks, taskID); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}

	wasDone := t.StatusKhanban == domain.KhanbanDone
	if t.UserStoryID != "" {
		if err := s.rollup.MoveTask(ctx, projectID, t.SprintID, t.UserStoryID, "", taskID, t.StoryPoints, wasDone); err != nil {
			return err
		}
	}
	dDone := 0
	if wasDone {
		dDone = -1
	}
	return s.rollup.BumpProjectCounters(ctx, projectID, -1, dDone)
}

// Get returns a single task scoped to the project.
func (s *TaskService) Get(ctx context.Context, projectID, taskID string) (domain.Task, error) {
	doc, err := s.store.GetByID(ctx, store.ColTasks, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Task{}, &domain.NotFoundError{Kind: "task", Key: taskID}
	}
	if err != nil {
		return domain.Task{}, err
	}
	t := domain.TaskFromDoc(doc.ID, doc.Fields)
	if t.ProjectID != projectID {
		return domain.Task{}, &domain.NotFoundError{Kind: "task", Key: taskID}
	}
	return t, nil
}

// List returns the project's tasks, optionally narrowed to one user story.
func (s *TaskService) List(ctx context.Context, projectID, storyUUID string) ([]domain.Task, error) {
	filters := []store.Filter{{Field: "project_id", Value: projectID}}
	if storyUUID != "" {
		filters = append(filters, store.Filter{Field: "user_story_id", Value: storyUUID})
	}
	it := s.store.Stream(ctx, store.ColTasks, filters...)
	defer it.Stop()

	tasks := make([]domain.Task, 0)
	for {
		doc, err := it.Next()
		if err == store.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, domain.TaskFromDoc(doc.ID, doc.Fields))
	}
	return tasks, nil
}

// BatchUpsertResult reports what a bulk task upsert did.
type BatchUpsertResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// BatchUpsert applies a list of tasks in order: items with a known id are
// updated, the rest created. Each item goes through the same rollup path as
// the single-task endpoints, so a mid-batch failure leaves earlier items
// fully applied and later ones untouched.
func (s *TaskService) BatchUpsert(ctx context.Context, projectID string, tasks []domain.Task) (BatchUpsertResult, error) {
	var res BatchUpsertResult
	for i, t := range tasks {
		if t.DocID == "" {
			if _, err := s.Create(ctx, projectID, t); err != nil {
				return res, fmt.Errorf("batch item %d: %w", i, err)
			}
			res.Created++
			continue
		}
		_, err := s.Update(ctx, projectID, t.DocID, t)
		var nf *domain.NotFoundError
		if errors.As(err, &nf) && nf.Kind == "task" {
			if _, err := s.Create(ctx, projectID, t); err != nil {
				return res, fmt.Errorf("batch item %d: %w", i, err)
			}
			res.Created++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("batch item %d: %w", i, err)
		}
		res.Updated++
	}
	return res, nil
}
