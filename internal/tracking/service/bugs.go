package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// CreateBug stores a new bug under the project. Bugs live outside the rollup
// engine: they never touch story or project counters, only the cascade and
// the sprint metrics read them.
func (s *ItemService) CreateBug(ctx context.Context, projectID string, bug domain.Bug) (domain.Bug, error) {
	if _, err := s.store.GetByID(ctx, store.ColProjects, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Bug{}, &domain.NotFoundError{Kind: "project", Key: projectID}
		}
		return domain.Bug{}, err
	}

	bug.ProjectID = projectID
	if bug.DocID == "" {
		bug.DocID = s.store.NewDocID(store.ColBugs)
	}
	if bug.StatusKhanban == "" {
		bug.StatusKhanban = domain.KhanbanBacklog
	}
	if !domain.IsValidKhanban(bug.StatusKhanban) {
		return domain.Bug{}, fmt.Errorf("create bug: invalid status %q", bug.StatusKhanban)
	}
	now := s.now().UTC()
	bug.CreatedAt = now
	bug.ModifiedAt = now

	if err := s.store.Set(ctx, store.ColBugs, bug.DocID, bug.Fields()); err != nil {
		return domain.Bug{}, fmt.Errorf("create bug: %w", err)
	}
	return bug, nil
}

func (s *ItemService) GetBug(ctx context.Context, projectID, bugID string) (domain.Bug, error) {
	doc, err := s.store.GetByID(ctx, store.ColBugs, bugID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Bug{}, &domain.NotFoundError{Kind: "bug", Key: bugID}
	}
	if err != nil {
		return domain.Bug{}, err
	}
	bug := domain.BugFromDoc(doc.ID, doc.Fields)
	if bug.ProjectID != projectID {
		return domain.Bug{}, &domain.NotFoundError{Kind: "bug", Key: bugID}
	}
	return bug, nil
}

// ListBugs returns the project's bugs, optionally narrowed to one user story.
func (s *ItemService) ListBugs(ctx context.Context, projectID, storyUUID string) ([]domain.Bug, error) {
	filters := []store.Filter{{Field: "projectId", Value: projectID}}
	if storyUUID != "" {
		filters = append(filters, store.Filter{Field: "userStoryRelated", Value: storyUUID})
	}
	it := s.store.Stream(ctx, store.ColBugs, filters...)
	defer it.Stop()

	out := []domain.Bug{}
	for {
		doc, err := it.Next()
		if err == store.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stream bugs: %w", err)
		}
		out = append(out, domain.BugFromDoc(doc.ID, doc.Fields))
	}
}

// UpdateBug rewrites the bug document, preserving its creation stamp.
func (s *ItemService) UpdateBug(ctx context.Context, projectID, bugID string, bug domain.Bug) (domain.Bug, error) {
	old, err := s.GetBug(ctx, projectID, bugID)
	if err != nil {
		return domain.Bug{}, err
	}

	bug.DocID = bugID
	bug.ProjectID = projectID
	bug.CreatedAt = old.CreatedAt
	if bug.StatusKhanban == "" {
		bug.StatusKhanban = old.StatusKhanban
	}
	if !domain.IsValidKhanban(bug.StatusKhanban) {
		return domain.Bug{}, fmt.Errorf("update bug: invalid status %q", bug.StatusKhanban)
	}
	bug.ModifiedAt = s.now().UTC()

	if err := s.store.Set(ctx, store.ColBugs, bugID, bug.Fields()); err != nil {
		return domain.Bug{}, fmt.Errorf("update bug: %w", err)
	}
	return bug, nil
}

// UpdateBugStatus moves the bug across the board without rewriting the rest
// of the document.
func (s *ItemService) UpdateBugStatus(ctx context.Context, projectID, bugID, status string) error {
	if !domain.IsValidKhanban(status) {
		return fmt.Errorf("update bug status: invalid status %q", status)
	}
	if _, err := s.GetBug(ctx, projectID, bugID); err != nil {
		return err
	}
	return s.store.Update(ctx, store.ColBugs, bugID, map[string]any{
		"status_khanban": status,
		"modifiedAt":     s.now().UTC().Format(time.RFC3339),
	})
}

func (s *ItemService) DeleteBug(ctx context.Context, projectID, bugID string) error {
	if _, err := s.GetBug(ctx, projectID, bugID); err != nil {
		return err
	}
	return s.store.Delete(ctx, store.ColBugs, bugID)
}
