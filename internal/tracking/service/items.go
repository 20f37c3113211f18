package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// ItemService covers the plain CRUD surface around the engine: single user
// stories, sprints, bugs, and read access to epics and requirements. Bulk
// writes for epics, requirements and stories go through ReconcileService
// instead.
type ItemService struct {
	store store.Store
	now   func() time.Time
}

func NewItemService(st store.Store) *ItemService {
	return &ItemService{store: st, now: time.Now}
}

func (s *ItemService) CreateUserStory(ctx context.Context, projectID string, story domain.UserStory) (domain.UserStory, error) {
	story.ProjectRef = projectID
	story.DocID = s.store.NewDocID(store.ColUserStories)
	story.UUID = uuid.NewString()
	story.Status = domain.StatusActive
	story.LastUpdated = s.now().UTC().Format(time.RFC3339)
	if story.StatusKhanban == "" {
		story.StatusKhanban = domain.KhanbanBacklog
	}
	story.TaskList = nil
	story.TotalTasks = 0
	story.TaskCompleted = 0

	if err := s.store.Set(ctx, store.ColUserStories, story.DocID, story.Fields()); err != nil {
		return domain.UserStory{}, fmt.Errorf("create user story: %w", err)
	}
	return story, nil
}

func (s *ItemService) GetUserStory(ctx context.Context, projectID, docID string) (domain.UserStory, error) {
	doc, err := s.store.GetByID(ctx, store.ColUserStories, docID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.UserStory{}, &domain.NotFoundError{Kind: "user story", Key: docID}
	}
	if err != nil {
		return domain.UserStory{}, err
	}
	story := domain.UserStoryFromDoc(doc.ID, doc.Fields)
	if story.ProjectRef != projectID {
		return domain.UserStory{}, &domain.NotFoundError{Kind: "user story", Key: docID}
	}
	return story, nil
}

// ListUserStories returns the project's stories, optionally narrowed to one
// epic. Archived stories are kept unless activeOnly is set.
func (s *ItemService) ListUserStories(ctx context.Context, projectID, epicRef string, activeOnly bool) ([]domain.UserStory, error) {
	filters := []store.Filter{{Field: "projectRef", Value: projectID}}
	if epicRef != "" {
		filters = append(filters, store.Filter{Field: "epicRef", Value: epicRef})
	}
	if activeOnly {
		filters = append(filters, store.Filter{Field: "status", Value: domain.StatusActive})
	}
	it := s.store.Stream(ctx, store.ColUserStories, filters...)
	defer it.Stop()

	stories := make([]domain.UserStory, 0)
	for {
		doc, err := it.Next()
		if err == store.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list user stories: %w", err)
		}
		stories = append(stories, domain.UserStoryFromDoc(doc.ID, doc.Fields))
	}
	return stories, nil
}

func (s *ItemService) ListEpics(ctx context.Context, projectID string) ([]domain.Epic, error) {
	it := s.store.Stream(ctx, store.ColEpics, store.Filter{Field: "projectRef", Value: projectID})
	defer it.Stop()

	epics := make([]domain.Epic, 0)
	for {
		doc, err := it.Next()
		if err == store.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list epics: %w", err)
		}
		epics = append(epics, domain.EpicFromDoc(doc.ID, doc.Fields))
	}
	return epics, nil
}

func (s *ItemService) ListRequirements(ctx context.Context, projectID string) ([]domain.Requirement, error) {
	it := s.store.Stream(ctx, store.ColRequirements, store.Filter{Field: "projectRef", Value: projectID})
	defer it.Stop()

	reqs := make([]domain.Requirement, 0)
	for {
		doc, err := it.Next()
		if err == store.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list requirements: %w", err)
		}
		reqs = append(reqs, domain.RequirementFromDoc(doc.ID, doc.Fields))
	}
	return reqs, nil
}

func (s *ItemService) CreateSprint(ctx context.Context, projectID string, sp domain.Sprint) (domain.Sprint, error) {
	if sp.StartDate.IsZero() || sp.EndDate.IsZero() {
		return domain.Sprint{}, fmt.Errorf("create sprint: start and end dates are required")
	}
	if !sp.EndDate.After(sp.StartDate) {
		return domain.Sprint{}, fmt.Errorf("create sprint: end date must be after start date")
	}

	sp.ProjectID = projectID
	sp.DocID = s.store.NewDocID(store.ColSprints)
	if sp.DurationWeeks <= 0 {
		days := int(sp.EndDate.Sub(sp.StartDate).Hours()/24) + 1
		sp.DurationWeeks = (days + 6) / 7
	}
	if sp.Status == "" {
		sp.Status = domain.SprintPlanning
	}
	if sp.UserStories == nil {
		sp.UserStories = []domain.SprintStoryEntry{}
	}
	now := s.now().UTC()
	sp.CreatedAt = now
	sp.UpdatedAt = now

	if err := s.store.Set(ctx, store.ColSprints, sp.DocID, sp.Fields()); err != nil {
		return domain.Sprint{}, fmt.Errorf("create sprint: %w", err)
	}
	return sp, nil
}

func (s *ItemService) GetSprint(ctx context.Context, projectID, sprintID string) (domain.Sprint, error) {
	doc, err := s.store.GetByID(ctx, store.ColSprints, sprintID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Sprint{}, &domain.NotFoundError{Kind: "sprint", Key: sprintID}
	}
	if err != nil {
		return domain.Sprint{}, err
	}
	sp := domain.SprintFromDoc(doc.ID, doc.Fields)
	if sp.ProjectID != projectID {
		return domain.Sprint{}, &domain.NotFoundError{Kind: "sprint", Key: sprintID}
	}
	return sp, nil
}

func (s *ItemService) ListSprints(ctx context.Context, projectID string) ([]domain.Sprint, error) {
	it := s.store.Stream(ctx, store.ColSprints, store.Filter{Field: "project_id", Value: projectID})
	defer it.Stop()

	sprints := make([]domain.Sprint, 0)
	for {
		doc, err := it.Next()
		if err == store.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list sprints: %w", err)
		}
		sprints = append(sprints, domain.SprintFromDoc(doc.ID, doc.Fields))
	}
	return sprints, nil
}
