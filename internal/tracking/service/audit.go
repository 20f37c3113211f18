package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// AuditFinding is one rollup field whose stored value disagrees with the
// value recomputed from the task documents.
type AuditFinding struct {
	StoryUUID string `json:"story_uuid"`
	Project   string `json:"project"`
	Field     string `json:"field"`
	Stored    int    `json:"stored"`
	Computed  int    `json:"computed"`
}

// AuditService recomputes user-story rollups from the task collection and
// reports any disagreement. It never writes: rollup drift is surfaced for a
// human, not repaired behind their back.
type AuditService struct {
	store store.Store
}

func NewAuditService(st store.Store) *AuditService {
	return &AuditService{store: st}
}

// Run scans every active user story and returns the drift it found.
func (s *AuditService) Run(ctx context.Context) ([]AuditFinding, error) {
	start := time.Now()
	it := s.store.Stream(ctx, store.ColUserStories, store.Filter{Field: "status", Value: domain.StatusActive})
	defer it.Stop()

	var findings []AuditFinding
	scanned := 0
	for {
		doc, err := it.Next()
		if err == store.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		story := domain.UserStoryFromDoc(doc.ID, doc.Fields)
		if story.UUID == "" {
			continue
		}
		scanned++

		f, err := s.checkStory(ctx, story)
		if err != nil {
			return nil, err
		}
		findings = append(findings, f...)
	}

	log.Printf("[audit] scanned %d stories, found %d drifted fields in %s",
		scanned, len(findings), time.Since(start).Round(time.Millisecond))
	for _, f := range findings {
		log.Printf("[audit] story %s (%s): %s stored=%d computed=%d",
			f.StoryUUID, f.Project, f.Field, f.Stored, f.Computed)
	}
	return findings, nil
}

func (s *AuditService) checkStory(ctx context.Context, story domain.UserStory) ([]AuditFinding, error) {
	it := s.store.Stream(ctx, store.ColTasks,
		store.Filter{Field: "project_id", Value: story.ProjectRef},
		store.Filter{Field: "user_story_id", Value: story.UUID},
	)
	defer it.Stop()

	total, done, points := 0, 0, 0
	for {
		doc, err := it.Next()
		if err == store.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		t := domain.TaskFromDoc(doc.ID, doc.Fields)
		total++
		points += t.StoryPoints
		if t.StatusKhanban == domain.KhanbanDone {
			done++
		}
	}

	var findings []AuditFinding
	add := func(field string, stored, computed int) {
		if stored != computed {
			findings = append(findings, AuditFinding{
				StoryUUID: story.UUID,
				Project:   story.ProjectRef,
				Field:     field,
				Stored:    stored,
				Computed:  computed,
			})
		}
	}
	add("total_tasks", story.TotalTasks, total)
	add("task_completed", story.TaskCompleted, done)
	add("points", story.Points, points)
	return findings, nil
}
