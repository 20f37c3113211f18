package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

// RiskLevel classifies how likely a sprint is to miss its scope.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low Risk"
	RiskMedium RiskLevel = "Medium Risk"
	RiskHigh   RiskLevel = "High Risk"
)

// Service derives sprint reporting (burndown, velocity trend, comparison)
// from point-in-time scans. It performs no writes.
type Service struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// SprintInfo summarizes the sprint a burndown was computed for.
type SprintInfo struct {
	Name             string `json:"name"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	TotalStoryPoints int    `json:"total_story_points"`
	DurationDays     int    `json:"duration_days"`
}

// BurndownPoint is one day of the burndown chart.
type BurndownPoint struct {
	Day                 string  `json:"day"`
	Date                string  `json:"date"`
	Remaining           int     `json:"Remaining"`
	Ideal               float64 `json:"Ideal"`
	Completed           int     `json:"Completed"`
	CompletedCumulative int     `json:"CompletedCumulative"`
}

type BurndownReport struct {
	SprintInfo SprintInfo      `json:"sprint_info"`
	ChartData  []BurndownPoint `json:"chart_data"`
}

// VelocityPoint is one sprint of the velocity trend.
type VelocityPoint struct {
	Sprint    string `json:"sprint"`
	Planned   int    `json:"Planned"`
	Actual    int    `json:"Actual"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SprintComparison is the per-sprint reporting row, including the risk
// classification.
type SprintComparison struct {
	SprintID             string    `json:"sprint_id"`
	SprintName           string    `json:"sprint_name"`
	IsCurrent            bool      `json:"is_current"`
	TotalStoryPoints     int       `json:"total_story_points"`
	CompletedStoryPoints int       `json:"completed_story_points"`
	CompletionPercentage int       `json:"completion_percentage"`
	ScopeChanges         int       `json:"scope_changes"`
	BugsFound            int       `json:"bugs_found"`
	RiskAssessment       RiskLevel `json:"risk_assessment"`
	Velocity             float64   `json:"velocity"`
	AverageVelocity      float64   `json:"average_velocity"`
	DaysLeft             int       `json:"days_left"`
	StartDate            string    `json:"start_date"`
	EndDate              string    `json:"end_date"`
}

// ActiveSprintFor picks the project's sprint whose date range contains now.
// When none does, it deterministically falls back to the sprint with the
// latest start date, so reporting always gets some sprint as long as at
// least one exists.
func (s *Service) ActiveSprintFor(ctx context.Context, projectID string) (domain.Sprint, error) {
	sprints, err := s.sprintsFor(ctx, projectID)
	if err != nil {
		return domain.Sprint{}, err
	}
	if len(sprints) == 0 {
		return domain.Sprint{}, &domain.NotFoundError{Kind: "sprint", Key: projectID}
	}

	now := s.now().UTC()
	latest := sprints[0]
	for _, sp := range sprints {
		if !now.Before(sp.StartDate) && !now.After(sp.EndDate) {
			return sp, nil
		}
		if sp.StartDate.After(latest.StartDate) {
			latest = sp
		}
	}
	return latest, nil
}

// Burndown computes the daily remaining/ideal/completed series for the
// project's active sprint.
func (s *Service) Burndown(ctx context.Context, projectID string) (BurndownReport, error) {
	sprint, err := s.ActiveSprintFor(ctx, projectID)
	if err != nil {
		return BurndownReport{}, err
	}
	tasks, err := s.tasksWhere(ctx, store.Filter{Field: "sprint_id", Value: sprint.DocID})
	if err != nil {
		return BurndownReport{}, err
	}

	start := dateOnly(sprint.StartDate)
	end := dateOnly(sprint.EndDate)
	durationDays := int(end.Sub(start).Hours()/24) + 1

	totalSP := 0
	completedByDay := make(map[int]int)
	for _, t := range tasks {
		totalSP += t.StoryPoints
		if t.StatusKhanban != domain.KhanbanDone {
			continue
		}
		doneAt := t.DateCompleted
		if doneAt.IsZero() {
			doneAt = t.UpdatedAt
		}
		if doneAt.IsZero() {
			continue
		}
		day := int(dateOnly(doneAt).Sub(start).Hours() / 24)
		if day < 0 {
			day = 0
		}
		completedByDay[day] += t.StoryPoints
	}

	// Linear ideal burn; a one-day sprint degenerates to the full scope on
	// day zero.
	idealDrop := float64(totalSP)
	if durationDays > 1 {
		idealDrop = float64(totalSP) / float64(durationDays-1)
	}

	chart := make([]BurndownPoint, 0, durationDays)
	cumulative := 0
	for day := 0; day < durationDays; day++ {
		date := start.AddDate(0, 0, day)
		completed := completedByDay[day]
		cumulative += completed

		ideal := float64(totalSP) - idealDrop*float64(day)
		if ideal < 0 {
			ideal = 0
		}
		remaining := totalSP - cumulative
		if remaining < 0 {
			remaining = 0
		}
		chart = append(chart, BurndownPoint{
			Day:                 fmt.Sprintf("Day %d", day+1),
			Date:                date.Format("2006-01-02"),
			Remaining:           remaining,
			Ideal:               math.Round(ideal*100) / 100,
			Completed:           completed,
			CompletedCumulative: cumulative,
		})
	}

	return BurndownReport{
		SprintInfo: SprintInfo{
			Name:             sprintName(sprint),
			StartDate:        start.Format("2006-01-02"),
			EndDate:          end.Format("2006-01-02"),
			TotalStoryPoints: totalSP,
			DurationDays:     durationDays,
		},
		ChartData: chart,
	}, nil
}

// VelocityTrend reports planned versus actually completed story points for
// every sprint that has ended or is currently running, ordered by start
// date. Strictly future sprints are excluded.
func (s *Service) VelocityTrend(ctx context.Context, projectID string) ([]VelocityPoint, error) {
	sprints, err := s.sprintsFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(sprints) == 0 {
		return nil, &domain.NotFoundError{Kind: "sprint", Key: projectID}
	}

	now := s.now().UTC()
	included := sprints[:0]
	for _, sp := range sprints {
		if !sp.EndDate.After(now) || (!now.Before(sp.StartDate) && !now.After(sp.EndDate)) {
			included = append(included, sp)
		}
	}
	sort.Slice(included, func(i, j int) bool {
		return included[i].StartDate.Before(included[j].StartDate)
	})

	byID := make(map[string]int, len(included))
	points := make([]VelocityPoint, len(included))
	for i, sp := range included {
		byID[sp.DocID] = i
		points[i] = VelocityPoint{
			Sprint:    sprintName(sp),
			StartDate: sp.StartDate.UTC().Format(time.RFC3339),
			EndDate:   sp.EndDate.UTC().Format(time.RFC3339),
		}
	}

	tasks, err := s.tasksWhere(ctx, store.Filter{Field: "project_id", Value: projectID})
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		i, ok := byID[t.SprintID]
		if !ok {
			continue
		}
		points[i].Planned += t.StoryPoints
		if t.StatusKhanban == domain.KhanbanDone {
			points[i].Actual += t.StoryPoints
		}
	}
	return points, nil
}

// SprintComparison builds the comparison rows for every past sprint plus the
// active one, current first.
func (s *Service) SprintComparison(ctx context.Context, projectID string) ([]SprintComparison, error) {
	sprints, err := s.sprintsFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(sprints) == 0 {
		return []SprintComparison{}, nil
	}
	active, err := s.ActiveSprintFor(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rows := make([]SprintComparison, 0, len(sprints))
	for _, sp := range sprints {
		// Future sprints are skipped unless the fallback made one active.
		if sp.EndDate.After(now) && sp.DocID != active.DocID {
			continue
		}
		row, err := s.compareSprint(ctx, sp, sp.DocID == active.DocID, now)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].IsCurrent != rows[j].IsCurrent {
			return rows[i].IsCurrent
		}
		return rows[i].StartDate > rows[j].StartDate
	})
	return rows, nil
}

func (s *Service) compareSprint(ctx context.Context, sp domain.Sprint, isCurrent bool, now time.Time) (SprintComparison, error) {
	tasks, err := s.tasksWhere(ctx, store.Filter{Field: "sprint_id", Value: sp.DocID})
	if err != nil {
		return SprintComparison{}, err
	}
	bugsFound, err := s.countBugs(ctx, sp.DocID)
	if err != nil {
		return SprintComparison{}, err
	}

	totalSP, completedSP, scopeChanges := 0, 0, 0
	for _, t := range tasks {
		totalSP += t.StoryPoints
		if t.StatusKhanban == domain.KhanbanDone {
			completedSP += t.StoryPoints
		}
		if !t.CreatedAt.IsZero() && t.CreatedAt.After(sp.StartDate) {
			scopeChanges++
		}
	}

	daysElapsed := int(sp.EndDate.Sub(sp.StartDate).Hours() / 24)
	daysLeft := 0
	if isCurrent {
		daysElapsed = int(now.Sub(sp.StartDate).Hours() / 24)
		daysLeft = int(sp.EndDate.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
	}
	if daysElapsed < 1 {
		daysElapsed = 1
	}

	weeks := sp.DurationWeeks
	if weeks < 1 {
		weeks = 1
	}
	velocity := float64(completedSP) / float64(daysElapsed)
	averageVelocity := float64(totalSP) / float64(weeks*7)

	completion := 0
	if totalSP > 0 {
		completion = int(math.Round(float64(completedSP) / float64(totalSP) * 100))
	}

	return SprintComparison{
		SprintID:             sp.DocID,
		SprintName:           sprintName(sp),
		IsCurrent:            isCurrent,
		TotalStoryPoints:     totalSP,
		CompletedStoryPoints: completedSP,
		CompletionPercentage: completion,
		ScopeChanges:         scopeChanges,
		BugsFound:            bugsFound,
		RiskAssessment:       RiskFor(velocity, averageVelocity, scopeChanges, bugsFound),
		Velocity:             velocity,
		AverageVelocity:      averageVelocity,
		DaysLeft:             daysLeft,
		StartDate:            sp.StartDate.UTC().Format(time.RFC3339),
		EndDate:              sp.EndDate.UTC().Format(time.RFC3339),
	}, nil
}

// RiskFor classifies a sprint from its velocity ratio, scope churn and bug
// count. Any single metric crossing its high threshold forces High Risk
// regardless of the others.
func RiskFor(velocity, averageVelocity float64, scopeChanges, bugsFound int) RiskLevel {
	if velocity < 0.5*averageVelocity || scopeChanges > 10 || bugsFound > 20 {
		return RiskHigh
	}
	if velocity < 0.8*averageVelocity || scopeChanges > 5 || bugsFound > 10 {
		return RiskMedium
	}
	return RiskLow
}

func (s *Service) sprintsFor(ctx context.Context, projectID string) ([]domain.Sprint, error) {
	it := s.store.Stream(ctx, store.ColSprints, store.Filter{Field: "project_id", Value: projectID})
	defer it.Stop()

	var out []domain.Sprint
	for {
		doc, err := it.Next()
		if err == store.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stream sprints: %w", err)
		}
		sp := domain.SprintFromDoc(doc.ID, doc.Fields)
		if sp.StartDate.IsZero() || sp.EndDate.IsZero() {
			continue
		}
		out = append(out, sp)
	}
}

func (s *Service) tasksWhere(ctx context.Context, filters ...store.Filter) ([]domain.Task, error) {
	it := s.store.Stream(ctx, store.ColTasks, filters...)
	defer it.Stop()

	var out []domain.Task
	for {
		doc, err := it.Next()
		if err == store.Done {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stream tasks: %w", err)
		}
		out = append(out, domain.TaskFromDoc(doc.ID, doc.Fields))
	}
}

func (s *Service) countBugs(ctx context.Context, sprintID string) (int, error) {
	it := s.store.Stream(ctx, store.ColBugs, store.Filter{Field: "sprintId", Value: sprintID})
	defer it.Stop()

	n := 0
	for {
		_, err := it.Next()
		if err == store.Done {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("stream bugs: %w", err)
		}
		n++
	}
}

func sprintName(sp domain.Sprint) string {
	if sp.Name != "" {
		return sp.Name
	}
	id := sp.DocID
	if len(id) > 6 {
		id = id[:6]
	}
	return "Sprint " + id
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
