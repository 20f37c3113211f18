package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newMetrics(st *store.MemoryStore) *Service {
	svc := New(st)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedSprint(t *testing.T, st *store.MemoryStore, id string, sp domain.Sprint) {
	t.Helper()
	require.NoError(t, st.Set(context.Background(), store.ColSprints, id, sp.Fields()))
}

func seedTask(t *testing.T, st *store.MemoryStore, id string, task domain.Task) {
	t.Helper()
	require.NoError(t, st.Set(context.Background(), store.ColTasks, id, task.Fields()))
}

func TestActiveSprintFor(t *testing.T) {
	ctx := context.Background()

	t.Run("containing sprint wins", func(t *testing.T) {
		st := store.NewMemoryStore()
		svc := newMetrics(st)
		seedSprint(t, st, "past", domain.Sprint{
			ProjectID: "p1",
			StartDate: testNow.AddDate(0, 0, -30), EndDate: testNow.AddDate(0, 0, -16),
		})
		seedSprint(t, st, "current", domain.Sprint{
			ProjectID: "p1",
			StartDate: testNow.AddDate(0, 0, -7), EndDate: testNow.AddDate(0, 0, 7),
		})

		sp, err := svc.ActiveSprintFor(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "current", sp.DocID)
	})

	t.Run("falls back to latest start when none contains now", func(t *testing.T) {
		st := store.NewMemoryStore()
		svc := newMetrics(st)
		seedSprint(t, st, "older", domain.Sprint{
			ProjectID: "p1",
			StartDate: testNow.AddDate(0, 0, -60), EndDate: testNow.AddDate(0, 0, -46),
		})
		seedSprint(t, st, "newer", domain.Sprint{
			ProjectID: "p1",
			StartDate: testNow.AddDate(0, 0, -30), EndDate: testNow.AddDate(0, 0, -16),
		})

		sp, err := svc.ActiveSprintFor(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "newer", sp.DocID)
	})

	t.Run("no sprints at all", func(t *testing.T) {
		svc := newMetrics(store.NewMemoryStore())
		_, err := svc.ActiveSprintFor(ctx, "p1")
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestBurndown(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newMetrics(st)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC) // 10 days
	seedSprint(t, st, "sp1", domain.Sprint{
		Name: "Sprint One", ProjectID: "p1", StartDate: start, EndDate: end,
	})

	seedTask(t, st, "t1", domain.Task{
		ProjectID: "p1", SprintID: "sp1", StoryPoints: 5,
		StatusKhanban: domain.KhanbanDone, DateCompleted: start.AddDate(0, 0, 2),
	})
	seedTask(t, st, "t2", domain.Task{
		ProjectID: "p1", SprintID: "sp1", StoryPoints: 3,
		StatusKhanban: domain.KhanbanDone, DateCompleted: start.AddDate(0, 0, -5), // before the sprint
	})
	seedTask(t, st, "t3", domain.Task{
		ProjectID: "p1", SprintID: "sp1", StoryPoints: 8,
		StatusKhanban: domain.KhanbanInProgress,
	})

	report, err := svc.Burndown(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, "Sprint One", report.SprintInfo.Name)
	assert.Equal(t, 16, report.SprintInfo.TotalStoryPoints)
	assert.Equal(t, 10, report.SprintInfo.DurationDays)
	require.Len(t, report.ChartData, 10)

	t.Run("pre-sprint completion lands on day zero", func(t *testing.T) {
		assert.Equal(t, 3, report.ChartData[0].Completed)
		assert.Equal(t, 13, report.ChartData[0].Remaining)
	})

	t.Run("completion day is credited", func(t *testing.T) {
		assert.Equal(t, 5, report.ChartData[2].Completed)
		assert.Equal(t, 8, report.ChartData[2].Remaining)
		assert.Equal(t, 8, report.ChartData[2].CompletedCumulative)
	})

	t.Run("ideal line is monotonically non-increasing to zero", func(t *testing.T) {
		assert.Equal(t, float64(16), report.ChartData[0].Ideal)
		for i := 1; i < len(report.ChartData); i++ {
			assert.LessOrEqual(t, report.ChartData[i].Ideal, report.ChartData[i-1].Ideal)
		}
		assert.Equal(t, float64(0), report.ChartData[9].Ideal)
	})

	t.Run("remaining never goes negative", func(t *testing.T) {
		for _, p := range report.ChartData {
			assert.GreaterOrEqual(t, p.Remaining, 0)
		}
	})
}

func TestBurndown_OneDaySprint(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newMetrics(st)

	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	seedSprint(t, st, "sp1", domain.Sprint{ProjectID: "p1", StartDate: day, EndDate: day})
	seedTask(t, st, "t1", domain.Task{ProjectID: "p1", SprintID: "sp1", StoryPoints: 4})

	report, err := svc.Burndown(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, report.ChartData, 1)
	assert.Equal(t, float64(4), report.ChartData[0].Ideal)
}

func TestVelocityTrend(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newMetrics(st)

	seedSprint(t, st, "sp-past", domain.Sprint{
		Name: "Past", ProjectID: "p1",
		StartDate: testNow.AddDate(0, 0, -30), EndDate: testNow.AddDate(0, 0, -16),
	})
	seedSprint(t, st, "sp-now", domain.Sprint{
		Name: "Now", ProjectID: "p1",
		StartDate: testNow.AddDate(0, 0, -7), EndDate: testNow.AddDate(0, 0, 7),
	})
	seedSprint(t, st, "sp-future", domain.Sprint{
		Name: "Future", ProjectID: "p1",
		StartDate: testNow.AddDate(0, 0, 14), EndDate: testNow.AddDate(0, 0, 28),
	})

	seedTask(t, st, "t1", domain.Task{
		ProjectID: "p1", SprintID: "sp-past", StoryPoints: 5, StatusKhanban: domain.KhanbanDone,
	})
	seedTask(t, st, "t2", domain.Task{
		ProjectID: "p1", SprintID: "sp-past", StoryPoints: 3, StatusKhanban: domain.KhanbanToDo,
	})
	seedTask(t, st, "t3", domain.Task{
		ProjectID: "p1", SprintID: "sp-now", StoryPoints: 2, StatusKhanban: domain.KhanbanDone,
	})
	seedTask(t, st, "t4", domain.Task{
		ProjectID: "p1", SprintID: "sp-future", StoryPoints: 13, StatusKhanban: domain.KhanbanToDo,
	})

	points, err := svc.VelocityTrend(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Past", points[0].Sprint)
	assert.Equal(t, 8, points[0].Planned)
	assert.Equal(t, 5, points[0].Actual)
	assert.Equal(t, "Now", points[1].Sprint)
	assert.Equal(t, 2, points[1].Planned)
	assert.Equal(t, 2, points[1].Actual)
}

func TestSprintComparison(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newMetrics(st)

	seedSprint(t, st, "sp-past", domain.Sprint{
		Name: "Past", ProjectID: "p1", DurationWeeks: 2,
		StartDate: testNow.AddDate(0, 0, -30), EndDate: testNow.AddDate(0, 0, -16),
	})
	seedSprint(t, st, "sp-now", domain.Sprint{
		Name: "Now", ProjectID: "p1", DurationWeeks: 2,
		StartDate: testNow.AddDate(0, 0, -7), EndDate: testNow.AddDate(0, 0, 7),
	})

	seedTask(t, st, "t1", domain.Task{
		ProjectID: "p1", SprintID: "sp-past", StoryPoints: 14, StatusKhanban: domain.KhanbanDone,
	})
	seedTask(t, st, "t2", domain.Task{
		ProjectID: "p1", SprintID: "sp-now", StoryPoints: 7, StatusKhanban: domain.KhanbanDone,
		CreatedAt: testNow.AddDate(0, 0, -3), // created after sprint start: scope change
	})
	require.NoError(t, st.Set(ctx, store.ColBugs, "b1", domain.Bug{
		ProjectID: "p1", SprintID: "sp-now",
	}.Fields()))

	rows, err := svc.SprintComparison(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	t.Run("current sprint sorts first", func(t *testing.T) {
		assert.True(t, rows[0].IsCurrent)
		assert.Equal(t, "sp-now", rows[0].SprintID)
		assert.False(t, rows[1].IsCurrent)
	})

	t.Run("current sprint elapsed days count from start", func(t *testing.T) {
		cur := rows[0]
		assert.Equal(t, 7, cur.DaysLeft)
		assert.InDelta(t, 7.0/7.0, cur.Velocity, 0.01)
		assert.Equal(t, 1, cur.ScopeChanges)
		assert.Equal(t, 1, cur.BugsFound)
		assert.Equal(t, 100, cur.CompletionPercentage)
	})

	t.Run("finished sprint uses its full length", func(t *testing.T) {
		past := rows[1]
		assert.Equal(t, 0, past.DaysLeft)
		assert.InDelta(t, 14.0/14.0, past.Velocity, 0.01)
	})
}

func TestRiskFor(t *testing.T) {
	cases := []struct {
		name         string
		velocity     float64
		avg          float64
		scopeChanges int
		bugs         int
		want         RiskLevel
	}{
		{"healthy", 1.0, 1.0, 0, 0, RiskLow},
		{"velocity under half of average", 0.4, 1.0, 0, 0, RiskHigh},
		{"velocity under 80 percent", 0.7, 1.0, 0, 0, RiskMedium},
		{"scope churn medium", 1.0, 1.0, 6, 0, RiskMedium},
		{"scope churn high", 1.0, 1.0, 11, 0, RiskHigh},
		{"bug count medium", 1.0, 1.0, 0, 11, RiskMedium},
		{"bug count high", 1.0, 1.0, 0, 21, RiskHigh},
		{"one high metric overrides healthy rest", 2.0, 1.0, 0, 21, RiskHigh},
		{"zero average velocity is not a division hazard", 0.0, 0.0, 0, 0, RiskLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RiskFor(tc.velocity, tc.avg, tc.scopeChanges, tc.bugs))
		})
	}
}
