package domain

import "time"

// Entities are plain records converted to and from raw store documents by
// exactly one pair of functions per kind. Field names on the wire follow the
// collections the web client already reads, which is why epics and user
// stories use camelCase (projectRef, idTitle) while tasks and sprints use
// snake_case (project_id, story_points).

// Assignee is an (id, name) pair on tasks and bugs.
type Assignee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AcceptanceItem is one independently completable acceptance criterion.
type AcceptanceItem struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// SprintStoryEntry is a sprint's embedded membership record: a user story
// (by durable uuid) plus the task ids currently scheduled under it.
type SprintStoryEntry struct {
	ID    string   `json:"id"`
	Tasks []string `json:"tasks"`
}

type Project struct {
	DocID          string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	TotalTasks     int       `json:"totalTasks"`
	TasksCompleted int       `json:"tasksCompleted"`
	CurrentSprint  string    `json:"currentSprint"`
}

func ProjectFromDoc(id string, fields map[string]any) Project {
	return Project{
		DocID:          id,
		Name:           str(fields, "name"),
		Description:    str(fields, "description"),
		Status:         str(fields, "status"),
		StartDate:      when(fields, "startDate"),
		EndDate:        when(fields, "endDate"),
		TotalTasks:     num(fields, "totalTasks"),
		TasksCompleted: num(fields, "tasksCompleted"),
		CurrentSprint:  str(fields, "currentSprint"),
	}
}

type Epic struct {
	DocID               string   `json:"id"`
	IDTitle             string   `json:"idTitle"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	ProjectRef          string   `json:"projectRef"`
	Status              string   `json:"status"`
	RelatedRequirements []string `json:"relatedRequirements,omitempty"`
	LastUpdated         string   `json:"lastUpdated,omitempty"`
}

func EpicFromDoc(id string, fields map[string]any) Epic {
	return Epic{
		DocID:               id,
		IDTitle:             str(fields, "idTitle"),
		Title:               str(fields, "title"),
		Description:         str(fields, "description"),
		ProjectRef:          str(fields, "projectRef"),
		Status:              str(fields, "status"),
		RelatedRequirements: strSlice(fields, "relatedRequirements"),
		LastUpdated:         str(fields, "lastUpdated"),
	}
}

func (e Epic) Fields() map[string]any {
	return map[string]any{
		"idTitle":             e.IDTitle,
		"title":               e.Title,
		"description":         e.Description,
		"projectRef":          e.ProjectRef,
		"status":              e.Status,
		"relatedRequirements": e.RelatedRequirements,
		"lastUpdated":         e.LastUpdated,
	}
}

type Requirement struct {
	DocID       string `json:"id"`
	IDTitle     string `json:"idTitle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ProjectRef  string `json:"projectRef"`
	EpicRef     string `json:"epicRef,omitempty"`
	Status      string `json:"status"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

func RequirementFromDoc(id string, fields map[string]any) Requirement {
	return Requirement{
		DocID:       id,
		IDTitle:     str(fields, "idTitle"),
		Title:       str(fields, "title"),
		Description: str(fields, "description"),
		ProjectRef:  str(fields, "projectRef"),
		EpicRef:     str(fields, "epicRef"),
		Status:      str(fields, "status"),
		LastUpdated: str(fields, "lastUpdated"),
	}
}

func (r Requirement) Fields() map[string]any {
	return map[string]any{
		"idTitle":     r.IDTitle,
		"title":       r.Title,
		"description": r.Description,
		"projectRef":  r.ProjectRef,
		"epicRef":     r.EpicRef,
		"status":      r.Status,
		"lastUpdated": r.LastUpdated,
	}
}

type UserStory struct {
	DocID              string           `json:"id"`
	IDTitle            string           `json:"idTitle"`
	UUID               string           `json:"uuid"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Priority           string           `json:"priority"`
	Points             int              `json:"points"`
	AcceptanceCriteria []AcceptanceItem `json:"acceptanceCriteria"`
	ProjectRef         string           `json:"projectRef"`
	EpicRef            string           `json:"epicRef,omitempty"`
	StatusKhanban      string           `json:"status_khanban"`
	TaskList           []string         `json:"task_list"`
	TotalTasks         int              `json:"total_tasks"`
	TaskCompleted      int              `json:"task_completed"`
	Status             string           `json:"status"`
	LastUpdated        string           `json:"lastUpdated,omitempty"`
}

func UserStoryFromDoc(id string, fields map[string]any) UserStory {
	criteria := make([]AcceptanceItem, 0)
	for _, m := range mapSlice(fields, "acceptanceCriteria") {
		criteria = append(criteria, AcceptanceItem{
			Description: str(m, "description"),
			Done:        boolean(m, "done"),
		})
	}
	return UserStory{
		DocID:              id,
		IDTitle:            str(fields, "idTitle"),
		UUID:               str(fields, "uuid"),
		Title:              str(fields, "title"),
		Description:        str(fields, "description"),
		Priority:           str(fields, "priority"),
		Points:             num(fields, "points"),
		AcceptanceCriteria: criteria,
		ProjectRef:         str(fields, "projectRef"),
		EpicRef:            str(fields, "epicRef"),
		StatusKhanban:      str(fields, "status_khanban"),
		TaskList:           strSlice(fields, "task_list"),
		TotalTasks:         num(fields, "total_tasks"),
		TaskCompleted:      num(fields, "task_completed"),
		Status:             str(fields, "status"),
		LastUpdated:        str(fields, "lastUpdated"),
	}
}

func (u UserStory) Fields() map[string]any {
	criteria := make([]any, 0, len(u.AcceptanceCriteria))
	for _, c := range u.AcceptanceCriteria {
		criteria = append(criteria, map[string]any{
			"description": c.Description,
			"done":        c.Done,
		})
	}
	taskList := u.TaskList
	if taskList == nil {
		taskList = []string{}
	}
	return map[string]any{
		"idTitle":            u.IDTitle,
		"uuid":               u.UUID,
		"title":              u.Title,
		"description":        u.Description,
		"priority":           u.Priority,
		"points":             u.Points,
		"acceptanceCriteria": criteria,
		"projectRef":         u.ProjectRef,
		"epicRef":            u.EpicRef,
		"status_khanban":     u.StatusKhanban,
		"task_list":          taskList,
		"total_tasks":        u.TotalTasks,
		"task_completed":     u.TaskCompleted,
		"status":             u.Status,
		"lastUpdated":        u.LastUpdated,
	}
}

type Task struct {
	DocID         string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ProjectID     string     `json:"project_id"`
	UserStoryID   string     `json:"user_story_id"` // UserStory uuid, the durable foreign key
	SprintID      string     `json:"sprint_id,omitempty"`
	StatusKhanban string     `json:"status_khanban"`
	Priority      string     `json:"priority"`
	StoryPoints   int        `json:"story_points"`
	Assignee      []Assignee `json:"assignee"`
	Deadline      string     `json:"deadline,omitempty"`
	CreatedBy     Assignee   `json:"created_by"`
	ModifiedBy    Assignee   `json:"modified_by"`
	FinishedBy    Assignee   `json:"finished_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DateCompleted time.Time  `json:"date_completed,omitempty"`
}

func TaskFromDoc(id string, fields map[string]any) Task {
	assignees := make([]Assignee, 0)
	for _, m := range mapSlice(fields, "assignee") {
		assignees = append(assignees, Assignee{ID: str(m, "id"), Name: str(m, "name")})
	}
	return Task{
		DocID:         id,
		Title:         str(fields, "title"),
		Description:   str(fields, "description"),
		ProjectID:     str(fields, "project_id"),
		UserStoryID:   str(fields, "user_story_id"),
		SprintID:      str(fields, "sprint_id"),
		StatusKhanban: str(fields, "status_khanban"),
		Priority:      str(fields, "priority"),
		StoryPoints:   num(fields, "story_points"),
		Assignee:      assignees,
		Deadline:      str(fields, "deadline"),
		CreatedBy:     assigneeField(fields, "created_by"),
		ModifiedBy:    assigneeField(fields, "modified_by"),
		FinishedBy:    assigneeField(fields, "finished_by"),
		CreatedAt:     when(fields, "created_at"),
		UpdatedAt:     when(fields, "updated_at"),
		DateCompleted: when(fields, "date_completed"),
	}
}

func (t Task) Fields() map[string]any {
	assignees := make([]any, 0, len(t.Assignee))
	for _, a := range t.Assignee {
		assignees = append(assignees, map[string]any{"id": a.ID, "name": a.Name})
	}
	fields := map[string]any{
		"title":          t.Title,
		"description":    t.Description,
		"project_id":     t.ProjectID,
		"user_story_id":  t.UserStoryID,
		"sprint_id":      t.SprintID,
		"status_khanban": t.StatusKhanban,
		"priority":       t.Priority,
		"story_points":   t.StoryPoints,
		"assignee":       assignees,
		"deadline":       t.Deadline,
		"created_by":     map[string]any{"id": t.CreatedBy.ID, "name": t.CreatedBy.Name},
		"modified_by":    map[string]any{"id": t.ModifiedBy.ID, "name": t.ModifiedBy.Name},
		"finished_by":    map[string]any{"id": t.FinishedBy.ID, "name": t.FinishedBy.Name},
		"created_at":     t.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":     t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if !t.DateCompleted.IsZero() {
		fields["date_completed"] = t.DateCompleted.UTC().Format(time.RFC3339)
	}
	return fields
}

type Sprint struct {
	DocID         string             `json:"id"`
	Name          string             `json:"name"`
	ProjectID     string             `json:"project_id"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	DurationWeeks int                `json:"duration_weeks"`
	Status        string             `json:"status"`
	UserStories   []SprintStoryEntry `json:"user_stories"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func SprintFromDoc(id string, fields map[string]any) Sprint {
	entries := make([]SprintStoryEntry, 0)
	for _, m := range mapSlice(fields, "user_stories") {
		entries = append(entries, SprintStoryEntry{
			ID:    str(m, "id"),
			Tasks: strSlice(m, "tasks"),
		})
	}
	return Sprint{
		DocID:         id,
		Name:          str(fields, "name"),
		ProjectID:     str(fields, "project_id"),
		StartDate:     when(fields, "start_date"),
		EndDate:       when(fields, "end_date"),
		DurationWeeks: num(fields, "duration_weeks"),
		Status:        str(fields, "status"),
		UserStories:   entries,
		CreatedAt:     when(fields, "created_at"),
		UpdatedAt:     when(fields, "updated_at"),
	}
}

func (s Sprint) Fields() map[string]any {
	return map[string]any{
		"name":           s.Name,
		"project_id":     s.ProjectID,
		"start_date":     s.StartDate,
		"end_date":       s.EndDate,
		"duration_weeks": s.DurationWeeks,
		"status":         s.Status,
		"user_stories":   SprintStoriesValue(s.UserStories),
		"created_at":     s.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SprintStoriesValue renders the embedded membership list back into its wire
// shape. Membership mutation is always a whole-array write.
func SprintStoriesValue(entries []SprintStoryEntry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		tasks := e.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		out = append(out, map[string]any{"id": e.ID, "tasks": tasks})
	}
	return out
}

type Bug struct {
	DocID            string    `json:"id"`
	Title            string    `json:"title"`
	ProjectID        string    `json:"projectId"`
	UserStoryRelated string    `json:"userStoryRelated,omitempty"`
	SprintID         string    `json:"sprintId,omitempty"`
	StatusKhanban    string    `json:"status_khanban"`
	Severity         string    `json:"severity"`
	Priority         string    `json:"priority"`
	CreatedAt        time.Time `json:"createdAt"`
	ModifiedAt       time.Time `json:"modifiedAt"`
}

func BugFromDoc(id string, fields map[string]any) Bug {
	return Bug{
		DocID:            id,
		Title:            str(fields, "title"),
		ProjectID:        str(fields, "projectId"),
		UserStoryRelated: str(fields, "userStoryRelated"),
		SprintID:         str(fields, "sprintId"),
		StatusKhanban:    str(fields, "status_khanban"),
		Severity:         str(fields, "severity"),
		Priority:         str(fields, "priority"),
		CreatedAt:        when(fields, "createdAt"),
		ModifiedAt:       when(fields, "modifiedAt"),
	}
}

func (b Bug) Fields() map[string]any {
	return map[string]any{
		"title":            b.Title,
		"projectId":        b.ProjectID,
		"userStoryRelated": b.UserStoryRelated,
		"sprintId":         b.SprintID,
		"status_khanban":   b.StatusKhanban,
		"severity":         b.Severity,
		"priority":         b.Priority,
		"createdAt":        b.CreatedAt.UTC().Format(time.RFC3339),
		"modifiedAt":       b.ModifiedAt.UTC().Format(time.RFC3339),
	}
}

func assigneeField(fields map[string]any, key string) Assignee {
	m, ok := fields[key].(map[string]any)
	if !ok {
		return Assignee{}
	}
	return Assignee{ID: str(m, "id"), Name: str(m, "name")}
}
