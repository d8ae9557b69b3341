package agile

import (
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/plank/internal/models"
)

// SprintEngine owns the sprint lifecycle, sprint membership, and the
// derived metrics. Each sprint is mutated under the engine's lock.
type SprintEngine struct {
	db     *gorm.DB
	source ProjectionSource
	now    func() time.Time
	mu     sync.Mutex
}

// NewSprintEngine creates a sprint engine on the given database
func NewSprintEngine(db *gorm.DB, source ProjectionSource) *SprintEngine {
	return &SprintEngine{db: db, source: source, now: time.Now}
}

// Create validates and persists a new sprint in planning status
func (e *SprintEngine) Create(projectID uint, name, goal string, start, end time.Time) (*models.Sprint, error) {
	if len(strings.TrimSpace(name)) < 2 {
		return nil, validationf("sprint name must be at least 2 characters")
	}
	if !end.After(start) {
		return nil, validationf("end date must be after start date")
	}

	sprint := models.Sprint{
		ProjectID: projectID,
		Name:      strings.TrimSpace(name),
		Goal:      goal,
		Status:    models.SprintPlanning,
		StartDate: start,
		EndDate:   end,
	}

	if err := e.db.Create(&sprint).Error; err != nil {
		return nil, err
	}

	return &sprint, nil
}

// Get returns a sprint by id
func (e *SprintEngine) Get(id uint) (*models.Sprint, error) {
	var sprint models.Sprint
	if err := e.db.First(&sprint, id).Error; err != nil {
		return nil, notFoundf("sprint", id)
	}
	return &sprint, nil
}

// List returns all sprints for a project, oldest first
func (e *SprintEngine) List(projectID uint) ([]models.Sprint, error) {
	var sprints []models.Sprint
	if err := e.db.Where("project_id = ?", projectID).Order("id ASC").Find(&sprints).Error; err != nil {
		return nil, err
	}
	return sprints, nil
}

// Active returns the project's running sprint, or nil if none
func (e *SprintEngine) Active(projectID uint) (*models.Sprint, error) {
	var sprint models.Sprint
	err := e.db.Where("project_id = ? AND status = ?", projectID, models.SprintActive).First(&sprint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // no active sprint is not an error
	}
	if err != nil {
		return nil, err
	}
	return &sprint, nil
}

// Start transitions a sprint from planning to active. A sprint with no
// issues cannot start.
func (e *SprintEngine) Start(id uint) (*models.Sprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sprint, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	if !sprint.CanStart() {
		if !sprint.IsPlanning() {
			return nil, invalidStatef(sprint.Status, "sprint #%d must be in planning to start", id)
		}
		return nil, invalidStatef(sprint.Status, "sprint #%d needs at least one issue to start", id)
	}

	sprint.Status = models.SprintActive
	if err := e.db.Save(sprint).Error; err != nil {
		return nil, err
	}

	return sprint, nil
}

// Complete transitions an active sprint to completed, stamps the
// completion time, and appends the project's velocity history.
func (e *SprintEngine) Complete(id uint) (*models.Sprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sprint, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	if !sprint.IsActive() {
		return nil, invalidStatef(sprint.Status, "sprint #%d must be active to complete", id)
	}

	now := e.now()
	err = e.db.Transaction(func(tx *gorm.DB) error {
		// Refresh counters first so the recorded velocity reflects the
		// members' final states
		if err := e.refreshCounters(tx, sprint); err != nil {
			return err
		}

		sprint.Status = models.SprintCompleted
		sprint.CompletedAt = &now
		if err := tx.Save(sprint).Error; err != nil {
			return err
		}

		record := models.VelocityRecord{
			ProjectID:       sprint.ProjectID,
			SprintID:        sprint.ID,
			SprintName:      sprint.Name,
			PlannedPoints:   sprint.PlannedStoryPoints,
			CompletedPoints: sprint.CompletedStoryPoints,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	return sprint, nil
}

// Cancel transitions a sprint to cancelled from any state except completed
func (e *SprintEngine) Cancel(id uint) (*models.Sprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sprint, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	if sprint.IsCompleted() {
		return nil, invalidStatef(sprint.Status, "sprint #%d is completed and cannot be cancelled", id)
	}

	sprint.Status = models.SprintCancelled
	if err := e.db.Save(sprint).Error; err != nil {
		return nil, err
	}

	return sprint, nil
}

// Delete soft-deletes a sprint and releases its members. Completed
// sprints are archives and cannot be deleted.
func (e *SprintEngine) Delete(id uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sprint, err := e.Get(id)
	if err != nil {
		return err
	}

	if sprint.IsCompleted() {
		return invalidStatef(sprint.Status, "sprint #%d is completed and cannot be deleted", id)
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkItem{}).Where("sprint_id = ?", id).Update("sprint_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(sprint).Error
	})
}

// AddWorkItem puts a work item into the sprint and refreshes counters
func (e *SprintEngine) AddWorkItem(sprintID, issueID uint) (*models.Sprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sprint, err := e.Get(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint.IsCompleted() || sprint.Status == models.SprintCancelled {
		return nil, invalidStatef(sprint.Status, "sprint #%d no longer accepts issues", sprintID)
	}

	proj, err := e.source.Projection(issueID)
	if err != nil {
		return nil, err
	}
	if proj.SprintID != nil {
		if *proj.SprintID == sprintID {
			return nil, conflictf("issue #%d is already in sprint #%d", issueID, sprintID)
		}
		return nil, conflictf("issue #%d is already in sprint #%d, move it instead", issueID, *proj.SprintID)
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkItem{}).Where("id = ?", issueID).Update("sprint_id", sprintID).Error; err != nil {
			return err
		}
		return e.refreshCounters(tx, sprint)
	})
	if err != nil {
		return nil, err
	}

	return sprint, nil
}

// RemoveWorkItem takes a work item out of the sprint and refreshes counters
func (e *SprintEngine) RemoveWorkItem(sprintID, issueID uint) (*models.Sprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sprint, err := e.Get(sprintID)
	if err != nil {
		return nil, err
	}

	proj, err := e.source.Projection(issueID)
	if err != nil {
		return nil, err
	}
	if proj.SprintID == nil || *proj.SprintID != sprintID {
		return nil, conflictf("issue #%d is not in sprint #%d", issueID, sprintID)
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkItem{}).Where("id = ?", issueID).Update("sprint_id", nil).Error; err != nil {
			return err
		}
		return e.refreshCounters(tx, sprint)
	})
	if err != nil {
		return nil, err
	}

	return sprint, nil
}

// Refresh recomputes the sprint's cached counters from the current
// member projections. Called by the facade after a member's status or
// estimate changes.
func (e *SprintEngine) Refresh(id uint) (*models.Sprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sprint, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	if err := e.refreshCounters(e.db, sprint); err != nil {
		return nil, err
	}

	return sprint, nil
}

// refreshCounters recomputes and saves the cached counters. The update
// keeps completed_issues <= total_issues by construction: both are
// counted from the same member snapshot.
func (e *SprintEngine) refreshCounters(tx *gorm.DB, sprint *models.Sprint) error {
	members, err := e.source.SprintMembers(sprint.ID)
	if err != nil {
		return err
	}

	sprint.TotalIssues = len(members)
	sprint.CompletedIssues = 0
	sprint.PlannedStoryPoints = 0
	sprint.CompletedStoryPoints = 0

	for _, m := range members {
		sprint.PlannedStoryPoints += m.StoryPoints
		if m.Done() {
			sprint.CompletedIssues++
			sprint.CompletedStoryPoints += m.StoryPoints
		}
	}

	return tx.Save(sprint).Error
}

// Metrics computes the derived metrics for a sprint. Read-only.
func (e *SprintEngine) Metrics(id uint) (*SprintMetrics, error) {
	sprint, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	m := ComputeMetrics(sprint, e.now())
	return &m, nil
}

// SprintStatistics breaks down a sprint's scope by workflow status
type SprintStatistics struct {
	TotalIssues      int `json:"total_issues"`
	CompletedIssues  int `json:"completed_issues"`
	InProgressIssues int `json:"in_progress_issues"`
	TodoIssues       int `json:"todo_issues"`
	BlockedIssues    int `json:"blocked_issues"`

	TotalStoryPoints      int `json:"total_story_points"`
	CompletedStoryPoints  int `json:"completed_story_points"`
	InProgressStoryPoints int `json:"in_progress_story_points"`

	CompletionRate int    `json:"completion_rate"`
	Velocity       int    `json:"velocity"`
	DaysRemaining  int    `json:"days_remaining"`
	BurndownTrend  string `json:"burndown_trend"`
}

// Statistics computes the per-status breakdown for a sprint. Read-only.
func (e *SprintEngine) Statistics(id uint) (*SprintStatistics, error) {
	sprint, err := e.Get(id)
	if err != nil {
		return nil, err
	}

	members, err := e.source.SprintMembers(id)
	if err != nil {
		return nil, err
	}

	stats := SprintStatistics{TotalIssues: len(members)}
	for _, m := range members {
		stats.TotalStoryPoints += m.StoryPoints
		switch m.Status {
		case models.StatusDone:
			stats.CompletedIssues++
			stats.CompletedStoryPoints += m.StoryPoints
		case models.StatusInProgress, models.StatusReview:
			stats.InProgressIssues++
			stats.InProgressStoryPoints += m.StoryPoints
		case models.StatusBlocked:
			stats.BlockedIssues++
		default:
			stats.TodoIssues++
		}
	}

	stats.CompletionRate = roundPct(stats.CompletedIssues, stats.TotalIssues)
	stats.Velocity = stats.CompletedStoryPoints

	m := ComputeMetrics(sprint, e.now())
	stats.DaysRemaining = m.RemainingDays
	stats.BurndownTrend = burndownTrend(sprint, m)

	return &stats, nil
}

// burndownTrend maps the metric signals onto a single label
func burndownTrend(sprint *models.Sprint, m SprintMetrics) string {
	idealDone := m.IdealBurndownRate * float64(m.ElapsedDays)
	switch {
	case float64(sprint.CompletedStoryPoints) > idealDone:
		return TrendAhead
	case m.OnTrack:
		return TrendOnTrack
	case m.Health == HealthAtRisk:
		return TrendAtRisk
	default:
		return TrendBehind
	}
}

// Velocity builds the project's velocity report from completed sprints
func (e *SprintEngine) Velocity(projectID uint) (*VelocityReport, error) {
	var records []models.VelocityRecord
	if err := e.db.Where("project_id = ?", projectID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	report := ComputeVelocity(projectID, records)
	return &report, nil
}
