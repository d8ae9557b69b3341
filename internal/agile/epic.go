package agile

import (
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/balkashynov/plank/internal/models"
)

// EpicTracker aggregates work items under an epic and rolls up their
// completion. The cached counters are refreshed whenever a member's
// status, estimate, or membership changes.
type EpicTracker struct {
	db     *gorm.DB
	source ProjectionSource
	mu     sync.Mutex
}

// NewEpicTracker creates an epic tracker on the given database
func NewEpicTracker(db *gorm.DB, source ProjectionSource) *EpicTracker {
	return &EpicTracker{db: db, source: source}
}

// Create persists a new open epic
func (t *EpicTracker) Create(projectID uint, title string) (*models.Epic, error) {
	if strings.TrimSpace(title) == "" {
		return nil, validationf("epic title cannot be empty")
	}

	epic := models.Epic{
		ProjectID: projectID,
		Title:     strings.TrimSpace(title),
		Status:    models.EpicOpen,
	}

	if err := t.db.Create(&epic).Error; err != nil {
		return nil, err
	}

	return &epic, nil
}

// Get returns an epic by id
func (t *EpicTracker) Get(id uint) (*models.Epic, error) {
	var epic models.Epic
	if err := t.db.First(&epic, id).Error; err != nil {
		return nil, notFoundf("epic", id)
	}
	return &epic, nil
}

// List returns all epics for a project
func (t *EpicTracker) List(projectID uint) ([]models.Epic, error) {
	var epics []models.Epic
	if err := t.db.Where("project_id = ?", projectID).Order("id ASC").Find(&epics).Error; err != nil {
		return nil, err
	}
	return epics, nil
}

// Start transitions an open epic to in_progress
func (t *EpicTracker) Start(id uint) (*models.Epic, error) {
	return t.transition(id, models.EpicOpen, models.EpicInProgress, "start")
}

// Complete transitions an in-progress epic to completed
func (t *EpicTracker) Complete(id uint) (*models.Epic, error) {
	return t.transition(id, models.EpicInProgress, models.EpicCompleted, "complete")
}

// Reopen puts a completed epic back in progress
func (t *EpicTracker) Reopen(id uint) (*models.Epic, error) {
	return t.transition(id, models.EpicCompleted, models.EpicInProgress, "reopen")
}

func (t *EpicTracker) transition(id uint, from, to, verb string) (*models.Epic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epic, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	if epic.Status != from {
		return nil, invalidStatef(epic.Status, "cannot %s epic #%d", verb, id)
	}

	epic.Status = to
	if err := t.db.Save(epic).Error; err != nil {
		return nil, err
	}

	return epic, nil
}

// AddWorkItem links a work item to the epic and recomputes the rollup
func (t *EpicTracker) AddWorkItem(epicID, issueID uint) (*models.Epic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epic, err := t.Get(epicID)
	if err != nil {
		return nil, err
	}

	proj, err := t.source.Projection(issueID)
	if err != nil {
		return nil, err
	}
	if proj.EpicID != nil && *proj.EpicID == epicID {
		return nil, conflictf("issue #%d is already in epic #%d", issueID, epicID)
	}

	err = t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkItem{}).Where("id = ?", issueID).Update("epic_id", epicID).Error; err != nil {
			return err
		}
		// Reassigning from another epic leaves that epic's rollup stale
		// unless we recompute it in the same transaction
		if proj.EpicID != nil {
			previous, err := t.Get(*proj.EpicID)
			if err != nil {
				return err
			}
			if err := t.recompute(tx, previous); err != nil {
				return err
			}
		}
		return t.recompute(tx, epic)
	})
	if err != nil {
		return nil, err
	}

	return epic, nil
}

// RemoveWorkItem unlinks a work item from the epic and recomputes the rollup
func (t *EpicTracker) RemoveWorkItem(epicID, issueID uint) (*models.Epic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epic, err := t.Get(epicID)
	if err != nil {
		return nil, err
	}

	proj, err := t.source.Projection(issueID)
	if err != nil {
		return nil, err
	}
	if proj.EpicID == nil || *proj.EpicID != epicID {
		return nil, conflictf("issue #%d is not in epic #%d", issueID, epicID)
	}

	err = t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkItem{}).Where("id = ?", issueID).Update("epic_id", nil).Error; err != nil {
			return err
		}
		return t.recompute(tx, epic)
	})
	if err != nil {
		return nil, err
	}

	return epic, nil
}

// Recompute refreshes the epic's cached counters from the current
// member projections. Called by the facade on member status changes.
func (t *EpicTracker) Recompute(id uint) (*models.Epic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epic, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	if err := t.recompute(t.db, epic); err != nil {
		return nil, err
	}

	return epic, nil
}

// recompute scans member projections and saves the rollup. Progress is
// completed vs total story points, or 0 when nothing is estimated.
func (t *EpicTracker) recompute(tx *gorm.DB, epic *models.Epic) error {
	members, err := t.source.EpicMembers(epic.ID)
	if err != nil {
		return err
	}

	epic.TotalIssues = len(members)
	epic.CompletedIssues = 0
	epic.TotalStoryPoints = 0
	epic.CompletedStoryPoints = 0

	for _, m := range members {
		epic.TotalStoryPoints += m.StoryPoints
		if m.Done() {
			epic.CompletedIssues++
			epic.CompletedStoryPoints += m.StoryPoints
		}
	}

	epic.ProgressPercentage = roundPct(epic.CompletedStoryPoints, epic.TotalStoryPoints)

	return tx.Save(epic).Error
}
