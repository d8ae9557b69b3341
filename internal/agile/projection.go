package agile

import (
	"gorm.io/gorm"

	"github.com/balkashynov/plank/internal/models"
)

// Projection is the planning-relevant view of a work item. The engines
// only ever hold ids plus these value snapshots; the issue store stays
// the single source of truth.
type Projection struct {
	ID          uint
	ProjectID   uint
	Status      string
	Priority    int
	StoryPoints int // 0 when unestimated
	EpicID      *uint
	SprintID    *uint
}

// Done reports whether the item's status counts as completed
func (p Projection) Done() bool {
	return p.Status == models.StatusDone
}

// ProjectionSource supplies work item snapshots to the engines
type ProjectionSource interface {
	// Projection returns the current snapshot for one work item
	Projection(issueID uint) (Projection, error)

	// SprintMembers returns snapshots of all items in a sprint
	SprintMembers(sprintID uint) ([]Projection, error)

	// EpicMembers returns snapshots of all items in an epic
	EpicMembers(epicID uint) ([]Projection, error)
}

// StoreSource reads projections from the work item table
type StoreSource struct {
	db *gorm.DB
}

// NewStoreSource returns a ProjectionSource backed by the given database
func NewStoreSource(db *gorm.DB) *StoreSource {
	return &StoreSource{db: db}
}

func toProjection(item models.WorkItem) Projection {
	p := Projection{
		ID:        item.ID,
		ProjectID: item.ProjectID,
		Status:    item.Status,
		Priority:  item.Priority,
		EpicID:    item.EpicID,
		SprintID:  item.SprintID,
	}
	if item.StoryPoints != nil {
		p.StoryPoints = *item.StoryPoints
	}
	return p
}

// Projection returns the current snapshot for one work item
func (s *StoreSource) Projection(issueID uint) (Projection, error) {
	var item models.WorkItem
	if err := s.db.First(&item, issueID).Error; err != nil {
		return Projection{}, notFoundf("issue", issueID)
	}
	return toProjection(item), nil
}

// SprintMembers returns snapshots of all items in a sprint
func (s *StoreSource) SprintMembers(sprintID uint) ([]Projection, error) {
	return s.members("sprint_id = ?", sprintID)
}

// EpicMembers returns snapshots of all items in an epic
func (s *StoreSource) EpicMembers(epicID uint) ([]Projection, error) {
	return s.members("epic_id = ?", epicID)
}

func (s *StoreSource) members(cond string, id uint) ([]Projection, error) {
	var items []models.WorkItem
	if err := s.db.Where(cond, id).Find(&items).Error; err != nil {
		return nil, err
	}
	projections := make([]Projection, len(items))
	for i, item := range items {
		projections[i] = toProjection(item)
	}
	return projections, nil
}
