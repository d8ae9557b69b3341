package agile

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/balkashynov/plank/internal/models"
)

// Planner coordinates operations that touch more than one engine. All
// collaborators are injected; the facade holds no state of its own.
// Where sprint and board are both involved, sprint-side work always
// happens first.
type Planner struct {
	sprints *SprintEngine
	epics   *EpicTracker
	boards  *BoardEngine
	source  ProjectionSource
}

// NewPlanner wires the facade to its engines
func NewPlanner(sprints *SprintEngine, epics *EpicTracker, boards *BoardEngine, source ProjectionSource) *Planner {
	return &Planner{sprints: sprints, epics: epics, boards: boards, source: source}
}

// NewDefaultPlanner builds the engines and the facade on one database
func NewDefaultPlanner(db *gorm.DB) *Planner {
	source := NewStoreSource(db)
	return NewPlanner(
		NewSprintEngine(db, source),
		NewEpicTracker(db, source),
		NewBoardEngine(db, source),
		source,
	)
}

// Sprints exposes the sprint engine to callers
func (p *Planner) Sprints() *SprintEngine { return p.sprints }

// Epics exposes the epic tracker to callers
func (p *Planner) Epics() *EpicTracker { return p.epics }

// Boards exposes the board engine to callers
func (p *Planner) Boards() *BoardEngine { return p.boards }

// MoveWorkItemToSprint relocates a work item between sprints: removed
// from the source sprint (when given) and added to the target. If the
// add fails the removal is rolled back, so the item is never counted in
// two sprints or in none. The item's kanban card, if any, stays where
// it is: sprint and board membership are independent axes.
func (p *Planner) MoveWorkItemToSprint(issueID uint, fromSprintID *uint, toSprintID uint) error {
	// Validate the target up front so the common failure needs no rollback
	target, err := p.sprints.Get(toSprintID)
	if err != nil {
		return err
	}
	if target.IsCompleted() || target.Status == models.SprintCancelled {
		return invalidStatef(target.Status, "sprint #%d no longer accepts issues", toSprintID)
	}

	if fromSprintID != nil {
		if _, err := p.sprints.RemoveWorkItem(*fromSprintID, issueID); err != nil {
			return err
		}
	}

	if _, err := p.sprints.AddWorkItem(toSprintID, issueID); err != nil {
		if fromSprintID != nil {
			if _, undoErr := p.sprints.AddWorkItem(*fromSprintID, issueID); undoErr != nil {
				return fmt.Errorf("move failed (%w) and rollback failed: %v", err, undoErr)
			}
		}
		return err
	}

	return nil
}

// OnStatusChanged is the notification hook the issue store calls after
// it confirms a status change. This is the single choke point that
// keeps the sprint and epic caches consistent with the source of truth.
func (p *Planner) OnStatusChanged(issueID uint, oldStatus, newStatus string) error {
	if oldStatus == newStatus {
		return nil
	}
	return p.refreshFor(issueID)
}

// OnPointsChanged re-runs the same refresh path after an estimate changes
func (p *Planner) OnPointsChanged(issueID uint) error {
	return p.refreshFor(issueID)
}

func (p *Planner) refreshFor(issueID uint) error {
	proj, err := p.source.Projection(issueID)
	if err != nil {
		return err
	}

	if proj.SprintID != nil {
		if _, err := p.sprints.Refresh(*proj.SprintID); err != nil {
			return err
		}
	}
	if proj.EpicID != nil {
		if _, err := p.epics.Recompute(*proj.EpicID); err != nil {
			return err
		}
	}
	return nil
}
