package models

import (
	"gorm.io/gorm"
	"time"
)

// Sprint statuses
const (
	SprintPlanning  = "planning"
	SprintActive    = "active"
	SprintCompleted = "completed"
	SprintCancelled = "cancelled"
)

// Sprint represents a fixed-duration iteration with a committed scope
type Sprint struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProjectID uint   `gorm:"not null;index" json:"project_id"`
	Name      string `gorm:"not null" json:"name"`
	Goal      string `json:"goal"`
	Status    string `gorm:"default:planning" json:"status"`

	StartDate   time.Time  `gorm:"not null" json:"start_date"`
	EndDate     time.Time  `gorm:"not null" json:"end_date"`
	CompletedAt *time.Time `json:"completed_at"`

	// Counters cached from member work items, refreshed on every
	// membership or status change
	PlannedStoryPoints   int `gorm:"default:0" json:"planned_story_points"`
	CompletedStoryPoints int `gorm:"default:0" json:"completed_story_points"`
	TotalIssues          int `gorm:"default:0" json:"total_issues"`
	CompletedIssues      int `gorm:"default:0" json:"completed_issues"`
}

// IsPlanning reports whether the sprint has not started yet
func (s *Sprint) IsPlanning() bool { return s.Status == SprintPlanning }

// IsActive reports whether the sprint is running
func (s *Sprint) IsActive() bool { return s.Status == SprintActive }

// IsCompleted reports whether the sprint finished normally
func (s *Sprint) IsCompleted() bool { return s.Status == SprintCompleted }

// CanStart reports whether the sprint may transition to active
func (s *Sprint) CanStart() bool {
	return s.IsPlanning() && s.TotalIssues > 0
}

// RemainingStoryPoints returns planned minus completed, floored at zero
func (s *Sprint) RemainingStoryPoints() int {
	if r := s.PlannedStoryPoints - s.CompletedStoryPoints; r > 0 {
		return r
	}
	return 0
}

// VelocityRecord is appended to the project's history when a sprint
// completes. Velocity is the story points completed in that sprint.
type VelocityRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ProjectID       uint   `gorm:"not null;index" json:"project_id"`
	SprintID        uint   `gorm:"not null" json:"sprint_id"`
	SprintName      string `json:"sprint_name"`
	PlannedPoints   int    `json:"planned_points"`
	CompletedPoints int    `json:"completed_points"`
}
