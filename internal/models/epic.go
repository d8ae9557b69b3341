package models

import (
	"gorm.io/gorm"
	"time"
)

// Epic statuses
const (
	EpicOpen       = "open"
	EpicInProgress = "in_progress"
	EpicCompleted  = "completed"
)

// Epic groups work items toward a shared goal and rolls up their progress
type Epic struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProjectID uint   `gorm:"not null;index" json:"project_id"`
	Title     string `gorm:"not null" json:"title"`
	Status    string `gorm:"default:open" json:"status"`

	// Rollup counters, a pure function of member work items
	TotalIssues          int `gorm:"default:0" json:"total_issues"`
	CompletedIssues      int `gorm:"default:0" json:"completed_issues"`
	TotalStoryPoints     int `gorm:"default:0" json:"total_story_points"`
	CompletedStoryPoints int `gorm:"default:0" json:"completed_story_points"`
	ProgressPercentage   int `gorm:"default:0" json:"progress_percentage"`
}
