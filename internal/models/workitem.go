package models

import (
	"gorm.io/gorm"
	"time"
)

// Work item statuses
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
	StatusBlocked    = "blocked"
)

// StoryPointValues are the allowed estimates (Fibonacci-like scale)
var StoryPointValues = []int{0, 1, 2, 3, 5, 8, 13, 21, 34}

// WorkItem represents an issue tracked on boards and in sprints
type WorkItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProjectID uint   `gorm:"not null;index" json:"project_id"`
	Title     string `gorm:"not null" json:"title"`
	Status    string `gorm:"default:todo" json:"status"`
	Priority  int    `gorm:"default:0" json:"priority"` // 0=no priority, 1=low, 2=medium, 3=high

	StoryPoints *int  `json:"story_points"`
	EpicID      *uint `gorm:"index" json:"epic_id"`
	SprintID    *uint `gorm:"index" json:"sprint_id"`

	// Relationships
	Labels []Label `gorm:"many2many:work_item_labels;" json:"labels"`
}

// Label represents a work item label
type Label struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"unique;not null" json:"name"`

	// Relationships
	Items []WorkItem `gorm:"many2many:work_item_labels;" json:"-"`
}

// WorkItemLabel is the join table for the many-to-many relationship
type WorkItemLabel struct {
	WorkItemID uint `gorm:"primaryKey"`
	LabelID    uint `gorm:"primaryKey"`
}

// IsValidStatus reports whether s is one of the workflow statuses
func IsValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// IsValidStoryPoints reports whether p is on the estimation scale
func IsValidStoryPoints(p int) bool {
	for _, v := range StoryPointValues {
		if p == v {
			return true
		}
	}
	return false
}
