package models

import (
	"gorm.io/gorm"
	"time"
)

// Column types map to workflow stages
const (
	ColumnBacklog    = "backlog"
	ColumnTodo       = "todo"
	ColumnInProgress = "in_progress"
	ColumnReview     = "review"
	ColumnTesting    = "testing"
	ColumnDone       = "done"
	ColumnBlocked    = "blocked"
)

// KanbanBoard holds an ordered set of columns for a project.
// At most one board per project is the default.
type KanbanBoard struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProjectID uint   `gorm:"not null;index" json:"project_id"`
	Name      string `gorm:"not null" json:"name"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`

	// Relationships
	Columns []KanbanColumn `gorm:"foreignKey:BoardID" json:"columns"`
}

// KanbanColumn is a workflow stage on a board. Positions are dense and
// zero-based within the board.
type KanbanColumn struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BoardID    uint   `gorm:"not null;index" json:"board_id"`
	Name       string `gorm:"not null" json:"name"`
	ColumnType string `gorm:"default:todo" json:"column_type"`
	Position   int    `gorm:"not null" json:"position"`
	WIPLimit   *int   `gorm:"column:wip_limit" json:"wip_limit"` // soft cap, advisory only

	// Relationships
	Cards []KanbanCard `gorm:"foreignKey:ColumnID" json:"cards"`
}

// KanbanCard places a work item on a board. Positions are dense and
// zero-based within the column; a card's position means nothing outside
// its own column.
type KanbanCard struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ColumnID uint `gorm:"not null;index" json:"column_id"`
	IssueID  uint `gorm:"not null;index" json:"issue_id"`
	Position int  `gorm:"not null" json:"position"`
}

// IsValidColumnType reports whether t is a known workflow stage
func IsValidColumnType(t string) bool {
	switch t {
	case ColumnBacklog, ColumnTodo, ColumnInProgress, ColumnReview,
		ColumnTesting, ColumnDone, ColumnBlocked:
		return true
	}
	return false
}
