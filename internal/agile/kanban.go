package agile

import (
	"errors"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/balkashynov/plank/internal/models"
)

// BoardEngine owns kanban boards, their ordered columns, and the cards
// inside them. A column's card sequence is the unit of serialization:
// every mutation runs inside one transaction under the engine's lock,
// and card positions within a column are always exactly 0..n-1.
type BoardEngine struct {
	db     *gorm.DB
	source ProjectionSource
	mu     sync.Mutex
}

// NewBoardEngine creates a board engine on the given database
func NewBoardEngine(db *gorm.DB, source ProjectionSource) *BoardEngine {
	return &BoardEngine{db: db, source: source}
}

// CreateBoard persists a new board. When isDefault is set, the previous
// default of the project loses the flag in the same transaction.
func (e *BoardEngine) CreateBoard(projectID uint, name string, isDefault bool) (*models.KanbanBoard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		return nil, validationf("board name cannot be empty")
	}

	board := models.KanbanBoard{
		ProjectID: projectID,
		Name:      strings.TrimSpace(name),
		IsDefault: isDefault,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if isDefault {
			if err := tx.Model(&models.KanbanBoard{}).
				Where("project_id = ? AND is_default = ?", projectID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&board).Error
	})
	if err != nil {
		return nil, err
	}

	return &board, nil
}

// SetDefaultBoard makes the board its project's default, clearing the
// flag on the previous default atomically
func (e *BoardEngine) SetDefaultBoard(boardID uint) (*models.KanbanBoard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	board, err := e.board(boardID)
	if err != nil {
		return nil, err
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.KanbanBoard{}).
			Where("project_id = ? AND is_default = ? AND id <> ?", board.ProjectID, true, boardID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		board.IsDefault = true
		return tx.Save(board).Error
	})
	if err != nil {
		return nil, err
	}

	return board, nil
}

// DeleteBoard soft-deletes a board together with its columns and cards
func (e *BoardEngine) DeleteBoard(boardID uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	board, err := e.board(boardID)
	if err != nil {
		return err
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		var columnIDs []uint
		if err := tx.Model(&models.KanbanColumn{}).Where("board_id = ?", boardID).Pluck("id", &columnIDs).Error; err != nil {
			return err
		}
		if len(columnIDs) > 0 {
			if err := tx.Where("column_id IN ?", columnIDs).Delete(&models.KanbanCard{}).Error; err != nil {
				return err
			}
			if err := tx.Where("board_id = ?", boardID).Delete(&models.KanbanColumn{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(board).Error
	})
}

// Boards returns all boards for a project
func (e *BoardEngine) Boards(projectID uint) ([]models.KanbanBoard, error) {
	var boards []models.KanbanBoard
	if err := e.db.Where("project_id = ?", projectID).Order("id ASC").Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// DefaultBoard returns the project's default board, or nil if none
func (e *BoardEngine) DefaultBoard(projectID uint) (*models.KanbanBoard, error) {
	var board models.KanbanBoard
	err := e.db.Where("project_id = ? AND is_default = ?", projectID, true).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // no default board is not an error
	}
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// Board returns a full snapshot: the board with its columns and cards
// in visual order
func (e *BoardEngine) Board(boardID uint) (*models.KanbanBoard, error) {
	var board models.KanbanBoard
	err := e.db.
		Preload("Columns", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Columns.Cards", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&board, boardID).Error
	if err != nil {
		return nil, notFoundf("board", boardID)
	}
	return &board, nil
}

// CreateColumn appends a new column at the end of the board
func (e *BoardEngine) CreateColumn(boardID uint, name, columnType string, wipLimit *int) (*models.KanbanColumn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		return nil, validationf("column name cannot be empty")
	}
	if !models.IsValidColumnType(columnType) {
		return nil, validationf("unknown column type %q", columnType)
	}
	if wipLimit != nil && *wipLimit < 1 {
		return nil, validationf("wip limit must be a positive number")
	}
	if _, err := e.board(boardID); err != nil {
		return nil, err
	}

	column := models.KanbanColumn{
		BoardID:    boardID,
		Name:       strings.TrimSpace(name),
		ColumnType: columnType,
		WIPLimit:   wipLimit,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.KanbanColumn{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
			return err
		}
		column.Position = int(count)
		return tx.Create(&column).Error
	})
	if err != nil {
		return nil, err
	}

	return &column, nil
}

// RenameColumn changes a column's display name
func (e *BoardEngine) RenameColumn(columnID uint, name string) (*models.KanbanColumn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		return nil, validationf("column name cannot be empty")
	}

	column, err := e.column(e.db, columnID)
	if err != nil {
		return nil, err
	}

	column.Name = strings.TrimSpace(name)
	if err := e.db.Save(column).Error; err != nil {
		return nil, err
	}

	return column, nil
}

// SetWIPLimit sets or clears (nil) a column's advisory WIP limit
func (e *BoardEngine) SetWIPLimit(columnID uint, limit *int) (*models.KanbanColumn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if limit != nil && *limit < 1 {
		return nil, validationf("wip limit must be a positive number")
	}

	column, err := e.column(e.db, columnID)
	if err != nil {
		return nil, err
	}

	column.WIPLimit = limit
	if err := e.db.Model(column).Update("wip_limit", limit).Error; err != nil {
		return nil, err
	}

	return column, nil
}

// DeleteColumn removes an empty column and closes the position gap on
// the board. Columns still holding cards cannot be deleted.
func (e *BoardEngine) DeleteColumn(columnID uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	column, err := e.column(e.db, columnID)
	if err != nil {
		return err
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.KanbanCard{}).Where("column_id = ?", columnID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictf("column #%d still has %d cards", columnID, count)
		}

		if err := tx.Delete(column).Error; err != nil {
			return err
		}
		return tx.Model(&models.KanbanColumn{}).
			Where("board_id = ? AND position > ?", column.BoardID, column.Position).
			Update("position", gorm.Expr("position - 1")).Error
	})
}

// Columns returns the board's columns in visual order
func (e *BoardEngine) Columns(boardID uint) ([]models.KanbanColumn, error) {
	var columns []models.KanbanColumn
	if err := e.db.Where("board_id = ?", boardID).Order("position ASC").Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}

// ReorderColumns reassigns dense positions 0..n-1 in the given order.
// The id set must match the board's columns exactly.
func (e *BoardEngine) ReorderColumns(boardID uint, orderedIDs []uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	columns, err := e.Columns(boardID)
	if err != nil {
		return err
	}

	if err := checkIDSet(orderedIDs, columnIDs(columns), "column"); err != nil {
		return err
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		for pos, id := range orderedIDs {
			if err := tx.Model(&models.KanbanColumn{}).Where("id = ?", id).Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddCard places a work item on the board at the given position in the
// column (nil appends). A work item may have at most one card across
// all boards of its project.
func (e *BoardEngine) AddCard(columnID, issueID uint, position *int) (*models.KanbanCard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var card *models.KanbanCard
	err := e.db.Transaction(func(tx *gorm.DB) error {
		column, err := e.column(tx, columnID)
		if err != nil {
			return err
		}
		board, err := e.boardTx(tx, column.BoardID)
		if err != nil {
			return err
		}

		if _, err := e.source.Projection(issueID); err != nil {
			return err
		}

		existing, err := e.cardForIssue(tx, board.ProjectID, issueID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictf("issue #%d already has a card in column #%d", issueID, existing.ColumnID)
		}

		var count int64
		if err := tx.Model(&models.KanbanCard{}).Where("column_id = ?", columnID).Count(&count).Error; err != nil {
			return err
		}

		pos := int(count) // default: end of column
		if position != nil {
			pos = *position
			if pos < 0 || pos > int(count) {
				return conflictf("position %d is out of bounds (column #%d has %d cards)", pos, columnID, count)
			}
		}

		// Shift later cards out of the way
		if err := tx.Model(&models.KanbanCard{}).
			Where("column_id = ? AND position >= ?", columnID, pos).
			Update("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}

		card = &models.KanbanCard{ColumnID: columnID, IssueID: issueID, Position: pos}
		return tx.Create(card).Error
	})
	if err != nil {
		return nil, err
	}

	return card, nil
}

// MoveCard relocates a card to the target column and position. The gap
// in the source column closes and the target column makes room, all in
// one transaction; a half-applied move is never observable.
func (e *BoardEngine) MoveCard(cardID, targetColumnID uint, targetPosition int) (*models.KanbanCard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var card models.KanbanCard
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&card, cardID).Error; err != nil {
			return notFoundf("card", cardID)
		}
		if _, err := e.column(tx, targetColumnID); err != nil {
			return err
		}

		// Pull the card out of its source column
		if err := tx.Model(&models.KanbanCard{}).
			Where("column_id = ? AND position > ?", card.ColumnID, card.Position).
			Update("position", gorm.Expr("position - 1")).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.KanbanCard{}).
			Where("column_id = ? AND id <> ?", targetColumnID, cardID).
			Count(&count).Error; err != nil {
			return err
		}
		if targetPosition < 0 || targetPosition > int(count) {
			return conflictf("position %d is out of bounds (column #%d has %d cards)", targetPosition, targetColumnID, count)
		}

		// Make room in the target column
		if err := tx.Model(&models.KanbanCard{}).
			Where("column_id = ? AND position >= ? AND id <> ?", targetColumnID, targetPosition, cardID).
			Update("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}

		card.ColumnID = targetColumnID
		card.Position = targetPosition
		return tx.Save(&card).Error
	})
	if err != nil {
		return nil, err
	}

	return &card, nil
}

// RemoveCard deletes a card and closes the gap in its column
func (e *BoardEngine) RemoveCard(cardID uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.db.Transaction(func(tx *gorm.DB) error {
		var card models.KanbanCard
		if err := tx.First(&card, cardID).Error; err != nil {
			return notFoundf("card", cardID)
		}

		if err := tx.Delete(&card).Error; err != nil {
			return err
		}
		return tx.Model(&models.KanbanCard{}).
			Where("column_id = ? AND position > ?", card.ColumnID, card.Position).
			Update("position", gorm.Expr("position - 1")).Error
	})
}

// ReorderCards reassigns dense positions within a column in the given
// order. The id set must match the column's cards exactly.
func (e *BoardEngine) ReorderCards(columnID uint, orderedIDs []uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cards, err := e.Cards(columnID)
	if err != nil {
		return err
	}

	ids := make([]uint, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	if err := checkIDSet(orderedIDs, ids, "card"); err != nil {
		return err
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		for pos, id := range orderedIDs {
			if err := tx.Model(&models.KanbanCard{}).Where("id = ?", id).Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkMoveCards appends the given cards, in order, to the end of the
// target column
func (e *BoardEngine) BulkMoveCards(cardIDs []uint, targetColumnID uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.db.Transaction(func(tx *gorm.DB) error {
		if _, err := e.column(tx, targetColumnID); err != nil {
			return err
		}

		for _, cardID := range cardIDs {
			var card models.KanbanCard
			if err := tx.First(&card, cardID).Error; err != nil {
				return notFoundf("card", cardID)
			}
			if card.ColumnID == targetColumnID {
				continue
			}

			if err := tx.Model(&models.KanbanCard{}).
				Where("column_id = ? AND position > ?", card.ColumnID, card.Position).
				Update("position", gorm.Expr("position - 1")).Error; err != nil {
				return err
			}

			var count int64
			if err := tx.Model(&models.KanbanCard{}).Where("column_id = ?", targetColumnID).Count(&count).Error; err != nil {
				return err
			}

			card.ColumnID = targetColumnID
			card.Position = int(count)
			if err := tx.Save(&card).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Cards returns the column's cards in visual order
func (e *BoardEngine) Cards(columnID uint) ([]models.KanbanCard, error) {
	var cards []models.KanbanCard
	if err := e.db.Where("column_id = ?", columnID).Order("position ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// CardForIssue returns the work item's card on any board of the
// project, or nil if it is not carded
func (e *BoardEngine) CardForIssue(projectID, issueID uint) (*models.KanbanCard, error) {
	return e.cardForIssue(e.db, projectID, issueID)
}

func (e *BoardEngine) cardForIssue(tx *gorm.DB, projectID, issueID uint) (*models.KanbanCard, error) {
	var card models.KanbanCard
	err := tx.
		Joins("JOIN kanban_columns ON kanban_columns.id = kanban_cards.column_id").
		Joins("JOIN kanban_boards ON kanban_boards.id = kanban_columns.board_id").
		Where("kanban_boards.project_id = ? AND kanban_cards.issue_id = ? AND kanban_boards.deleted_at IS NULL", projectID, issueID).
		First(&card).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// WIPStatus reports a column's load against its advisory limit
type WIPStatus struct {
	IsExceeded   bool `json:"is_exceeded"`
	CurrentCount int  `json:"current_count"`
	Limit        *int `json:"limit"`
}

// CheckWipLimit reports whether the column is over its WIP limit.
// The limit is advisory: AddCard and MoveCard never reject on it,
// callers surface the overage as a warning.
func (e *BoardEngine) CheckWipLimit(columnID uint) (*WIPStatus, error) {
	column, err := e.column(e.db, columnID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := e.db.Model(&models.KanbanCard{}).Where("column_id = ?", columnID).Count(&count).Error; err != nil {
		return nil, err
	}

	status := WIPStatus{CurrentCount: int(count), Limit: column.WIPLimit}
	if column.WIPLimit != nil && int(count) > *column.WIPLimit {
		status.IsExceeded = true
	}
	return &status, nil
}

func (e *BoardEngine) board(boardID uint) (*models.KanbanBoard, error) {
	return e.boardTx(e.db, boardID)
}

func (e *BoardEngine) boardTx(tx *gorm.DB, boardID uint) (*models.KanbanBoard, error) {
	var board models.KanbanBoard
	if err := tx.First(&board, boardID).Error; err != nil {
		return nil, notFoundf("board", boardID)
	}
	return &board, nil
}

func (e *BoardEngine) column(tx *gorm.DB, columnID uint) (*models.KanbanColumn, error) {
	var column models.KanbanColumn
	if err := tx.First(&column, columnID).Error; err != nil {
		return nil, notFoundf("column", columnID)
	}
	return &column, nil
}

func columnIDs(columns []models.KanbanColumn) []uint {
	ids := make([]uint, len(columns))
	for i, c := range columns {
		ids[i] = c.ID
	}
	return ids
}

// checkIDSet validates that the requested ordering is a permutation of
// the existing ids: same count, no duplicates, no unknown ids
func checkIDSet(ordered, existing []uint, kind string) error {
	if len(ordered) != len(existing) {
		return validationf("expected %d %s ids, got %d", len(existing), kind, len(ordered))
	}

	seen := make(map[uint]bool, len(ordered))
	for _, id := range ordered {
		if seen[id] {
			return validationf("duplicate %s id %d in order", kind, id)
		}
		seen[id] = true
	}
	for _, id := range existing {
		if !seen[id] {
			return validationf("%s id %d missing from order", kind, id)
		}
	}
	return nil
}
