package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/plank/internal/agile"
)

// RunBoardTUI starts the interactive kanban board view
func RunBoardTUI(planner *agile.Planner, boardID uint) error {
	model, err := NewBoardModel(planner, boardID)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
