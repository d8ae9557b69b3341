package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/plank/internal/agile"
	"github.com/balkashynov/plank/internal/db"
	"github.com/balkashynov/plank/internal/models"
)

// BoardModel represents the interactive kanban board view
type BoardModel struct {
	width  int
	height int

	planner *agile.Planner
	boardID uint

	// Board snapshot
	board  *models.KanbanBoard
	titles map[uint]string // issueID -> title

	// Selection
	selectedColumn int
	selectedCard   int // index within the selected column, -1 if empty

	// Move mode: a card is picked up, left/right picks the target column
	moving       bool
	movingCardID uint
	sourceColumn int

	// Position prompt shown after picking the target column
	enteringPos bool
	posInput    textinput.Model

	statusMsg string
	err       error
}

// NewBoardModel creates the board TUI model and loads the first snapshot
func NewBoardModel(planner *agile.Planner, boardID uint) (BoardModel, error) {
	posInput := textinput.New()
	posInput.Placeholder = "end"
	posInput.CharLimit = 4
	posInput.Width = 6

	model := BoardModel{
		planner:  planner,
		boardID:  boardID,
		posInput: posInput,
	}

	if err := model.loadBoard(); err != nil {
		return model, err
	}
	return model, nil
}

// loadBoard refreshes the board snapshot and the issue title cache
func (m *BoardModel) loadBoard() error {
	board, err := m.planner.Boards().Board(m.boardID)
	if err != nil {
		return err
	}
	m.board = board

	issues, err := db.GetIssues(board.ProjectID)
	if err != nil {
		return err
	}
	m.titles = make(map[uint]string, len(issues))
	for _, issue := range issues {
		m.titles[issue.ID] = issue.Title
	}

	// Clamp selection after a reload
	if m.selectedColumn >= len(board.Columns) {
		m.selectedColumn = len(board.Columns) - 1
	}
	if m.selectedColumn < 0 {
		m.selectedColumn = 0
	}
	m.clampCardSelection()
	return nil
}

func (m *BoardModel) clampCardSelection() {
	cards := m.currentCards()
	if len(cards) == 0 {
		m.selectedCard = -1
		return
	}
	if m.selectedCard < 0 {
		m.selectedCard = 0
	}
	if m.selectedCard >= len(cards) {
		m.selectedCard = len(cards) - 1
	}
}

func (m BoardModel) currentCards() []models.KanbanCard {
	if m.board == nil || len(m.board.Columns) == 0 {
		return nil
	}
	return m.board.Columns[m.selectedColumn].Cards
}

// Init initializes the model
func (m BoardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.enteringPos {
			return m.handlePositionKeys(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			if m.moving {
				// Put the card back mentally and return to browsing
				m.moving = false
				m.selectedColumn = m.sourceColumn
				m.clampCardSelection()
				m.statusMsg = "Move cancelled"
				return m, nil
			}
			return m, tea.Quit

		case "left", "h":
			if m.selectedColumn > 0 {
				m.selectedColumn--
				m.clampCardSelection()
			}
			return m, nil

		case "right", "l":
			if m.board != nil && m.selectedColumn < len(m.board.Columns)-1 {
				m.selectedColumn++
				m.clampCardSelection()
			}
			return m, nil

		case "up", "k":
			if !m.moving && m.selectedCard > 0 {
				m.selectedCard--
			}
			return m, nil

		case "down", "j":
			if !m.moving && m.selectedCard < len(m.currentCards())-1 {
				m.selectedCard++
			}
			return m, nil

		case "m":
			// Pick up the selected card
			if m.moving {
				return m, nil
			}
			cards := m.currentCards()
			if m.selectedCard < 0 || m.selectedCard >= len(cards) {
				m.statusMsg = "No card selected"
				return m, nil
			}
			m.moving = true
			m.movingCardID = cards[m.selectedCard].ID
			m.sourceColumn = m.selectedColumn
			m.statusMsg = "Pick a target column with ←/→, enter to drop, esc to cancel"
			return m, nil

		case "enter":
			if m.moving {
				// Ask for the drop position
				m.enteringPos = true
				m.posInput.SetValue("")
				m.posInput.Focus()
				m.statusMsg = ""
				return m, textinput.Blink
			}
			return m, nil

		case "r":
			if err := m.loadBoard(); err != nil {
				m.err = err
				return m, nil
			}
			m.statusMsg = "Refreshed"
			return m, nil
		}
	}

	return m, nil
}

// handlePositionKeys handles input while the position prompt is open
func (m BoardModel) handlePositionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.enteringPos = false
		m.posInput.Blur()
		m.statusMsg = "Move cancelled"
		m.moving = false
		m.selectedColumn = m.sourceColumn
		m.clampCardSelection()
		return m, nil

	case "enter":
		m.enteringPos = false
		m.posInput.Blur()
		return m.dropCard(), nil

	default:
		var cmd tea.Cmd
		m.posInput, cmd = m.posInput.Update(msg)
		return m, cmd
	}
}

// dropCard performs the move and reloads the snapshot
func (m BoardModel) dropCard() BoardModel {
	m.moving = false
	target := m.board.Columns[m.selectedColumn]

	position := len(target.Cards)
	if m.sourceColumn == m.selectedColumn && position > 0 {
		position-- // moving within the column, the card already counts
	}
	if raw := strings.TrimSpace(m.posInput.Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			m.statusMsg = fmt.Sprintf("Invalid position %q", raw)
			return m
		}
		position = parsed
	}

	if _, err := m.planner.Boards().MoveCard(m.movingCardID, target.ID, position); err != nil {
		m.statusMsg = fmt.Sprintf("Move failed: %v", err)
		m.clampCardSelection()
		return m
	}

	if err := m.loadBoard(); err != nil {
		m.err = err
		return m
	}

	m.statusMsg = fmt.Sprintf("Moved card to %s", target.Name)
	if status, err := m.planner.Boards().CheckWipLimit(target.ID); err == nil && status.IsExceeded {
		m.statusMsg = fmt.Sprintf("Moved card to %s — over WIP limit (%d/%d)", target.Name, status.CurrentCount, *status.Limit)
	}
	return m
}

// View renders the board
func (m BoardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.board == nil {
		return "Loading..."
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright))
	header := headerStyle.Render(fmt.Sprintf("📋 %s", m.board.Name))

	columns := make([]string, 0, len(m.board.Columns))
	columnWidth := m.columnWidth()
	for i, column := range m.board.Columns {
		columns = append(columns, m.renderColumn(column, i, columnWidth))
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		"",
		" "+header,
		"",
		content,
		"",
		m.renderStatusBar(),
	)
}

func (m BoardModel) columnWidth() int {
	count := len(m.board.Columns)
	if count == 0 {
		return 20
	}
	width := (m.width - count) / count
	if width < 18 {
		width = 18
	}
	if width > 36 {
		width = 36
	}
	return width
}

// renderColumn renders one column with its header, WIP badge, and cards
func (m BoardModel) renderColumn(column models.KanbanColumn, index, width int) string {
	var b strings.Builder

	// Column header: name plus card count, with the WIP limit when set
	badge := fmt.Sprintf("%d", len(column.Cards))
	badgeColor := ColorSecondaryText
	if column.WIPLimit != nil {
		badge = fmt.Sprintf("%d/%d", len(column.Cards), *column.WIPLimit)
		if len(column.Cards) > *column.WIPLimit {
			badgeColor = ColorError
		}
	}

	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText))
	badgeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(badgeColor))
	b.WriteString(nameStyle.Render(column.Name) + " " + badgeStyle.Render(badge))
	b.WriteString("\n\n")

	if len(column.Cards) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDisabledText)).
			Italic(true)
		b.WriteString(emptyStyle.Render("empty"))
	}

	for i, card := range column.Cards {
		title := m.titles[card.IssueID]
		if title == "" {
			title = fmt.Sprintf("issue #%d", card.IssueID)
		}
		row := fmt.Sprintf("#%d %s", card.IssueID, title)
		if len(row) > width-4 {
			row = row[:width-7] + "..."
		}

		selected := index == m.selectedColumn && i == m.selectedCard
		switch {
		case selected && m.moving && card.ID == m.movingCardID:
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorWarning)).
				Bold(true).
				Render("◆ " + row))
		case selected && !m.moving:
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorAccentBright)).
				Bold(true).
				Render("▸ " + row))
		default:
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSecondaryText)).
				Render("  " + row))
		}
		b.WriteString("\n")
	}

	borderColor := ColorBorder
	if index == m.selectedColumn {
		borderColor = ColorAccentMain
	}
	columnStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Width(width).
		Padding(0, 1)

	return columnStyle.Render(b.String())
}

// renderStatusBar renders the prompt, status message, or help line
func (m BoardModel) renderStatusBar() string {
	if m.enteringPos {
		promptStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
		return " " + promptStyle.Render("Drop at position: ") + m.posInput.View()
	}

	if m.statusMsg != "" {
		return " " + lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning)).
			Render(m.statusMsg)
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))
	return " " + helpStyle.Render("←/→ columns • ↑/↓ cards • m move • r refresh • q quit")
}
