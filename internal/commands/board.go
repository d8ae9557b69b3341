package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/plank/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage kanban boards",
}

var boardCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new kanban board",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		isDefault, _ := cmd.Flags().GetBool("default")

		board, err := planner().Boards().CreateBoard(projectID, strings.Join(args, " "), isDefault)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Created board #%d: %s\n", board.ID, board.Name)
		if board.IsDefault {
			fmt.Println("This is now the project's default board.")
		}
	},
}

var boardDefaultCmd = &cobra.Command{
	Use:   "default <board-id>",
	Short: "Make a board the project default",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		boardID, err := parseID(args[0], "board")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		board, err := planner().Boards().SetDefaultBoard(boardID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Board #%d (%s) is now the default\n", board.ID, board.Name)
	},
}

var boardDeleteCmd = &cobra.Command{
	Use:   "delete <board-id>",
	Short: "Delete a board with its columns and cards",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		boardID, err := parseID(args[0], "board")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := planner().Boards().DeleteBoard(boardID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🗑️  Deleted board #%d\n", boardID)
	},
}

var boardListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List boards",
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		boards, err := planner().Boards().Boards(projectID)
		if err != nil {
			fmt.Printf("Error fetching boards: %v\n", err)
			return
		}

		if len(boards) == 0 {
			fmt.Println("No boards found. Use 'plank board create \"name\"' to create one.")
			return
		}

		for _, b := range boards {
			marker := " "
			if b.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s #%d %s\n", marker, b.ID, b.Name)
		}
	},
}

var boardShowCmd = &cobra.Command{
	Use:   "show <board-id>",
	Short: "Print a board snapshot with columns and cards",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		boardID, err := parseID(args[0], "board")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		engine := planner().Boards()
		board, err := engine.Board(boardID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("Board #%d: %s\n", board.ID, board.Name)
		for _, col := range board.Columns {
			wip := ""
			if col.WIPLimit != nil {
				wip = fmt.Sprintf(" (WIP %d/%d)", len(col.Cards), *col.WIPLimit)
				if len(col.Cards) > *col.WIPLimit {
					wip += " ⚠️ over limit"
				}
			}
			fmt.Printf("\n[%d] %s%s\n", col.Position, col.Name, wip)
			if len(col.Cards) == 0 {
				fmt.Println("    (empty)")
				continue
			}
			for _, card := range col.Cards {
				fmt.Printf("    %d. card #%d → issue #%d\n", card.Position, card.ID, card.IssueID)
			}
		}
	},
}

var boardViewCmd = &cobra.Command{
	Use:   "view <board-id>",
	Short: "Open the interactive board view",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		boardID, err := parseID(args[0], "board")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := tui.RunBoardTUI(planner(), boardID); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	},
}

func init() {
	boardCreateCmd.Flags().Bool("default", false, "Make this the project's default board")

	boardCmd.AddCommand(boardCreateCmd)
	boardCmd.AddCommand(boardDefaultCmd)
	boardCmd.AddCommand(boardDeleteCmd)
	boardCmd.AddCommand(boardListCmd)
	boardCmd.AddCommand(boardShowCmd)
	boardCmd.AddCommand(boardViewCmd)
}
