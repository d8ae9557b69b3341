package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var columnCmd = &cobra.Command{
	Use:   "column",
	Short: "Manage board columns",
}

var columnAddCmd = &cobra.Command{
	Use:   "add <board-id> <name>",
	Short: "Append a column to a board",
	Long: `Append a new column at the end of a board.

Column types: backlog, todo, in_progress, review, testing, done, blocked.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		boardID, err := parseID(args[0], "board")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		columnType, _ := cmd.Flags().GetString("type")
		var wipLimit *int
		if wip, _ := cmd.Flags().GetInt("wip"); wip > 0 {
			wipLimit = &wip
		}

		column, err := planner().Boards().CreateColumn(boardID, args[1], columnType, wipLimit)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Added column #%d (%s) at position %d\n", column.ID, column.Name, column.Position)
	},
}

var columnEditCmd = &cobra.Command{
	Use:   "edit <column-id>",
	Short: "Rename a column or change its WIP limit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		columnID, err := parseID(args[0], "column")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		engine := planner().Boards()

		if name, _ := cmd.Flags().GetString("name"); name != "" {
			if _, err := engine.RenameColumn(columnID, name); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			fmt.Printf("✅ Renamed column #%d to %s\n", columnID, name)
		}

		if clear, _ := cmd.Flags().GetBool("no-wip"); clear {
			if _, err := engine.SetWIPLimit(columnID, nil); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			fmt.Printf("✅ Cleared WIP limit on column #%d\n", columnID)
		} else if wip, _ := cmd.Flags().GetInt("wip"); wip > 0 {
			if _, err := engine.SetWIPLimit(columnID, &wip); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			fmt.Printf("✅ Set WIP limit %d on column #%d\n", wip, columnID)
		}
	},
}

var columnRemoveCmd = &cobra.Command{
	Use:     "rm <column-id>",
	Aliases: []string{"remove"},
	Short:   "Delete an empty column",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		columnID, err := parseID(args[0], "column")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := planner().Boards().DeleteColumn(columnID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🗑️  Deleted column #%d\n", columnID)
	},
}

var columnReorderCmd = &cobra.Command{
	Use:   "reorder <board-id> <column-id>...",
	Short: "Reorder a board's columns",
	Long: `Reassign column positions in the given order. Every column of the
board must appear exactly once.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		boardID, err := parseID(args[0], "board")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		var order []uint
		for _, arg := range args[1:] {
			id, err := parseID(arg, "column")
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			order = append(order, id)
		}

		if err := planner().Boards().ReorderColumns(boardID, order); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Reordered %d columns on board #%d\n", len(order), boardID)
	},
}

var columnWipCmd = &cobra.Command{
	Use:   "wip <column-id>",
	Short: "Check a column against its WIP limit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		columnID, err := parseID(args[0], "column")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		status, err := planner().Boards().CheckWipLimit(columnID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if status.Limit == nil {
			fmt.Printf("Column #%d holds %d cards (no WIP limit)\n", columnID, status.CurrentCount)
			return
		}
		if status.IsExceeded {
			fmt.Printf("⚠️  Column #%d is over its WIP limit: %d/%d cards\n", columnID, status.CurrentCount, *status.Limit)
			return
		}
		fmt.Printf("Column #%d is within its WIP limit: %d/%d cards\n", columnID, status.CurrentCount, *status.Limit)
	},
}

func init() {
	columnAddCmd.Flags().String("type", "todo", "Column type")
	columnAddCmd.Flags().Int("wip", 0, "WIP limit (0 for none)")
	columnEditCmd.Flags().String("name", "", "New column name")
	columnEditCmd.Flags().Int("wip", 0, "New WIP limit")
	columnEditCmd.Flags().Bool("no-wip", false, "Clear the WIP limit")

	columnCmd.AddCommand(columnAddCmd)
	columnCmd.AddCommand(columnEditCmd)
	columnCmd.AddCommand(columnRemoveCmd)
	columnCmd.AddCommand(columnReorderCmd)
	columnCmd.AddCommand(columnWipCmd)
}
