package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage board cards",
}

var cardAddCmd = &cobra.Command{
	Use:   "add <column-id> <issue-id>",
	Short: "Place an issue on a board",
	Long: `Place an issue on a board by creating a card in the given column.
An issue can appear on at most one board per project.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		columnID, err := parseID(args[0], "column")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		issueID, err := parseID(args[1], "issue")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		var position *int
		if pos, _ := cmd.Flags().GetInt("pos"); cmd.Flags().Changed("pos") {
			position = &pos
		}

		engine := planner().Boards()
		card, err := engine.AddCard(columnID, issueID, position)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Added card #%d for issue #%d at position %d\n", card.ID, issueID, card.Position)
		printWipWarning(columnID)
	},
}

var cardMoveCmd = &cobra.Command{
	Use:   "move <card-id> <column-id> <position>",
	Short: "Move a card to a column position",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		cardID, err := parseID(args[0], "card")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		columnID, err := parseID(args[1], "column")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		var position int
		if _, err := fmt.Sscanf(args[2], "%d", &position); err != nil {
			fmt.Printf("Error: invalid position %q\n", args[2])
			return
		}

		card, err := planner().Boards().MoveCard(cardID, columnID, position)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Moved card #%d to column #%d position %d\n", card.ID, card.ColumnID, card.Position)
		printWipWarning(columnID)
	},
}

var cardRemoveCmd = &cobra.Command{
	Use:     "rm <card-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a card from its board",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		cardID, err := parseID(args[0], "card")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := planner().Boards().RemoveCard(cardID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🗑️  Removed card #%d\n", cardID)
	},
}

var cardReorderCmd = &cobra.Command{
	Use:   "reorder <column-id> <card-id>...",
	Short: "Reorder the cards within a column",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		columnID, err := parseID(args[0], "column")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		var order []uint
		for _, arg := range args[1:] {
			id, err := parseID(arg, "card")
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			order = append(order, id)
		}

		if err := planner().Boards().ReorderCards(columnID, order); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Reordered %d cards in column #%d\n", len(order), columnID)
	},
}

var cardBulkMoveCmd = &cobra.Command{
	Use:   "bulk-move <column-id> <card-id>...",
	Short: "Move several cards to the end of a column",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		columnID, err := parseID(args[0], "column")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		var cardIDs []uint
		for _, arg := range args[1:] {
			id, err := parseID(arg, "card")
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			cardIDs = append(cardIDs, id)
		}

		if err := planner().Boards().BulkMoveCards(cardIDs, columnID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Moved %d cards to column #%d\n", len(cardIDs), columnID)
		printWipWarning(columnID)
	},
}

// printWipWarning reports an advisory warning when a column exceeds its
// WIP limit. Limits never block placement.
func printWipWarning(columnID uint) {
	status, err := planner().Boards().CheckWipLimit(columnID)
	if err != nil || status.Limit == nil {
		return
	}
	if status.IsExceeded {
		fmt.Printf("⚠️  Column #%d is over its WIP limit: %d/%d cards\n", columnID, status.CurrentCount, *status.Limit)
	}
}

func init() {
	cardAddCmd.Flags().Int("pos", 0, "Position within the column (default: end)")

	cardCmd.AddCommand(cardAddCmd)
	cardCmd.AddCommand(cardMoveCmd)
	cardCmd.AddCommand(cardRemoveCmd)
	cardCmd.AddCommand(cardReorderCmd)
	cardCmd.AddCommand(cardBulkMoveCmd)
}
