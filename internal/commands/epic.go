package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var epicCmd = &cobra.Command{
	Use:   "epic",
	Short: "Manage epics",
}

var epicCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new epic",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		epic, err := planner().Epics().Create(projectID, strings.Join(args, " "))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Created epic #%d: %s\n", epic.ID, epic.Title)
	},
}

var epicStartCmd = &cobra.Command{
	Use:   "start <epic-id>",
	Short: "Mark an epic as in progress",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		epicID, err := parseID(args[0], "epic")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		epic, err := planner().Epics().Start(epicID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🏁 Epic #%d is in progress: %s\n", epic.ID, epic.Title)
	},
}

var epicCompleteCmd = &cobra.Command{
	Use:   "complete <epic-id>",
	Short: "Mark an epic as completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		epicID, err := parseID(args[0], "epic")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		epic, err := planner().Epics().Complete(epicID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Completed epic #%d: %s\n", epic.ID, epic.Title)
	},
}

var epicReopenCmd = &cobra.Command{
	Use:   "reopen <epic-id>",
	Short: "Reopen a completed epic",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		epicID, err := parseID(args[0], "epic")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		epic, err := planner().Epics().Reopen(epicID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("↩️  Reopened epic #%d: %s\n", epic.ID, epic.Title)
	},
}

var epicAddCmd = &cobra.Command{
	Use:   "add <epic-id> <issue-id>",
	Short: "Add an issue to an epic",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		epicID, err := parseID(args[0], "epic")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		issueID, err := parseID(args[1], "issue")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		epic, err := planner().Epics().AddWorkItem(epicID, issueID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Added issue #%d to epic #%d (%d issues, %d%% done)\n",
			issueID, epic.ID, epic.TotalIssues, epic.ProgressPercentage)
	},
}

var epicRemoveCmd = &cobra.Command{
	Use:   "remove <epic-id> <issue-id>",
	Short: "Remove an issue from an epic",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		epicID, err := parseID(args[0], "epic")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		issueID, err := parseID(args[1], "issue")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		epic, err := planner().Epics().RemoveWorkItem(epicID, issueID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("↩️  Removed issue #%d from epic #%d (%d issues left)\n",
			issueID, epic.ID, epic.TotalIssues)
	},
}

var epicListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List epics with progress",
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		epics, err := planner().Epics().List(projectID)
		if err != nil {
			fmt.Printf("Error fetching epics: %v\n", err)
			return
		}

		if len(epics) == 0 {
			fmt.Println("No epics found. Use 'plank epic create \"title\"' to create one.")
			return
		}

		fmt.Printf("%-4s %-12s %-35s %-10s %-10s %s\n", "ID", "STATUS", "TITLE", "ISSUES", "POINTS", "PROGRESS")
		fmt.Println(strings.Repeat("-", 82))

		for _, e := range epics {
			title := e.Title
			if len(title) > 33 {
				title = title[:30] + "..."
			}
			fmt.Printf("%-4d %-12s %-35s %-10s %-10s %d%%\n",
				e.ID,
				e.Status,
				title,
				fmt.Sprintf("%d/%d", e.CompletedIssues, e.TotalIssues),
				fmt.Sprintf("%d/%d", e.CompletedStoryPoints, e.TotalStoryPoints),
				e.ProgressPercentage)
		}
	},
}

var epicProgressCmd = &cobra.Command{
	Use:   "progress <epic-id>",
	Short: "Show an epic's rollup progress",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		epicID, err := parseID(args[0], "epic")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		epic, err := planner().Epics().Recompute(epicID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("Epic #%d: %s [%s]\n", epic.ID, epic.Title, epic.Status)
		fmt.Printf("Issues:   %d/%d done\n", epic.CompletedIssues, epic.TotalIssues)
		fmt.Printf("Points:   %d/%d done\n", epic.CompletedStoryPoints, epic.TotalStoryPoints)
		fmt.Printf("Progress: %d%%\n", epic.ProgressPercentage)
	},
}

func init() {
	epicCmd.AddCommand(epicCreateCmd)
	epicCmd.AddCommand(epicStartCmd)
	epicCmd.AddCommand(epicCompleteCmd)
	epicCmd.AddCommand(epicReopenCmd)
	epicCmd.AddCommand(epicAddCmd)
	epicCmd.AddCommand(epicRemoveCmd)
	epicCmd.AddCommand(epicListCmd)
	epicCmd.AddCommand(epicProgressCmd)
}
