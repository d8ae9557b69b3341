package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/balkashynov/plank/internal/agile"
	"github.com/balkashynov/plank/internal/parser"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Manage sprints",
}

var sprintCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new sprint in planning",
	Long: `Create a sprint with a start and end date.

Dates accept yyyy-mm-dd, "today", or offsets like +2w:
  plank sprint create "Sprint 12" --start today --end +2w --goal "Ship checkout"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")
		goal, _ := cmd.Flags().GetString("goal")

		start, err := parser.ParseDate(startStr)
		if err != nil {
			fmt.Printf("Error: invalid start date: %v\n", err)
			return
		}
		end, err := parser.ParseDate(endStr)
		if err != nil {
			fmt.Printf("Error: invalid end date: %v\n", err)
			return
		}

		sprint, err := planner().Sprints().Create(projectID, args[0], goal, start, end)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Created sprint #%d: %s (%s → %s)\n",
			sprint.ID, sprint.Name, parser.FormatDate(sprint.StartDate), parser.FormatDate(sprint.EndDate))
	},
}

var sprintStartCmd = &cobra.Command{
	Use:   "start <sprint-id>",
	Short: "Start a planned sprint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		sprint, err := planner().Sprints().Start(sprintID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🏁 Sprint #%d is active: %s (%d issues, %d points planned)\n",
			sprint.ID, sprint.Name, sprint.TotalIssues, sprint.PlannedStoryPoints)
	},
}

var sprintCompleteCmd = &cobra.Command{
	Use:   "complete <sprint-id>",
	Short: "Complete an active sprint and record its velocity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		sprint, err := planner().Sprints().Complete(sprintID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Completed sprint #%d: %s\n", sprint.ID, sprint.Name)
		fmt.Printf("Velocity: %d points (%d/%d issues done)\n",
			sprint.CompletedStoryPoints, sprint.CompletedIssues, sprint.TotalIssues)
	},
}

var sprintCancelCmd = &cobra.Command{
	Use:   "cancel <sprint-id>",
	Short: "Cancel a sprint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		sprint, err := planner().Sprints().Cancel(sprintID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🚫 Cancelled sprint #%d: %s\n", sprint.ID, sprint.Name)
	},
}

var sprintDeleteCmd = &cobra.Command{
	Use:   "delete <sprint-id>",
	Short: "Delete a sprint (completed sprints are kept as archives)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := planner().Sprints().Delete(sprintID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🗑️  Deleted sprint #%d\n", sprintID)
	},
}

var sprintAddCmd = &cobra.Command{
	Use:   "add <sprint-id> <issue-id>",
	Short: "Add an issue to a sprint",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		issueID, err := parseID(args[1], "issue")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		sprint, err := planner().Sprints().AddWorkItem(sprintID, issueID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Added issue #%d to sprint #%d (%d issues, %d points planned)\n",
			issueID, sprint.ID, sprint.TotalIssues, sprint.PlannedStoryPoints)
	},
}

var sprintRemoveCmd = &cobra.Command{
	Use:   "remove <sprint-id> <issue-id>",
	Short: "Remove an issue from a sprint",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		issueID, err := parseID(args[1], "issue")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		sprint, err := planner().Sprints().RemoveWorkItem(sprintID, issueID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("↩️  Removed issue #%d from sprint #%d (%d issues left)\n",
			issueID, sprint.ID, sprint.TotalIssues)
	},
}

var sprintMoveCmd = &cobra.Command{
	Use:   "move <issue-id> <to-sprint-id>",
	Short: "Move an issue between sprints",
	Long: `Move an issue into a sprint. With --from the issue is removed from the
source sprint first; the whole move either applies or rolls back.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		issueID, err := parseID(args[0], "issue")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		toID, err := parseID(args[1], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		var from *uint
		if fromFlag, _ := cmd.Flags().GetUint("from"); fromFlag > 0 {
			from = &fromFlag
		}

		if err := planner().MoveWorkItemToSprint(issueID, from, toID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Moved issue #%d to sprint #%d\n", issueID, toID)
	},
}

var sprintListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List sprints",
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		sprints, err := planner().Sprints().List(projectID)
		if err != nil {
			fmt.Printf("Error fetching sprints: %v\n", err)
			return
		}

		if len(sprints) == 0 {
			fmt.Println("No sprints found. Use 'plank sprint create \"name\"' to create one.")
			return
		}

		fmt.Printf("%-4s %-10s %-25s %-12s %-12s %-8s %s\n", "ID", "STATUS", "NAME", "START", "END", "ISSUES", "POINTS")
		fmt.Println(strings.Repeat("-", 84))

		for _, s := range sprints {
			name := s.Name
			if len(name) > 23 {
				name = name[:20] + "..."
			}
			fmt.Printf("%-4d %-10s %-25s %-12s %-12s %-8s %d/%d\n",
				s.ID,
				s.Status,
				name,
				parser.FormatDate(s.StartDate),
				parser.FormatDate(s.EndDate),
				fmt.Sprintf("%d/%d", s.CompletedIssues, s.TotalIssues),
				s.CompletedStoryPoints, s.PlannedStoryPoints)
		}
	},
}

var sprintMetricsCmd = &cobra.Command{
	Use:   "metrics <sprint-id>",
	Short: "Show burndown metrics, health, and forecast for a sprint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		engine := planner().Sprints()
		sprint, err := engine.Get(sprintID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		m, err := engine.Metrics(sprintID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("Sprint #%d: %s [%s]\n\n", sprint.ID, sprint.Name, sprint.Status)
		fmt.Printf("Day %d of %d (%d remaining)\n", m.ElapsedDays, m.DurationDays, m.RemainingDays)
		fmt.Printf("Issues:       %d/%d done (%d%%)\n", sprint.CompletedIssues, sprint.TotalIssues, m.ProgressPercentage)
		fmt.Printf("Story points: %d/%d done (%d%%), %d remaining\n",
			sprint.CompletedStoryPoints, sprint.PlannedStoryPoints, m.StoryPointsProgress, m.RemainingStoryPoints)
		fmt.Printf("Burndown:     ideal %.1f pts/day, actual %.1f pts/day\n", m.IdealBurndownRate, m.ActualBurndownRate)

		fmt.Printf("Health:       %s\n", renderHealth(m.Health))
		if m.OnTrack {
			fmt.Println("On track:     yes")
		} else {
			fmt.Println("On track:     no")
		}

		if sprint.IsActive() {
			if m.Forecast.EstimatedDate == nil {
				fmt.Println("Forecast:     no completed work yet, completion unlikely")
			} else if m.Forecast.Likely {
				fmt.Printf("Forecast:     done in ~%d days (%s), within the sprint\n",
					m.Forecast.DaysNeeded, parser.FormatDate(*m.Forecast.EstimatedDate))
			} else {
				fmt.Printf("Forecast:     done in ~%d days (%s), past the end date\n",
					m.Forecast.DaysNeeded, parser.FormatDate(*m.Forecast.EstimatedDate))
			}
		}
	},
}

var sprintStatsCmd = &cobra.Command{
	Use:   "stats <sprint-id>",
	Short: "Show the per-status breakdown for a sprint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		sprintID, err := parseID(args[0], "sprint")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		stats, err := planner().Sprints().Statistics(sprintID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("Issues:   %d total / %d done / %d in progress / %d todo / %d blocked\n",
			stats.TotalIssues, stats.CompletedIssues, stats.InProgressIssues, stats.TodoIssues, stats.BlockedIssues)
		fmt.Printf("Points:   %d total / %d done / %d in progress\n",
			stats.TotalStoryPoints, stats.CompletedStoryPoints, stats.InProgressStoryPoints)
		fmt.Printf("Rate:     %d%% complete, velocity %d, %d days remaining\n",
			stats.CompletionRate, stats.Velocity, stats.DaysRemaining)
		fmt.Printf("Trend:    %s\n", stats.BurndownTrend)
	},
}

// renderHealth colors the health label for terminal output
func renderHealth(health string) string {
	var color string
	switch health {
	case agile.HealthHealthy:
		color = "#22C55E"
	case agile.HealthAtRisk:
		color = "#F59E0B"
	default:
		color = "#EF4444"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(health)
}

// parseID parses a numeric command argument
func parseID(arg, kind string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID '%s'", kind, arg)
	}
	return uint(id), nil
}

func init() {
	sprintCreateCmd.Flags().String("start", "today", "Sprint start date")
	sprintCreateCmd.Flags().String("end", "+2w", "Sprint end date")
	sprintCreateCmd.Flags().String("goal", "", "Sprint goal")
	sprintMoveCmd.Flags().Uint("from", 0, "Source sprint to remove the issue from")

	sprintCmd.AddCommand(sprintCreateCmd)
	sprintCmd.AddCommand(sprintStartCmd)
	sprintCmd.AddCommand(sprintCompleteCmd)
	sprintCmd.AddCommand(sprintCancelCmd)
	sprintCmd.AddCommand(sprintDeleteCmd)
	sprintCmd.AddCommand(sprintAddCmd)
	sprintCmd.AddCommand(sprintRemoveCmd)
	sprintCmd.AddCommand(sprintMoveCmd)
	sprintCmd.AddCommand(sprintListCmd)
	sprintCmd.AddCommand(sprintMetricsCmd)
	sprintCmd.AddCommand(sprintStatsCmd)
}
