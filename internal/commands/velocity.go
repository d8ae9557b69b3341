package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var velocityCmd = &cobra.Command{
	Use:   "velocity",
	Short: "Show the project's sprint velocity",
	Long: `Show velocity history across completed sprints: per-sprint planned
vs completed points, the running average, the trend, and a prediction
for the next sprint.`,
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		report, err := planner().Sprints().Velocity(projectID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if len(report.Sprints) == 0 {
			fmt.Println("📭 No completed sprints yet. Complete a sprint to start tracking velocity.")
			return
		}

		fmt.Printf("📈 Velocity — project #%d\n\n", projectID)
		fmt.Printf("%-4s %-25s %-8s %s\n", "ID", "SPRINT", "PLANNED", "COMPLETED")
		for _, r := range report.Sprints {
			name := r.SprintName
			if len(name) > 25 {
				name = name[:22] + "..."
			}
			fmt.Printf("%-4d %-25s %-8d %d\n", r.SprintID, name, r.PlannedPoints, r.CompletedPoints)
		}

		fmt.Printf("\nAverage velocity:  %.1f points/sprint\n", report.AverageVelocity)
		fmt.Printf("Trend:             %s\n", renderTrend(report.Trend))
		fmt.Printf("Predicted next:    %.1f points\n", report.PredictedNextVelocity)
	},
}

// renderTrend colors the trend label for terminal output
func renderTrend(trend string) string {
	var color string
	switch trend {
	case "increasing":
		color = "#22C55E"
	case "decreasing":
		color = "#EF4444"
	default:
		color = "#F59E0B"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(trend)
}
