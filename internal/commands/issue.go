package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/plank/internal/db"
	"github.com/balkashynov/plank/internal/parser"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage work items",
}

var issueAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new issue with smart parsing",
	Long: `Create a new work item. Metadata is parsed from the title:

  #label1,label2   Attach labels
  !priority        Set priority (low/medium/high)
  *points          Story point estimate (0,1,2,3,5,8,13,21,34)
  ^epic-id         Link to an epic

Example:
  plank issue add "Fix login flow #frontend,auth !high *5 ^2"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		parsed := parser.ParseIssue(strings.Join(args, " "))
		if len(parsed.Errors) > 0 {
			for _, e := range parsed.Errors {
				fmt.Printf("Error: %s\n", e)
			}
			return
		}

		issue, err := db.CreateIssue(db.CreateIssueRequest{
			ProjectID:   projectID,
			Title:       parsed.Title,
			Labels:      parsed.Labels,
			Priority:    parsed.Priority,
			StoryPoints: parsed.StoryPoints,
			EpicID:      parsed.EpicID,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Created issue #%d: %s\n", issue.ID, issue.Title)
		if issue.StoryPoints != nil {
			fmt.Printf("Story points: %d\n", *issue.StoryPoints)
		}
		if issue.EpicID != nil {
			// Keep the epic rollup in step with the new member
			if _, err := planner().Epics().Recompute(*issue.EpicID); err != nil {
				fmt.Printf("Warning: epic rollup not refreshed: %v\n", err)
			}
		}
	},
}

var issueListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List issues",
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		issues, err := db.GetIssues(projectID)
		if err != nil {
			fmt.Printf("Error fetching issues: %v\n", err)
			return
		}

		if len(issues) == 0 {
			fmt.Println("No issues found. Use 'plank issue add \"title\"' to create your first issue.")
			return
		}

		// Print table header
		fmt.Printf("%-4s %-12s %-40s %-6s %-8s %s\n", "ID", "STATUS", "TITLE", "PTS", "PRIORITY", "LABELS")
		fmt.Println(strings.Repeat("-", 80))

		for _, issue := range issues {
			var labelNames []string
			for _, label := range issue.Labels {
				labelNames = append(labelNames, label.Name)
			}

			priorities := []string{"", "low", "med", "high"}
			priorityStr := priorities[issue.Priority]

			points := "-"
			if issue.StoryPoints != nil {
				points = strconv.Itoa(*issue.StoryPoints)
			}

			title := issue.Title
			if len(title) > 38 {
				title = title[:35] + "..."
			}

			fmt.Printf("%-4d %-12s %-40s %-6s %-8s %s\n",
				issue.ID,
				issue.Status,
				title,
				points,
				priorityStr,
				strings.Join(labelNames, ","))
		}
	},
}

var issueStatusCmd = &cobra.Command{
	Use:   "status <issue-id> <status>",
	Short: "Move an issue to a new workflow status",
	Long: `Change an issue's status (todo, in_progress, review, done, blocked).
Sprint and epic progress are recomputed automatically.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		issueID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid issue ID '%s'\n", args[0])
			return
		}

		change, err := db.SetIssueStatus(uint(issueID), args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		// Notify the planning facade so cached counters stay consistent
		if err := planner().OnStatusChanged(change.Issue.ID, change.OldStatus, change.NewStatus); err != nil {
			fmt.Printf("Warning: progress not refreshed: %v\n", err)
		}

		fmt.Printf("✅ Issue #%d: %s → %s\n", change.Issue.ID, change.OldStatus, change.NewStatus)
	},
}

var issueEstimateCmd = &cobra.Command{
	Use:   "estimate <issue-id> <points>",
	Short: "Set an issue's story point estimate",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		issueID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid issue ID '%s'\n", args[0])
			return
		}
		points, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Printf("Error: invalid story points '%s'\n", args[1])
			return
		}

		issue, err := db.EstimateIssue(uint(issueID), points)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := planner().OnPointsChanged(issue.ID); err != nil {
			fmt.Printf("Warning: progress not refreshed: %v\n", err)
		}

		fmt.Printf("✅ Issue #%d estimated at %d points\n", issue.ID, points)
	},
}

func init() {
	issueCmd.AddCommand(issueAddCmd)
	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueStatusCmd)
	issueCmd.AddCommand(issueEstimateCmd)
}
