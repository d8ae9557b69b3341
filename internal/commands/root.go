package commands

import (
	"github.com/spf13/cobra"

	"github.com/balkashynov/plank/internal/agile"
	"github.com/balkashynov/plank/internal/db"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// projectID is the project all commands operate on (--project)
var projectID uint

var rootCmd = &cobra.Command{
	Use:   "plank",
	Short: "A CLI sprint planner and kanban board",
	Long: `plank is a command-line agile planning tool. Track issues through
sprints and kanban boards, watch burndown and velocity, and keep epics
rolled up - all from the terminal.`,
}

// initDB initializes the database and panics on error
func initDB() {
	if err := db.Initialize(); err != nil {
		panic(err) // For now, panic on DB init failure
	}
}

// planner builds the engine facade on the initialized database
func planner() *agile.Planner {
	return agile.NewDefaultPlanner(db.DB)
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().UintVarP(&projectID, "project", "P", 1, "Project ID to operate on")

	// Add subcommands here
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(sprintCmd)
	rootCmd.AddCommand(epicCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(columnCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(velocityCmd)
	rootCmd.AddCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
