package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for plank",
	Long:  `Display detailed help for all plank commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		showCustomHelp()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("plank %s (commit %s, built %s)\n", version, commit, date)
	},
}

func showCustomHelp() {
	fmt.Print(`
██████╗ ██╗      █████╗ ███╗   ██╗██╗  ██╗
██╔══██╗██║     ██╔══██╗████╗  ██║██║ ██╔╝
██████╔╝██║     ███████║██╔██╗ ██║█████╔╝
██╔═══╝ ██║     ██╔══██║██║╚██╗██║██╔═██╗
██║     ███████╗██║  ██║██║ ╚████║██║  ██╗
╚═╝     ╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝

plank - CLI Sprint Planner + Kanban Board

All commands accept -P/--project to pick the project (default 1).

COMMANDS:

  issue add <text>        Create an issue with smart parsing
    Smart syntax:
      #tag1,tag2    Attach labels
      !priority     Set priority (low/medium/high)
      *points       Story points (0,1,2,3,5,8,13,21,34)
      ^epic-id      Assign to an epic

    Example:
      plank issue add "Fix login flow #auth !high *5 ^2"

  issue ls                List the project's issues
  issue status <id> <st>  Set status: todo|in_progress|review|done|blocked
  issue estimate <id> <p> Set story points (Fibonacci scale)

  sprint create <name>    Create a sprint
    --start               Start date (today, yyyy-mm-dd, +Nd, +Nw)
    --end                 End date (default +2w)
    --goal                Sprint goal
  sprint start <id>       Start a planned sprint (needs issues)
  sprint complete <id>    Complete an active sprint, record velocity
  sprint cancel <id>      Cancel a sprint
  sprint delete <id>      Delete a non-completed sprint
  sprint add <id> <issue> Add an issue to a sprint
  sprint remove <id> <issue>
  sprint move <issue> <sprint>  Move an issue between sprints
    --from                Source sprint ID
  sprint ls               List sprints
  sprint metrics <id>     Burndown, health, and completion forecast
  sprint stats <id>       Per-status breakdown

  epic create <name>      Create an epic
  epic start <id>         Mark an epic in progress
  epic complete <id>      Complete an epic
  epic reopen <id>        Reopen a completed epic
  epic add <id> <issue>   Add an issue to an epic
  epic remove <id> <issue>
  epic ls                 List epics with progress
  epic progress <id>      Show an epic's rollup

  board create <name>     Create a kanban board
    --default             Make it the project default
  board default <id>      Set the default board
  board delete <id>       Delete a board and its columns
  board ls                List boards
  board show <id>         Print a board snapshot
  board view <id>         Open the interactive board

  column add <board> <name>   Append a column
    --type                backlog|todo|in_progress|review|testing|done|blocked
    --wip                 WIP limit
  column edit <id>        Rename or change WIP limit (--name, --wip, --no-wip)
  column rm <id>          Delete an empty column
  column reorder <board> <col>...
  column wip <id>         Check a column against its WIP limit

  card add <column> <issue>   Place an issue on a board
    --pos                 Position (default: end)
  card move <id> <column> <pos>
  card rm <id>            Remove a card
  card reorder <column> <card>...
  card bulk-move <column> <card>...

  velocity                Velocity history, trend, and prediction
  version                 Show version information
  help                    Show this help

WIP limits are advisory: plank warns when a column is over its limit
but never blocks a move.

`)
}
