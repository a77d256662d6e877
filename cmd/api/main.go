package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/weekplanner/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weekplanner",
		Short: "WeekPlanner API Server",
		Long:  `WeekPlanner is a personal task planner blending a kanban board with a weekly calendar: an inbox for undated tasks, one column per weekday, and drag and drop between them.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewPINCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
