package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/fairway/internal/tui"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Launch the interactive theme admin panel",
	Long: `Launch the interactive admin panel.

Pick a page to see the themes available, apply one, or press R to reset all
assignments. Changes made by other fairway processes show up live.`,
	Args: cobra.NoArgs,
	RunE: runAdmin,
}

func init() {
	rootCmd.AddCommand(adminCmd)
}

func runAdmin(cmd *cobra.Command, args []string) error {
	return tui.Run(tui.RunOptions{
		Catalog:     catalog,
		Resolver:    themeResolver,
		Assignments: assignments,
		StorePath:   watchedStorePath(),
	})
}
