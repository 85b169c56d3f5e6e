package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every theme assignment",
	Long: `Remove every stored theme assignment. Pages fall back to their own theme
request or the default theme.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	count := len(assignments.GetAll())
	assignments.ResetAll()
	if err := assignments.Err(); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}
	fmt.Printf("removed %d theme assignments\n", count)
	return nil
}
