package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
)

var assignCmd = &cobra.Command{
	Use:   "assign <page> <theme>",
	Short: "Assign a theme to a page",
	Long: `Store a theme assignment for a page path. An existing assignment for the
same path is replaced.

Variant landing pages in the same group share one assignment: assigning a
theme to any of them applies it to all of them.

Examples:
  fairway assign / midnight
  fairway assign new-build-golf-properties-costa-blanca-modern sand`,
	Args: cobra.ExactArgs(2),
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	path, themeKey := args[0], args[1]

	provider := resolver.NewProvider(themeResolver, assignments, nil, logger)
	if err := provider.Assign(path, themeKey); err != nil {
		return err
	}
	if err := assignments.Err(); err != nil {
		return fmt.Errorf("assignment could not be saved: %w", err)
	}

	if _, ok := catalog.Lookup(path); !ok {
		logger.Warn("page is not in the site manifest", "page", page.Normalize(path))
	}

	fmt.Printf("%s → %s\n", page.URL(path), themeKey)
	return nil
}
