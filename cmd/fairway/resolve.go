package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveOpts struct {
	theme   string
	explain bool
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <page>",
	Short: "Print the theme a page resolves to",
	Long: `Print the theme key a page resolves to. The page does not need to be in
the site manifest.

--theme simulates an explicit theme request; unknown keys are ignored with a
warning, exactly as when rendering. Without --theme the page's own request
from the manifest is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveOpts.theme, "theme", "t", "",
		"Explicit theme request")
	resolveCmd.Flags().BoolVar(&resolveOpts.explain, "explain", false,
		"Also print the page identity and which rule matched")
}

func runResolve(cmd *cobra.Command, args []string) error {
	path := args[0]
	explicit := resolveOpts.theme
	if explicit == "" {
		if route, ok := catalog.Lookup(path); ok {
			explicit = route.Theme
		}
	}

	id := catalog.Identify(path)
	res := themeResolver.ResolveWithSource(explicit, id)

	if !resolveOpts.explain {
		fmt.Println(res.Theme)
		return nil
	}

	group := string(id.Group)
	if group == "" {
		group = "-"
	}
	fmt.Printf("page:   %s\ngroup:  %s\ntheme:  %s\nsource: %s\n", id.Path, group, res.Theme, res.Source)
	return nil
}
