package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fairway/internal/page"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the site's pages with their effective theme",
	Long: `List every page in the site manifest with its group and the theme it
currently resolves to, including where that theme came from:

  explicit    the page requests the theme itself
  assignment  a stored assignment for the page or an equivalent variant page
  default     no request or assignment applies`,
	Args: cobra.NoArgs,
	RunE: runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}

func runPages(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tNAME\tGROUP\tTHEME\tSOURCE")
	for _, r := range catalog.Routes() {
		res := themeResolver.ResolveWithSource(r.Theme, catalog.Identify(r.Path))
		group := string(r.Group)
		if group == "" {
			group = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", page.URL(r.Path), r.Name, group, res.Theme, res.Source)
	}
	return w.Flush()
}
