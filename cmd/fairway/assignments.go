package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/fairway/internal/page"
)

var assignmentsOpts struct {
	format string
}

var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "List stored theme assignments",
	Args:  cobra.NoArgs,
	RunE:  runAssignments,
}

func init() {
	rootCmd.AddCommand(assignmentsCmd)

	assignmentsCmd.Flags().StringVarP(&assignmentsOpts.format, "format", "f", "table",
		"Output format (table, json, yaml)")
}

func runAssignments(cmd *cobra.Command, args []string) error {
	all := assignments.GetAll()

	switch assignmentsOpts.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(all)

	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(all)

	case "table":
		if len(all) == 0 {
			fmt.Println("no theme assignments")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PAGE\tTHEME\tGROUP")
		for _, as := range all {
			group := string(catalog.Identify(as.PagePath).Group)
			if group == "" {
				group = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", page.URL(as.PagePath), as.ThemeID, group)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", assignmentsOpts.format)
	}
}
