package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/fairway/internal/theme"
	"github.com/jmylchreest/fairway/internal/tui"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the built-in themes",
	Long: `List the built-in themes with a color swatch for each.

The set of themes is fixed at build time.`,
	Args: cobra.NoArgs,
	RunE: runThemesList,
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in themes",
	Args:  cobra.NoArgs,
	RunE:  runThemesList,
}

var themesShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show a theme's color tokens and element styles",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesShow,
}

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.AddCommand(themesListCmd)
	themesCmd.AddCommand(themesShowCmd)
}

func runThemesList(cmd *cobra.Command, args []string) error {
	registry := themeResolver.Registry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, info := range registry.List() {
		t, _ := registry.Get(info.Key)
		marker := ""
		if info.Key == registry.DefaultKey() {
			marker = "(default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Key, info.Name, tui.Swatch(t), marker)
	}
	return w.Flush()
}

func runThemesShow(cmd *cobra.Command, args []string) error {
	t, ok := themeResolver.Registry().Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", theme.ErrThemeNotFound, args[0])
	}

	title := lipgloss.NewStyle().Bold(true)
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	fmt.Println(title.Render(fmt.Sprintf("%s (%s)", t.Name, t.Key)))
	fmt.Println()
	fmt.Println(section.Render("Colors"))
	fmt.Print(tui.SwatchTable(t))
	fmt.Println()
	fmt.Println(section.Render("Elements"))
	for _, name := range t.ElementNames() {
		sel := t.Elements[name].Selector
		if sel == "" {
			sel = name
		}
		fmt.Printf("  %-10s %s\n", name, sel)
	}
	return nil
}
