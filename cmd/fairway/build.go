package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/fairway/internal/site"
)

var buildOpts struct {
	outDir string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render every page to static HTML",
	Long: `Render every page in the site manifest to <out>/<path>/index.html and
write the theme stylesheet to <out>/assets/themes.css.

Each page carries the theme it resolves to at build time.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOpts.outDir, "out", "o", "",
		"Output directory (default: site.out_dir from config)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	outDir := buildOpts.outDir
	if outDir == "" {
		outDir = cfg.Site.OutDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderer, err := site.NewRenderer(catalog, themeResolver, logger)
	if err != nil {
		return err
	}

	summary, err := renderer.Build(ctx, outDir)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	for _, p := range summary.Pages {
		fmt.Printf("  %-55s %-9s %-11s %s\n", p.File, p.Theme, p.Source, humanize.Bytes(uint64(p.Size)))
	}
	fmt.Println(summary.String())
	return nil
}
