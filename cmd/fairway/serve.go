package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fairway/internal/server"
	"github.com/jmylchreest/fairway/internal/site"
	"github.com/jmylchreest/fairway/internal/store"
)

var serveOpts struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site with live theme resolution",
	Long: `Serve every page with its theme resolved per request, plus a JSON API for
theme assignments:

  GET    /api/themes
  GET    /api/pages
  GET    /api/assignments
  PUT    /api/assignments   {"pagePath": "...", "themeId": "..."}
  DELETE /api/assignments
  GET    /api/resolve?path=...&theme=...

Open pages re-apply their theme immediately when an assignment affecting them
changes, including changes made with "fairway assign" from another shell.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "",
		"Listen address (default: server.addr from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveOpts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if path := watchedStorePath(); path != "" {
		watcher, err := store.NewFileWatcher(assignments, path, logger)
		if err != nil {
			return fmt.Errorf("failed to create store watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start store watcher: %w", err)
		}
		defer watcher.Stop()
	}

	renderer, err := site.NewRenderer(catalog, themeResolver, logger)
	if err != nil {
		return err
	}

	srv := server.New(renderer, themeResolver, assignments, server.Options{
		Addr:     addr,
		CacheTTL: cfg.Server.CacheTTL.Duration(),
		Logger:   logger,
	})

	fmt.Printf("serving %s on http://%s\n", catalog.Site().Name, addr)
	return srv.Run(ctx)
}
