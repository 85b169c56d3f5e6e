// Package main provides the CLI entrypoint for fairway.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fairway/internal/config"
	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose      bool
		configPath   string
		manifestPath string
		storeBackend string
		storePath    string
	}
	logger *slog.Logger

	catalog       *page.Catalog
	storeKV       store.KV
	assignments   *store.Assignments
	themeResolver *resolver.Resolver
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fairway",
	Short: "Themed landing pages for golf property developments",
	Long: `fairway renders and serves the landing pages of a golf real-estate site.

Every page is drawn in one of a fixed set of visual themes. A page uses the
theme it explicitly requests, otherwise the theme assigned to it (or to an
equivalent variant page), otherwise the default theme.

Running fairway without a subcommand launches the interactive admin panel.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides()
		if err := cfg.Validate(); err != nil {
			return err
		}

		manifest, err := loadManifest()
		if err != nil {
			return err
		}
		catalog = page.NewCatalog(manifest)

		storeKV, err = openKV()
		if err != nil {
			return err
		}

		assignments = store.NewAssignments(storeKV, store.Options{
			CollectionKey: cfg.Store.CollectionKey,
			Classifier:    catalog.Classifier(),
			Logger:        logger,
		})

		themeResolver = resolver.New(theme.Builtin(), assignments, resolver.Options{
			Logger:      logger,
			VerifyDelay: cfg.Theme.VerifyDelay.Duration(),
		})

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if assignments != nil {
			return assignments.Close()
		}
		return nil
	},
	// Default to the admin panel when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdmin(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/fairway/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.manifestPath, "manifest", "",
		"Path to site manifest (default: built-in manifest)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.storeBackend, "store-backend", "",
		"Assignment store backend (file, sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.storePath, "store-path", "",
		"Assignment store path (default: under ~/.local/share/fairway)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func applyFlagOverrides() {
	if globalOpts.manifestPath != "" {
		cfg.Site.Manifest = globalOpts.manifestPath
	}
	if globalOpts.storeBackend != "" {
		cfg.Store.Backend = globalOpts.storeBackend
	}
	if globalOpts.storePath != "" {
		cfg.Store.Path = globalOpts.storePath
	}
}

func loadManifest() (*page.Manifest, error) {
	if cfg.Site.Manifest == "" {
		return page.LoadDefaultManifest()
	}
	m, err := page.LoadManifest(cfg.Site.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	return m, nil
}

func openKV() (store.KV, error) {
	backend := store.Backend(cfg.Store.Backend)
	if backend != store.BackendMemory && cfg.Store.Path == "" {
		if err := config.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	kv, err := store.Open(backend, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open assignment store: %w", err)
	}
	logger.Debug("assignment store opened", "backend", backend, "path", cfg.StorePath())
	return kv, nil
}

// watchedStorePath returns the file to watch for external assignment
// changes, or "" when the backend has no single backing file.
func watchedStorePath() string {
	if fkv, ok := storeKV.(*store.FileKV); ok {
		return fkv.Path()
	}
	return ""
}
