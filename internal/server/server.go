// Package server serves the landing pages with live theme resolution, a
// small JSON admin API over the theme assignments, and a websocket that
// pushes theme changes to open pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/site"
	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

const (
	DefaultAddr     = "127.0.0.1:8080"
	DefaultCacheTTL = 5 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr     string
	CacheTTL time.Duration // Rendered page lifetime; negative disables caching
	Logger   *slog.Logger
}

// Server is the preview and admin HTTP server.
type Server struct {
	addr        string
	engine      *gin.Engine
	renderer    *site.Renderer
	resolver    *resolver.Resolver
	registry    *theme.Registry
	assignments *store.Assignments
	pages       *cache.Cache
	cacheTTL    time.Duration
	stylesheet  []byte
	hub         *Hub
	logger      *slog.Logger
}

// New creates a server. The resolver must read from assignments.
func New(renderer *site.Renderer, res *resolver.Resolver, assignments *store.Assignments, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		addr:        opts.Addr,
		engine:      gin.New(),
		renderer:    renderer,
		resolver:    res,
		registry:    res.Registry(),
		assignments: assignments,
		pages:       cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		cacheTTL:    opts.CacheTTL,
		stylesheet:  []byte(theme.Stylesheet(res.Registry())),
		logger:      opts.Logger,
	}
	s.hub = NewHub(res, assignments, renderer, opts.Logger)

	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	for _, route := range s.renderer.Catalog().Routes() {
		s.engine.GET(page.URL(route.Path), s.handlePage)
	}
	s.engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not found")
	})

	s.engine.GET(site.StylesheetPath, s.handleStylesheet)
	s.engine.GET("/ws", s.hub.ServeWS)

	api := s.engine.Group("/api")
	api.GET("/themes", s.handleThemes)
	api.GET("/pages", s.handlePages)
	api.GET("/assignments", s.handleGetAssignments)
	api.PUT("/assignments", s.handlePutAssignment)
	api.DELETE("/assignments", s.handleResetAssignments)
	api.GET("/resolve", s.handleResolve)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.invalidateOnChange(ctx)

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	s.hub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// invalidateOnChange drops cached pages whenever assignments change,
// including changes written by another process.
func (s *Server) invalidateOnChange(ctx context.Context) {
	events := s.assignments.Subscribe()
	defer s.assignments.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.logger.Debug("assignments changed, flushing page cache", "change", ev.Type.String())
			s.pages.Flush()
		}
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
