package resolver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

// DefaultVerifyDelay is how long after Apply the marker is checked.
const DefaultVerifyDelay = 50 * time.Millisecond

// Source records which precedence step produced a resolved theme.
type Source string

const (
	SourceExplicit   Source = "explicit"
	SourceAssignment Source = "assignment"
	SourceDefault    Source = "default"
)

// AssignmentFinder looks up the stored assignment for a page.
// *store.Assignments implements it.
type AssignmentFinder interface {
	FindFor(id page.Identity) (store.Assignment, bool)
}

// Result is a resolved theme and how it was chosen.
type Result struct {
	Theme  string `json:"theme"`
	Source Source `json:"source"`
}

// Options configures a Resolver.
type Options struct {
	Logger *slog.Logger

	// VerifyDelay is the delay before post-apply verification. Zero uses
	// DefaultVerifyDelay; a negative value disables verification.
	VerifyDelay time.Duration
}

// Resolver computes the effective theme for a page and applies it to a
// Document. It holds no per-page state and is safe for concurrent use.
type Resolver struct {
	registry    *theme.Registry
	assignments AssignmentFinder
	logger      *slog.Logger
	verifyDelay time.Duration
}

// New creates a Resolver. assignments may be nil, in which case only
// explicit requests and the default are considered.
func New(registry *theme.Registry, assignments AssignmentFinder, opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.VerifyDelay == 0 {
		opts.VerifyDelay = DefaultVerifyDelay
	}

	return &Resolver{
		registry:    registry,
		assignments: assignments,
		logger:      opts.Logger,
		verifyDelay: opts.VerifyDelay,
	}
}

// Registry returns the theme registry.
func (r *Resolver) Registry() *theme.Registry {
	return r.registry
}

// Resolve returns the theme key for a page. Precedence, first match wins:
//  1. explicit, if it names a registered theme
//  2. the stored assignment for an equivalent page, if its theme is registered
//  3. the registry default
//
// Unknown keys at steps 1 and 2 are skipped with a warning, never returned.
func (r *Resolver) Resolve(explicit string, id page.Identity) string {
	return r.ResolveWithSource(explicit, id).Theme
}

// ResolveWithSource is Resolve, also reporting which step matched.
func (r *Resolver) ResolveWithSource(explicit string, id page.Identity) Result {
	if explicit != "" {
		if r.registry.Has(explicit) {
			return Result{Theme: explicit, Source: SourceExplicit}
		}
		r.logger.Warn("explicit theme request names an unknown theme, ignoring it",
			"theme", explicit, "page", id.Path)
	}

	if r.assignments != nil {
		if as, ok := r.assignments.FindFor(id); ok {
			if r.registry.Has(as.ThemeID) {
				return Result{Theme: as.ThemeID, Source: SourceAssignment}
			}
			r.logger.Warn("stored theme assignment names an unknown theme, ignoring it",
				"theme", as.ThemeID, "page", id.Path, "assigned_page", as.PagePath)
		}
	}

	return Result{Theme: r.registry.DefaultKey(), Source: SourceDefault}
}

// Apply sets doc's marker to key, substituting the default for unknown
// keys. It returns the key actually applied. Verification runs after the
// configured delay and only logs.
func (r *Resolver) Apply(doc Document, key string) string {
	if !r.registry.Has(key) {
		r.logger.Warn("cannot apply unknown theme, using default",
			"theme", key, "default", r.registry.DefaultKey())
		key = r.registry.DefaultKey()
	}

	doc.SetMarker(key)
	r.logger.Debug("applied theme", "theme", key)

	if r.verifyDelay > 0 {
		time.AfterFunc(r.verifyDelay, func() {
			if err := r.Verify(doc, key); err != nil {
				r.logger.Error("theme verification failed", "theme", key, "error", err)
			}
		})
	}

	return key
}

// Verify checks that doc's marker is key and the primary color token
// resolves to a non-empty value.
func (r *Resolver) Verify(doc Document, key string) error {
	if got := doc.Marker(); got != key {
		return fmt.Errorf("marker is %q, want %q", got, key)
	}
	if doc.TokenValue(theme.PrimaryToken) == "" {
		return fmt.Errorf("token %q does not resolve under %q", theme.PrimaryToken, key)
	}
	return nil
}
