package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

// Provider owns the current-theme Document for one viewing context and
// keeps it in step with the page being shown and the stored assignments.
type Provider struct {
	mu          sync.Mutex
	resolver    *Resolver
	assignments *store.Assignments
	doc         Document
	logger      *slog.Logger

	current  page.Identity
	explicit string
	mounted  bool
}

// NewProvider creates a provider applying themes to doc. If doc is nil a
// new Cell is used.
func NewProvider(r *Resolver, assignments *store.Assignments, doc Document, logger *slog.Logger) *Provider {
	if doc == nil {
		doc = NewCell(r.Registry())
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		resolver:    r,
		assignments: assignments,
		doc:         doc,
		logger:      logger,
	}
}

// Document returns the document the provider applies themes to.
func (p *Provider) Document() Document {
	return p.doc
}

// Mount resolves and applies the theme for the page at path. explicit is
// the page's own theme request and may be empty.
func (p *Provider) Mount(path, explicit string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.assignments.Classifier().Identify(path)
	p.explicit = explicit
	p.mounted = true
	return p.refreshLocked()
}

// Current returns the identity of the mounted page and whether a page is
// mounted.
func (p *Provider) Current() (page.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.mounted
}

// Theme returns the applied theme key.
func (p *Provider) Theme() string {
	return p.doc.Marker()
}

// Assign stores a theme for path. If the mounted page is equivalent to
// path the theme is re-applied immediately. Unknown theme keys are
// rejected rather than stored.
func (p *Provider) Assign(path, themeKey string) error {
	if !p.resolver.Registry().Has(themeKey) {
		return fmt.Errorf("%w: %s", theme.ErrThemeNotFound, themeKey)
	}

	p.assignments.Upsert(path, themeKey)

	p.mu.Lock()
	defer p.mu.Unlock()

	target := p.assignments.Classifier().Identify(path)
	if p.mounted && page.Equivalent(p.current, target) {
		p.logger.Debug("assignment affects mounted page, re-applying", "page", p.current.Path)
		p.refreshLocked()
	}
	return nil
}

// Reset removes all assignments and re-applies the mounted page's theme.
func (p *Provider) Reset() {
	p.assignments.ResetAll()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mounted {
		p.refreshLocked()
	}
}

// Refresh re-resolves and re-applies the mounted page's theme.
func (p *Provider) Refresh() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return p.doc.Marker()
	}
	return p.refreshLocked()
}

// Watch re-applies the mounted page's theme whenever the stored
// assignments change, including changes made by other processes. It
// returns when ctx is cancelled or the assignments are closed.
func (p *Provider) Watch(ctx context.Context) {
	p.Follow(ctx, p.Subscribe())
}

// Subscribe registers for assignment changes without consuming them.
// Callers that must not miss a change made during Mount subscribe first
// and pass the channel to Follow.
func (p *Provider) Subscribe() <-chan store.ChangeEvent {
	return p.assignments.Subscribe()
}

// Follow consumes events from a channel returned by Subscribe until ctx is
// cancelled or the channel closes, then unsubscribes it.
func (p *Provider) Follow(ctx context.Context, events <-chan store.ChangeEvent) {
	defer p.assignments.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if p.affects(ev) {
				p.Refresh()
			}
		}
	}
}

func (p *Provider) affects(ev store.ChangeEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.mounted {
		return false
	}
	if ev.Type != store.ChangeTypeUpsert {
		return true
	}
	return page.Equivalent(p.current, p.assignments.Classifier().Identify(ev.PagePath))
}

func (p *Provider) refreshLocked() string {
	key := p.resolver.Resolve(p.explicit, p.current)
	return p.resolver.Apply(p.doc, key)
}
