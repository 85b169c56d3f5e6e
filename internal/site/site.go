// Package site renders the landing pages described by the site manifest.
// Every page carries its resolved theme as the root data-theme marker and
// links the generated theme stylesheet.
package site

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/theme"
)

// StylesheetPath is the URL path of the generated theme stylesheet.
const StylesheetPath = "/assets/themes.css"

//go:embed templates/*.html
var templateFS embed.FS

// ErrPageNotFound is returned when a path is not in the catalog.
var ErrPageNotFound = errors.New("page not found")

// Renderer renders catalog routes to HTML.
type Renderer struct {
	tmpl     *template.Template
	catalog  *page.Catalog
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// PageData is the template input for one page.
type PageData struct {
	Site       page.SiteInfo
	Route      page.Route
	Title      string
	Theme      string
	Explicit   string // Requested theme; the live client asks for the same one
	Stylesheet string
	Nav        []page.Route
	Sections   []SectionData
	Live       bool
}

// SectionData is a manifest section plus the site fields section
// components need.
type SectionData struct {
	page.Section
	Email string
}

// NewRenderer parses the embedded templates.
func NewRenderer(catalog *page.Catalog, res *resolver.Resolver, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("site").
		Funcs(template.FuncMap{"pageURL": page.URL}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		tmpl:     tmpl,
		catalog:  catalog,
		resolver: res,
		logger:   logger,
	}, nil
}

// Catalog returns the route catalog.
func (r *Renderer) Catalog() *page.Catalog {
	return r.catalog
}

// Resolve returns the effective theme for path. The explicit request wins
// over the route's own theme.
func (r *Renderer) Resolve(path, explicit string) resolver.Result {
	if explicit == "" {
		if route, ok := r.catalog.Lookup(path); ok {
			explicit = route.Theme
		}
	}
	return r.resolver.ResolveWithSource(explicit, r.catalog.Identify(path))
}

// RenderPage resolves the theme for path and writes the page. live adds
// the websocket client that re-applies theme changes.
func (r *Renderer) RenderPage(w io.Writer, path, explicit string, live bool) (resolver.Result, error) {
	route, ok := r.catalog.Lookup(path)
	if !ok {
		return resolver.Result{}, fmt.Errorf("%w: %s", ErrPageNotFound, page.Normalize(path))
	}

	res := r.Resolve(path, explicit)
	doc := resolver.NewCell(r.resolver.Registry())
	res.Theme = r.resolver.Apply(doc, res.Theme)

	if err := r.render(w, route, doc.Marker(), explicit, live); err != nil {
		return res, err
	}
	return res, nil
}

// render writes route with themeKey as its root marker.
func (r *Renderer) render(w io.Writer, route page.Route, themeKey, explicit string, live bool) error {
	site := r.catalog.Site()

	title := route.Title
	if title == "" {
		title = route.Name
	}
	if site.Name != "" {
		title += " | " + site.Name
	}

	sections := make([]SectionData, 0, len(route.Sections))
	for _, s := range route.Sections {
		sections = append(sections, SectionData{Section: s, Email: site.Email})
	}

	data := PageData{
		Site:       site,
		Route:      route,
		Title:      title,
		Theme:      themeKey,
		Explicit:   explicit,
		Stylesheet: StylesheetPath,
		Nav:        r.catalog.Routes(),
		Sections:   sections,
		Live:       live,
	}

	if err := r.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("render %s: %w", route.Path, err)
	}
	return nil
}

// WriteStylesheet writes the theme stylesheet for the resolver's registry.
func (r *Renderer) WriteStylesheet(w io.Writer) error {
	return theme.WriteStylesheet(w, r.resolver.Registry())
}
