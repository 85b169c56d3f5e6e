package site

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

func newTestRenderer(t *testing.T) (*Renderer, *store.Assignments) {
	t.Helper()

	m, err := page.LoadDefaultManifest()
	require.NoError(t, err)
	catalog := page.NewCatalog(m)

	assignments := store.NewAssignments(store.NewMemoryKV(), store.Options{Classifier: catalog.Classifier()})
	res := resolver.New(theme.Builtin(), assignments, resolver.Options{VerifyDelay: -1})

	r, err := NewRenderer(catalog, res, nil)
	require.NoError(t, err)
	return r, assignments
}

func TestRenderPage_DefaultTheme(t *testing.T) {
	r, _ := newTestRenderer(t)

	var buf bytes.Buffer
	res, err := r.RenderPage(&buf, "/", "", false)
	require.NoError(t, err)

	assert.Equal(t, resolver.Result{Theme: "golf", Source: resolver.SourceDefault}, res)
	html := buf.String()
	assert.Contains(t, html, `<html lang="en" data-theme="golf">`)
	assert.Contains(t, html, `href="/assets/themes.css"`)
	assert.Contains(t, html, "Live on the fairway")
	assert.Contains(t, html, `class="feature-card"`)
	assert.Contains(t, html, `action="mailto:sales@costafairwayhomes.example"`)
	assert.NotContains(t, html, "<script>")
}

func TestRenderPage_Precedence(t *testing.T) {
	r, assignments := newTestRenderer(t)
	assignments.Upsert("new-build-golf-properties-costa-blanca-modern", "midnight")

	tests := []struct {
		name     string
		path     string
		explicit string
		want     resolver.Result
	}{
		{"route theme", "/contact", "", resolver.Result{Theme: "coastal", Source: resolver.SourceExplicit}},
		{"query beats route theme", "/contact", "sand", resolver.Result{Theme: "sand", Source: resolver.SourceExplicit}},
		{"variant assignment", "/new-build-golf-properties-murcia", "", resolver.Result{Theme: "midnight", Source: resolver.SourceAssignment}},
		{"unknown query ignored", "/new-build-golf-properties-costa-blanca", "bogus", resolver.Result{Theme: "midnight", Source: resolver.SourceAssignment}},
		{"no assignment", "/developments", "", resolver.Result{Theme: "golf", Source: resolver.SourceDefault}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			res, err := r.RenderPage(&buf, tt.path, tt.explicit, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
			assert.Contains(t, buf.String(), `data-theme="`+tt.want.Theme+`"`)
		})
	}
}

func TestRenderPage_NotFound(t *testing.T) {
	r, _ := newTestRenderer(t)

	_, err := r.RenderPage(&bytes.Buffer{}, "/nowhere", "", false)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestRenderPage_Live(t *testing.T) {
	r, _ := newTestRenderer(t)

	var buf bytes.Buffer
	_, err := r.RenderPage(&buf, "developments", "", true)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "/ws?page=")
	assert.Contains(t, html, `"developments"`)
	assert.Contains(t, html, `aria-current="page"`)
	assert.Contains(t, html, `class="carousel-slide"`)
	assert.Contains(t, html, `var explicit = "";`)
}

func TestRenderPage_LiveCarriesExplicitTheme(t *testing.T) {
	r, _ := newTestRenderer(t)

	var buf bytes.Buffer
	res, err := r.RenderPage(&buf, "developments", "midnight", true)
	require.NoError(t, err)
	assert.Equal(t, "midnight", res.Theme)

	html := buf.String()
	assert.Contains(t, html, `data-theme="midnight"`)
	assert.Contains(t, html, `var explicit = "midnight";`)
	assert.Contains(t, html, `"&theme=" + encodeURIComponent(explicit)`)
}

func TestPageFile(t *testing.T) {
	assert.Equal(t, "index.html", PageFile("/"))
	assert.Equal(t, filepath.Join("contact", "index.html"), PageFile("/contact/"))
}

func TestBuild(t *testing.T) {
	r, assignments := newTestRenderer(t)
	assignments.Upsert("/", "sand")
	out := t.TempDir()

	summary, err := r.Build(context.Background(), out)
	require.NoError(t, err)

	assert.Len(t, summary.Pages, len(r.Catalog().Routes()))
	assert.Positive(t, summary.StylesheetSize)
	assert.Greater(t, summary.TotalSize(), summary.StylesheetSize)
	assert.Contains(t, summary.String(), "built 6 pages")

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), `data-theme="sand"`)

	contact, err := os.ReadFile(filepath.Join(out, "contact", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(contact), `data-theme="coastal"`)

	css, err := os.ReadFile(filepath.Join(out, "assets", "themes.css"))
	require.NoError(t, err)
	for _, key := range theme.Builtin().Keys() {
		assert.Contains(t, string(css), theme.Selector(key))
	}
}

func TestBuild_Cancelled(t *testing.T) {
	r, _ := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Build(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
