package site

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
)

// BuiltPage records one written page.
type BuiltPage struct {
	Path   string
	File   string
	Theme  string
	Source resolver.Source
	Size   int64
}

// Summary describes a completed build.
type Summary struct {
	OutDir         string
	Pages          []BuiltPage
	StylesheetSize int64
}

// TotalSize returns the number of bytes written.
func (s *Summary) TotalSize() int64 {
	total := s.StylesheetSize
	for _, p := range s.Pages {
		total += p.Size
	}
	return total
}

// String returns a one-line human readable summary.
func (s *Summary) String() string {
	return fmt.Sprintf("built %d pages and stylesheet (%s) in %s",
		len(s.Pages), humanize.Bytes(uint64(s.TotalSize())), s.OutDir)
}

// PageFile returns the output file for a page path relative to outDir.
func PageFile(path string) string {
	p := page.Normalize(path)
	if p == page.Root {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(p), "index.html")
}

// Build renders every route and the stylesheet into outDir. Pages carry the
// theme resolved at build time.
func (r *Renderer) Build(ctx context.Context, outDir string) (*Summary, error) {
	summary := &Summary{OutDir: outDir}

	var css bytes.Buffer
	if err := r.WriteStylesheet(&css); err != nil {
		return nil, fmt.Errorf("failed to generate stylesheet: %w", err)
	}
	cssFile := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(StylesheetPath, "/")))
	if err := writeFile(cssFile, css.Bytes()); err != nil {
		return nil, err
	}
	summary.StylesheetSize = int64(css.Len())

	for _, route := range r.catalog.Routes() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var buf bytes.Buffer
		res, err := r.RenderPage(&buf, route.Path, "", false)
		if err != nil {
			return summary, err
		}

		rel := PageFile(route.Path)
		if err := writeFile(filepath.Join(outDir, rel), buf.Bytes()); err != nil {
			return summary, err
		}

		r.logger.Debug("page built", "page", route.Path, "file", rel, "theme", res.Theme, "source", res.Source)
		summary.Pages = append(summary.Pages, BuiltPage{
			Path:   route.Path,
			File:   rel,
			Theme:  res.Theme,
			Source: res.Source,
			Size:   int64(buf.Len()),
		})
	}

	return summary, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
