package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// ErrThemeNotFound is returned when a theme key is not in the registry.
var ErrThemeNotFound = errors.New("theme not found")

// Registry is the fixed catalog of themes. It has no mutation operations
// and is safe for concurrent use once constructed.
type Registry struct {
	defaultKey string
	themes     map[string]*Theme
	order      []string
}

// NewRegistry loads every *.toml theme in fsys. Files whose name starts with
// '_' are partials: they can be extended but are not listed as themes.
// Inheritance via "extends" is resolved here; cycles are rejected.
func NewRegistry(fsys fs.FS, defaultKey string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read themes: %w", err)
	}

	raw := make(map[string]*Theme)
	partial := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".toml" {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		t, err := ParseTheme(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		fileKey := strings.TrimPrefix(strings.TrimSuffix(name, ".toml"), "_")
		if fileKey != t.Key {
			return nil, fmt.Errorf("%s: key %q does not match file name", name, t.Key)
		}
		if _, dup := raw[t.Key]; dup {
			return nil, fmt.Errorf("duplicate theme key %q", t.Key)
		}
		raw[t.Key] = t
		partial[t.Key] = strings.HasPrefix(name, "_")
	}

	r := &Registry{
		defaultKey: defaultKey,
		themes:     make(map[string]*Theme),
	}
	for key, t := range raw {
		if partial[key] {
			continue
		}
		if err := resolveExtends(t, raw, nil); err != nil {
			return nil, err
		}
		if err := t.validate(); err != nil {
			return nil, err
		}
		r.themes[key] = t
		r.order = append(r.order, key)
	}

	if _, ok := r.themes[defaultKey]; !ok {
		return nil, fmt.Errorf("%w: default theme %q", ErrThemeNotFound, defaultKey)
	}

	slices.SortFunc(r.order, func(a, b string) int {
		switch {
		case a == defaultKey:
			return -1
		case b == defaultKey:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})

	return r, nil
}

// resolveExtends merges the ancestors of t into it, outermost first.
// The seen map prevents circular inheritance.
func resolveExtends(t *Theme, raw map[string]*Theme, seen map[string]bool) error {
	if t.Extends == "" {
		return nil
	}
	if seen == nil {
		seen = make(map[string]bool)
	}
	if seen[t.Key] {
		return fmt.Errorf("theme %q: circular extends", t.Key)
	}
	seen[t.Key] = true

	base, ok := raw[t.Extends]
	if !ok {
		return fmt.Errorf("theme %q extends %w: %s", t.Key, ErrThemeNotFound, t.Extends)
	}
	if err := resolveExtends(base, raw, seen); err != nil {
		return err
	}
	t.mergeFrom(base)
	t.Extends = ""
	return nil
}

// Get returns the theme for key. The boolean is false when no such theme
// exists; callers fall back rather than fail.
func (r *Registry) Get(key string) (*Theme, bool) {
	t, ok := r.themes[key]
	return t, ok
}

// Has reports whether key names a theme in the registry.
func (r *Registry) Has(key string) bool {
	_, ok := r.themes[key]
	return ok
}

// DefaultKey returns the key of the default theme.
func (r *Registry) DefaultKey() string {
	return r.defaultKey
}

// List returns (key, display name) for every theme, default first.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.order))
	for _, key := range r.order {
		infos = append(infos, r.themes[key].Info())
	}
	return infos
}

// Keys returns all theme keys, default first.
func (r *Registry) Keys() []string {
	return slices.Clone(r.order)
}
