package theme

import (
	"embed"
	"io/fs"
	"sync"
)

// EmbeddedThemes contains all bundled theme definitions.
//
//go:embed themes/*.toml
var EmbeddedThemes embed.FS

// DefaultThemeKey is the key of the theme used when nothing else applies.
const DefaultThemeKey = "golf"

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the registry of bundled themes.
// The embedded definitions are parsed on first use; a malformed bundled
// theme is a build defect and panics.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		sub, err := fs.Sub(EmbeddedThemes, "themes")
		if err != nil {
			panic(err)
		}
		builtin, err = NewRegistry(sub, DefaultThemeKey)
		if err != nil {
			panic(err)
		}
	})
	return builtin
}
