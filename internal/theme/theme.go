package theme

import (
	"fmt"
	"maps"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// PrimaryToken is the color token every theme must define.
// Post-apply verification reads it to confirm styling took effect.
const PrimaryToken = "primary"

// keyRegex restricts theme keys to the characters that are safe inside a
// CSS attribute selector.
var keyRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Theme is an immutable bundle of color and element-style tokens.
type Theme struct {
	Key      string                  `toml:"key"`
	Name     string                  `toml:"name"`
	Extends  string                  `toml:"extends"` // Key of a theme to inherit tokens from
	Colors   map[string]string       `toml:"colors"`
	Elements map[string]ElementStyle `toml:"elements"`
}

// StyleBlock is a set of declarations for one element, state or breakpoint.
// Values beginning with '$' reference a color token, e.g. "$primary".
type StyleBlock struct {
	Size       string `toml:"size"`
	Weight     string `toml:"weight"`
	Spacing    string `toml:"spacing"`
	LineHeight string `toml:"line_height"`
	Color      string `toml:"color"`
	Background string `toml:"background"`
	Border     string `toml:"border"`
	Radius     string `toml:"radius"`
	Padding    string `toml:"padding"`
	Transform  string `toml:"transform"`
}

// ElementStyle describes how one page element is styled under a theme.
type ElementStyle struct {
	StyleBlock

	Selector   string                `toml:"selector"`   // Defaults to the element name
	States     map[string]StyleBlock `toml:"states"`     // hover, focus, active, ...
	Responsive map[string]StyleBlock `toml:"responsive"` // sm, md, lg
}

// Info is the listing form of a theme.
type Info struct {
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name" yaml:"name"`
}

// ParseTheme decodes a TOML theme definition.
func ParseTheme(data []byte) (*Theme, error) {
	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	if !keyRegex.MatchString(t.Key) {
		return nil, fmt.Errorf("invalid theme key %q", t.Key)
	}
	if t.Name == "" {
		t.Name = t.Key
	}
	if t.Colors == nil {
		t.Colors = make(map[string]string)
	}
	if t.Elements == nil {
		t.Elements = make(map[string]ElementStyle)
	}
	return &t, nil
}

// Info returns the listing form of the theme.
func (t *Theme) Info() Info {
	return Info{Key: t.Key, Name: t.Name}
}

// Color returns the value of a color token, or "" if the theme lacks it.
func (t *Theme) Color(token string) string {
	return t.Colors[token]
}

// ColorTokens returns the theme's color token names in sorted order.
func (t *Theme) ColorTokens() []string {
	return sortedKeys(t.Colors)
}

// ElementNames returns the theme's element style names in sorted order.
func (t *Theme) ElementNames() []string {
	return sortedKeys(t.Elements)
}

// validate checks a fully merged theme.
func (t *Theme) validate() error {
	if t.Colors[PrimaryToken] == "" {
		return fmt.Errorf("theme %q: missing %q color token", t.Key, PrimaryToken)
	}
	for name, el := range t.Elements {
		for state := range el.States {
			if _, ok := pseudoStates[state]; !ok {
				return fmt.Errorf("theme %q: element %q: unknown state %q", t.Key, name, state)
			}
		}
		for bp := range el.Responsive {
			if _, ok := Breakpoints[bp]; !ok {
				return fmt.Errorf("theme %q: element %q: unknown breakpoint %q", t.Key, name, bp)
			}
		}
	}
	return nil
}

// mergeFrom fills tokens missing on t with the values from base.
// Element styles are inherited whole; a child that defines an element
// replaces the parent's definition of it.
func (t *Theme) mergeFrom(base *Theme) {
	colors := maps.Clone(base.Colors)
	maps.Copy(colors, t.Colors)
	t.Colors = colors

	elements := maps.Clone(base.Elements)
	maps.Copy(elements, t.Elements)
	t.Elements = elements
}
