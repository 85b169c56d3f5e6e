package theme

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
)

// MarkerAttribute is the root document attribute the stylesheet selects on.
const MarkerAttribute = "data-theme"

// Breakpoints maps responsive variant names to their max-width media query.
var Breakpoints = map[string]string{
	"sm": "640px",
	"md": "768px",
	"lg": "1024px",
}

// breakpointOrder emits wider breakpoints first so narrower ones win.
var breakpointOrder = []string{"lg", "md", "sm"}

var pseudoStates = map[string]struct{}{
	"hover":         {},
	"focus":         {},
	"focus-visible": {},
	"active":        {},
	"disabled":      {},
}

// Selector returns the root selector matching a theme marker value.
func Selector(key string) string {
	return fmt.Sprintf(`:root[%s=%q]`, MarkerAttribute, key)
}

// WriteStylesheet writes the static CSS for every theme in the registry.
// The rules only take effect when the document root marker names the theme.
func WriteStylesheet(w io.Writer, r *Registry) error {
	var b strings.Builder
	b.WriteString("/* generated by fairway; do not edit */\n")

	for _, key := range r.order {
		writeTheme(&b, r.themes[key])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Stylesheet returns the generated CSS as a string.
func Stylesheet(r *Registry) string {
	var b strings.Builder
	_ = WriteStylesheet(&b, r)
	return b.String()
}

func writeTheme(b *strings.Builder, t *Theme) {
	root := Selector(t.Key)

	fmt.Fprintf(b, "\n/* %s */\n%s {\n", t.Name, root)
	for _, token := range sortedKeys(t.Colors) {
		fmt.Fprintf(b, "  --color-%s: %s;\n", token, t.Colors[token])
	}
	b.WriteString("}\n")

	for _, name := range sortedKeys(t.Elements) {
		el := t.Elements[name]
		sel := el.Selector
		if sel == "" {
			sel = name
		}

		writeRule(b, root+" "+sel, el.StyleBlock, "")
		for _, state := range sortedKeys(el.States) {
			pseudo := ":" + state
			if state == "disabled" {
				pseudo = "[disabled]"
			}
			writeRule(b, root+" "+sel+pseudo, el.States[state], "")
		}
		for _, bp := range breakpointOrder {
			block, ok := el.Responsive[bp]
			if !ok {
				continue
			}
			fmt.Fprintf(b, "@media (max-width: %s) {\n", Breakpoints[bp])
			writeRule(b, root+" "+sel, block, "  ")
			b.WriteString("}\n")
		}
	}
}

func writeRule(b *strings.Builder, selector string, s StyleBlock, indent string) {
	decls := s.declarations()
	if len(decls) == 0 {
		return
	}
	fmt.Fprintf(b, "%s%s {\n", indent, selector)
	for _, d := range decls {
		fmt.Fprintf(b, "%s  %s: %s;\n", indent, d[0], d[1])
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

// declarations returns the CSS property/value pairs for the block in a
// fixed order.
func (s StyleBlock) declarations() [][2]string {
	var out [][2]string
	add := func(prop, value string) {
		if value != "" {
			out = append(out, [2]string{prop, TokenValue(value)})
		}
	}
	add("font-size", s.Size)
	add("font-weight", s.Weight)
	add("letter-spacing", s.Spacing)
	add("line-height", s.LineHeight)
	add("color", s.Color)
	add("background", s.Background)
	add("border", s.Border)
	add("border-radius", s.Radius)
	add("padding", s.Padding)
	add("transform", s.Transform)
	return out
}

// tokenRefRegex matches "$token" references inside a declaration value.
var tokenRefRegex = regexp.MustCompile(`\$([a-z][a-z0-9-]*)`)

// TokenValue expands "$token" references into CSS custom property lookups,
// e.g. "2px solid $accent" becomes "2px solid var(--color-accent)".
func TokenValue(v string) string {
	return tokenRefRegex.ReplaceAllString(v, "var(--color-$1)")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
