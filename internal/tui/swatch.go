package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/fairway/internal/theme"
)

// swatchTokens are the color tokens shown in a theme swatch, in order.
var swatchTokens = []string{"primary", "accent", "background", "surface", "text"}

// Swatch renders a row of color blocks for t's main tokens.
func Swatch(t *theme.Theme) string {
	var b strings.Builder
	for _, token := range swatchTokens {
		c := t.Color(token)
		if c == "" {
			continue
		}
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("   "))
	}
	return b.String()
}

// SwatchTable renders every color token of t with a sample block.
func SwatchTable(t *theme.Theme) string {
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(16)

	var b strings.Builder
	for _, token := range t.ColorTokens() {
		c := t.Color(token)
		b.WriteString(keyStyle.Render(token))
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("      "))
		b.WriteString(" ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}
