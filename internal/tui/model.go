// Package tui provides the BubbleTea-based theme administration panel.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/fairway/internal/page"
	"github.com/jmylchreest/fairway/internal/resolver"
	"github.com/jmylchreest/fairway/internal/store"
	"github.com/jmylchreest/fairway/internal/theme"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModePages Mode = iota
	ModeThemes
	ModeHelp
)

// Model is the main TUI model.
type Model struct {
	catalog     *page.Catalog
	resolver    *resolver.Resolver
	assignments *store.Assignments
	provider    *resolver.Provider

	mode Mode

	pages  list.Model
	themes list.Model

	width  int
	height int
	ready  bool

	keys KeyMap

	statusMsg string
	statusErr bool

	refreshCh <-chan store.ChangeEvent
}

// pageItem is a catalog route with its effective theme.
type pageItem struct {
	route  page.Route
	result resolver.Result
}

func (i pageItem) Title() string {
	return i.route.Name
}

func (i pageItem) Description() string {
	desc := fmt.Sprintf("%s  %s (%s)", page.URL(i.route.Path), i.result.Theme, i.result.Source)
	if i.route.Group != "" {
		desc += "  group:" + string(i.route.Group)
	}
	return desc
}

func (i pageItem) FilterValue() string {
	return i.route.Name + " " + i.route.Path
}

// themeItem wraps a registry theme for the picker.
type themeItem struct {
	theme   *theme.Theme
	current bool
}

func (i themeItem) Title() string {
	title := i.theme.Name
	if i.current {
		title += " ●"
	}
	return title
}

func (i themeItem) Description() string {
	return i.theme.Key
}

func (i themeItem) FilterValue() string {
	return i.theme.Key + " " + i.theme.Name
}

// themeDelegate prefixes each theme with its color swatch.
type themeDelegate struct {
	list.DefaultDelegate
}

func newThemeDelegate() themeDelegate {
	return themeDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a theme entry with its swatch on the description line.
func (d themeDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(themeItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	titleStyle := d.Styles.NormalTitle
	descStyle := d.Styles.NormalDesc
	if index == m.Index() {
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
	}

	fmt.Fprint(w, titleStyle.Render(ti.Title()))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(Swatch(ti.theme)+" "+ti.Description()))
}

// New creates a new TUI model. provider is used for the selected page and
// must be built over the same assignments.
func New(catalog *page.Catalog, res *resolver.Resolver, assignments *store.Assignments, provider *resolver.Provider) Model {
	pages := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	pages.Title = "Page Themes"
	pages.SetShowStatusBar(true)
	pages.SetShowHelp(false)
	pages.SetFilteringEnabled(true)
	pages.DisableQuitKeybindings()

	themes := list.New(nil, newThemeDelegate(), 0, 0)
	themes.SetShowStatusBar(false)
	themes.SetShowHelp(false)
	themes.SetFilteringEnabled(false)
	themes.DisableQuitKeybindings()

	m := Model{
		catalog:     catalog,
		resolver:    res,
		assignments: assignments,
		provider:    provider,
		mode:        ModePages,
		pages:       pages,
		themes:      themes,
		keys:        DefaultKeyMap(),
	}

	if assignments != nil {
		m.refreshCh = assignments.Subscribe()
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return loadPagesMsg{} },
		m.watchForChanges,
	)
}

type loadPagesMsg struct{}

type refreshMsg struct{}

// watchForChanges waits for an assignment change, including changes written
// by another process and picked up by the store watcher.
func (m Model) watchForChanges() tea.Msg {
	if m.refreshCh == nil {
		return nil
	}
	if _, ok := <-m.refreshCh; !ok {
		return nil
	}
	return refreshMsg{}
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.pages.SetSize(msg.Width, msg.Height-2)
		m.themes.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case loadPagesMsg:
		m.reloadPages()
		return m, nil

	case refreshMsg:
		m.reloadPages()
		return m, m.watchForChanges

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModePages:
		m.pages, cmd = m.pages.Update(msg)
	case ModeThemes:
		m.themes, cmd = m.themes.Update(msg)
	}
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == ModePages && m.pages.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.pages, cmd = m.pages.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModePages
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModePages:
		return m.handlePagesKey(msg)
	case ModeThemes:
		return m.handleThemesKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModePages
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handlePagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		item, ok := m.pages.SelectedItem().(pageItem)
		if !ok {
			return m, nil
		}
		m.provider.Mount(item.route.Path, item.route.Theme)
		m.openThemePicker(item)
		return m, nil

	case key.Matches(msg, m.keys.ResetAll):
		m.provider.Reset()
		m.reloadPages()
		return m, status("All theme assignments cleared", false)

	case key.Matches(msg, m.keys.Refresh):
		m.assignments.Hydrate()
		m.reloadPages()
		return m, status("Reloaded from storage", false)
	}

	var cmd tea.Cmd
	m.pages, cmd = m.pages.Update(msg)
	return m, cmd
}

func (m Model) handleThemesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModePages
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		pi, ok := m.pages.SelectedItem().(pageItem)
		if !ok {
			m.mode = ModePages
			return m, nil
		}
		ti, ok := m.themes.SelectedItem().(themeItem)
		if !ok {
			return m, nil
		}

		if err := m.provider.Assign(pi.route.Path, ti.theme.Key); err != nil {
			return m, status("Assign failed: "+err.Error(), true)
		}
		m.mode = ModePages
		m.reloadPages()

		text := fmt.Sprintf("%s → %s", pi.route.Name, ti.theme.Name)
		if err := m.assignments.Err(); err != nil {
			return m, status(text+" (not saved: "+err.Error()+")", true)
		}
		if applied := m.provider.Theme(); applied != ti.theme.Key {
			text += fmt.Sprintf(" (page shows %s)", applied)
		}
		return m, status(text, false)
	}

	var cmd tea.Cmd
	m.themes, cmd = m.themes.Update(msg)
	return m, cmd
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

func (m *Model) openThemePicker(pi pageItem) {
	registry := m.resolver.Registry()
	items := make([]list.Item, 0, len(registry.Keys()))
	selected := 0
	for i, k := range registry.Keys() {
		t, _ := registry.Get(k)
		current := k == pi.result.Theme
		if current {
			selected = i
		}
		items = append(items, themeItem{theme: t, current: current})
	}

	m.themes.Title = "Theme for " + pi.route.Name
	m.themes.SetItems(items)
	m.themes.Select(selected)
	m.mode = ModeThemes
}

// reloadPages recomputes every page's effective theme.
func (m *Model) reloadPages() {
	routes := m.catalog.Routes()
	items := make([]list.Item, 0, len(routes))
	for _, r := range routes {
		items = append(items, pageItem{
			route:  r,
			result: m.resolver.ResolveWithSource(r.Theme, m.catalog.Identify(r.Path)),
		})
	}
	m.pages.SetItems(items)
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModePages:
		return m.pages.View() + "\n" + m.footer("pages")
	case ModeThemes:
		return m.viewThemes()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m Model) viewThemes() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	header := headerStyle.Render("Current: " + m.provider.Theme())
	return header + "\n" + m.themes.View() + "\n" + m.footer("themes")
}

func (m Model) footer(mode string) string {
	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return statusStyle.Render(m.statusMsg)
	}
	return m.buildKeybindBar(m.width, mode)
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	s += sectionStyle.Render("Pages") + "\n"
	s += keyStyle.Render("  j/k, ↑/↓") + "     Move up/down\n"
	s += keyStyle.Render("  enter") + "        Choose a theme for the page\n"
	s += keyStyle.Render("  /") + "            Filter pages\n"
	s += keyStyle.Render("  R") + "            Reset all assignments\n"
	s += keyStyle.Render("  r") + "            Reload from storage\n"
	s += "\n"

	s += sectionStyle.Render("Themes") + "\n"
	s += keyStyle.Render("  enter") + "        Apply theme\n"
	s += keyStyle.Render("  esc") + "          Back\n"
	s += "\n"

	s += sectionStyle.Render("General") + "\n"
	s += keyStyle.Render("  ?") + "            Toggle this help\n"
	s += keyStyle.Render("  q") + "            Quit\n"

	s += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Press ? or esc to return")

	return s
}

// buildKeybindBar builds a keybind bar that fits within the given width.
func (m Model) buildKeybindBar(width int, mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds [][2]string
	switch mode {
	case "pages":
		binds = [][2]string{{"q", "quit"}, {"enter", "theme"}, {"?", "help"}, {"/", "filter"}, {"R", "reset all"}, {"r", "reload"}}
	case "themes":
		binds = [][2]string{{"enter", "apply"}, {"esc", "back"}, {"↑/↓", "navigate"}}
	}

	const separator = "  "
	var plain, styled strings.Builder
	for _, b := range binds {
		item := b[0] + " " + b[1]
		added := len(item)
		if plain.Len() > 0 {
			added += len(separator)
		}
		if width > 0 && plain.Len()+added > width {
			break
		}
		if plain.Len() > 0 {
			plain.WriteString(separator)
			styled.WriteString(separator)
		}
		plain.WriteString(item)
		styled.WriteString(keyStyle.Render(b[0]) + " " + b[1])
	}

	return style.Render(styled.String())
}

// RunOptions configures the TUI.
type RunOptions struct {
	Catalog     *page.Catalog
	Resolver    *resolver.Resolver
	Assignments *store.Assignments
	StorePath   string // FileKV path to watch for external changes (empty = no watching)
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	var watcher *store.FileWatcher
	if opts.StorePath != "" {
		var err error
		watcher, err = store.NewFileWatcher(opts.Assignments, opts.StorePath, nil)
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			return fmt.Errorf("failed to watch store: %w", err)
		}
		defer watcher.Stop()
	}

	provider := resolver.NewProvider(opts.Resolver, opts.Assignments, nil, nil)
	m := New(opts.Catalog, opts.Resolver, opts.Assignments, provider)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
