// Package tui is the interactive terminal browser behind "taxonomy browse".
//
// The browser loads one snapshot, then filters, builds and flattens it
// locally on every keystroke: expanding a cluster or typing in the search box
// never hits the API. Refresh reloads the snapshot and keeps the cursor on
// the same cluster when it still exists.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

// Loader fetches the data to browse.
type Loader interface {
	LoadSnapshot(ctx context.Context) (apiclient.Snapshot, error)
}

type snapshotMsg struct {
	snap apiclient.Snapshot
	err  error
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89b4fa"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89b4fa"))

	nameStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Faint(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94e2d5"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f9e2af"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f38ba8"))
)

// Model is the Bubble Tea model of the tree browser.
type Model struct {
	ctx    context.Context
	loader Loader
	keys   keyMap
	help   help.Model
	search textinput.Model

	snap     apiclient.Snapshot
	spec     core.FilterSpec
	roots    []*hierarchy.Node
	rows     []hierarchy.Row
	expanded map[string]bool
	cursor   int

	loading bool
	err     error
	width   int
	height  int
}

// New creates a browser starting with the given filter.
func New(ctx context.Context, loader Loader, spec core.FilterSpec) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search names and tags"
	ti.CharLimit = 100

	spec = spec.Normalize()
	ti.SetValue(spec.Search)

	return Model{
		ctx:      ctx,
		loader:   loader,
		keys:     defaultKeyMap(),
		help:     help.New(),
		search:   ti,
		spec:     spec,
		expanded: make(map[string]bool),
		loading:  true,
		width:    80,
		height:   24,
	}
}

// Run starts the browser full screen and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, loader Loader, spec core.FilterSpec, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, loader, spec), opts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

func (m Model) load() tea.Cmd {
	ctx, loader := m.ctx, m.loader
	return func() tea.Msg {
		snap, err := loader.LoadSnapshot(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			// keep showing the previous snapshot
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		first := m.snap.IsZero()
		m.snap = msg.snap
		m.rebuild()
		if first {
			for _, r := range m.roots {
				m.expanded[r.UID()] = true
			}
			m.rebuild()
		}
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateTree(msg)
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.setSearch("")
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setSearch(m.search.Value())
	return m, cmd
}

func (m Model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.move(-1)

	case key.Matches(msg, m.keys.Down):
		m.move(1)

	case key.Matches(msg, m.keys.Expand):
		if row, ok := m.current(); ok && !row.Node.IsLeaf() {
			m.expanded[row.Node.UID()] = true
			m.rebuild()
		}

	case key.Matches(msg, m.keys.Collapse):
		row, ok := m.current()
		if !ok {
			break
		}
		if row.Expanded {
			m.expanded[row.Node.UID()] = false
			m.rebuild()
			break
		}
		m.selectUID(row.Node.Cluster.ParentUID)

	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.current(); ok && !row.Node.IsLeaf() {
			m.expanded[row.Node.UID()] = !row.Expanded
			m.rebuild()
		}

	case key.Matches(msg, m.keys.ExpandAll):
		hierarchy.Walk(m.roots, func(n *hierarchy.Node, _ int) bool {
			m.expanded[n.UID()] = true
			return true
		})
		m.rebuild()

	case key.Matches(msg, m.keys.CollapseAll):
		m.expanded = make(map[string]bool)
		m.rebuild()

	case key.Matches(msg, m.keys.ActiveOnly):
		if m.spec.Status == core.StatusActive {
			m.spec.Status = core.StatusAll
		} else {
			m.spec.Status = core.StatusActive
		}
		m.rebuild()

	case key.Matches(msg, m.keys.Search):
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.load()
	}

	return m, nil
}

func (m *Model) setSearch(term string) {
	term = strings.TrimSpace(term)
	if term == m.spec.Search {
		return
	}
	m.spec.Search = term
	m.rebuild()
}

// rebuild derives the visible rows from the snapshot and keeps the cursor on
// the selected cluster when it is still visible.
func (m *Model) rebuild() {
	selected := ""
	if row, ok := m.current(); ok {
		selected = row.Node.UID()
	}

	res := filter.Flat(m.snap.Clusters, m.snap.Areas, m.snap.Tags, m.spec)
	clusters := res.Clusters
	expanded := m.expanded
	if m.spec.Search != "" {
		clusters = filter.WithAncestors(m.snap.Clusters, clusters)
		// every match is shown while searching
		expanded = nil
	}
	m.roots = hierarchy.BuildWithAreas(clusters, res.Areas)
	m.rows = hierarchy.Flatten(m.roots, expanded)

	if !m.selectUID(selected) {
		m.cursor = min(m.cursor, len(m.rows)-1)
		m.cursor = max(m.cursor, 0)
	}
}

func (m *Model) selectUID(uid string) bool {
	if uid == "" {
		return false
	}
	for i, row := range m.rows {
		if row.Node.UID() == uid {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m *Model) move(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.rows)-1, m.cursor+delta))
}

func (m Model) current() (hierarchy.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return hierarchy.Row{}, false
	}
	return m.rows[m.cursor], true
}

// Selected returns the cluster under the cursor.
func (m Model) Selected() (core.Cluster, bool) {
	row, ok := m.current()
	if !ok {
		return core.Cluster{}, false
	}
	return row.Node.Cluster, true
}

func (m Model) treeHeight() int {
	// title (2) + search (1) + details (max 6) + help (2)
	return max(3, m.height-11)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render("Taxonomy"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.summary()))
	b.WriteString("\n")

	if m.search.Focused() || m.search.Value() != "" {
		b.WriteString("  ")
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	switch {
	case m.loading && m.snap.IsZero():
		b.WriteString("  Loading taxonomy...\n")
	case m.err != nil:
		b.WriteString("  ")
		b.WriteString(errorStyle.Render("! " + m.err.Error()))
		b.WriteString("\n")
	}

	if len(m.rows) == 0 && !m.snap.IsZero() {
		b.WriteString(dimStyle.Render("  No clusters match"))
		b.WriteString("\n")
	}

	offset := m.scrollOffset()
	end := min(len(m.rows), offset+m.treeHeight())
	for i := offset; i < end; i++ {
		b.WriteString(m.renderRow(m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}
	if len(m.rows) > m.treeHeight() {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d-%d of %d", offset+1, end, len(m.rows))))
		b.WriteString("\n")
	}

	b.WriteString(m.details())
	b.WriteString("\n  ")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) scrollOffset() int {
	h := m.treeHeight()
	if m.cursor < h {
		return 0
	}
	return m.cursor - h + 1
}

func (m Model) summary() string {
	parts := []string{fmt.Sprintf("%d clusters", hierarchy.Count(m.roots))}
	if m.spec.Status == core.StatusActive {
		parts = append(parts, "active only")
	}
	if m.loading && !m.snap.IsZero() {
		parts = append(parts, "refreshing")
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderRow(row hierarchy.Row, selected bool) string {
	var b strings.Builder
	if selected {
		b.WriteString(selectedStyle.Render("> "))
	} else {
		b.WriteString("  ")
	}
	b.WriteString(strings.Repeat("  ", row.Depth))

	switch {
	case row.Node.IsLeaf():
		b.WriteString("  ")
	case row.Expanded:
		b.WriteString("▾ ")
	default:
		b.WriteString("▸ ")
	}

	name := row.Node.Cluster.Name
	if selected {
		b.WriteString(selectedStyle.Inherit(nameStyle).Render(name))
	} else {
		b.WriteString(nameStyle.Render(name))
	}

	if !row.EffectiveStatus.IsActive() {
		label := string(row.EffectiveStatus)
		if row.Inherited {
			label += " (inherited)"
		}
		b.WriteString(" ")
		b.WriteString(inactiveStyle.Render("[" + label + "]"))
	}
	if n := len(row.Node.Areas); n > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d areas", n)))
	}
	return b.String()
}

func (m Model) details() string {
	row, ok := m.current()
	if !ok {
		return ""
	}
	c := row.Node.Cluster

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(nameStyle.Render(c.Name))
	b.WriteString(dimStyle.Render("  " + c.UID))
	if c.Description != "" {
		b.WriteString("\n  ")
		b.WriteString(dimStyle.Render(c.Description))
	}
	b.WriteString("\n")

	const maxAreas = 4
	for i, a := range row.Node.Areas {
		if i == maxAreas {
			b.WriteString(dimStyle.Render(fmt.Sprintf("    ... and %d more\n", len(row.Node.Areas)-maxAreas)))
			break
		}
		b.WriteString("    ▪ ")
		b.WriteString(a.Name)
		for _, t := range a.Tags {
			b.WriteString(" ")
			b.WriteString(tagStyle.Render("#" + t))
		}
		if !a.Status.IsActive() {
			b.WriteString(" ")
			b.WriteString(inactiveStyle.Render("[" + string(a.Status) + "]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
