// Package progress implements the live crawl view: one row per store with a
// spinner while it runs, category and listing counters, and the outcome once
// the catalog has been reloaded.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/keymap"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/messages"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/styles"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

type state int

const (
	waiting state = iota
	running
	finished
	failed
)

type row struct {
	store      string
	state      state
	categories int
	records    int
	skipped    int
	current    string
	failures   []domain.CategoryFailure
	report     *domain.RunReport
	err        error
}

// Model is the Bubbletea model for the live crawl view.
type Model struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	help    help.Model
	spinner spinner.Model

	rows  []*row
	index map[string]*row

	showFailures bool
	done         bool
	cancelled    bool
	err          error
	width        int
}

var _ tea.Model = (*Model)(nil)

// New creates a view with a waiting row per store.
func New(stores []string, s *styles.Styles) *Model {
	if s == nil {
		s = styles.DefaultStyles()
	}
	m := &Model{
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Title)),
		index:   make(map[string]*row, len(stores)),
	}
	for _, store := range stores {
		m.row(store)
	}
	return m
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update applies progress messages and key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), m.keys.Quit):
			m.cancelled = !m.done
			return m, tea.Quit
		case keymap.Matches(msg.String(), m.keys.Failures):
			m.showFailures = !m.showFailures
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case messages.StoreStarted:
		m.row(msg.Store).state = running
		return m, nil

	case messages.CategoryDone:
		r := m.row(msg.Store)
		r.categories++
		r.records += len(msg.Batch.Listings)
		r.current = msg.Batch.Category.String()
		if msg.Batch.Skipped() {
			r.skipped++
			r.failures = append(r.failures, domain.CategoryFailure{
				Category: msg.Batch.Category,
				Reason:   msg.Batch.Err.Error(),
			})
		}
		return m, nil

	case messages.StoreFinished:
		r := m.row(msg.Store)
		r.report = msg.Report
		r.err = msg.Err
		r.current = ""
		r.state = finished
		if msg.Err != nil {
			r.state = failed
		}
		return m, nil

	case messages.RunDone:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the store rows and the footer.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("baratazo crawl"))
	b.WriteString("\n\n")

	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
		if m.showFailures {
			for _, f := range r.failures {
				b.WriteString(m.styles.Muted.Render(fmt.Sprintf("    %s: %s", f.Category, f.Reason)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	if m.done {
		if m.err != nil {
			b.WriteString(m.styles.Error.Render("finished with errors"))
		} else {
			b.WriteString(m.styles.Success.Render("all stores refreshed"))
		}
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	b.WriteString("\n")
	return b.String()
}

// Cancelled reports whether the user quit before the run finished.
func (m *Model) Cancelled() bool {
	return m.cancelled
}

// Done reports whether the run finished.
func (m *Model) Done() bool {
	return m.done
}

func (m *Model) row(store string) *row {
	key := domain.NormaliseKey(store)
	if r, ok := m.index[key]; ok {
		return r
	}
	r := &row{store: store}
	m.index[key] = r
	m.rows = append(m.rows, r)
	return r
}

func (m *Model) renderRow(r *row) string {
	var icon string
	switch r.state {
	case waiting:
		icon = m.styles.Muted.Render("·")
	case running:
		icon = m.spinner.View()
	case finished:
		icon = m.styles.Success.Render("✓")
	case failed:
		icon = m.styles.Error.Render("✗")
	}

	counts := fmt.Sprintf("%s categories  %s listings",
		m.styles.Count.Render(fmt.Sprint(r.categories)),
		m.styles.Count.Render(fmt.Sprint(r.records)))
	if r.skipped > 0 {
		counts += "  " + m.styles.Warning.Render(fmt.Sprintf("%d skipped", r.skipped))
	}

	line := fmt.Sprintf("%s %s %s", icon, m.styles.Store.Render(r.store), counts)

	switch {
	case r.state == running && r.current != "":
		line += "  " + m.styles.Muted.Render(r.current)
	case r.state == failed:
		line += "  " + m.styles.Error.Render(r.err.Error())
	case r.state == finished && r.report != nil && r.report.Reload != nil:
		line += "  " + m.styles.Success.Render(fmt.Sprintf("%d products reloaded", r.report.Reload.ProductsInserted))
	case r.state == finished && r.report != nil && r.report.DryRun:
		line += "  " + m.styles.Muted.Render("dry run")
	}

	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}
