package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/ownership/internal/lifecycle"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	constructedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#98FB98"))

	destructedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type keyMap struct {
	Next key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Next: key.NewBinding(key.WithKeys("enter", " ", "n"), key.WithHelp("enter", "next step")),
	Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// headerLines is the space the title and help take around the viewport.
const headerLines = 4

type interactiveModel struct {
	ctx      context.Context
	err      error
	log      *zap.Logger
	rec      *lifecycle.Recorder
	help     help.Model
	viewport viewport.Model
	list     []scenario
	steps    []step
	lines    []string
	current  int
	next     int
	seen     int
	done     bool
}

func newInteractiveModel(ctx context.Context, list []scenario, log *zap.Logger, width, height int) *interactiveModel {
	m := &interactiveModel{
		ctx:      ctx,
		log:      log,
		list:     list,
		help:     help.New(),
		viewport: viewport.New(width, max(height-headerLines, 1)),
		current:  -1,
	}
	m.startNext()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

// startNext moves to the following scenario. It reports false when every
// scenario has run.
func (m *interactiveModel) startNext() bool {
	m.current++
	if m.current >= len(m.list) {
		m.done = true
		m.lines = append(m.lines, "", helpStyle.Render("All scenarios finished."))
		m.refresh()
		return false
	}

	sc := m.list[m.current]
	m.rec = lifecycle.NewRecorder(m.log)
	m.steps = sc.build(m.ctx, m.rec)
	m.next = 0
	m.seen = 0
	if len(m.lines) > 0 {
		m.lines = append(m.lines, "")
	}
	m.lines = append(m.lines, titleStyle.Render(sc.title))
	m.refresh()
	return true
}

// advance runs the next step, or starts the next scenario once the current
// one is out of steps.
func (m *interactiveModel) advance() {
	if m.done || m.err != nil {
		return
	}
	if m.next >= len(m.steps) {
		m.startNext()
		return
	}

	st := m.steps[m.next]
	m.next++
	m.lines = append(m.lines, stepStyle.Render("-- "+st.title))
	if err := st.run(); err != nil {
		m.err = err
	}

	trace := m.rec.Lines()
	for _, line := range trace[m.seen:] {
		m.lines = append(m.lines, styleLine(line))
	}
	m.seen = len(trace)
	m.refresh()
}

func (m *interactiveModel) refresh() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func styleLine(line string) string {
	switch {
	case strings.HasSuffix(line, " constructed"):
		return constructedStyle.Render(line)
	case strings.HasSuffix(line, " destructed"):
		return destructedStyle.Render(line)
	default:
		return noteStyle.Render(line)
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			if m.done {
				return m, tea.Quit
			}
			m.advance()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerLines, 1)
		m.help.Width = msg.Width
		m.refresh()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Ownership"))
	if m.current < len(m.list) {
		b.WriteString(fmt.Sprintf(" scenario %d of %d, step %d of %d", m.current+1, len(m.list), m.next, len(m.steps)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(keys)))
	return b.String()
}

func runInteractive(ctx context.Context, list []scenario, log *zap.Logger) error {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width, height = 80, 24
	}

	model := newInteractiveModel(ctx, list, log, width, height)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return model.err
}
