package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/srctidy/model"
	"github.com/sokinpui/srctidy/wsnorm"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))           // Orange
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// ProgressMsg reports how many of the matched files have been processed.
type ProgressMsg struct {
	Current int
	Total   int
}

// --- Model ---
type Model struct {
	app      *wsnorm.App
	spinner  spinner.Model
	state    state
	progress ProgressMsg
	summary  summaryMsg
	err      error
}

type state int

const (
	stateProcessing state = iota
	stateSummary
	stateError
)

func New(app *wsnorm.App) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		spinner: s,
		state:   stateProcessing,
	}
}

// Run starts the program, forwarding the app's progress to the view. It
// returns the run's error, if any.
func Run(app *wsnorm.App) error {
	p := tea.NewProgram(New(app), tea.WithOutput(os.Stderr))
	app.SetProgressCallback(func(current, total int) {
		p.Send(ProgressMsg{Current: current, Total: total})
	})
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}

// Err returns the error the run ended with, if any.
func (m Model) Err() error {
	if e, ok := m.err.(errorMsg); ok {
		return e.err
	}
	return m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case ProgressMsg:
		m.progress = msg
		return m, nil

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		if m.progress.Total > 0 {
			return fmt.Sprintf("%s Normalizing... [%d/%d]", m.spinner.View(), m.progress.Current, m.progress.Total)
		}
		return fmt.Sprintf("%s Scanning...", m.spinner.View())
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error()) + "\n"
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) renderSummary() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Normalized %s", m.summary.Root)))
	b.WriteString("\n\n")
	if m.summary.Message != "" {
		b.WriteString(faintStyle.Render(m.summary.Message))
		b.WriteString("\n")
	}

	if len(m.summary.Modified) > 0 {
		label := "Rewrote:"
		if m.summary.DryRun {
			label = "Would rewrite:"
		}
		b.WriteString(successStyle.Render(label))
		b.WriteString("\n")
		for _, f := range m.summary.Modified {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	} else {
		b.WriteString(faintStyle.Render(fmt.Sprintf("Checked %d file(s); nothing to do.", m.summary.Visited)))
		b.WriteString("\n")
	}

	if m.summary.ReloadWarning != "" {
		b.WriteString(warningStyle.Render(m.summary.ReloadWarning))
		b.WriteString("\n")
	}
	if n := len(m.summary.Reloaded); n > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Reloaded %d buffer(s) in Neovim.", n)))
		b.WriteString("\n")
	}
	if len(m.summary.ReloadFailed) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Failed to reload %d buffer(s):", len(m.summary.ReloadFailed))))
		b.WriteString("\n")
		for _, f := range m.summary.ReloadFailed {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}

	return b.String()
}

func (m *Model) runApp() tea.Msg {
	summary, err := m.app.Execute()
	if err != nil {
		// Check for detailed error to print stack
		if e, ok := err.(*wsnorm.DetailedError); ok {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		return errorMsg{err}
	}
	return summaryMsg{
		Summary: summary,
	}
}
