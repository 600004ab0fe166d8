package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/clipmind/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type turnDoneMsg struct {
	reply application.Reply
	err   error
}

type turnSpinnerModel struct {
	spinner spinner.Model
	label   string
	handle  tea.Cmd
	started time.Time
	elapsed time.Duration
	now     func() time.Time
	reply   application.Reply
	err     error
	done    bool
}

func newTurnSpinnerModel(label string, handle tea.Cmd, now func() time.Time) turnSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return turnSpinnerModel{
		spinner: s,
		label:   label,
		handle:  handle,
		started: now(),
		now:     now,
	}
}

func (m turnSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.handle)
}

func (m turnSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.elapsed = m.now().Sub(m.started)
		return m, cmd
	case turnDoneMsg:
		m.done = true
		m.reply = msg.reply
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m turnSpinnerModel) View() string {
	if m.done {
		return ""
	}

	if m.elapsed < time.Second {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}

	return fmt.Sprintf("%s %s %ds", m.spinner.View(), m.label, int(m.elapsed.Seconds()))
}

// runTurnSpinner shows a spinner on output while handle runs the turn.
func runTurnSpinner(ctx context.Context, output io.Writer, now func() time.Time, handle func(context.Context) (application.Reply, error)) (application.Reply, error) {
	handleCmd := func() tea.Msg {
		reply, err := handle(ctx)
		return turnDoneMsg{reply: reply, err: err}
	}

	p := tea.NewProgram(
		newTurnSpinnerModel("Thinking about your video...", handleCmd, now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.Reply{}, err
	}

	result, ok := finalModel.(turnSpinnerModel)
	if !ok {
		return application.Reply{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.reply, result.err
}
