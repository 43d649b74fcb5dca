package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user interrupts a spinner.
var ErrCanceled = errors.New("canceled")

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	done     bool
	result   string
	err      error
	styles   *Styles
	quitting bool
}

type spinnerDoneMsg struct {
	result string
	err    error
}

func newSpinnerModel(message string, styles *Styles) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner
	return spinnerModel{spinner: s, message: message, styles: styles}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case spinnerDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	if m.done {
		if m.err != nil {
			return m.styles.RenderStatus(false, m.err.Error()) + "\n"
		}
		return m.styles.RenderStatus(true, m.result) + "\n"
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.message)
}

// Spinner runs a spinner while a function executes.
type Spinner struct {
	message string
	styles  *Styles
	opts    []tea.ProgramOption
}

// NewSpinner creates a new spinner with a message.
func NewSpinner(message string, styles *Styles, opts ...tea.ProgramOption) *Spinner {
	if styles == nil {
		styles = NewStyles()
	}
	return &Spinner{message: message, styles: styles, opts: opts}
}

// Run executes fn while displaying the spinner and returns its result.
func (s *Spinner) Run(fn func() (string, error)) (string, error) {
	p := tea.NewProgram(newSpinnerModel(s.message, s.styles), s.opts...)

	go func() {
		result, err := fn()
		time.Sleep(100 * time.Millisecond) // keep the spinner visible for fast calls
		p.Send(spinnerDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	final := finalModel.(spinnerModel) //nolint:errcheck // type assertion always succeeds here
	if final.quitting {
		return "", ErrCanceled
	}
	return final.result, final.err
}
