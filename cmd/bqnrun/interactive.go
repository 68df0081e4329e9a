package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/bqn-bridge/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxHistory = 12

const (
	fieldTerm = iota
	fieldOpts
)

type interactiveModel struct {
	sess     *session
	backend  string
	inputs   []textinput.Model
	history  []outcome
	optsErr  error
	focusIdx int
}

type evalMsg struct {
	out outcome
}

func newInteractiveModel(sess *session, backend string) *interactiveModel {
	termIn := textinput.New()
	termIn.Placeholder = "[1.0, 2.0, 3.0]"
	termIn.Prompt = promptStyle.Render("term> ")
	termIn.Width = 60
	termIn.Focus()

	optsIn := textinput.New()
	optsIn.Placeholder = "[{timing, true}]"
	optsIn.Prompt = promptStyle.Render("opts> ")
	optsIn.Width = 60
	if sess.opts != nil {
		optsIn.SetValue(term.Format(sess.opts))
	}

	return &interactiveModel{
		sess:    sess,
		backend: backend,
		inputs:  []textinput.Model{termIn, optsIn},
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "shift+tab":
			m.inputs[m.focusIdx].Blur()
			m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
			m.inputs[m.focusIdx].Focus()
			return m, nil

		case "enter":
			src := m.inputs[fieldTerm].Value()
			if isBlank(src) {
				return m, nil
			}
			if err := m.applyOpts(); err != nil {
				m.optsErr = err
				return m, nil
			}
			m.optsErr = nil
			m.inputs[fieldTerm].SetValue("")
			return m, m.eval(src)
		}

	case evalMsg:
		m.history = append(m.history, msg.out)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

// applyOpts parses the options field into the session.
func (m *interactiveModel) applyOpts() error {
	src := m.inputs[fieldOpts].Value()
	if isBlank(src) {
		m.sess.opts = nil
		return nil
	}
	opts, err := term.Parse(src)
	if err != nil {
		return err
	}
	m.sess.opts = opts
	return nil
}

func (m *interactiveModel) eval(src string) tea.Cmd {
	return func() tea.Msg {
		return evalMsg{out: m.sess.eval(context.Background(), src)}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("BQN Bridge"))
	b.WriteString(" ")
	b.WriteString(m.backend)
	b.WriteString("\n\n")

	for _, o := range m.history {
		b.WriteString(promptStyle.Render("» "))
		b.WriteString(o.input)
		b.WriteString("\n")
		if o.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  error: %v", o.err)))
			b.WriteString("\n")
			continue
		}
		b.WriteString("  " + funcStyle.Render("make") + " " + resultStyle.Render(o.made) + "\n")
		b.WriteString("  " + funcStyle.Render("read") + " " + resultStyle.Render(o.read) + "\n")
	}
	if len(m.history) > 0 {
		b.WriteString("\n")
	}

	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if m.optsErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("options: %v", m.optsErr)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("enter make+read • tab switch field • esc quit • %d live handles", m.sess.rt.Registry().Len())))
	return b.String()
}

func runInteractive(sess *session, backend string) error {
	p := tea.NewProgram(newInteractiveModel(sess, backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
