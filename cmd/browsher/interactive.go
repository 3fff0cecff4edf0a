package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/browsher/config"
	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	paramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err       error
	cfg       config.Config
	log       *zap.Logger
	bridge    *runtime.Bridge
	workspace string
	result    string
	funcs     []engine.FunctionInfo
	params    []string
	inputs    []textinput.Model
	selected  int
	focusIdx  int
	state     modelState
}

func newInteractiveModel(cfg config.Config, log *zap.Logger) *interactiveModel {
	return &interactiveModel{
		cfg:   cfg,
		log:   log,
		state: stateSelectFunc,
	}
}

type activatedMsg struct {
	err       error
	bridge    *runtime.Bridge
	workspace string
	funcs     []engine.FunctionInfo
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.activate
}

func (m *interactiveModel) activate() tea.Msg {
	ctx := context.Background()

	b, activation, err := newBridge(m.cfg, m.log)
	if err != nil {
		return activatedMsg{err: err}
	}
	if _, err := b.Activate(ctx, activation); err != nil {
		return activatedMsg{err: err}
	}

	funcs, err := b.Gateway().Functions()
	if err != nil {
		b.Deactivate(ctx)
		return activatedMsg{err: err}
	}

	ws, _ := activation["workspace"].(string)
	return activatedMsg{bridge: b, workspace: ws, funcs: funcs}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "q":
			if m.state != stateInputArgs {
				return m.quit()
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					return m, nil
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case activatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.bridge = msg.bridge
		m.workspace = msg.workspace
		m.funcs = msg.funcs

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) quit() (tea.Model, tea.Cmd) {
	if m.bridge != nil {
		m.bridge.Deactivate(context.Background())
	}
	return m, tea.Quit
}

// inputNames lists one field per parameter. Functions without readable
// parameter names get argN fields from their arity, plus one extra field
// when variadic.
func inputNames(f engine.FunctionInfo) []string {
	names := append([]string(nil), f.Params...)
	if len(names) == 0 {
		for i := 0; i < f.Arity; i++ {
			names = append(names, fmt.Sprintf("arg%d", i))
		}
	}
	if f.Variadic && len(f.Params) == 0 {
		names = append(names, fmt.Sprintf("arg%d", len(names)))
	}
	return names
}

func (m *interactiveModel) prepareInputs() {
	m.params = inputNames(m.funcs[m.selected])
	m.inputs = make([]textinput.Model, len(m.params))
	for i, p := range m.params {
		ti := textinput.New()
		ti.Placeholder = "string, number or JSON"
		ti.Prompt = p + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	if m.bridge == nil {
		return callResultMsg{err: fmt.Errorf("bridge not active")}
	}

	f := m.funcs[m.selected]
	args := make([]any, 0, len(m.inputs))
	for _, input := range m.inputs {
		v := input.Value()
		if v == "" {
			args = append(args, nil)
			continue
		}
		args = append(args, parseArg(v))
	}
	// trailing blanks are omitted rather than passed as nil
	for len(args) > 0 && args[len(args)-1] == nil {
		args = args[:len(args)-1]
	}

	result, err := m.bridge.Invoke(context.Background(), f.Name, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: formatResult(result)}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.bridge == nil {
		return "Activating bridge..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("browsher"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Namespace)
	b.WriteString(" @ ")
	b.WriteString(m.workspace)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("The namespace publishes no functions.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + signature(f)))
			} else {
				b.WriteString("  " + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.Name)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatFunc(f engine.FunctionInfo) string {
	params := inputNames(f)
	for i, p := range params {
		params[i] = paramStyle.Render(p)
	}
	if f.Variadic && len(f.Params) > 0 {
		params = append(params, paramStyle.Render("..."))
	}
	return funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")"
}

func runInteractive(cfg config.Config, log *zap.Logger) error {
	p := tea.NewProgram(newInteractiveModel(cfg, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
