// Package tui is the interactive terminal circuit builder.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"qlab/internal/circuit"
	"qlab/internal/sim"
)

const defaultQubits = 2

// runMsg carries the result of an asynchronous run back to Update.
type runMsg struct {
	counts    map[string]int
	marginals []float64
	err       error
}

// Model represents the TUI application state. The circuit being built is
// owned by the model and replaced wholesale on reset or preset.
type Model struct {
	circuit *circuit.Circuit
	gate    int // index into choices
	input   textinput.Model
	editing bool

	backend sim.Backend
	shots   int
	log     zerolog.Logger

	counts    map[string]int
	marginals []float64 // P(|1>) per qubit before measurement
	running   bool
	status  string
	errMsg  string

	width  int
	height int
}

// NewModel returns a builder on two qubits that runs circuits on backend.
func NewModel(backend sim.Backend, shots int, log zerolog.Logger) Model {
	in := textinput.New()
	in.Placeholder = "0 or 0,1"
	in.SetValue("0")
	in.CharLimit = 16
	in.Prompt = ""

	return Model{
		circuit: circuit.New(defaultQubits),
		input:   in,
		backend: backend,
		shots:   shots,
		log:     log,
	}
}

// Run starts the builder full screen and blocks until the user quits.
func Run(backend sim.Backend, shots int, log zerolog.Logger) error {
	_, err := tea.NewProgram(NewModel(backend, shots, log), tea.WithAltScreen()).Run()
	return err
}

// Circuit returns a copy of the circuit under construction.
func (m Model) Circuit() *circuit.Circuit {
	return m.circuit.Clone()
}

func (m Model) Init() tea.Cmd {
	return nil
}

// setQubits starts a fresh circuit of n qubits.
func (m *Model) setQubits(n int) {
	if n < minQubits || n > maxQubits {
		return
	}
	m.circuit = circuit.New(n)
	m.counts, m.marginals = nil, nil
}

func (m Model) run() tea.Cmd {
	c := m.circuit.Clone()
	backend, shots := m.backend, m.shots
	return func() tea.Msg {
		res, err := backend.Run(context.Background(), c, shots)
		if err != nil {
			return runMsg{err: err}
		}
		probs, err := marginals(c)
		if err != nil {
			return runMsg{err: err}
		}
		return runMsg{counts: res.Counts, marginals: probs}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case runMsg:
		m.running = false
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Msg("builder run failed")
			m.errMsg = fmt.Sprintf("Run failed: %v", msg.err)
			return m, nil
		}
		m.counts, m.marginals = msg.counts, msg.marginals
		m.status = fmt.Sprintf("Ran %d shots", m.shots)

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateInput(msg)
		}

		m.status, m.errMsg = "", ""
		switch key {
		case "q":
			return m, tea.Quit
		case "+", "=":
			m.setQubits(m.circuit.NumQubits + 1)
		case "-":
			m.setQubits(m.circuit.NumQubits - 1)
		case "tab", "right", "l":
			m.gate = (m.gate + 1) % len(choices)
		case "shift+tab", "left", "h":
			m.gate = (m.gate + len(choices) - 1) % len(choices)
		case "1", "2", "3", "4":
			m.gate = int(key[0] - '1')
		case "i":
			m.editing = true
			cmd := m.input.Focus()
			return m, cmd
		case "enter", "a":
			m.addSelected()
		case "u", "backspace":
			g, ok := undoLast(m.circuit)
			if !ok {
				m.errMsg = "Nothing to remove."
				break
			}
			m.status = fmt.Sprintf("Removed %s", gateDisplayName(g))
		case "m":
			measureAll(m.circuit)
			m.status = "Measurements added"
		case "r", "ctrl+r":
			m.setQubits(m.circuit.NumQubits)
			m.status = "Circuit reset"
		case "g":
			c, err := groverPreset(m.circuit.NumQubits)
			if err != nil {
				m.errMsg = err.Error()
				break
			}
			m.circuit = c
			m.counts, m.marginals = nil, nil
			m.status = "Loaded Grover search circuit"
		case "x":
			if m.running {
				break
			}
			if !m.circuit.Measured() {
				m.errMsg = "Add measurements before running the circuit."
				break
			}
			m.running = true
			cmd := m.run()
			return m, cmd
		}
	}
	return m, nil
}

// updateInput routes keys to the qubit index field while it has focus.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		m.status, m.errMsg = "", ""
		m.addSelected()
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) addSelected() {
	ch := choices[m.gate]
	if err := addGate(m.circuit, ch, m.input.Value()); err != nil {
		m.log.Debug().Err(err).Str("gate", ch.gateType).Msg("gate rejected")
		m.errMsg = describe(err, ch, m.circuit.NumQubits)
		return
	}
	m.status = fmt.Sprintf("Added %s", ch.label)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	resultWidth := max(m.width/3, 30)
	circuitWidth := max(m.width-resultWidth-4, 20)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderCircuitPanel(circuitWidth),
		m.renderResultPanel(resultWidth))
	return lipgloss.JoinVertical(lipgloss.Left, top, m.renderControlsPanel(m.width-2))
}
