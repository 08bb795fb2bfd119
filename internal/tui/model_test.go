package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qlab/internal/circuit"
	"qlab/internal/sim"
)

func newTestModel() Model {
	return NewModel(sim.New(0, 7), 256, zerolog.Nop())
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestAddGateValidation(t *testing.T) {
	tests := []struct {
		name  string
		gate  int
		input string
		err   error
		want  string
	}{
		{"out of range", 0, "2", errIndexRange, "Invalid qubit index. Must be between 0 and 1."},
		{"negative", 1, "-1", errIndexRange, "Invalid qubit index. Must be between 0 and 1."},
		{"two for H", 0, "0,1", errArity, "Hadamard (H) requires exactly one qubit index."},
		{"none for X", 1, "", errArity, "Pauli-X (X) requires exactly one qubit index."},
		{"one for CX", 2, "0", errArity, "CNOT requires exactly two qubit indices (control, target)."},
		{"same qubit CX", 2, "1,1", errSameQubit, "CNOT control and target must be different qubits."},
		{"not a number", 3, "a", errIndexSyntax, "Invalid input for qubit indices. Please use comma-separated integers."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := circuit.New(2)
			err := addGate(c, choices[tt.gate], tt.input)
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, strings.ToLower(err.Error()[:1]), err.Error()[:1])
			assert.False(t, strings.HasSuffix(err.Error(), "."), err.Error())
			assert.Equal(t, tt.want, describe(err, choices[tt.gate], c.NumQubits))
			assert.Empty(t, c.Gates)
		})
	}
}

func TestInvalidInputShowsMessage(t *testing.T) {
	m := press(t, newTestModel(), "3", "enter")
	assert.Equal(t, "CNOT requires exactly two qubit indices (control, target).", m.errMsg)
	assert.Empty(t, m.circuit.Gates)
}

func TestAddGatePlacesInOrder(t *testing.T) {
	c := circuit.New(2)
	require.NoError(t, addGate(c, choices[0], "0"))
	require.NoError(t, addGate(c, choices[2], " 0 , 1 "))
	measureAll(c)

	require.Len(t, c.Gates, 4)
	assert.Equal(t, "H", c.Gates[0].Type)
	assert.Equal(t, "CX", c.Gates[1].Type)
	assert.Equal(t, 0, c.Gates[1].Control)
	assert.Equal(t, 1, c.Gates[1].Target)
	assert.Less(t, c.Gates[0].Step, c.Gates[1].Step)
	assert.Equal(t, 2, c.NumCbits())
}

func TestBuildAndRunBell(t *testing.T) {
	m := newTestModel()
	m = press(t, m, "enter")  // H on qubit 0
	m = press(t, m, "3", "i") // CX, edit indices
	m = press(t, m, ",", "1", "enter")
	require.Empty(t, m.errMsg)
	m = press(t, m, "m")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.running)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.running)
	assert.Empty(t, m.errMsg)
	assert.Equal(t, 256, m.counts["00"]+m.counts["11"])
	require.Len(t, m.marginals, 2)
	assert.InDelta(t, 0.5, m.marginals[0], 1e-9)
	assert.InDelta(t, 0.5, m.marginals[1], 1e-9)

	next, _ = m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	view := stripANSI(next.(Model).View())
	assert.Contains(t, view, "P(1) per qubit")
	assert.Contains(t, view, "q[1] 0.50")
}

func TestRunWithoutMeasurements(t *testing.T) {
	m := press(t, newTestModel(), "enter")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.False(t, m.running)
	assert.Equal(t, "Add measurements before running the circuit.", m.errMsg)
	assert.Nil(t, m.counts)
}

func TestUndoRemovesLatestGate(t *testing.T) {
	m := newTestModel()
	m = press(t, m, "u")
	assert.Equal(t, "Nothing to remove.", m.errMsg)

	m = press(t, m, "enter", "3", "i", ",", "1", "enter")
	require.Len(t, m.circuit.Gates, 2)

	m = press(t, m, "u")
	assert.Empty(t, m.errMsg)
	assert.Equal(t, "Removed X", m.status)
	require.Len(t, m.circuit.Gates, 1)
	assert.Equal(t, "H", m.circuit.Gates[0].Type)
	assert.Equal(t, 1, m.circuit.MaxSteps)

	// the next gate reuses the freed step
	m.input.SetValue("1")
	m = press(t, m, "2", "enter")
	require.Len(t, m.circuit.Gates, 2)
	assert.Equal(t, 1, m.circuit.Gates[1].Step)
}

func TestUndoMeasurementsOneAtATime(t *testing.T) {
	m := press(t, newTestModel(), "m")
	require.Len(t, m.circuit.Gates, 2)
	m = press(t, m, "u")
	assert.Equal(t, "Removed M", m.status)
	require.Len(t, m.circuit.Gates, 1)
	assert.Equal(t, 0, m.circuit.Gates[0].Target)
}

func TestMarginals(t *testing.T) {
	c := circuit.New(3)
	require.NoError(t, addGate(c, choices[0], "0"))
	require.NoError(t, addGate(c, choices[1], "2"))
	measureAll(c)

	probs, err := marginals(c)
	require.NoError(t, err)
	require.Len(t, probs, 3)
	assert.InDelta(t, 0.5, probs[0], 1e-9)
	assert.InDelta(t, 0, probs[1], 1e-9)
	assert.InDelta(t, 1, probs[2], 1e-9)
}

func TestQubitCountBoundsAndReset(t *testing.T) {
	m := press(t, newTestModel(), "enter")
	require.Len(t, m.circuit.Gates, 1)

	m = press(t, m, "+", "+", "+", "+", "+")
	assert.Equal(t, maxQubits, m.circuit.NumQubits)
	assert.Empty(t, m.circuit.Gates)

	for range 10 {
		m = press(t, m, "-")
	}
	assert.Equal(t, minQubits, m.circuit.NumQubits)

	m = press(t, m, "enter", "r")
	assert.Empty(t, m.circuit.Gates)
	assert.Equal(t, minQubits, m.circuit.NumQubits)
}

func TestGateSelectionWraps(t *testing.T) {
	m := newTestModel()
	m = press(t, m, "tab", "tab", "tab", "tab")
	assert.Equal(t, 0, m.gate)
	m = press(t, m, "4")
	assert.Equal(t, "I", choices[m.gate].gateType)
}

func TestGroverPreset(t *testing.T) {
	m := press(t, newTestModel(), "+", "g")
	require.Equal(t, 3, m.circuit.NumQubits)
	assert.Equal(t, 3, m.circuit.NumCbits())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	next, _ = next.(Model).Update(cmd())
	m = next.(Model)
	assert.Greater(t, m.counts["111"], 200)
}

func TestCircuitReturnsCopy(t *testing.T) {
	m := press(t, newTestModel(), "enter")
	c := m.Circuit()
	c.Gates = nil
	assert.Len(t, m.circuit.Gates, 1)
}

func TestRenderCircuit(t *testing.T) {
	c := circuit.New(3)
	c.AddGate("H", 0, 0)
	c.AddGate("CX", 2, 1, 0)
	out := stripANSI(renderCircuit(c, 120))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)

	assert.True(t, strings.HasPrefix(lines[0], "q[0]"))
	assert.Contains(t, lines[0], "┤ H ├")
	assert.Contains(t, lines[0], "●")
	assert.Contains(t, lines[1], "│")
	assert.Contains(t, lines[2], "┼")
	assert.Contains(t, lines[3], "│")
	assert.Contains(t, lines[4], "⊕")
}

func TestRenderCircuitScrolls(t *testing.T) {
	c := circuit.New(1)
	for i := range 20 {
		c.AddGate("X", 0, i)
	}
	out := stripANSI(renderCircuit(c, labelVisualW+1+3*cellW))
	assert.Equal(t, 3, strings.Count(out, "┤ X ├"))
	assert.Contains(t, out, "17 earlier steps hidden")
}

func TestViewRendersPanels(t *testing.T) {
	m := newTestModel()
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	view := stripANSI(next.(Model).View())
	assert.Contains(t, view, "Circuit (2 qubits)")
	assert.Contains(t, view, "Hadamard (H)")
	assert.Contains(t, view, "press x to run")
}

func stripANSI(s string) string {
	var sb strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
