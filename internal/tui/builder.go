package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"qlab/internal/circuit"
	"qlab/internal/grover"
	"qlab/internal/sim"
)

const (
	minQubits = 1
	maxQubits = 5
)

// choice is one of the gates the builder can place.
type choice struct {
	label    string
	gateType string
	arity    int
}

var choices = []choice{
	{label: "Hadamard (H)", gateType: "H", arity: 1},
	{label: "Pauli-X (X)", gateType: "X", arity: 1},
	{label: "CNOT (CX)", gateType: "CX", arity: 2},
	{label: "Identity (I)", gateType: "I", arity: 1},
}

var (
	errIndexSyntax = errors.New("qubit indices must be comma-separated integers")
	errIndexRange  = errors.New("qubit index out of range")
	errArity       = errors.New("wrong number of qubit indices")
	errSameQubit   = errors.New("control and target must be different qubits")
)

// parseIndices reads "0" or "0,1"; blank entries are skipped.
func parseIndices(input string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errIndexSyntax, part)
		}
		out = append(out, v)
	}
	return out, nil
}

// addGate validates input against the chosen gate and appends it to c at the
// next free step. On error c is unchanged.
func addGate(c *circuit.Circuit, ch choice, input string) error {
	indices, err := parseIndices(input)
	if err != nil {
		return err
	}
	for _, i := range indices {
		if i < 0 || i >= c.NumQubits {
			return fmt.Errorf("%w: %d not in 0..%d", errIndexRange, i, c.NumQubits-1)
		}
	}
	if len(indices) != ch.arity {
		return fmt.Errorf("%w: %s takes %d, got %d", errArity, ch.gateType, ch.arity, len(indices))
	}

	step := c.MaxSteps
	switch ch.arity {
	case 1:
		c.AddGate(ch.gateType, indices[0], step)
	case 2:
		if indices[0] == indices[1] {
			return fmt.Errorf("%w: %d", errSameQubit, indices[0])
		}
		c.AddGate(ch.gateType, indices[1], step, indices[0])
	}
	return nil
}

// describe turns an addGate error into the message shown under the controls.
func describe(err error, ch choice, numQubits int) string {
	switch {
	case errors.Is(err, errIndexSyntax):
		return "Invalid input for qubit indices. Please use comma-separated integers."
	case errors.Is(err, errIndexRange):
		return fmt.Sprintf("Invalid qubit index. Must be between 0 and %d.", numQubits-1)
	case errors.Is(err, errArity) && ch.arity == 2:
		return "CNOT requires exactly two qubit indices (control, target)."
	case errors.Is(err, errArity):
		return fmt.Sprintf("%s requires exactly one qubit index.", ch.label)
	case errors.Is(err, errSameQubit):
		return "CNOT control and target must be different qubits."
	}
	return err.Error()
}

// undoLast removes the most recently placed gate and returns it. A gate spans
// its control and target, so removing at its target drops the whole gate.
func undoLast(c *circuit.Circuit) (circuit.Gate, bool) {
	if len(c.Gates) == 0 {
		return circuit.Gate{}, false
	}
	step := c.MaxSteps - 1
	qubit := -1
	for _, g := range c.Gates {
		if g.Step == step {
			qubit = max(qubit, g.Target)
		}
	}
	removed := circuit.Gate{Type: "BARRIER", Target: -1, Control: -1, Step: step}
	if qubit >= 0 {
		removed = *c.GetGateAt(step, qubit)
	}
	c.RemoveGateAt(step, qubit)
	return removed, true
}

// marginals returns P(|1>) for each qubit of the pre-measurement state.
func marginals(c *circuit.Circuit) ([]float64, error) {
	sv := sim.NewStateVector(c.Width())
	if err := sv.Evolve(c); err != nil {
		return nil, err
	}
	var out []float64
	for _, p := range sv.QubitProbabilities() {
		out = append(out, p.Prob1)
	}
	return out, nil
}

// measureAll appends a measurement of every qubit into the matching classical bit.
func measureAll(c *circuit.Circuit) {
	c.MeasureAll(c.MaxSteps)
}

// groverPreset returns the search circuit for n qubits marking the all-ones state.
func groverPreset(n int) (*circuit.Circuit, error) {
	p, err := grover.PlanSearch(n, strings.Repeat("1", n))
	if err != nil {
		return nil, err
	}
	return grover.Lower(p), nil
}
