// Package circuit holds the gate-level circuit description shared by the
// Grover planner, the simulator, the HTTP API and the terminal builder, and
// converts it to and from OpenQASM 2.0.
package circuit

import (
	"slices"
)

// Gate represents a quantum gate placed on the circuit.
type Gate struct {
	Type             string
	Target           int
	Control          int       // -1 if not a controlled gate
	Controls         []int     // control qubits for CCX/MCX/MCZ
	Step             int       // position in circuit timeline
	Params           []float64 // parameters for rotation gates
	IsDagger         bool      // adjoint of S/T/SX
	IsReset          bool
	ClassicalControl int // -1 if not classically controlled, else classical bit index
	Cbit             int // classical bit written by MEASURE, -1 otherwise
}

// Qubits returns every qubit the gate touches, target first.
func (g Gate) Qubits() []int {
	if g.Type == "BARRIER" {
		return nil
	}
	qs := []int{g.Target}
	if g.Control >= 0 {
		qs = append(qs, g.Control)
	}
	return append(qs, g.Controls...)
}

// references reports whether the gate references the given qubit.
func (g Gate) references(qubit int) bool {
	return slices.Contains(g.Qubits(), qubit)
}

// Circuit holds the quantum circuit state.
type Circuit struct {
	NumQubits int
	Clbits    int // declared classical bits, 0 when derived from measurements
	Gates     []Gate
	MaxSteps  int
}

// New returns an empty circuit on n qubits.
func New(n int) *Circuit {
	return &Circuit{NumQubits: n}
}

func (c *Circuit) add(g Gate) {
	c.Gates = append(c.Gates, g)
	if g.Step >= c.MaxSteps {
		c.MaxSteps = g.Step + 1
	}
}

func newGate(gateType string, target, step int) Gate {
	return Gate{Type: gateType, Target: target, Control: -1, Step: step, ClassicalControl: -1, Cbit: -1}
}

// AddGate appends a gate to the circuit.
func (c *Circuit) AddGate(gateType string, target, step int, control ...int) {
	g := newGate(gateType, target, step)
	if len(control) > 0 {
		g.Control = control[0]
	}
	c.add(g)
}

// AddParameterizedGate appends a parameterized gate to the circuit.
func (c *Circuit) AddParameterizedGate(gateType string, target, step int, params []float64, control ...int) {
	g := newGate(gateType, target, step)
	g.Params = params
	if len(control) > 0 {
		g.Control = control[0]
	}
	c.add(g)
}

// AddMultiControlGate appends a multi-controlled gate (CCX, MCX, MCZ).
func (c *Circuit) AddMultiControlGate(gateType string, target, step int, controls []int) {
	g := newGate(gateType, target, step)
	g.Controls = slices.Clone(controls)
	c.add(g)
}

// AddClassicalControlGate appends a gate applied only when classical bit cbit is 1.
func (c *Circuit) AddClassicalControlGate(gateType string, target, step, cbit int, params ...float64) {
	g := newGate(gateType, target, step)
	g.ClassicalControl = cbit
	g.Params = params
	c.add(g)
}

// AddDaggerGate appends a dagger (adjoint) gate to the circuit.
func (c *Circuit) AddDaggerGate(gateType string, target, step int) {
	g := newGate(gateType, target, step)
	g.IsDagger = true
	c.add(g)
}

// AddReset appends a reset to |0> on the target qubit.
func (c *Circuit) AddReset(target, step int) {
	g := newGate("RESET", target, step)
	g.IsReset = true
	c.add(g)
}

// AddMeasure appends a measurement of qubit into the classical bit of the same index.
func (c *Circuit) AddMeasure(qubit, step int) {
	c.AddMeasureInto(qubit, qubit, step)
}

// AddMeasureInto appends a measurement of qubit into classical bit cbit.
func (c *Circuit) AddMeasureInto(qubit, cbit, step int) {
	g := newGate("MEASURE", qubit, step)
	g.Cbit = cbit
	c.add(g)
}

// MeasureAll appends index-aligned measurements of every qubit at step.
func (c *Circuit) MeasureAll(step int) {
	for q := range c.Width() {
		c.AddMeasure(q, step)
	}
}

// AddBarrier appends a barrier spanning all qubits at the given step.
func (c *Circuit) AddBarrier(step int) {
	c.Gates = slices.DeleteFunc(c.Gates, func(g Gate) bool {
		return g.Step == step && g.Type == "BARRIER"
	})
	c.add(newGate("BARRIER", -1, step))
}

// RemoveGateAt removes any gate at the given step and qubit.
// Barriers at that step go too since they span all qubits. MaxSteps shrinks
// to just past the last remaining gate.
func (c *Circuit) RemoveGateAt(step, qubit int) {
	c.Gates = slices.DeleteFunc(c.Gates, func(g Gate) bool {
		if g.Step == step && g.Type == "BARRIER" {
			return true
		}
		return g.Step == step && g.references(qubit)
	})
	c.MaxSteps = 0
	for _, g := range c.Gates {
		c.MaxSteps = max(c.MaxSteps, g.Step+1)
	}
}

// GetGateAt returns the gate at the given step and qubit, or nil.
func (c *Circuit) GetGateAt(step, qubit int) *Gate {
	for i := range c.Gates {
		g := &c.Gates[i]
		if g.Step == step && g.references(qubit) {
			return g
		}
	}
	return nil
}

// NumCbits returns the number of classical bits: the declared count, or enough
// for the highest written or tested bit. Returns 0 when the circuit declares no
// classical register and has no measurements.
func (c *Circuit) NumCbits() int {
	highest := -1
	for _, g := range c.Gates {
		if g.Type == "MEASURE" {
			highest = max(highest, g.Cbit)
		}
	}
	if highest < 0 && c.Clbits == 0 {
		return 0
	}
	for _, g := range c.Gates {
		highest = max(highest, g.ClassicalControl)
	}
	return max(highest+1, c.Clbits)
}

// Measured reports whether the circuit contains any measurement.
func (c *Circuit) Measured() bool {
	for _, g := range c.Gates {
		if g.Type == "MEASURE" {
			return true
		}
	}
	return false
}

// Width returns the number of qubits the circuit needs: the declared count or
// the highest referenced qubit plus one, whichever is larger.
func (c *Circuit) Width() int {
	n := c.NumQubits
	for _, g := range c.Gates {
		for _, q := range g.Qubits() {
			n = max(n, q+1)
		}
	}
	return n
}

// Ordered returns the gates sorted by step, keeping insertion order within a step.
func (c *Circuit) Ordered() []Gate {
	gates := slices.Clone(c.Gates)
	slices.SortStableFunc(gates, func(a, b Gate) int {
		return a.Step - b.Step
	})
	return gates
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{NumQubits: c.NumQubits, Clbits: c.Clbits, MaxSteps: c.MaxSteps, Gates: make([]Gate, len(c.Gates))}
	for i, g := range c.Gates {
		g.Controls = slices.Clone(g.Controls)
		g.Params = slices.Clone(g.Params)
		out.Gates[i] = g
	}
	return out
}

// Layers repacks the gates so that each one sits at the earliest step where
// every qubit it touches is free, preserving per-qubit order. Barriers and
// classically-controlled gates act as full-width fences.
func (c *Circuit) Layers() *Circuit {
	out := &Circuit{NumQubits: c.Width(), Clbits: c.Clbits}
	next := make([]int, out.NumQubits)
	fence := func() int {
		return slices.Max(append(slices.Clone(next), 0))
	}
	for _, g := range c.Clone().Ordered() {
		var step int
		switch {
		case g.Type == "BARRIER" || g.ClassicalControl >= 0:
			step = fence()
			for q := range next {
				next[q] = step + 1
			}
		default:
			lo, hi := g.Target, g.Target
			for _, q := range g.Qubits() {
				lo, hi = min(lo, q), max(hi, q)
			}
			// multi-qubit gates occupy the wires they cross so they render cleanly
			for q := lo; q <= hi; q++ {
				step = max(step, next[q])
			}
			for q := lo; q <= hi; q++ {
				next[q] = step + 1
			}
		}
		g.Step = step
		out.add(g)
	}
	return out
}
