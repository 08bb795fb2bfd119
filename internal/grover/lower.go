package grover

import "qlab/internal/circuit"

// Lower expands a plan into a gate-level circuit with n qubits and n
// index-aligned classical bits.
func Lower(p *Plan) *circuit.Circuit {
	c := circuit.New(p.n)
	c.Clbits = p.n
	step := 0
	for _, b := range p.blocks {
		switch b.Kind {
		case StatePrep:
			step = hadamardLayer(c, b.N, step)
		case Oracle:
			step = oracle(c, b.N, b.Target, step)
		case Diffuser:
			step = diffuser(c, b.N, step)
		case Measure:
			c.MeasureAll(step)
			step++
		}
	}
	return c
}

func hadamardLayer(c *circuit.Circuit, n, step int) int {
	for q := range n {
		c.AddGate("H", q, step)
	}
	return step + 1
}

func xLayer(c *circuit.Circuit, qubits []int, step int) int {
	if len(qubits) == 0 {
		return step
	}
	for _, q := range qubits {
		c.AddGate("X", q, step)
	}
	return step + 1
}

// flipAllOnes negates the amplitude of |1...1>.
func flipAllOnes(c *circuit.Circuit, n, step int) int {
	controls := make([]int, n-1)
	for i := range controls {
		controls[i] = i
	}
	c.AddMultiControlGate("MCZ", n-1, step, controls)
	return step + 1
}

// zeroBits lists the qubits whose target bit is 0.
func zeroBits(n int, target string) []int {
	var qs []int
	for k := range n {
		if target[k] == '0' {
			qs = append(qs, n-1-k)
		}
	}
	return qs
}

// oracle negates the amplitude of the target state only.
func oracle(c *circuit.Circuit, n int, target string, step int) int {
	zeros := zeroBits(n, target)
	step = xLayer(c, zeros, step)
	step = flipAllOnes(c, n, step)
	return xLayer(c, zeros, step)
}

// diffuser reflects every amplitude about the mean.
func diffuser(c *circuit.Circuit, n, step int) int {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	step = hadamardLayer(c, n, step)
	step = xLayer(c, all, step)
	step = flipAllOnes(c, n, step)
	step = xLayer(c, all, step)
	return hadamardLayer(c, n, step)
}
