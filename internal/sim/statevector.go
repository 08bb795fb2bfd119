// Package sim is a dense statevector simulator for circuit.Circuit values,
// exposed through the Backend interface.
package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	"qlab/internal/circuit"
)

type Complex = complex128

// matrix is a single-qubit operator in row-major order.
type matrix [2][2]Complex

var (
	invSqrt2 = complex(1/math.Sqrt2, 0)

	matI = matrix{{1, 0}, {0, 1}}
	matH = matrix{{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}}
	matX = matrix{{0, 1}, {1, 0}}
	matY = matrix{{0, -1i}, {1i, 0}}
	matZ = matrix{{1, 0}, {0, -1}}
)

// StateVector holds 2^n amplitudes. Qubit q is bit q of the basis index.
type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

// NewStateVector returns |0...0> on numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	amps := make([]Complex, 1<<numQubits)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// Apply applies a unitary gate. MEASURE, RESET and BARRIER are not unitary and
// are handled by the caller; classical conditions are ignored here.
func (s *StateVector) Apply(g circuit.Gate) error {
	for _, q := range g.Qubits() {
		if q < 0 || q >= s.NumQubits {
			return fmt.Errorf("gate %s: qubit %d out of range for %d qubits", g.Type, q, s.NumQubits)
		}
	}

	var controls []int
	if g.Control >= 0 {
		controls = append(controls, g.Control)
	}
	controls = append(controls, g.Controls...)

	switch g.Type {
	case "I", "BARRIER", "MEASURE":
		return nil
	case "SWAP":
		if g.Control < 0 {
			return fmt.Errorf("gate SWAP needs two qubits")
		}
		s.swap(g.Control, g.Target)
		return nil
	case "CCX", "MCX":
		s.applyControlled(matX, g.Target, controls)
		return nil
	case "MCZ":
		s.applyControlled(matZ, g.Target, controls)
		return nil
	}

	base := g.Type
	if len(base) > 1 && base[0] == 'C' && g.Control >= 0 {
		base = base[1:]
	}
	m, err := singleQubitMatrix(base, g.Params, g.IsDagger)
	if err != nil {
		return fmt.Errorf("gate %s: %w", g.Type, err)
	}
	s.applyControlled(m, g.Target, controls)
	return nil
}

func param(params []float64, i int) float64 {
	if i < len(params) {
		return params[i]
	}
	return 0
}

func phase(theta float64) Complex {
	return cmplx.Exp(complex(0, theta))
}

func u3(theta, phi, lambda float64) matrix {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	return matrix{
		{c, -phase(lambda) * sn},
		{phase(phi) * sn, phase(phi+lambda) * c},
	}
}

func singleQubitMatrix(name string, params []float64, dagger bool) (matrix, error) {
	switch name {
	case "I":
		return matI, nil
	case "H":
		return matH, nil
	case "X":
		return matX, nil
	case "Y":
		return matY, nil
	case "Z":
		return matZ, nil
	case "S":
		if dagger {
			return matrix{{1, 0}, {0, -1i}}, nil
		}
		return matrix{{1, 0}, {0, 1i}}, nil
	case "T":
		if dagger {
			return matrix{{1, 0}, {0, phase(-math.Pi / 4)}}, nil
		}
		return matrix{{1, 0}, {0, phase(math.Pi / 4)}}, nil
	case "SX":
		a, b := complex(0.5, 0.5), complex(0.5, -0.5)
		if dagger {
			a, b = b, a
		}
		return matrix{{a, b}, {b, a}}, nil
	case "RX":
		theta := param(params, 0)
		c := complex(math.Cos(theta/2), 0)
		js := complex(0, -math.Sin(theta/2))
		return matrix{{c, js}, {js, c}}, nil
	case "RY":
		theta := param(params, 0)
		c := complex(math.Cos(theta/2), 0)
		sn := complex(math.Sin(theta/2), 0)
		return matrix{{c, -sn}, {sn, c}}, nil
	case "RZ":
		theta := param(params, 0)
		return matrix{{phase(-theta / 2), 0}, {0, phase(theta / 2)}}, nil
	case "P", "U1":
		return matrix{{1, 0}, {0, phase(param(params, 0))}}, nil
	case "U2":
		return u3(math.Pi/2, param(params, 0), param(params, 1)), nil
	case "U3":
		return u3(param(params, 0), param(params, 1), param(params, 2)), nil
	}
	return matrix{}, fmt.Errorf("unsupported gate %q", name)
}

// applyControlled applies m to target on the subspace where every control is 1.
func (s *StateVector) applyControlled(m matrix, target int, controls []int) {
	mask := 0
	for _, c := range controls {
		mask |= 1 << c
	}
	bit := 1 << target
	for i := range s.Amplitudes {
		if i&bit != 0 || i&mask != mask {
			continue
		}
		j := i | bit
		a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
		s.Amplitudes[i] = m[0][0]*a0 + m[0][1]*a1
		s.Amplitudes[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

func (s *StateVector) swap(q1, q2 int) {
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := range s.Amplitudes {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Evolve applies every unitary gate of c in step order. Measurements, resets
// and classically-controlled gates are skipped.
func (s *StateVector) Evolve(c *circuit.Circuit) error {
	for _, g := range c.Ordered() {
		if g.Type == "MEASURE" || g.IsReset || g.ClassicalControl >= 0 {
			continue
		}
		if err := s.Apply(g); err != nil {
			return err
		}
	}
	return nil
}

// Probability returns |amplitude|^2 of basis state i.
func (s *StateVector) Probability(i int) float64 {
	a := s.Amplitudes[i]
	return real(a)*real(a) + imag(a)*imag(a)
}

// Probabilities returns the measurement distribution over all basis states.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i := range s.Amplitudes {
		probs[i] = s.Probability(i)
	}
	return probs
}

// QubitProbability is the marginal distribution of one qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

// QubitProbabilities returns the marginal distribution of every qubit.
func (s *StateVector) QubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	for i := range s.Amplitudes {
		p := s.Probability(i)
		for q := range s.NumQubits {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += p
			} else {
				probs[q].Prob0 += p
			}
		}
	}
	return probs
}

// Measure collapses qubit q using r drawn uniformly from [0,1) and returns
// the observed bit.
func (s *StateVector) Measure(q int, r float64) int {
	bit := 1 << q
	p1 := 0.0
	for i := range s.Amplitudes {
		if i&bit != 0 {
			p1 += s.Probability(i)
		}
	}
	outcome := 0
	if r < p1 {
		outcome = 1
	}
	keep := p1
	if outcome == 0 {
		keep = 1 - p1
	}
	norm := complex(math.Sqrt(keep), 0)
	for i := range s.Amplitudes {
		if (i&bit != 0) == (outcome == 1) {
			if norm != 0 {
				s.Amplitudes[i] /= norm
			}
		} else {
			s.Amplitudes[i] = 0
		}
	}
	return outcome
}

// Reset measures q and flips it back to |0> when it reads 1.
func (s *StateVector) Reset(q int, r float64) {
	if s.Measure(q, r) == 1 {
		s.applyControlled(matX, q, nil)
	}
}
