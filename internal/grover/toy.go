package grover

import "math"

// Toy tracks a search state by two real amplitudes: the one on the marked
// state and the one shared by every unmarked state. Oracle and diffuser act
// on the uniform family exactly, so a plan can be followed without a
// statevector.
type Toy struct {
	N        int // number of states
	Marked   float64
	Unmarked float64
}

// NewToy returns an unprepared model of a 2^n-state space.
func NewToy(n int) Toy {
	return Toy{N: 1 << n}
}

// Prep sets the uniform superposition.
func (t Toy) Prep() Toy {
	amp := 1 / math.Sqrt(float64(t.N))
	t.Marked, t.Unmarked = amp, amp
	return t
}

// Oracle flips the sign of the marked amplitude.
func (t Toy) Oracle() Toy {
	t.Marked = -t.Marked
	return t
}

// Diffuser reflects both amplitudes about the mean amplitude.
func (t Toy) Diffuser() Toy {
	mean := (t.Marked + float64(t.N-1)*t.Unmarked) / float64(t.N)
	t.Marked = 2*mean - t.Marked
	t.Unmarked = 2*mean - t.Unmarked
	return t
}

// MarkedProbability is the chance of measuring the marked state.
func (t Toy) MarkedProbability() float64 {
	return t.Marked * t.Marked
}

// UnmarkedProbability is the total chance of measuring any other state.
func (t Toy) UnmarkedProbability() float64 {
	return float64(t.N-1) * t.Unmarked * t.Unmarked
}

// Follow runs the plan's blocks on the toy model.
func (p *Plan) Follow() Toy {
	t := NewToy(p.n)
	for _, b := range p.blocks {
		switch b.Kind {
		case StatePrep:
			t = t.Prep()
		case Oracle:
			t = t.Oracle()
		case Diffuser:
			t = t.Diffuser()
		}
	}
	return t
}

// SuccessProbability is sin^2((2k+1)theta) with sin(theta) = 1/sqrt(2^n),
// the probability of reading the target after k rounds.
func SuccessProbability(n, k int) float64 {
	theta := math.Asin(1 / math.Sqrt(math.Exp2(float64(n))))
	s := math.Sin(float64(2*k+1) * theta)
	return s * s
}
