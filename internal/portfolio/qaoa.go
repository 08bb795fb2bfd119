package portfolio

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/optimize"

	"qlab/internal/circuit"
	"qlab/internal/sim"
)

// Options tune the QAOA run.
type Options struct {
	Reps    int   // cost/mixer layers
	MaxIter int   // objective evaluations
	Seed    int64 // initial angles
}

// Limits on Options.
const (
	MaxReps        = 10
	MaxEvaluations = 10000
)

// Validate checks the layer count and evaluation budget.
func (o Options) Validate() error {
	if o.Reps < 1 || o.Reps > MaxReps {
		return fmt.Errorf("%w: reps %d outside 1..%d", ErrInvalidProblem, o.Reps, MaxReps)
	}
	if o.MaxIter < 1 || o.MaxIter > MaxEvaluations {
		return fmt.Errorf("%w: maxiter %d outside 1..%d", ErrInvalidProblem, o.MaxIter, MaxEvaluations)
	}
	return nil
}

// DefaultOptions mirrors a depth-3 QAOA with a 250-evaluation budget.
func DefaultOptions() Options {
	return Options{Reps: 3, MaxIter: 250, Seed: 123}
}

// QAOAResult is the selected portfolio and the optimizer state it came from.
type QAOAResult struct {
	Result
	Probability  float64   `json:"probability"`
	ExpectedCost float64   `json:"expected_cost"`
	Params       []float64 `json:"params"`
	Evaluations  int       `json:"evaluations"`
	Status       string    `json:"status"`
	QASM         string    `json:"qasm"`
}

// candidateFloor is the probability below which outcomes are not considered.
const candidateFloor = 1e-3

// Ansatz builds the QAOA circuit for params = [gamma_1..gamma_p, beta_1..beta_p].
// Asset i is qubit i.
func Ansatz(p *Problem, params []float64) *circuit.Circuit {
	n := p.N()
	reps := len(params) / 2
	h, J, _ := p.Ising()

	c := circuit.New(n)
	step := 0
	for q := range n {
		c.AddGate("H", q, step)
	}
	step++
	for r := range reps {
		gamma, beta := params[r], params[reps+r]
		for q := range n {
			c.AddParameterizedGate("RZ", q, step, []float64{2 * gamma * h[q]})
		}
		step++
		for i := range n {
			for j := i + 1; j < n; j++ {
				if J.At(i, j) == 0 {
					continue
				}
				c.AddGate("CX", j, step, i)
				c.AddParameterizedGate("RZ", j, step+1, []float64{2 * gamma * J.At(i, j)})
				c.AddGate("CX", j, step+2, i)
				step += 3
			}
		}
		for q := range n {
			c.AddParameterizedGate("RX", q, step, []float64{2 * beta})
		}
		step++
	}
	return c
}

// distribution simulates the ansatz and returns outcome probabilities.
func distribution(p *Problem, params []float64) ([]float64, error) {
	s := sim.NewStateVector(p.N())
	if err := s.Evolve(Ansatz(p, params)); err != nil {
		return nil, err
	}
	return s.Probabilities(), nil
}

// SolveQAOA optimizes the ansatz angles with Nelder-Mead on the expected
// penalized cost, then returns the lowest-objective feasible outcome among
// those with non-negligible probability.
func SolveQAOA(ctx context.Context, p *Problem, opts Options) (*QAOAResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := p.N()
	costs := make([]float64, 1<<n)
	for idx := range costs {
		costs[idx] = p.Penalized(bits(idx, n))
	}

	var simErr error
	expected := func(params []float64) float64 {
		if ctx.Err() != nil || simErr != nil {
			return math.Inf(1)
		}
		probs, err := distribution(p, params)
		if err != nil {
			simErr = err
			return math.Inf(1)
		}
		var e float64
		for idx, pr := range probs {
			e += pr * costs[idx]
		}
		return e
	}

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), 0x51ed))
	init := make([]float64, 2*opts.Reps)
	for i := range init {
		init[i] = rng.Float64() * math.Pi
	}

	res, err := optimize.Minimize(
		optimize.Problem{Func: expected},
		init,
		&optimize.Settings{FuncEvaluations: opts.MaxIter},
		&optimize.NelderMead{SimplexSize: 0.5},
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if simErr != nil {
		return nil, fmt.Errorf("simulating ansatz: %w", simErr)
	}
	if res == nil {
		return nil, fmt.Errorf("qaoa optimization failed: %w", err)
	}
	if err != nil && !budgetExhausted(res.Status) {
		return nil, fmt.Errorf("qaoa optimization failed: %w", err)
	}

	probs, err := distribution(p, res.X)
	if err != nil {
		return nil, fmt.Errorf("simulating ansatz: %w", err)
	}
	idx := pick(p, probs)

	out := &QAOAResult{
		Result:       p.result(bits(idx, n)),
		Probability:  probs[idx],
		ExpectedCost: res.F,
		Params:       res.X,
		Evaluations:  res.FuncEvaluations,
		Status:       res.Status.String(),
		QASM:         Ansatz(p, res.X).ToQASM(),
	}
	return out, nil
}

func budgetExhausted(s optimize.Status) bool {
	return s == optimize.FunctionEvaluationLimit || s == optimize.IterationLimit
}

// pick returns the feasible outcome with the lowest objective among those
// above candidateFloor, or the most likely outcome if none is feasible.
func pick(p *Problem, probs []float64) int {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})

	best := -1
	for _, idx := range order {
		if probs[idx] < candidateFloor && best >= 0 {
			break
		}
		x := bits(idx, p.N())
		if !p.Feasible(x) {
			continue
		}
		if best < 0 || p.Objective(x) < p.Objective(bits(best, p.N())) {
			best = idx
		}
	}
	if best < 0 {
		return order[0]
	}
	return best
}
