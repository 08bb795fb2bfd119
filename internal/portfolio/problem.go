// Package portfolio solves binary mean-variance asset selection with a
// budget constraint, exactly by enumeration and approximately with QAOA on
// the statevector simulator.
package portfolio

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidProblem is returned for inconsistent or oversized problems.
var ErrInvalidProblem = errors.New("invalid portfolio problem")

// MaxAssets bounds the problem size; QAOA simulates 2^n amplitudes.
const MaxAssets = 12

// Problem selects Budget of the assets minimizing
//
//	RiskFactor * x'Σx - μ'x
//
// over x in {0,1}^n. Penalty weights (Σx - Budget)^2 in the unconstrained form.
type Problem struct {
	Tickers    []string
	Mu         []float64
	Sigma      *mat.SymDense
	RiskFactor float64
	Budget     int
	Penalty    float64
}

// NewProblem builds a problem from return statistics with the penalty set to
// the number of assets.
func NewProblem(tickers []string, mu []float64, sigma *mat.SymDense, riskFactor float64, budget int) (*Problem, error) {
	p := &Problem{
		Tickers:    tickers,
		Mu:         mu,
		Sigma:      sigma,
		RiskFactor: riskFactor,
		Budget:     budget,
		Penalty:    float64(len(mu)),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Problem) N() int { return len(p.Mu) }

func (p *Problem) Validate() error {
	n := p.N()
	switch {
	case n == 0:
		return fmt.Errorf("%w: no assets", ErrInvalidProblem)
	case n > MaxAssets:
		return fmt.Errorf("%w: %d assets exceeds the limit of %d", ErrInvalidProblem, n, MaxAssets)
	case len(p.Tickers) != n:
		return fmt.Errorf("%w: %d tickers for %d returns", ErrInvalidProblem, len(p.Tickers), n)
	case p.Sigma == nil || p.Sigma.SymmetricDim() != n:
		return fmt.Errorf("%w: covariance must be %dx%d", ErrInvalidProblem, n, n)
	case p.Budget < 1 || p.Budget > n:
		return fmt.Errorf("%w: budget %d outside 1..%d", ErrInvalidProblem, p.Budget, n)
	case p.RiskFactor < 0:
		return fmt.Errorf("%w: negative risk factor", ErrInvalidProblem)
	case p.Penalty < 0:
		return fmt.Errorf("%w: negative penalty", ErrInvalidProblem)
	}
	return nil
}

// Objective is RiskFactor * x'Σx - μ'x.
func (p *Problem) Objective(x []int) float64 {
	var v float64
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		v -= p.Mu[i]
		for j, xj := range x {
			if xj != 0 {
				v += p.RiskFactor * p.Sigma.At(i, j)
			}
		}
	}
	return v
}

func (p *Problem) selected(x []int) int {
	var k int
	for _, xi := range x {
		k += xi
	}
	return k
}

// Feasible reports whether x picks exactly Budget assets.
func (p *Problem) Feasible(x []int) bool {
	return p.selected(x) == p.Budget
}

// Penalized is the objective plus Penalty * (Σx - Budget)^2.
func (p *Problem) Penalized(x []int) float64 {
	d := float64(p.selected(x) - p.Budget)
	return p.Objective(x) + p.Penalty*d*d
}

// Ising returns h, J and offset with Penalized(x) = offset + Σ h_i z_i +
// Σ_{i<j} J_ij z_i z_j under x_i = (1 - z_i)/2. J holds only the upper
// triangle.
func (p *Problem) Ising() (h []float64, J *mat.Dense, offset float64) {
	n := p.N()
	q, pen, b := p.RiskFactor, p.Penalty, float64(p.Budget)

	a := make([]float64, n)
	for i := range a {
		a[i] = q*p.Sigma.At(i, i) - p.Mu[i] + pen*(1-2*b)
	}
	h = make([]float64, n)
	J = mat.NewDense(n, n, nil)
	offset = pen * b * b
	for i := range n {
		h[i] -= a[i] / 2
		offset += a[i] / 2
		for j := i + 1; j < n; j++ {
			bij := 2*q*p.Sigma.At(i, j) + 2*pen
			J.Set(i, j, bij/4)
			h[i] -= bij / 4
			h[j] -= bij / 4
			offset += bij / 4
		}
	}
	return h, J, offset
}

// Metrics returns the equal-weight portfolio return μ'w and risk sqrt(w'Σw)
// for selection x.
func (p *Problem) Metrics(x []int) (ret, risk float64) {
	k := p.selected(x)
	if k == 0 {
		return 0, 0
	}
	w := make([]float64, len(x))
	for i, xi := range x {
		w[i] = float64(xi) / float64(k)
	}
	ret = floats.Dot(p.Mu, w)
	wv := mat.NewVecDense(len(w), w)
	risk = math.Sqrt(mat.Inner(wv, p.Sigma, wv))
	return ret, risk
}

// Result is one selection and its figures.
type Result struct {
	Selection []int    `json:"selection"`
	Assets    []string `json:"assets"`
	Objective float64  `json:"objective"`
	Return    float64  `json:"return"`
	Risk      float64  `json:"risk"`
}

func (p *Problem) result(x []int) Result {
	r := Result{Selection: append([]int(nil), x...), Objective: p.Objective(x)}
	for i, xi := range x {
		if xi == 1 {
			r.Assets = append(r.Assets, p.Tickers[i])
		}
	}
	r.Return, r.Risk = p.Metrics(x)
	return r
}

// bits expands basis index idx into a selection vector, asset i on bit i.
func bits(idx, n int) []int {
	x := make([]int, n)
	for i := range x {
		x[i] = (idx >> i) & 1
	}
	return x
}
