package portfolio

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"qlab/internal/sim"
)

var (
	start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2020, 1, 30, 0, 0, 0, 0, time.UTC)
)

func defaultProblem(t *testing.T) *Problem {
	t.Helper()
	data, err := RandomData(Tickers(4), start, end, 123)
	require.NoError(t, err)
	p, err := NewProblem(data.Tickers, data.PeriodReturnMean(), data.PeriodReturnCovariance(), 0.5, 2)
	require.NoError(t, err)
	return p
}

func TestRandomData(t *testing.T) {
	a, err := RandomData(Tickers(4), start, end, 123)
	require.NoError(t, err)
	b, err := RandomData(Tickers(4), start, end, 123)
	require.NoError(t, err)
	c, err := RandomData(Tickers(4), start, end, 124)
	require.NoError(t, err)

	assert.Equal(t, []string{"TICKER0", "TICKER1", "TICKER2", "TICKER3"}, a.Tickers)
	assert.Len(t, a.Dates, 29)
	assert.Equal(t, a.Prices, b.Prices)
	assert.NotEqual(t, a.Prices, c.Prices)

	mu := a.PeriodReturnMean()
	cov := a.PeriodReturnCovariance()
	require.Len(t, mu, 4)
	require.Equal(t, 4, cov.SymmetricDim())
	for i := range 4 {
		assert.Greater(t, cov.At(i, i), 0.0)
		for j := range 4 {
			assert.Equal(t, cov.At(i, j), cov.At(j, i))
		}
	}
}

func TestRandomDataRejectsShortWindow(t *testing.T) {
	_, err := RandomData(Tickers(2), start, start.AddDate(0, 0, 1), 1)
	assert.ErrorIs(t, err, ErrInvalidProblem)
	_, err = RandomData(nil, start, end, 1)
	assert.ErrorIs(t, err, ErrInvalidProblem)
}

func TestNewProblemValidation(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	tests := []struct {
		name    string
		tickers []string
		mu      []float64
		sigma   *mat.SymDense
		risk    float64
		budget  int
	}{
		{"no assets", nil, nil, sigma, 0.5, 1},
		{"ticker mismatch", []string{"A"}, []float64{1, 2}, sigma, 0.5, 1},
		{"sigma size", []string{"A", "B", "C"}, []float64{1, 2, 3}, sigma, 0.5, 1},
		{"budget zero", []string{"A", "B"}, []float64{1, 2}, sigma, 0.5, 0},
		{"budget too big", []string{"A", "B"}, []float64{1, 2}, sigma, 0.5, 3},
		{"negative risk", []string{"A", "B"}, []float64{1, 2}, sigma, -1, 1},
	}
	for _, tt := range tests {
		_, err := NewProblem(tt.tickers, tt.mu, tt.sigma, tt.risk, tt.budget)
		assert.ErrorIs(t, err, ErrInvalidProblem, tt.name)
	}
}

func TestIsingMatchesPenalizedObjective(t *testing.T) {
	p := defaultProblem(t)
	h, J, offset := p.Ising()
	n := p.N()

	for idx := range 1 << n {
		x := bits(idx, n)
		z := make([]float64, n)
		for i, xi := range x {
			z[i] = 1 - 2*float64(xi)
		}
		e := offset
		for i := range n {
			e += h[i] * z[i]
			for j := i + 1; j < n; j++ {
				e += J.At(i, j) * z[i] * z[j]
			}
		}
		assert.InDelta(t, p.Penalized(x), e, 1e-9, "selection %v", x)
	}
}

func TestSolveExact(t *testing.T) {
	// asset 2 has the best return, assets 0 and 2 are uncorrelated
	sigma := mat.NewSymDense(3, []float64{
		0.01, 0.02, 0.00,
		0.02, 0.01, 0.02,
		0.00, 0.02, 0.01,
	})
	p, err := NewProblem([]string{"A", "B", "C"}, []float64{0.02, 0.01, 0.03}, sigma, 1, 2)
	require.NoError(t, err)

	res, err := SolveExact(p)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, res.Selection)
	assert.Equal(t, []string{"A", "C"}, res.Assets)
	assert.InDelta(t, 0.02-0.05, res.Objective, 1e-12)
	assert.InDelta(t, 0.025, res.Return, 1e-12)
	assert.InDelta(t, math.Sqrt(0.005), res.Risk, 1e-12)
}

func TestMetricsEmptySelection(t *testing.T) {
	p := defaultProblem(t)
	ret, risk := p.Metrics([]int{0, 0, 0, 0})
	assert.Zero(t, ret)
	assert.Zero(t, risk)
}

func TestAnsatzAtZeroIsUniform(t *testing.T) {
	p := defaultProblem(t)
	s := sim.NewStateVector(p.N())
	require.NoError(t, s.Evolve(Ansatz(p, make([]float64, 6))))
	for i := range s.Amplitudes {
		assert.InDelta(t, 1.0/16, s.Probability(i), 1e-12)
	}
}

func TestSolveQAOA(t *testing.T) {
	p := defaultProblem(t)
	exact, err := SolveExact(p)
	require.NoError(t, err)

	res, err := SolveQAOA(context.Background(), p, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, p.Feasible(res.Selection))
	assert.Len(t, res.Assets, 2)
	assert.GreaterOrEqual(t, res.Objective, exact.Objective-1e-12)
	assert.Len(t, res.Params, 6)
	assert.Positive(t, res.Evaluations)
	assert.Greater(t, res.Probability, 0.0)
	assert.False(t, math.IsInf(res.ExpectedCost, 0))
	assert.Contains(t, res.QASM, "rx(")

	again, err := SolveQAOA(context.Background(), p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, res.Selection, again.Selection)
	assert.Equal(t, res.Params, again.Params)
}

func TestSolveQAOACancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SolveQAOA(ctx, defaultProblem(t), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveQAOARejectsOptions(t *testing.T) {
	_, err := SolveQAOA(context.Background(), defaultProblem(t), Options{Reps: 0, MaxIter: 10})
	assert.ErrorIs(t, err, ErrInvalidProblem)
}

func TestRunDefaultScenario(t *testing.T) {
	rep, err := Run(context.Background(), DefaultScenario())
	require.NoError(t, err)

	assert.Len(t, rep.Tickers, 4)
	assert.Len(t, rep.Sigma, 4)
	assert.Len(t, rep.Exact.Assets, 2)
	assert.Equal(t, rep.Optimal, rep.QAOA.Objective == rep.Exact.Objective)
}

func TestRunRejectsBadScenario(t *testing.T) {
	s := DefaultScenario()
	s.Budget = 9
	_, err := Run(context.Background(), s)
	assert.ErrorIs(t, err, ErrInvalidProblem)
}

func TestTickersNonPositive(t *testing.T) {
	assert.Empty(t, Tickers(0))
	assert.Empty(t, Tickers(-1))
}

func TestRandomDataRejectsLongWindow(t *testing.T) {
	_, err := RandomData(Tickers(2), start, start.AddDate(100, 0, 0), 1)
	assert.ErrorIs(t, err, ErrInvalidProblem)
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Scenario)
	}{
		{"negative assets", func(s *Scenario) { s.Assets = -1 }},
		{"no assets", func(s *Scenario) { s.Assets = 0 }},
		{"too many assets", func(s *Scenario) { s.Assets = MaxAssets + 1 }},
		{"no reps", func(s *Scenario) { s.Options.Reps = 0 }},
		{"too many reps", func(s *Scenario) { s.Options.Reps = 1 << 30 }},
		{"no evaluations", func(s *Scenario) { s.Options.MaxIter = 0 }},
		{"too many evaluations", func(s *Scenario) { s.Options.MaxIter = MaxEvaluations + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScenario()
			tt.edit(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidProblem)
			_, err := Run(context.Background(), s)
			assert.ErrorIs(t, err, ErrInvalidProblem)
		})
	}
	assert.NoError(t, DefaultScenario().Validate())
}
