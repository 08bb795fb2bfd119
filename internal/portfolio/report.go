package portfolio

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Scenario describes a generated portfolio problem and how to solve it.
type Scenario struct {
	Assets     int
	Seed       int64
	RiskFactor float64
	Budget     int
	Start      time.Time
	End        time.Time
	Options    Options
}

// DefaultScenario is four tickers over January 2020, risk factor 0.5, budget 2.
func DefaultScenario() Scenario {
	return Scenario{
		Assets:     4,
		Seed:       123,
		RiskFactor: 0.5,
		Budget:     2,
		Start:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2020, 1, 30, 0, 0, 0, 0, time.UTC),
		Options:    DefaultOptions(),
	}
}

// Report compares the QAOA selection with the exact optimum.
type Report struct {
	Tickers []string    `json:"tickers"`
	Mu      []float64   `json:"mu"`
	Sigma   [][]float64 `json:"sigma"`
	QAOA    *QAOAResult `json:"qaoa"`
	Exact   *Result     `json:"exact"`
	Optimal bool        `json:"optimal"`
}

// Validate checks the sizes in s before any data is generated. The budget and
// risk factor are checked with the problem itself.
func (s Scenario) Validate() error {
	if s.Assets < 1 || s.Assets > MaxAssets {
		return fmt.Errorf("%w: assets %d outside 1..%d", ErrInvalidProblem, s.Assets, MaxAssets)
	}
	return s.Options.Validate()
}

// Run generates data for s, then solves it both ways.
func Run(ctx context.Context, s Scenario) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	data, err := RandomData(Tickers(s.Assets), s.Start, s.End, s.Seed)
	if err != nil {
		return nil, err
	}
	p, err := NewProblem(data.Tickers, data.PeriodReturnMean(), data.PeriodReturnCovariance(), s.RiskFactor, s.Budget)
	if err != nil {
		return nil, err
	}

	exact, err := SolveExact(p)
	if err != nil {
		return nil, err
	}
	q, err := SolveQAOA(ctx, p, s.Options)
	if err != nil {
		return nil, err
	}

	n := p.N()
	sigma := make([][]float64, n)
	for i := range sigma {
		sigma[i] = make([]float64, n)
		for j := range sigma[i] {
			sigma[i][j] = p.Sigma.At(i, j)
		}
	}

	return &Report{
		Tickers: p.Tickers,
		Mu:      p.Mu,
		Sigma:   sigma,
		QAOA:    q,
		Exact:   exact,
		Optimal: slices.Equal(q.Selection, exact.Selection),
	}, nil
}
