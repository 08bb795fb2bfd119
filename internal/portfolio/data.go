package portfolio

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Data is a set of daily price series, one per ticker.
type Data struct {
	Tickers []string
	Dates   []time.Time
	Prices  [][]float64 // [ticker][day]
}

// MaxDays bounds the length of a generated price series.
const MaxDays = 3660

// Tickers returns TICKER0..TICKERn-1.
func Tickers(n int) []string {
	out := make([]string, max(n, 0))
	for i := range out {
		out[i] = fmt.Sprintf("TICKER%d", i)
	}
	return out
}

// RandomData generates one seeded random-walk price path per ticker, one
// price per calendar day in [start, end).
func RandomData(tickers []string, start, end time.Time, seed int64) (*Data, error) {
	days := int(end.Sub(start).Hours() / 24)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers", ErrInvalidProblem)
	}
	if days > MaxDays {
		return nil, fmt.Errorf("%w: %d days exceeds the limit of %d", ErrInvalidProblem, days, MaxDays)
	}
	if days < 3 {
		return nil, fmt.Errorf("%w: need at least 3 days of data, got %d", ErrInvalidProblem, days)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	d := &Data{
		Tickers: append([]string(nil), tickers...),
		Dates:   make([]time.Time, days),
		Prices:  make([][]float64, len(tickers)),
	}
	for i := range d.Dates {
		d.Dates[i] = start.AddDate(0, 0, i)
	}
	for t := range tickers {
		prices := make([]float64, days)
		prices[0] = 1 + 99*rng.Float64()
		for i := 1; i < days; i++ {
			prices[i] = max(prices[i-1]+rng.NormFloat64(), 1)
		}
		d.Prices[t] = prices
	}
	return d, nil
}

// returns is the (days-1) x tickers matrix of simple daily returns.
func (d *Data) returns() *mat.Dense {
	days := len(d.Prices[0])
	r := mat.NewDense(days-1, len(d.Tickers), nil)
	for t, prices := range d.Prices {
		for i := 1; i < days; i++ {
			r.Set(i-1, t, prices[i]/prices[i-1]-1)
		}
	}
	return r
}

// PeriodReturnMean is the mean daily return of each ticker.
func (d *Data) PeriodReturnMean() []float64 {
	r := d.returns()
	mu := make([]float64, len(d.Tickers))
	for t := range mu {
		mu[t] = stat.Mean(mat.Col(nil, t, r), nil)
	}
	return mu
}

// PeriodReturnCovariance is the sample covariance of daily returns.
func (d *Data) PeriodReturnCovariance() *mat.SymDense {
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, d.returns(), nil)
	return &cov
}
