// Package runner wires the circuit parser, a backend and the histogram
// renderer into the two request flows qlab serves: running a submitted
// OpenQASM program and running a planned Grover search.
package runner

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"qlab/internal/circuit"
	"qlab/internal/grover"
	"qlab/internal/histogram"
	"qlab/internal/sim"
	"qlab/pkg/logger"
)

// ErrExecution wraps failures raised by the backend or the histogram renderer.
var ErrExecution = errors.New("execution failed")

// Runner executes circuits on a backend.
type Runner struct {
	backend sim.Backend
	log     zerolog.Logger
}

// New creates a runner.
func New(backend sim.Backend, log zerolog.Logger) *Runner {
	return &Runner{
		backend: backend,
		log:     logger.Component(log, "runner"),
	}
}

// Outcome is the result of one execution.
type Outcome struct {
	JobID     string         `json:"job_id"`
	Backend   string         `json:"backend"`
	Shots     int            `json:"shots"`
	Counts    map[string]int `json:"counts"`
	Histogram string         `json:"histogram_image_png_base64"`
	QASM      string         `json:"qasm"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
}

// MostFrequent returns the outcome key with the highest count. Ties go to
// the lexically smallest key.
func (o *Outcome) MostFrequent() string {
	best, bestCount := "", -1
	for _, k := range slices.Sorted(maps.Keys(o.Counts)) {
		if o.Counts[k] > bestCount {
			best, bestCount = k, o.Counts[k]
		}
	}
	return best
}

// RunSimulation parses an OpenQASM 2.0 program, runs it and renders the
// histogram.
func (r *Runner) RunSimulation(ctx context.Context, qasm string, shots int) (*Outcome, error) {
	c, err := circuit.ParseQASM(qasm)
	if err != nil {
		return nil, err
	}
	if c.NumCbits() == 0 {
		return nil, sim.ErrNoClassicalBits
	}
	if err := sim.CheckWidth(c.Width(), r.backend.QubitLimit()); err != nil {
		return nil, err
	}
	out, err := r.Execute(ctx, c, shots, "")
	if err != nil {
		return nil, err
	}
	out.QASM = qasm
	return out, nil
}

// Execute runs a circuit and renders its histogram under the given title.
func (r *Runner) Execute(ctx context.Context, c *circuit.Circuit, shots int, title string) (*Outcome, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("%w: got %d", sim.ErrInvalidShots, shots)
	}

	r.log.Debug().
		Int("qubits", c.Width()).
		Int("gates", len(c.Gates)).
		Int("shots", shots).
		Msg("Running circuit")

	res, err := r.backend.Run(ctx, c, shots)
	if err != nil {
		if errors.Is(err, sim.ErrNoClassicalBits) || errors.Is(err, sim.ErrInvalidShots) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	img, err := histogram.PNGBase64(res.Counts, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	r.log.Info().
		Str("job_id", res.JobID).
		Str("backend", res.Backend).
		Int("shots", res.Shots).
		Int("outcomes", len(res.Counts)).
		Dur("elapsed", res.Elapsed).
		Msg("Simulation complete")

	return &Outcome{
		JobID:     res.JobID,
		Backend:   res.Backend,
		Shots:     res.Shots,
		Counts:    res.Counts,
		Histogram: img,
		QASM:      c.ToQASM(),
		Elapsed:   res.Elapsed,
	}, nil
}

// SearchOutcome reports a Grover search run.
type SearchOutcome struct {
	*Outcome
	N                  int      `json:"n"`
	Target             string   `json:"target"`
	Iterations         int      `json:"iterations"`
	Blocks             []string `json:"blocks"`
	Found              string   `json:"found"`
	Success            bool     `json:"success"`
	SuccessProbability float64  `json:"success_probability"`
}

// Search plans a Grover search for target over n qubits, runs it and checks
// whether the most frequent outcome is the target.
func (r *Runner) Search(ctx context.Context, n int, target string, shots int) (*SearchOutcome, error) {
	// refuse before planning; the lowered circuit grows with sqrt(2^n)
	if err := sim.CheckWidth(n, r.backend.QubitLimit()); err != nil {
		return nil, err
	}
	plan, err := grover.PlanSearch(n, target)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Grover search for |%s> (%d iterations)", target, plan.Iterations())
	out, err := r.Execute(ctx, grover.Lower(plan), shots, title)
	if err != nil {
		return nil, err
	}

	blocks := plan.Blocks()
	names := make([]string, len(blocks))
	for i, b := range blocks {
		names[i] = b.String()
	}

	found := out.MostFrequent()
	so := &SearchOutcome{
		Outcome:            out,
		N:                  n,
		Target:             target,
		Iterations:         plan.Iterations(),
		Blocks:             names,
		Found:              found,
		Success:            found == target,
		SuccessProbability: grover.SuccessProbability(n, plan.Iterations()),
	}

	r.log.Info().
		Int("n", n).
		Str("target", target).
		Str("found", found).
		Bool("success", so.Success).
		Msg("Grover search complete")

	return so, nil
}
