package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qlab/internal/circuit"
	"qlab/internal/grover"
	"qlab/internal/sim"
)

const bellQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0], q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`

func newRunner() *Runner {
	return New(sim.New(0, 99), zerolog.Nop())
}

func TestRunSimulation(t *testing.T) {
	out, err := newRunner().RunSimulation(context.Background(), bellQASM, 1024)
	require.NoError(t, err)

	assert.Equal(t, 1024, out.Counts["00"]+out.Counts["11"])
	assert.NotEmpty(t, out.Histogram)
	assert.NotEmpty(t, out.JobID)
	assert.Equal(t, bellQASM, out.QASM)
}

func TestRunSimulationInputErrors(t *testing.T) {
	r := newRunner()
	ctx := context.Background()

	_, err := r.RunSimulation(ctx, "qreg q[1];\nh q[0];", 10)
	assert.ErrorIs(t, err, sim.ErrNoClassicalBits)

	_, err = r.RunSimulation(ctx, "not qasm", 10)
	assert.ErrorIs(t, err, circuit.ErrParse)

	_, err = r.RunSimulation(ctx, bellQASM, -5)
	assert.ErrorIs(t, err, sim.ErrInvalidShots)
}

type failingBackend struct{ err error }

func (f failingBackend) Name() string    { return "failing" }
func (f failingBackend) QubitLimit() int { return sim.DefaultMaxQubits }
func (f failingBackend) Run(context.Context, *circuit.Circuit, int) (*sim.Result, error) {
	return nil, f.err
}

// narrowBackend accepts at most limit qubits and records every run.
type narrowBackend struct {
	limit int
	runs  int
}

func (b *narrowBackend) Name() string    { return "narrow" }
func (b *narrowBackend) QubitLimit() int { return b.limit }
func (b *narrowBackend) Run(context.Context, *circuit.Circuit, int) (*sim.Result, error) {
	b.runs++
	return &sim.Result{Counts: map[string]int{"0": 1}}, nil
}

func TestSearchRejectsWideSpaceBeforePlanning(t *testing.T) {
	b := &narrowBackend{limit: 4}
	r := New(b, zerolog.Nop())

	for _, n := range []int{5, 28, 32, 100} {
		_, err := r.Search(context.Background(), n, strings.Repeat("1", n), 10)
		assert.ErrorIs(t, err, sim.ErrTooManyQubits, "n=%d", n)
	}
	assert.Zero(t, b.runs)

	// size errors still win below the limit
	_, err := r.Search(context.Background(), 0, "", 10)
	assert.ErrorIs(t, err, grover.ErrInvalidSize)
}

func TestRunSimulationRejectsWideCircuitBeforeRunning(t *testing.T) {
	b := &narrowBackend{limit: 4}
	r := New(b, zerolog.Nop())

	_, err := r.RunSimulation(context.Background(), "qreg q[20];\ncreg c[20];\nh q;\nmeasure q -> c;", 1)
	assert.ErrorIs(t, err, sim.ErrTooManyQubits)
	assert.Zero(t, b.runs)

	_, err = r.RunSimulation(context.Background(), "qreg q[5000000];\ncreg c[5000000];\nh q;\nmeasure q -> c;", 1)
	assert.ErrorIs(t, err, circuit.ErrParse)
	assert.Zero(t, b.runs)
}

func TestExecuteWrapsBackendFailures(t *testing.T) {
	boom := errors.New("boom")
	r := New(failingBackend{err: boom}, zerolog.Nop())

	_, err := r.RunSimulation(context.Background(), bellQASM, 10)
	assert.ErrorIs(t, err, ErrExecution)
	assert.ErrorIs(t, err, boom)
}

func TestSearch(t *testing.T) {
	out, err := newRunner().Search(context.Background(), 2, "11", 1024)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, []string{"state_prep", "oracle(11)", "diffuser", "measure"}, out.Blocks)
	assert.Equal(t, "11", out.Found)
	assert.True(t, out.Success)
	assert.InDelta(t, 1.0, out.SuccessProbability, 1e-9)
	assert.Equal(t, map[string]int{"11": 1024}, out.Counts)
	assert.Contains(t, out.QASM, "cz q[0], q[1];")
}

func TestSearchRejectsBadTarget(t *testing.T) {
	_, err := newRunner().Search(context.Background(), 2, "111", 10)
	assert.ErrorIs(t, err, grover.ErrInvalidTarget)
}

func TestMostFrequentTieBreak(t *testing.T) {
	o := &Outcome{Counts: map[string]int{"10": 5, "01": 5, "00": 1}}
	assert.Equal(t, "01", o.MostFrequent())
}

func TestRunnerTagsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	r := New(sim.New(0, 99), zerolog.New(&buf).With().Str("service", "qlab").Logger())
	_, err := r.RunSimulation(context.Background(), bellQASM, 16)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"component"`), line)
		assert.Contains(t, line, `"component":"runner"`)
	}
}
