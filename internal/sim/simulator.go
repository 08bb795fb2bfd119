package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"qlab/internal/circuit"
)

var (
	// ErrNoClassicalBits is returned for circuits with no classical register
	// and no measurements.
	ErrNoClassicalBits = errors.New("circuit is missing classical measurement bits")
	ErrInvalidShots    = errors.New("shots must be positive")
	ErrTooManyQubits   = errors.New("circuit exceeds the simulator qubit limit")
)

// DefaultMaxQubits bounds the statevector to 2^16 amplitudes.
const DefaultMaxQubits = 16

// Result is the outcome of running a circuit for a number of shots.
type Result struct {
	JobID   string
	Backend string
	Shots   int
	// Counts is keyed by classical register value, highest bit first.
	Counts  map[string]int
	Elapsed time.Duration
}

// Backend executes circuits.
type Backend interface {
	Name() string
	// QubitLimit is the widest circuit Run accepts.
	QubitLimit() int
	Run(ctx context.Context, c *circuit.Circuit, shots int) (*Result, error)
}

// Simulator is the in-process statevector backend.
type Simulator struct {
	MaxQubits int
	seed      uint64
}

// New returns a simulator. A zero seed draws a fresh seed per run; any other
// value makes every run of the same circuit reproducible.
func New(maxQubits int, seed int64) *Simulator {
	if maxQubits <= 0 {
		maxQubits = DefaultMaxQubits
	}
	return &Simulator{MaxQubits: maxQubits, seed: uint64(seed)}
}

func (s *Simulator) Name() string { return "statevector_simulator" }

func (s *Simulator) QubitLimit() int { return s.MaxQubits }

func (s *Simulator) rng() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Run simulates c for the given number of shots.
func (s *Simulator) Run(ctx context.Context, c *circuit.Circuit, shots int) (*Result, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShots, shots)
	}
	numCbits := c.NumCbits()
	if numCbits == 0 {
		return nil, ErrNoClassicalBits
	}
	width := c.Width()
	if err := CheckWidth(width, s.MaxQubits); err != nil {
		return nil, err
	}

	start := time.Now()
	rng := s.rng()

	var (
		counts map[string]int
		err    error
	)
	if terminalOnly(c) {
		counts, err = s.sample(ctx, c, width, numCbits, shots, rng)
	} else {
		counts, err = s.perShot(ctx, c, width, numCbits, shots, rng)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		JobID:   uuid.NewString(),
		Backend: s.Name(),
		Shots:   shots,
		Counts:  counts,
		Elapsed: time.Since(start),
	}, nil
}

// CheckWidth fails with ErrTooManyQubits when width exceeds limit.
func CheckWidth(width, limit int) error {
	if width > limit {
		return fmt.Errorf("%w: %d > %d", ErrTooManyQubits, width, limit)
	}
	return nil
}

// terminalOnly reports whether the circuit can be simulated once and sampled:
// no resets, no classical conditions, and no qubit is touched or measured
// again after it has been measured.
func terminalOnly(c *circuit.Circuit) bool {
	measured := map[int]bool{}
	for _, g := range c.Ordered() {
		if g.IsReset || g.ClassicalControl >= 0 {
			return false
		}
		for _, q := range g.Qubits() {
			if measured[q] {
				return false
			}
		}
		if g.Type == "MEASURE" {
			measured[g.Target] = true
		}
	}
	return true
}

func (s *Simulator) sample(ctx context.Context, c *circuit.Circuit, width, numCbits, shots int, rng *rand.Rand) (map[string]int, error) {
	state := NewStateVector(width)
	if err := state.Evolve(c); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probs := state.Probabilities()
	cdf := make([]float64, len(probs))
	floats.CumSum(cdf, probs)
	total := cdf[len(cdf)-1]

	var measures []circuit.Gate
	for _, g := range c.Gates {
		if g.Type == "MEASURE" {
			measures = append(measures, g)
		}
	}

	bits := make([]int, numCbits)
	counts := make(map[string]int)
	for range shots {
		idx := sort.SearchFloat64s(cdf, rng.Float64()*total)
		idx = min(idx, len(cdf)-1)
		clear(bits)
		for _, m := range measures {
			bits[m.Cbit] = (idx >> m.Target) & 1
		}
		counts[key(bits)]++
	}
	return counts, nil
}

func (s *Simulator) perShot(ctx context.Context, c *circuit.Circuit, width, numCbits, shots int, rng *rand.Rand) (map[string]int, error) {
	gates := c.Ordered()
	bits := make([]int, numCbits)
	counts := make(map[string]int)
	for range shots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state := NewStateVector(width)
		clear(bits)
		for _, g := range gates {
			if g.ClassicalControl >= 0 && bits[g.ClassicalControl] != 1 {
				continue
			}
			switch {
			case g.Type == "MEASURE":
				bits[g.Cbit] = state.Measure(g.Target, rng.Float64())
			case g.IsReset:
				state.Reset(g.Target, rng.Float64())
			default:
				if err := state.Apply(g); err != nil {
					return nil, err
				}
			}
		}
		counts[key(bits)]++
	}
	return counts, nil
}

// key renders classical bits as c[m-1]...c[0].
func key(bits []int) string {
	var sb strings.Builder
	sb.Grow(len(bits))
	for i := len(bits) - 1; i >= 0; i-- {
		sb.WriteByte(byte('0' + bits[i]))
	}
	return sb.String()
}
