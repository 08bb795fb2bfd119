// Package grover plans Grover searches over n-bit index spaces.
//
// A plan is an ordered list of gate blocks: one state preparation, a number
// of oracle/diffuser rounds chosen from the size of the space, and a final
// measurement. Plans are immutable values; Lower turns one into a circuit.
package grover

import (
	"fmt"
	"math"
	"slices"
)

// Kind identifies a block in a search plan.
type Kind int

const (
	StatePrep Kind = iota
	Oracle
	Diffuser
	Measure
)

func (k Kind) String() string {
	switch k {
	case StatePrep:
		return "state_prep"
	case Oracle:
		return "oracle"
	case Diffuser:
		return "diffuser"
	case Measure:
		return "measure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Block is one step of a plan. Target is set only on Oracle blocks.
type Block struct {
	Kind   Kind
	N      int
	Target string
}

func (b Block) String() string {
	if b.Kind == Oracle {
		return fmt.Sprintf("%s(%s)", b.Kind, b.Target)
	}
	return b.Kind.String()
}

// Plan is a validated search over 2^n states for one target.
type Plan struct {
	n          int
	target     string
	iterations int
	blocks     []Block
}

func (p *Plan) N() int          { return p.n }
func (p *Plan) Target() string  { return p.target }
func (p *Plan) Iterations() int { return p.iterations }

// Blocks returns a copy of the block sequence.
func (p *Plan) Blocks() []Block {
	return slices.Clone(p.blocks)
}

// MaxSize is the largest number of index bits PlanSearch accepts. Plans grow
// with sqrt(2^n), so 2^30 states already need tens of thousands of rounds.
const MaxSize = 30

// Iterations returns the number of oracle/diffuser rounds for an n-bit space:
// floor(pi/4 * sqrt(2^n)), at least 1. It saturates at math.MaxInt.
func Iterations(n int) int {
	k := math.Floor(math.Pi / 4 * math.Sqrt(math.Exp2(float64(n))))
	if k >= math.MaxInt {
		return math.MaxInt
	}
	return max(int(k), 1)
}

// PlanSearch builds the block sequence that searches 2^n states for target.
// The target is written most significant bit first; character k addresses
// qubit n-1-k so that measured counts read back as the target itself.
func PlanSearch(n int, target string) (*Plan, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be at least 1, got %d", ErrInvalidSize, n)
	}
	if n > MaxSize {
		return nil, fmt.Errorf("%w: n must be at most %d, got %d", ErrInvalidSize, MaxSize, n)
	}
	if len(target) != n {
		return nil, fmt.Errorf("%w: length %d does not match n=%d", ErrInvalidTarget, len(target), n)
	}
	for i, r := range target {
		if r != '0' && r != '1' {
			return nil, fmt.Errorf("%w: character %q at %d is not a bit", ErrInvalidTarget, r, i)
		}
	}

	k := Iterations(n)
	blocks := make([]Block, 0, 2*k+2)
	blocks = append(blocks, Block{Kind: StatePrep, N: n})
	for range k {
		blocks = append(blocks,
			Block{Kind: Oracle, N: n, Target: target},
			Block{Kind: Diffuser, N: n},
		)
	}
	blocks = append(blocks, Block{Kind: Measure, N: n})

	return &Plan{n: n, target: target, iterations: k, blocks: blocks}, nil
}
