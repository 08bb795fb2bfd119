package portfolio

// SolveExact enumerates every selection and returns the feasible one with the
// lowest objective. Ties go to the lowest basis index.
func SolveExact(p *Problem) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.N()
	var best []int
	bestVal := 0.0
	for idx := range 1 << n {
		x := bits(idx, n)
		if !p.Feasible(x) {
			continue
		}
		if v := p.Objective(x); best == nil || v < bestVal {
			best, bestVal = x, v
		}
	}
	r := p.result(best)
	return &r, nil
}
