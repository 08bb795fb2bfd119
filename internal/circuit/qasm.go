package circuit

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrParse is returned for circuit descriptions that cannot be understood.
var ErrParse = errors.New("invalid circuit description")

// MaxRegisterSize bounds the qreg size and the total size of all cregs.
const MaxRegisterSize = 64

// registerSize reads a declared register size and checks it against the
// bits already declared.
func registerSize(digits string, declared int) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || declared+n > MaxRegisterSize {
		return 0, fmt.Errorf("register size %s exceeds the limit of %d bits", digits, MaxRegisterSize)
	}
	return n, nil
}

var (
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureRegex = regexp.MustCompile(`^measure\s+(\w+)(?:\s*\[\s*(\d+)\s*\])?\s*->\s*(\w+)(?:\s*\[\s*(\d+)\s*\])?$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*(\w+)(?:\s*\[\s*(\d+)\s*\])?\s*==\s*(\d+)\s*\)\s*(.+)$`)
	gateRegex    = regexp.MustCompile(`^([a-zA-Z]\w*)\s*(?:\(([^)]*)\))?\s+(.+)$`)
	argRegex     = regexp.MustCompile(`^(\w+)(?:\s*\[\s*(\d+)\s*\])?$`)
)

// qasmNames maps gate types to their OpenQASM spelling where it differs from
// the lower-cased type.
var qasmNames = map[string]string{
	"I":   "id",
	"CP":  "cu1",
	"CU1": "cu1",
}

// arity is the number of qubit operands for gates with a fixed shape. Gates
// missing from the table (MCX, MCZ) take one or more.
var arity = map[string]int{
	"I": 1, "H": 1, "X": 1, "Y": 1, "Z": 1, "S": 1, "T": 1, "SX": 1,
	"RX": 1, "RY": 1, "RZ": 1, "P": 1, "U1": 1, "U2": 1, "U3": 1,
	"CX": 2, "CZ": 2, "CH": 2, "SWAP": 2, "CRX": 2, "CRY": 2, "CRZ": 2, "CU1": 2, "CP": 2,
	"CCX": 3,
}

// paramCount is the number of parameters each parameterized gate takes.
var paramCount = map[string]int{
	"RX": 1, "RY": 1, "RZ": 1, "P": 1, "U1": 1, "U2": 2, "U3": 3,
	"CRX": 1, "CRY": 1, "CRZ": 1, "CU1": 1, "CP": 1,
}

// qasmName returns the OpenQASM spelling of a gate, folding multi-controlled
// gates with few controls into their standard forms.
func qasmName(g Gate) string {
	switch g.Type {
	case "MCX", "CCX":
		switch len(g.Controls) {
		case 0:
			return "x"
		case 1:
			return "cx"
		case 2:
			return "ccx"
		}
		return "mcx"
	case "MCZ":
		switch len(g.Controls) {
		case 0:
			return "z"
		case 1:
			return "cz"
		}
		return "mcz"
	}
	name, ok := qasmNames[g.Type]
	if !ok {
		name = strings.ToLower(g.Type)
	}
	if g.IsDagger {
		name += "dg"
	}
	return name
}

// ToQASM generates OpenQASM 2.0 from the circuit. Multi-controlled gates with
// more than two controls are written as mcx/mcz, which ParseQASM reads back.
func (c *Circuit) ToQASM() string {
	numQubits := max(c.Width(), 1)
	numCbits := max(c.NumCbits(), 1)

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", numQubits)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", numCbits)

	for _, g := range c.Ordered() {
		switch {
		case g.Type == "BARRIER":
			qubits := make([]string, numQubits)
			for q := range numQubits {
				qubits[q] = fmt.Sprintf("q[%d]", q)
			}
			fmt.Fprintf(&sb, "barrier %s;\n", strings.Join(qubits, ", "))
		case g.IsReset:
			fmt.Fprintf(&sb, "reset q[%d];\n", g.Target)
		case g.Type == "MEASURE":
			fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", g.Target, g.Cbit)
		case g.ClassicalControl >= 0:
			fmt.Fprintf(&sb, "if (c[%d]==1) %s;\n", g.ClassicalControl, gateStatement(g))
		default:
			sb.WriteString(gateStatement(g) + ";\n")
		}
	}
	return sb.String()
}

// gateStatement renders "name(params) operands" with controls before the target.
func gateStatement(g Gate) string {
	var sb strings.Builder
	sb.WriteString(qasmName(g))
	if len(g.Params) > 0 {
		ps := make([]string, len(g.Params))
		for i, p := range g.Params {
			ps[i] = FormatParam(p)
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(ps, ", "))
	}
	var operands []string
	if g.Control >= 0 {
		operands = append(operands, fmt.Sprintf("q[%d]", g.Control))
	}
	for _, ctrl := range g.Controls {
		operands = append(operands, fmt.Sprintf("q[%d]", ctrl))
	}
	operands = append(operands, fmt.Sprintf("q[%d]", g.Target))
	sb.WriteString(" " + strings.Join(operands, ", "))
	return sb.String()
}

// parser carries register declarations while reading a QASM program.
type parser struct {
	c       *Circuit
	qreg    string
	cregs   map[string][2]int // name -> offset, size
	numCbit int
	step    int
}

// ParseQASM parses an OpenQASM 2.0 program into a circuit. Every gate lands on
// its own step in program order. Statements outside the supported subset fail
// with ErrParse.
func ParseQASM(src string) (*Circuit, error) {
	p := &parser{c: &Circuit{}, cregs: make(map[string][2]int)}

	lineNo := 0
	for raw := range strings.SplitSeq(src, "\n") {
		lineNo++
		if i := strings.Index(raw, "//"); i >= 0 {
			raw = raw[:i]
		}
		for stmt := range strings.SplitSeq(raw, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrParse, lineNo, err)
			}
		}
	}
	if p.qreg == "" {
		return nil, fmt.Errorf("%w: no qreg declared", ErrParse)
	}
	p.c.Clbits = p.numCbit
	return p.c, nil
}

func (p *parser) statement(stmt string) error {
	switch {
	case strings.HasPrefix(stmt, "OPENQASM"), strings.HasPrefix(stmt, "include"):
		return nil
	case strings.HasPrefix(stmt, "qreg"):
		m := qregRegex.FindStringSubmatch(stmt)
		if m == nil {
			return fmt.Errorf("malformed qreg %q", stmt)
		}
		if p.qreg != "" {
			return fmt.Errorf("only one qreg is supported")
		}
		n, err := registerSize(m[2], 0)
		if err != nil {
			return err
		}
		p.qreg, p.c.NumQubits = m[1], n
		return nil
	case strings.HasPrefix(stmt, "creg"):
		m := cregRegex.FindStringSubmatch(stmt)
		if m == nil {
			return fmt.Errorf("malformed creg %q", stmt)
		}
		n, err := registerSize(m[2], p.numCbit)
		if err != nil {
			return err
		}
		p.cregs[m[1]] = [2]int{p.numCbit, n}
		p.numCbit += n
		return nil
	case strings.HasPrefix(stmt, "barrier"):
		p.c.AddBarrier(p.step)
		p.step++
		return nil
	case strings.HasPrefix(stmt, "measure"):
		return p.measure(stmt)
	case strings.HasPrefix(stmt, "reset"):
		qs, err := p.qubits(strings.TrimSpace(strings.TrimPrefix(stmt, "reset")))
		if err != nil {
			return err
		}
		for _, q := range qs {
			p.c.AddReset(q, p.step)
			p.step++
		}
		return nil
	case strings.HasPrefix(stmt, "if"):
		return p.conditional(stmt)
	}
	return p.gate(stmt, -1)
}

func (p *parser) measure(stmt string) error {
	m := measureRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("malformed measure %q", stmt)
	}
	if m[1] != p.qreg {
		return fmt.Errorf("unknown qreg %q", m[1])
	}
	creg, ok := p.cregs[m[3]]
	if !ok {
		return fmt.Errorf("unknown creg %q", m[3])
	}
	if m[2] == "" && m[4] == "" {
		if creg[1] < p.c.NumQubits {
			return fmt.Errorf("creg %q too small for qreg %q", m[3], m[1])
		}
		for q := range p.c.NumQubits {
			p.c.AddMeasureInto(q, creg[0]+q, p.step)
		}
		p.step++
		return nil
	}
	if m[2] == "" || m[4] == "" {
		return fmt.Errorf("measure operands must both be indexed or both whole registers")
	}
	q, _ := strconv.Atoi(m[2])
	b, _ := strconv.Atoi(m[4])
	if q >= p.c.NumQubits {
		return fmt.Errorf("qubit index %d out of range", q)
	}
	if b >= creg[1] {
		return fmt.Errorf("classical bit index %d out of range", b)
	}
	p.c.AddMeasureInto(q, creg[0]+b, p.step)
	p.step++
	return nil
}

func (p *parser) conditional(stmt string) error {
	m := ifRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("malformed if %q", stmt)
	}
	creg, ok := p.cregs[m[1]]
	if !ok {
		return fmt.Errorf("unknown creg %q", m[1])
	}
	bit := creg[0]
	switch {
	case m[2] != "":
		idx, _ := strconv.Atoi(m[2])
		if idx >= creg[1] {
			return fmt.Errorf("classical bit index %d out of range", idx)
		}
		bit += idx
	case creg[1] != 1:
		return fmt.Errorf("conditions on multi-bit register %q are not supported", m[1])
	}
	if m[3] != "1" {
		return fmt.Errorf("only ==1 conditions are supported")
	}
	return p.gate(m[4], bit)
}

func (p *parser) gate(stmt string, cbit int) error {
	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("unrecognized statement %q", stmt)
	}
	name := strings.ToUpper(m[1])
	dagger := false
	if name == "SDG" || name == "TDG" || name == "SXDG" {
		name, dagger = strings.TrimSuffix(name, "DG"), true
	}
	if name == "ID" {
		name = "I"
	}
	if name == "TOFFOLI" {
		name = "CCX"
	}
	want, fixed := arity[name]
	if !fixed && name != "MCX" && name != "MCZ" {
		return fmt.Errorf("unsupported gate %q", m[1])
	}

	var params []float64
	if m[2] != "" {
		params = ParseParams(m[2])
		if params == nil {
			return fmt.Errorf("bad parameters %q", m[2])
		}
	}
	if len(params) != paramCount[name] {
		return fmt.Errorf("gate %q takes %d parameters, got %d", m[1], paramCount[name], len(params))
	}

	var operands []int
	for arg := range strings.SplitSeq(m[3], ",") {
		qs, err := p.qubits(strings.TrimSpace(arg))
		if err != nil {
			return err
		}
		operands = append(operands, qs...)
	}

	if want == 1 && len(operands) > 1 && !strings.Contains(m[3], ",") && cbit < 0 {
		// "h q;" broadcasts a single-qubit gate over the register
		for _, q := range operands {
			p.add(name, q, nil, params, dagger, cbit)
		}
		p.step++
		return nil
	}
	if fixed && len(operands) != want {
		return fmt.Errorf("gate %q takes %d qubits, got %d", m[1], want, len(operands))
	}
	if !fixed && len(operands) < 1 {
		return fmt.Errorf("gate %q needs at least one qubit", m[1])
	}
	if hasDuplicate(operands) {
		return fmt.Errorf("gate %q repeats a qubit", m[1])
	}

	target := operands[len(operands)-1]
	p.add(name, target, operands[:len(operands)-1], params, dagger, cbit)
	p.step++
	return nil
}

func (p *parser) add(name string, target int, controls []int, params []float64, dagger bool, cbit int) {
	g := newGate(name, target, p.step)
	g.Params = params
	g.IsDagger = dagger
	g.ClassicalControl = cbit
	switch {
	case name == "CCX" || name == "MCX" || name == "MCZ":
		g.Controls = append([]int(nil), controls...)
	case len(controls) == 1:
		g.Control = controls[0]
	}
	p.c.add(g)
}

// qubits resolves "q[i]" to one index and a bare "q" to the whole register.
func (p *parser) qubits(arg string) ([]int, error) {
	m := argRegex.FindStringSubmatch(arg)
	if m == nil {
		return nil, fmt.Errorf("malformed operand %q", arg)
	}
	if m[1] != p.qreg {
		return nil, fmt.Errorf("unknown qreg %q", m[1])
	}
	if m[2] == "" {
		qs := make([]int, p.c.NumQubits)
		for i := range qs {
			qs[i] = i
		}
		return qs, nil
	}
	q, _ := strconv.Atoi(m[2])
	if q >= p.c.NumQubits {
		return nil, fmt.Errorf("qubit index %d out of range", q)
	}
	return []int{q}, nil
}

func hasDuplicate(qs []int) bool {
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if seen[q] {
			return true
		}
		seen[q] = true
	}
	return false
}
