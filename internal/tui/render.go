package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"qlab/internal/circuit"
	"qlab/internal/histogram"
)

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	total := width - len(r)
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

// gateDisplayName returns the short label drawn in a gate box.
func gateDisplayName(g circuit.Gate) string {
	name := g.Type
	switch {
	case name == "MEASURE":
		return "M"
	case name == "RESET":
		return "|0>"
	case g.Control >= 0 && strings.HasPrefix(name, "C"):
		name = name[1:]
	}
	if g.IsDagger {
		name += "†"
	}
	return name
}

// targetSymbol returns the wire symbol for the target of a controlled gate,
// or "" when the target is drawn as a box.
func targetSymbol(gateType string) string {
	switch gateType {
	case "CX", "CCX", "MCX":
		return "⊕"
	case "CZ", "MCZ":
		return "●"
	case "SWAP":
		return "×"
	}
	return ""
}

type cellKind int

const (
	cellWire cellKind = iota
	cellBox
	cellSymbol
	cellPassThrough
	cellBarrier
)

type cell struct {
	kind  cellKind
	label string
}

// grid is the layered circuit laid out as qubit rows by step columns.
type grid struct {
	cells [][]cell
	// links[q][s] is set when a multi-qubit gate at step s joins rows q and q+1.
	links [][]bool
	steps int
}

func layout(c *circuit.Circuit) grid {
	laid := c.Layers()
	n := laid.NumQubits
	g := grid{steps: laid.MaxSteps, cells: make([][]cell, n), links: make([][]bool, n)}
	for q := range n {
		g.cells[q] = make([]cell, g.steps)
		g.links[q] = make([]bool, g.steps)
	}

	for _, gate := range laid.Gates {
		s := gate.Step
		if gate.Type == "BARRIER" {
			for q := range n {
				g.cells[q][s] = cell{kind: cellBarrier}
			}
			continue
		}

		qs := gate.Qubits()
		if len(qs) == 1 {
			g.cells[gate.Target][s] = cell{kind: cellBox, label: gateDisplayName(gate)}
			continue
		}

		lo, hi := qs[0], qs[0]
		for _, q := range qs {
			lo, hi = min(lo, q), max(hi, q)
		}
		for q := lo; q <= hi; q++ {
			g.cells[q][s] = cell{kind: cellPassThrough}
			if q < hi {
				g.links[q][s] = true
			}
		}
		for _, q := range qs[1:] {
			sym := "●"
			if gate.Type == "SWAP" {
				sym = "×"
			}
			g.cells[q][s] = cell{kind: cellSymbol, label: sym}
		}
		if sym := targetSymbol(gate.Type); sym != "" {
			g.cells[gate.Target][s] = cell{kind: cellSymbol, label: sym}
		} else {
			g.cells[gate.Target][s] = cell{kind: cellBox, label: gateDisplayName(gate)}
		}
	}
	return g
}

func renderCell(c cell) string {
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1
	switch c.kind {
	case cellBox:
		side := (cellW - gateNameW - 2) / 2
		return strings.Repeat("─", side) + "┤" + gateStyle.Render(padCenter(c.label, gateNameW)) + "├" +
			strings.Repeat("─", cellW-gateNameW-2-side)
	case cellSymbol:
		return strings.Repeat("─", dashL) + gateStyle.Render(c.label) + strings.Repeat("─", dashR)
	case cellPassThrough:
		return strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)
	case cellBarrier:
		return strings.Repeat("─", dashL) + dimStyle.Render("║") + strings.Repeat("─", dashR)
	}
	return strings.Repeat("─", cellW)
}

func linkRow(links []bool, from, to int) string {
	halfW := cellW / 2
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", labelVisualW))
	for s := from; s < to; s++ {
		if links[s] {
			sb.WriteString(strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1))
		} else {
			sb.WriteString(strings.Repeat(" ", cellW))
		}
	}
	return sb.String()
}

// renderCircuit draws one wire per qubit. When the circuit is wider than
// width the most recent steps are shown.
func renderCircuit(c *circuit.Circuit, width int) string {
	g := layout(c)
	cols := max((width-labelVisualW-1)/cellW, 1)
	from := max(g.steps-cols, 0)

	var sb strings.Builder
	for q := range g.cells {
		label := qubitLabelStyle.Render(fmt.Sprintf("q[%d]", q)) + " "
		label += strings.Repeat(" ", max(labelVisualW-lipgloss.Width(label)-1, 0)) + "─"
		sb.WriteString(label)
		for s := from; s < g.steps; s++ {
			sb.WriteString(renderCell(g.cells[q][s]))
		}
		if g.steps == 0 {
			sb.WriteString(strings.Repeat("─", cellW))
		}
		if q < len(g.cells)-1 {
			sb.WriteString("\n" + linkRow(g.links[q], from, g.steps) + "\n")
		}
	}
	if from > 0 {
		sb.WriteString("\n" + dimStyle.Render(fmt.Sprintf("(%d earlier steps hidden)", from)))
	}
	return sb.String()
}

func (m Model) renderCircuitPanel(width int) string {
	title := titleStyle.Render(fmt.Sprintf("Circuit (%d qubits)", m.circuit.NumQubits))
	body := renderCircuit(m.circuit, width-4)
	return circuitStyle.Width(width).Render(title + "\n\n" + body)
}

func (m Model) renderResultPanel(width int) string {
	title := titleStyle.Render("Counts")
	body := dimStyle.Render("press x to run")
	switch {
	case m.running:
		body = infoStyle.Render("running...")
	case m.counts != nil:
		body = histogram.Terminal(m.counts, max(width-30, 5))
		if len(m.marginals) > 0 {
			body += "\n\n" + renderMarginals(m.marginals)
		}
	}
	return resultStyle.Width(width).Render(title + "\n\n" + body)
}

// renderMarginals lists P(|1>) for each qubit, one per line.
func renderMarginals(probs []float64) string {
	lines := []string{dimStyle.Render("P(1) per qubit")}
	for q, p := range probs {
		lines = append(lines, fmt.Sprintf("%s %.2f", qubitLabelStyle.Render(fmt.Sprintf("q[%d]", q)), p))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderControlsPanel(width int) string {
	var gates []string
	for i, ch := range choices {
		label := fmt.Sprintf("%d %s", i+1, ch.label)
		if i == m.gate {
			gates = append(gates, selectedStyle.Render("▸ "+label))
		} else {
			gates = append(gates, normalStyle.Render("  "+label))
		}
	}

	lines := []string{
		strings.Join(gates, "  "),
		"Qubit index(es): " + m.input.View(),
		dimStyle.Render("+/- qubits  tab gate  i edit index  enter add  u undo  m measure  r reset  g grover  x run  q quit"),
	}
	switch {
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render(m.errMsg))
	case m.status != "":
		lines = append(lines, infoStyle.Render(m.status))
	}
	return controlsStyle.Width(width).Render(strings.Join(lines, "\n"))
}
