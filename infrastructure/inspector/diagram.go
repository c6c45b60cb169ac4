package inspector

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/goap-go/application"
	"github.com/felixgeelhaar/goap-go/domain/agent"
)

// edge is one permitted lifecycle transition and how often the agents in a
// report took it.
type edge struct {
	from, to agent.State
	count    int
}

// lifecycle returns every permitted transition with observed counts taken
// from the agents' transition histories.
func lifecycle(agents []application.Snapshot) []edge {
	seen := make(map[[2]agent.State]int)
	for _, s := range agents {
		for _, tr := range s.Transitions {
			seen[[2]agent.State{tr.From, tr.To}]++
		}
	}

	rules := agent.DefaultTransitions()
	var edges []edge
	for _, from := range agent.AllStates() {
		for _, to := range rules.AllowedTransitions(from) {
			edges = append(edges, edge{from: from, to: to, count: seen[[2]agent.State{from, to}]})
		}
	}
	return edges
}

// current counts agents per state.
func current(agents []application.Snapshot) map[agent.State]int {
	m := make(map[agent.State]int)
	for _, s := range agents {
		m[s.State]++
	}
	return m
}

func renderMermaid(w io.Writer, r Report) error {
	var b strings.Builder

	b.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&b, "  [*] --> %s\n", agent.StateIdle)

	for _, e := range lifecycle(r.Agents) {
		if e.count > 0 {
			fmt.Fprintf(&b, "  %s --> %s: %d\n", e.from, e.to, e.count)
		} else {
			fmt.Fprintf(&b, "  %s --> %s\n", e.from, e.to)
		}
	}
	for _, s := range agent.AllStates() {
		if s.IsTerminal() {
			fmt.Fprintf(&b, "  %s --> [*]\n", s)
		}
	}

	counts := current(r.Agents)
	for _, s := range agent.AllStates() {
		if n := counts[s]; n > 0 {
			fmt.Fprintf(&b, "  note right of %s: %d agent(s)\n", s, n)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderDOT(w io.Writer, r Report) error {
	var b strings.Builder

	b.WriteString("digraph AgentLifecycle {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n\n")

	counts := current(r.Agents)
	for _, s := range agent.AllStates() {
		attrs := []string{fmt.Sprintf(`label="%s"`, s)}
		if n := counts[s]; n > 0 {
			attrs[0] = fmt.Sprintf(`label="%s (%d)"`, s, n)
		}
		switch {
		case s.IsTerminal():
			attrs = append(attrs, `style="rounded,filled"`, "fillcolor=lightcoral")
		case counts[s] > 0:
			attrs = append(attrs, `style="rounded,filled"`, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&b, "  %s [%s];\n", s, strings.Join(attrs, ", "))
	}
	b.WriteString("\n")

	for _, e := range lifecycle(r.Agents) {
		attr := " [style=dashed]"
		if e.count > 0 {
			attr = fmt.Sprintf(` [label="%d", penwidth=%d]`, e.count, min(e.count/10+1, 5))
		}
		fmt.Fprintf(&b, "  %s -> %s%s;\n", e.from, e.to, attr)
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
