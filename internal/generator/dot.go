package generator

import (
	"fmt"
	"strings"

	"contractmap/internal/graph"
)

// Dot renders the hierarchy as a Graphviz digraph.
type Dot struct{}

var dotScopeColors = map[graph.Scope][2]string{
	graph.ScopeContract: {"#1f2937", "#ffffff"},
	graph.ScopePublic:   {"#d1fae5", "#064e3b"},
	graph.ScopePrivate:  {"#fee2e2", "#7f1d1d"},
	graph.ScopeTrait:    {"#ede9fe", "#4c1d95"},
	graph.ScopePayable:  {"#fef3c7", "#78350f"},
}

func (d *Dot) Render(root *graph.Node, dir FlowDirection) (string, error) {
	if root == nil {
		return "", fmt.Errorf("cannot render an empty hierarchy")
	}
	if dir == "" {
		dir = TopToBottom
	}

	ids := numberNodes(root)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("digraph %s {\n", dotQuote(root.Name)))
	sb.WriteString(fmt.Sprintf("    rankdir=%s;\n", dir))
	sb.WriteString("    node [style=filled, fontname=\"Helvetica\"];\n")

	graph.Walk(root, func(n *graph.Node, _ graph.ConnectionKind, _ int) bool {
		colors := dotScopeColors[n.Scope]
		sb.WriteString(fmt.Sprintf("    %s [label=%s, shape=%s, fillcolor=%q, fontcolor=%q];\n",
			ids[n], dotQuote(n.Name), dotShape(n), colors[0], colors[1]))
		return true
	})
	graph.Walk(root, func(n *graph.Node, _ graph.ConnectionKind, _ int) bool {
		for _, c := range n.Connections {
			sb.WriteString(fmt.Sprintf("    %s -> %s [style=%s];\n", ids[n], ids[c.Node], dotEdgeStyle(c.Kind)))
		}
		return true
	})

	sb.WriteString("}\n")
	return sb.String(), nil
}

func dotShape(n *graph.Node) string {
	if n.Scope == graph.ScopeContract {
		return "hexagon"
	}
	switch n.Action {
	case graph.ActionEvent:
		return "cds"
	case graph.ActionMutation:
		return "parallelogram"
	case graph.ActionProcess:
		return "component"
	case graph.ActionView:
		return "ellipse"
	default:
		return "box"
	}
}

func dotEdgeStyle(kind graph.ConnectionKind) string {
	switch kind {
	case graph.CrossContractConnection:
		return "dashed"
	case graph.Emission:
		return "bold"
	default:
		return "solid"
	}
}

func dotQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
