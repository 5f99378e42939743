package generator

import (
	"fmt"
	"strings"

	"contractmap/internal/graph"
)

// FlowChart renders the hierarchy as a Mermaid flowchart.
// Scope maps to a class (colour), action to a node shape and
// connection kind to an arrow style.
type FlowChart struct{}

var mermaidClassDefs = []struct {
	Scope graph.Scope
	Style string
}{
	{graph.ScopeContract, "fill:#1f2937,stroke:#111827,color:#ffffff"},
	{graph.ScopePublic, "fill:#d1fae5,stroke:#059669,color:#064e3b"},
	{graph.ScopePrivate, "fill:#fee2e2,stroke:#dc2626,color:#7f1d1d"},
	{graph.ScopeTrait, "fill:#ede9fe,stroke:#7c3aed,color:#4c1d95"},
	{graph.ScopePayable, "fill:#fef3c7,stroke:#d97706,color:#78350f"},
}

func (m *FlowChart) Render(root *graph.Node, dir FlowDirection) (string, error) {
	if root == nil {
		return "", fmt.Errorf("cannot render an empty hierarchy")
	}
	if dir == "" {
		dir = TopToBottom
	}

	ids := numberNodes(root)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("flowchart %s\n", dir))
	for _, c := range mermaidClassDefs {
		sb.WriteString(fmt.Sprintf("    classDef %s %s\n", c.Scope, c.Style))
	}

	sb.WriteString(fmt.Sprintf("    %s:::%s\n", mermaidShape(ids[root], root), root.Scope))
	graph.Walk(root, func(n *graph.Node, _ graph.ConnectionKind, _ int) bool {
		for _, c := range n.Connections {
			sb.WriteString(fmt.Sprintf("    %s:::%s\n", mermaidShape(ids[c.Node], c.Node), c.Node.Scope))
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", ids[n], mermaidArrow(c.Kind), ids[c.Node]))
		}
		return true
	})

	return sb.String(), nil
}

func mermaidShape(id string, n *graph.Node) string {
	label := mermaidLabel(n.Name)
	if n.Scope == graph.ScopeContract {
		return fmt.Sprintf("%s{{%s}}", id, label)
	}
	switch n.Action {
	case graph.ActionEvent:
		return fmt.Sprintf("%s>%s]", id, label)
	case graph.ActionMutation:
		return fmt.Sprintf("%s[/%s/]", id, label)
	case graph.ActionProcess:
		return fmt.Sprintf("%s[[%s]]", id, label)
	case graph.ActionView:
		return fmt.Sprintf("%s([%s])", id, label)
	default:
		return fmt.Sprintf("%s[%s]", id, label)
	}
}

func mermaidArrow(kind graph.ConnectionKind) string {
	switch kind {
	case graph.CrossContractConnection:
		return "-.->"
	case graph.Emission:
		return "==>"
	default:
		return "-->"
	}
}

func mermaidLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		v = "anonymous"
	}
	v = strings.ReplaceAll(v, `"`, "#quot;")
	return `"` + v + `"`
}
