package generator

import (
	"fmt"
	"strings"

	"contractmap/internal/graph"
)

// FlowDirection is a layout hint passed through to the renderer.
type FlowDirection string

const (
	TopToBottom FlowDirection = "TB"
	BottomToTop FlowDirection = "BT"
	LeftToRight FlowDirection = "LR"
	RightToLeft FlowDirection = "RL"
)

// ParseFlowDirection accepts TB, TD, BT, LR and RL in any case.
func ParseFlowDirection(v string) (FlowDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", "TB", "TD":
		return TopToBottom, nil
	case "BT":
		return BottomToTop, nil
	case "LR":
		return LeftToRight, nil
	case "RL":
		return RightToLeft, nil
	default:
		return "", fmt.Errorf("unknown flow direction %q", v)
	}
}

// Renderer turns a finished hierarchy into a diagram in one dialect.
// Implementations must not modify the tree.
type Renderer interface {
	Render(root *graph.Node, dir FlowDirection) (string, error)
}

// Dialect names accepted by NewRenderer.
const (
	DialectMermaid  = "mermaid"
	DialectMarkdown = "markdown"
	DialectDot      = "dot"
)

// NewRenderer resolves a dialect name to its renderer.
func NewRenderer(dialect string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectMermaid, "flowchart":
		return &FlowChart{}, nil
	case DialectMarkdown, "md":
		return &Markdown{Inner: &FlowChart{}, Fence: "mermaid"}, nil
	case DialectDot, "graphviz":
		return &Dot{}, nil
	default:
		return nil, fmt.Errorf("unsupported diagram dialect: %s", dialect)
	}
}

// FileExtension suggests an output file extension for a dialect.
func FileExtension(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectMarkdown, "md":
		return ".md"
	case DialectDot, "graphviz":
		return ".dot"
	default:
		return ".mmd"
	}
}

// numberNodes assigns sequential ids in depth-first order so repeated names
// never collide in the output.
func numberNodes(root *graph.Node) map[*graph.Node]string {
	ids := make(map[*graph.Node]string)
	graph.Walk(root, func(n *graph.Node, _ graph.ConnectionKind, _ int) bool {
		ids[n] = fmt.Sprintf("n%d", len(ids))
		return true
	})
	return ids
}
