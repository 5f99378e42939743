package generator

import (
	"fmt"
	"strings"

	"contractmap/internal/graph"
)

// Markdown wraps another renderer's output in a fenced code block so the
// diagram can be embedded in a Markdown document.
type Markdown struct {
	Inner Renderer
	Fence string
	Title string
}

func (m *Markdown) Render(root *graph.Node, dir FlowDirection) (string, error) {
	if m.Inner == nil {
		return "", fmt.Errorf("markdown renderer has no inner renderer")
	}
	body, err := m.Inner.Render(root, dir)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if m.Title != "" {
		sb.WriteString(fmt.Sprintf("## %s\n\n", m.Title))
	}
	sb.WriteString("```" + m.Fence + "\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	return sb.String(), nil
}
