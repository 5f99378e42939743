package graph

// Stats summarizes a hierarchy tree. The root is counted in Nodes and Scopes.
type Stats struct {
	Nodes    int                    `json:"nodes"`
	MaxDepth int                    `json:"max_depth"`
	Scopes   map[Scope]int          `json:"scopes"`
	Actions  map[Action]int         `json:"actions"`
	Kinds    map[ConnectionKind]int `json:"kinds"`
}

// Walk visits root and its descendants depth-first in connection order.
// kind is empty for the root. Returning false stops descending below n.
func Walk(root *Node, fn func(n *Node, kind ConnectionKind, depth int) bool) {
	if root == nil {
		return
	}
	walk(root, "", 0, fn)
}

func walk(n *Node, kind ConnectionKind, depth int, fn func(*Node, ConnectionKind, int) bool) {
	if !fn(n, kind, depth) {
		return
	}
	for _, c := range n.Connections {
		walk(c.Node, c.Kind, depth+1, fn)
	}
}

func Summarize(root *Node) Stats {
	s := Stats{
		Scopes:  make(map[Scope]int),
		Actions: make(map[Action]int),
		Kinds:   make(map[ConnectionKind]int),
	}
	Walk(root, func(n *Node, kind ConnectionKind, depth int) bool {
		s.Nodes++
		s.Scopes[n.Scope]++
		s.Actions[n.Action]++
		if kind != "" {
			s.Kinds[kind]++
		}
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		return true
	})
	return s
}
