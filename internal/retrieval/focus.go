package retrieval

import (
	"sort"

	"contractmap/internal/graph"
)

// Config controls how a focused hierarchy is extracted.
type Config struct {
	// MaxHops is how many call levels are kept below each seed. Negative keeps all.
	MaxHops int
	// AllowedKinds limits the edges followed below a seed. Empty allows every kind.
	AllowedKinds map[graph.ConnectionKind]bool
}

func DefaultConfig() Config {
	return Config{
		MaxHops:      2,
		AllowedKinds: nil,
	}
}

// Focus is a pruned copy of a hierarchy around a set of seed functions.
type Focus struct {
	Root *graph.Node
	// Seeds lists the requested names that matched at least one node, sorted.
	Seeds []string
	// Matched counts the seed occurrences kept in the focus; one name can appear
	// at many positions.
	Matched int
}

// Extract keeps every occurrence of the named functions, the call path from
// the root down to each occurrence and up to MaxHops levels of callees below
// it. The input tree is not modified. With no match the focused root has no
// connections.
func Extract(root *graph.Node, names []string, cfg Config) *Focus {
	if root == nil {
		return &Focus{}
	}
	seeds := make(map[string]bool, len(names))
	for _, n := range names {
		seeds[n] = true
	}

	x := &extractor{cfg: cfg, seeds: seeds, hit: make(map[string]bool)}
	out := &graph.Node{Name: root.Name, Scope: root.Scope, Action: root.Action}
	for _, c := range root.Connections {
		if kept := x.prune(c.Node); kept != nil {
			out.Connections = append(out.Connections, graph.Connection{Kind: c.Kind, Node: kept})
		}
	}

	return &Focus{
		Root:    out,
		Seeds:   sortedKeys(x.hit),
		Matched: x.matched,
	}
}

type extractor struct {
	cfg     Config
	seeds   map[string]bool
	hit     map[string]bool
	matched int
}

// prune returns a copy of n restricted to seed paths, or nil when nothing
// below n is a seed.
func (x *extractor) prune(n *graph.Node) *graph.Node {
	if x.seeds[n.Name] {
		x.hit[n.Name] = true
		x.matched++
		return x.expand(n, 0)
	}

	var kept []graph.Connection
	for _, c := range n.Connections {
		if child := x.prune(c.Node); child != nil {
			kept = append(kept, graph.Connection{Kind: c.Kind, Node: child})
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &graph.Node{Name: n.Name, Scope: n.Scope, Action: n.Action, Connections: kept}
}

// expand copies n and its callees up to MaxHops levels deep.
func (x *extractor) expand(n *graph.Node, depth int) *graph.Node {
	out := &graph.Node{Name: n.Name, Scope: n.Scope, Action: n.Action}
	if x.cfg.MaxHops >= 0 && depth >= x.cfg.MaxHops {
		return out
	}
	for _, c := range n.Connections {
		if !x.edgeAllowed(c.Kind) {
			continue
		}
		// nested seeds below a seed are counted too
		if x.seeds[c.Node.Name] {
			x.hit[c.Node.Name] = true
			x.matched++
		}
		out.Connections = append(out.Connections, graph.Connection{Kind: c.Kind, Node: x.expand(c.Node, depth+1)})
	}
	return out
}

func (x *extractor) edgeAllowed(k graph.ConnectionKind) bool {
	if len(x.cfg.AllowedKinds) == 0 {
		return true
	}
	return x.cfg.AllowedKinds[k]
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
