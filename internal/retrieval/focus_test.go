package retrieval

import (
	"testing"

	"contractmap/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string) *graph.Node {
	return &graph.Node{Name: name, Scope: graph.ScopePrivate, Action: graph.ActionNone}
}

func node(name string, conns ...graph.Connection) *graph.Node {
	n := leaf(name)
	n.Connections = conns
	return n
}

func direct(n *graph.Node) graph.Connection {
	return graph.Connection{Kind: graph.DirectConnection, Node: n}
}

func emits(n *graph.Node) graph.Connection {
	return graph.Connection{Kind: graph.Emission, Node: n}
}

// Contract
// ├── add ── add_amount ── record_added ── log_it
// ├── show
// └── withdraw ── add_amount ── record_added ── log_it
func sampleTree() *graph.Node {
	chain := func() *graph.Node {
		return node("add_amount", emits(node("record_added", direct(leaf("log_it")))))
	}
	root := node("Contract",
		direct(node("add", direct(chain()))),
		direct(leaf("show")),
		direct(node("withdraw", direct(chain()))),
	)
	root.Scope = graph.ScopeContract
	return root
}

func names(conns []graph.Connection) []string {
	out := make([]string, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Node.Name)
	}
	return out
}

func TestExtract_KeepsPathsToEverySeed(t *testing.T) {
	f := Extract(sampleTree(), []string{"add_amount"}, Config{MaxHops: -1})

	assert.Equal(t, []string{"add_amount"}, f.Seeds)
	assert.Equal(t, 2, f.Matched)
	assert.Equal(t, "Contract", f.Root.Name)
	assert.Equal(t, graph.ScopeContract, f.Root.Scope)
	assert.Equal(t, []string{"add", "withdraw"}, names(f.Root.Connections))

	seed := f.Root.Connections[0].Node.Connections[0].Node
	assert.Equal(t, "add_amount", seed.Name)
	assert.Equal(t, 2, graph.Summarize(seed).MaxDepth)
}

func TestExtract_LimitsHops(t *testing.T) {
	f := Extract(sampleTree(), []string{"add"}, Config{MaxHops: 1})

	require.Len(t, f.Root.Connections, 1)
	add := f.Root.Connections[0].Node
	require.Len(t, add.Connections, 1)
	assert.Equal(t, "add_amount", add.Connections[0].Node.Name)
	assert.Empty(t, add.Connections[0].Node.Connections)
}

func TestExtract_FiltersKindsBelowSeed(t *testing.T) {
	f := Extract(sampleTree(), []string{"add_amount"}, Config{
		MaxHops:      -1,
		AllowedKinds: map[graph.ConnectionKind]bool{graph.DirectConnection: true},
	})

	// path edges above the seed are always kept
	require.Len(t, f.Root.Connections, 2)
	seed := f.Root.Connections[0].Node.Connections[0].Node
	assert.Empty(t, seed.Connections)
}

func TestExtract_NoMatch(t *testing.T) {
	f := Extract(sampleTree(), []string{"missing"}, DefaultConfig())

	assert.Empty(t, f.Seeds)
	assert.Zero(t, f.Matched)
	assert.Equal(t, "Contract", f.Root.Name)
	assert.Empty(t, f.Root.Connections)
}

func TestExtract_DoesNotModifyInput(t *testing.T) {
	tree := sampleTree()
	before := graph.Flatten("x", tree)

	Extract(tree, []string{"record_added"}, Config{MaxHops: 0})

	assert.Equal(t, before, graph.Flatten("x", tree))
}

func TestExtract_NilRoot(t *testing.T) {
	f := Extract(nil, []string{"a"}, DefaultConfig())
	assert.Nil(t, f.Root)
}
