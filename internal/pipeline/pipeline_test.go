package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"contractmap/internal/generator"
	"contractmap/internal/graph"
	"contractmap/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource struct {
	contracts map[string]ir.ContractRecord
	inFlight  atomic.Int32
	peak      atomic.Int32
}

func (s *mapSource) Load(ctx context.Context, path string) (ir.ContractRecord, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	c, ok := s.contracts[path]
	if !ok {
		return ir.ContractRecord{}, fmt.Errorf("no contract at %s", path)
	}
	return c, nil
}

// mockRenderer records what it was asked to render.
type mockRenderer struct {
	mu    sync.Mutex
	roots []*graph.Node
	dirs  []generator.FlowDirection
	err   error
}

func (m *mockRenderer) Render(root *graph.Node, dir generator.FlowDirection) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.roots = append(m.roots, root)
	m.dirs = append(m.dirs, dir)
	return "rendered:" + root.Name, nil
}

func contractNamed(name string, fns ...string) ir.ContractRecord {
	var records []*ir.FunctionRecord
	for _, fn := range fns {
		records = append(records, &ir.FunctionRecord{Name: fn, IsPublic: ir.Bool(true)})
	}
	return ir.ContractRecord{Name: name, Units: []ir.UnitRecord{{Name: name, Functions: records}}}
}

func TestPipeline_Analyze(t *testing.T) {
	r := &mockRenderer{}
	p := New(nil, r, generator.LeftToRight, nil)

	res, err := p.Analyze(contractNamed("Counter", "add", "get"))
	require.NoError(t, err)

	assert.Equal(t, "rendered:Counter", res.Content)
	assert.Equal(t, 3, res.Stats.Nodes)
	require.Len(t, r.roots, 1)
	assert.Same(t, res.Root, r.roots[0])
	assert.Equal(t, generator.LeftToRight, r.dirs[0])
}

func TestPipeline_AnalyzeFailsAtomically(t *testing.T) {
	r := &mockRenderer{}
	p := New(nil, r, generator.TopToBottom, nil)

	bad := ir.ContractRecord{Units: []ir.UnitRecord{{Functions: []*ir.FunctionRecord{{Name: "ok"}, nil}}}}
	res, err := p.Analyze(bad)
	assert.Nil(t, res)

	var pe *graph.PreconditionError
	assert.True(t, errors.As(err, &pe))
	assert.Empty(t, r.roots, "nothing is rendered for a malformed input")

	r.err = errors.New("boom")
	_, err = p.Analyze(contractNamed("C"))
	assert.ErrorContains(t, err, "boom")
}

func TestPipeline_RunWithRealRenderer(t *testing.T) {
	src := &mapSource{contracts: map[string]ir.ContractRecord{"a": contractNamed("A", "get")}}
	renderer, err := generator.NewRenderer(generator.DialectMermaid)
	require.NoError(t, err)

	res, err := New(src, renderer, generator.TopToBottom, nil).Run(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, "a", res.Source)
	assert.Contains(t, res.Content, `n1["get"]:::public`)
}

func TestPipeline_RunAll(t *testing.T) {
	src := &mapSource{contracts: map[string]ir.ContractRecord{}}
	var paths []string
	for i := 0; i < 12; i++ {
		path := fmt.Sprintf("c%d", i)
		paths = append(paths, path)
		src.contracts[path] = contractNamed(fmt.Sprintf("C%d", i), "f")
	}

	results, err := New(src, &mockRenderer{}, generator.TopToBottom, nil).RunAll(context.Background(), paths, 3)
	require.NoError(t, err)
	require.Len(t, results, 12)
	for i, res := range results {
		assert.Equal(t, paths[i], res.Source)
		assert.Equal(t, fmt.Sprintf("C%d", i), res.Root.Name)
	}
	assert.LessOrEqual(t, src.peak.Load(), int32(3))
}

func TestPipeline_RunAllReturnsFirstError(t *testing.T) {
	src := &mapSource{contracts: map[string]ir.ContractRecord{"ok": contractNamed("OK")}}

	results, err := New(src, &mockRenderer{}, generator.TopToBottom, nil).RunAll(context.Background(), []string{"ok", "missing"}, 0)
	assert.Nil(t, results)
	assert.ErrorContains(t, err, "no contract at missing")
}

func TestPipeline_RunWithoutSource(t *testing.T) {
	_, err := New(nil, &mockRenderer{}, generator.TopToBottom, nil).Run(context.Background(), "x")
	assert.Error(t, err)
}
