package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"contractmap/internal/generator"
	"contractmap/internal/graph"
	"contractmap/internal/ir"
	"contractmap/internal/logging"

	"golang.org/x/sync/errgroup"
)

// Source produces the contract records for one analysis.
type Source interface {
	Load(ctx context.Context, path string) (ir.ContractRecord, error)
}

// Result is the outcome of one analysis run.
type Result struct {
	Source  string
	Root    *graph.Node
	Content string
	Stats   graph.Stats
}

// Pipeline classifies records, builds the hierarchy and renders it.
// It holds no per-run state, so one value can serve concurrent runs.
type Pipeline struct {
	source    Source
	renderer  generator.Renderer
	direction generator.FlowDirection
	logger    *slog.Logger
}

func New(source Source, renderer generator.Renderer, direction generator.FlowDirection, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		renderer:  renderer,
		direction: direction,
		logger:    logging.OrDiscard(logger),
	}
}

// Analyze builds and renders one contract that is already in memory.
func (p *Pipeline) Analyze(contract ir.ContractRecord) (*Result, error) {
	root, err := graph.BuildHierarchy(contract)
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}

	content, err := p.Render(root)
	if err != nil {
		return nil, err
	}

	return &Result{
		Root:    root,
		Content: content,
		Stats:   graph.Summarize(root),
	}, nil
}

// Render draws an already built tree, such as a focused copy of a result.
func (p *Pipeline) Render(root *graph.Node) (string, error) {
	content, err := p.renderer.Render(root, p.direction)
	if err != nil {
		return "", fmt.Errorf("render diagram: %w", err)
	}
	return content, nil
}

// Run loads path from the source and analyzes it.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	if p.source == nil {
		return nil, fmt.Errorf("pipeline has no source")
	}
	contract, err := p.source.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	res, err := p.Analyze(contract)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Source = path

	p.logger.Info("analyzed contract",
		"source", path,
		"root", res.Root.Name,
		"nodes", res.Stats.Nodes,
		"max_depth", res.Stats.MaxDepth,
	)
	return res, nil
}

// RunAll analyzes every path independently, at most workers at a time.
// Results keep the order of paths. The first failure cancels the remaining
// runs and is returned alone.
func (p *Pipeline) RunAll(ctx context.Context, paths []string, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.Run(ctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
