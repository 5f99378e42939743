package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contractmap/internal/generator"
	"contractmap/internal/graph"
	"contractmap/internal/pipeline"
	"contractmap/internal/retrieval"
	"contractmap/internal/storage"

	"github.com/spf13/cobra"
)

var (
	dialectFlag   string
	directionFlag string
	outDir        string
	workersFlag   int
	focusNames    []string
	focusHops     int
	focusKinds    []string
)

func init() {
	for _, cmd := range []*cobra.Command{diagramCmd, showCmd} {
		cmd.Flags().StringVar(&dialectFlag, "dialect", "", "Diagram dialect: mermaid, markdown or dot")
		cmd.Flags().StringVar(&directionFlag, "direction", "", "Flow direction: TB, BT, LR or RL")
	}
	diagramCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory, or - for stdout")
	diagramCmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Contracts analyzed in parallel")
	diagramCmd.Flags().StringSliceVar(&focusNames, "focus", nil, "Only draw the call paths to these functions")
	diagramCmd.Flags().IntVar(&focusHops, "hops", -1, "Callee levels kept below a focused function (-1 keeps all)")
	diagramCmd.Flags().StringSliceVar(&focusKinds, "kinds", nil, "Connection kinds followed below a focused function")
	scanCmd.Flags().StringVar(&dialectFlag, "dialect", "", "Dialect recorded with the analysis")
	scanCmd.Flags().StringVar(&directionFlag, "direction", "", "Direction recorded with the analysis")
}

var diagramCmd = &cobra.Command{
	Use:   "diagram [paths...]",
	Short: "Render a function hierarchy diagram for each contract directory or records file",
	Run: func(cmd *cobra.Command, args []string) {
		a := setup()
		p, dialect, _ := a.pipeline(dialectFlag, directionFlag)
		paths := a.targets(args)

		workers := workersFlag
		if workers <= 0 {
			workers = a.cfg.Diagram.Workers
		}
		out := outDir
		if out == "" {
			out = a.cfg.Diagram.OutputDir
		}

		start := time.Now()
		if out != "-" {
			fmt.Printf("🚀 Analyzing %d contract(s)...\n", len(paths))
		}
		results, err := p.RunAll(context.Background(), paths, workers)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}

		if len(focusNames) > 0 {
			cfg := focusConfig()
			for _, res := range results {
				focus := retrieval.Extract(res.Root, focusNames, cfg)
				if focus.Matched == 0 {
					fmt.Fprintf(os.Stderr, "⚠️  %s: no function named %s\n", res.Source, strings.Join(focusNames, ", "))
				}
				content, err := p.Render(focus.Root)
				if err != nil {
					log.Fatalf("Render failed: %v", err)
				}
				res.Root, res.Content, res.Stats = focus.Root, content, graph.Summarize(focus.Root)
			}
		}

		if out == "-" {
			for _, res := range results {
				fmt.Println(res.Content)
			}
			return
		}

		if err := os.MkdirAll(out, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		roots := make([]string, 0, len(results))
		for _, res := range results {
			roots = append(roots, res.Root.Name)
		}
		names := outputNames(roots)
		for i, res := range results {
			target := filepath.Join(out, names[i]+generator.FileExtension(dialect))
			if err := os.WriteFile(target, []byte(res.Content), 0644); err != nil {
				log.Fatalf("Failed to write %s: %v", target, err)
			}
			fmt.Printf("  -> %s: %d functions, depth %d → %s\n", res.Source, res.Stats.Nodes-1, res.Stats.MaxDepth, target)
		}
		fmt.Printf("✅ Done in %v.\n", time.Since(start).Round(time.Millisecond))
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Analyze a contract and store the hierarchy in the local database",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := setup()
		p, dialect, dir := a.pipeline(dialectFlag, directionFlag)
		path := a.targets(args)[0]

		fmt.Printf("📂 Scanning: %s\n", path)
		res, err := p.Run(context.Background(), path)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Printf("✅ Hierarchy built. Found %d functions.\n", res.Stats.Nodes-1)

		store := a.store()
		defer store.Close()

		fmt.Println("💾 Saving to local database...")
		id, err := saveResult(context.Background(), store, res, dialect, dir)
		if err != nil {
			log.Fatalf("Failed to save analysis: %v", err)
		}
		fmt.Printf("🎉 Scan complete! Analysis id: %s\n", id)
	},
}

func saveResult(ctx context.Context, store storage.Store, res *pipeline.Result, dialect string, dir generator.FlowDirection) (string, error) {
	abs, err := filepath.Abs(res.Source)
	if err != nil {
		abs = res.Source
	}
	return store.SaveAnalysis(ctx, &storage.Analysis{
		Source:    abs,
		Dialect:   dialect,
		Direction: string(dir),
		Root:      res.Root,
	})
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render a stored analysis",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := setup()
		store := a.store()
		defer store.Close()

		analysis, err := store.LoadAnalysis(context.Background(), args[0])
		if err != nil {
			log.Fatalf("Failed to load analysis: %v", err)
		}

		dialect, direction := dialectFlag, directionFlag
		if dialect == "" {
			dialect = analysis.Dialect
		}
		if direction == "" {
			direction = analysis.Direction
		}
		renderer, err := generator.NewRenderer(dialect)
		if err != nil {
			log.Fatalf("Invalid dialect: %v", err)
		}
		dir, err := generator.ParseFlowDirection(direction)
		if err != nil {
			log.Fatalf("Invalid direction: %v", err)
		}
		content, err := renderer.Render(analysis.Root, dir)
		if err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		fmt.Println(content)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := setup()
		store := a.store()
		defer store.Close()

		list, err := store.ListAnalyses(context.Background())
		if err != nil {
			log.Fatalf("Failed to list analyses: %v", err)
		}
		if len(list) == 0 {
			fmt.Println("No analyses stored yet. Run 'contractmap scan' first.")
			return
		}
		for _, s := range list {
			fmt.Printf("%s  %s  %-20s %4d nodes  %s\n",
				s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.RootName, s.NodeCount, s.Source)
		}
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored analysis",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := setup()
		store := a.store()
		defer store.Close()

		if err := store.DeleteAnalysis(context.Background(), args[0]); err != nil {
			log.Fatalf("Failed to delete analysis: %v", err)
		}
		fmt.Printf("🗑️  Deleted %s\n", args[0])
	},
}

func focusConfig() retrieval.Config {
	cfg := retrieval.Config{MaxHops: focusHops}
	if len(focusKinds) > 0 {
		cfg.AllowedKinds = make(map[graph.ConnectionKind]bool, len(focusKinds))
		for _, k := range focusKinds {
			kind, err := graph.ParseConnectionKind(k)
			if err != nil {
				log.Fatalf("Invalid --kinds value: %v", err)
			}
			cfg.AllowedKinds[kind] = true
		}
	}
	return cfg
}

// outputNames picks a distinct file name for each root name, in order.
func outputNames(roots []string) []string {
	taken := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		base := fileName(r)
		name := base
		for n := 1; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		taken[name] = true
		out = append(out, name)
	}
	return out
}

// fileName keeps letters, digits, dash and underscore.
func fileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "contract"
	}
	return b.String()
}
