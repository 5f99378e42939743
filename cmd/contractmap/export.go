package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"contractmap/internal/analysis"
	"contractmap/internal/export"
	"contractmap/internal/git"
	"contractmap/internal/graph"
	"contractmap/internal/retrieval"

	"github.com/spf13/cobra"
)

var (
	exportID   string
	changedDir string
	renderFlag bool
)

func init() {
	exportCmd.Flags().StringVar(&exportID, "id", "", "Export a stored analysis instead of scanning")
	changedCmd.Flags().StringVarP(&changedDir, "path", "p", "", "Contract directory inside the git repository")
	changedCmd.Flags().BoolVar(&renderFlag, "render", false, "Render a diagram of the affected functions")
	changedCmd.Flags().StringVar(&dialectFlag, "dialect", "", "Diagram dialect for --render")
	changedCmd.Flags().StringVar(&directionFlag, "direction", "", "Flow direction for --render")
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Load a function hierarchy into Neo4j",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := setup()

		var source string
		var root *graph.Node
		if exportID != "" {
			store := a.store()
			stored, err := store.LoadAnalysis(ctx, exportID)
			store.Close()
			if err != nil {
				log.Fatalf("Failed to load analysis: %v", err)
			}
			source, root = stored.Source, stored.Root
		} else {
			p, _, _ := a.pipeline("", "")
			path := a.targets(args)[0]
			res, err := p.Run(ctx, path)
			if err != nil {
				log.Fatalf("Analysis failed: %v", err)
			}
			if source, err = filepath.Abs(path); err != nil {
				source = path
			}
			root = res.Root
		}

		fmt.Printf("🔌 Connecting to Neo4j at %s...\n", a.cfg.Neo4j.URI)
		loader, err := export.NewNeo4jLoader(ctx, a.cfg.Neo4j.URI, a.cfg.Neo4j.User, a.cfg.Neo4j.Password, a.logger)
		if err != nil {
			log.Fatalf("Failed to connect: %v", err)
		}
		defer loader.Close(ctx)

		if err := loader.CreateIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		if err := loader.Clean(ctx, source); err != nil {
			log.Fatalf("Failed to clean previous export: %v", err)
		}
		if err := loader.LoadTree(ctx, source, root); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		fmt.Printf("✅ Exported %d nodes for %s.\n", graph.Summarize(root).Nodes, source)
	},
}

var changedCmd = &cobra.Command{
	Use:   "changed [ref]",
	Short: "Report contract functions touched by uncommitted or ref-relative git changes",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := setup()

		ref := "HEAD"
		if len(args) > 0 {
			ref = args[0]
		}
		dir := changedDir
		if dir == "" {
			dir = a.cfg.Project.Root
		}

		changes, err := git.GetChangedFiles(ctx, dir, ref)
		if err != nil {
			log.Fatalf("Failed to get git changes: %v", err)
		}
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}
		fmt.Printf("📝 Detected %d changed files.\n", len(changes))

		contract, err := a.indexer.BuildContract(dir)
		if err != nil {
			log.Fatalf("Failed to scan contract: %v", err)
		}

		fmt.Println("🔍 Analyzing impact...")
		report := analysis.AffectedFunctions(contract, changes)
		fmt.Printf("  -> %d functions directly affected\n", len(report.DirectlyAffected))
		for _, fn := range report.DirectlyAffected {
			fmt.Printf("     • %s (%s:%d)\n", fn.Name, fn.Evidence.Filepath, fn.Evidence.StartLine)
		}
		fmt.Printf("  -> %d functions indirectly affected (callers)\n", len(report.Callers))
		for _, fn := range report.Callers {
			fmt.Printf("     • %s (%s:%d)\n", fn.Name, fn.Evidence.Filepath, fn.Evidence.StartLine)
		}

		if !renderFlag || report.Empty() {
			return
		}
		p, _, _ := a.pipeline(dialectFlag, directionFlag)
		res, err := p.Analyze(contract)
		if err != nil {
			log.Fatalf("Failed to build hierarchy: %v", err)
		}
		focus := retrieval.Extract(res.Root, report.Names(), retrieval.Config{MaxHops: -1})
		content, err := p.Render(focus.Root)
		if err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		fmt.Println()
		fmt.Println(content)
	},
}
