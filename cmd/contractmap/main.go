package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"contractmap/internal/config"
	"contractmap/internal/crawler"
	"contractmap/internal/extractor"
	"contractmap/internal/generator"
	"contractmap/internal/index"
	"contractmap/internal/logging"
	"contractmap/internal/pipeline"
	"contractmap/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "contractmap",
		Short: "Function hierarchy diagrams for smart contracts",
	}
	configPath string
	dbPath     string
	verbosity  int
	quiet      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "contractmap.yaml", "Path to the config file")
	// Empty means the path from config
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the analysis database (SQLite)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Silence all logs")

	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(changedCmd)
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	indexer *index.Indexer
}

func setup() *app {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := logging.LevelFromString(cfg.Log.Level)
	if verbosity > 0 || quiet {
		level = logging.LevelFromVerbosity(verbosity, quiet)
	}
	logger := logging.NewLogger(os.Stderr, level)

	ext, err := extractor.NewExtractor("rust", extractor.Options{
		ContractAttributes: cfg.Extractor.ContractAttributes,
		EventMacros:        cfg.Extractor.EventMacros,
		IncludeAllImpls:    cfg.Extractor.IncludeAllImpls,
	})
	if err != nil {
		log.Fatalf("Failed to create extractor: %v", err)
	}

	cr := crawler.NewCrawler(ext, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		indexer: index.NewIndexer(cr, cfg.Project.Name),
	}
}

// pipeline builds a pipeline, letting flag values override the config.
func (a *app) pipeline(dialect, direction string) (*pipeline.Pipeline, string, generator.FlowDirection) {
	if dialect == "" {
		dialect = a.cfg.Diagram.Dialect
	}
	if direction == "" {
		direction = a.cfg.Diagram.Direction
	}
	renderer, err := generator.NewRenderer(dialect)
	if err != nil {
		log.Fatalf("Invalid dialect: %v", err)
	}
	dir, err := generator.ParseFlowDirection(direction)
	if err != nil {
		log.Fatalf("Invalid direction: %v", err)
	}
	return pipeline.New(a.indexer, renderer, dir, a.logger), dialect, dir
}

func (a *app) store() *storage.SQLiteStore {
	path := dbPath
	if path == "" {
		path = a.cfg.Storage.Path
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}

// targets falls back to the configured project root.
func (a *app) targets(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{a.cfg.Project.Root}
}
