package crawler

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"contractmap/internal/extractor"
	"contractmap/internal/logging"
)

// Crawler scans a directory for contract source files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	logger    *slog.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, logger *slog.Logger) *Crawler {
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", "target", "node_modules", "vendor"},
		logger:    logging.OrDiscard(logger),
	}
}

// ScanProject walks root in lexical order and extracts every Rust file.
// It uses a callback to stream results, preventing large memory buildup.
// A single path to a file is scanned on its own.
func (c *Crawler) ScanProject(root string, onFile func(*extractor.FileFacts)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".rs") {
			return nil
		}

		facts, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			// Log and continue instead of failing the whole scan
			c.logger.Warn("skipping file", "path", path, "error", err)
			return nil
		}
		if len(facts.Units) == 0 {
			return nil
		}
		c.logger.Debug("extracted", "path", path, "units", len(facts.Units))

		onFile(facts)
		return nil
	})
}
