package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"contractmap/internal/crawler"
	"contractmap/internal/extractor"
	"contractmap/internal/graph"
	"contractmap/internal/ir"

	"gopkg.in/yaml.v3"
)

// Indexer turns a source tree or a records file into contract records.
type Indexer struct {
	crawler *crawler.Crawler
	name    string
}

// NewIndexer creates a new indexer. name labels the root of every contract it
// builds; an empty name falls back to the scanned directory name.
func NewIndexer(c *crawler.Crawler, name string) *Indexer {
	return &Indexer{
		crawler: c,
		name:    name,
	}
}

// BuildContract scans root and resolves every call across the scanned files.
func (i *Indexer) BuildContract(root string) (ir.ContractRecord, error) {
	var files []*extractor.FileFacts
	err := i.crawler.ScanProject(root, func(f *extractor.FileFacts) {
		files = append(files, f)
	})
	if err != nil {
		return ir.ContractRecord{}, fmt.Errorf("scan failed: %w", err)
	}

	// Resolve calls after all units are loaded
	return extractor.Assemble(i.contractName(root), files), nil
}

// Load implements pipeline.Source. Records files (.json, .yaml, .yml) are
// decoded directly; anything else is scanned as source.
func (i *Indexer) Load(ctx context.Context, path string) (ir.ContractRecord, error) {
	if err := ctx.Err(); err != nil {
		return ir.ContractRecord{}, err
	}
	if IsRecordsFile(path) {
		return i.LoadContract(path)
	}
	return i.BuildContract(path)
}

// IsRecordsFile reports whether path names a serialized contract.
func IsRecordsFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// SaveContract persists the records to a JSON file. Nil call lists are
// written as empty lists so the file loads back under the same rules.
func (i *Indexer) SaveContract(c ir.ContractRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create records file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(withCallLists(c)); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// LoadContract reads a records file. YAML is a superset of JSON, so one decoder serves both.
// Every function record must carry name, inner_calls and the six boolean facts;
// is_public may be omitted to leave visibility unresolved. A missing field is
// reported as a *graph.PreconditionError and nothing is returned.
func (i *Indexer) LoadContract(path string) (ir.ContractRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return ir.ContractRecord{}, fmt.Errorf("failed to open records file: %w", err)
	}
	defer f.Close()

	var doc yaml.Node
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return ir.ContractRecord{}, fmt.Errorf("failed to decode records %s: %w", path, err)
	}

	var c ir.ContractRecord
	if err := doc.Decode(&c); err != nil {
		return ir.ContractRecord{}, fmt.Errorf("failed to decode records %s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = i.name
	}

	root := c.Name
	if root == "" {
		root = graph.DefaultRootName
	}
	if err := validateRecords(&doc, root); err != nil {
		return ir.ContractRecord{}, fmt.Errorf("records %s: %w", path, err)
	}
	return c, nil
}

func (i *Indexer) contractName(root string) string {
	if i.name != "" {
		return i.name
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	if !isDir(abs) {
		abs = filepath.Dir(abs)
	}
	base := filepath.Base(abs)
	if base == "src" {
		base = filepath.Base(filepath.Dir(abs))
	}
	return base
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
