package extractor

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string, opts Options) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "rust":
		langExt = NewRustExtractor(opts)
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// Language returns the language this extractor was built for.
func (e *Extractor) Language() string {
	return e.langName
}

// ExtractFromFile parses a single source file and extracts its contract units.
func (e *Extractor) ExtractFromFile(filepath string) (*FileFacts, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.ExtractFromSource(filepath, sourceCode)
}

// ExtractFromSource is ExtractFromFile for source already in memory.
func (e *Extractor) ExtractFromSource(filepath string, sourceCode []byte) (*FileFacts, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	facts := &FileFacts{Filepath: filepath}
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			unit, err := e.langExtractor.ExtractUnit(captureName, c.Node, sourceCode, filepath)
			if err != nil {
				return nil, err
			}
			if unit != nil {
				facts.Units = append(facts.Units, unit)
			}
		}
	}

	return facts, nil
}
