package extractor

import sitter "github.com/smacker/go-tree-sitter"

// FileFacts is everything extracted from one source file, before calls are resolved.
type FileFacts struct {
	Filepath string       `json:"filepath"`
	Units    []*UnitFacts `json:"units"`
}

// UnitFacts describes one impl block.
type UnitFacts struct {
	TypeName    string           `json:"type_name"`
	Trait       string           `json:"trait,omitempty"`
	IsTraitImpl bool             `json:"is_trait_impl"`
	Attributes  []string         `json:"attributes,omitempty"`
	Filepath    string           `json:"filepath"`
	StartLine   int              `json:"start_line"`
	EndLine     int              `json:"end_line"`
	Functions   []*FunctionFacts `json:"functions"`
}

// FunctionFacts holds the resolved flags of one method plus the calls found
// in its body, in source order.
type FunctionFacts struct {
	Name        string    `json:"name"`
	TypeName    string    `json:"type_name"`
	Receiver    string    `json:"receiver,omitempty"`
	Attributes  []string  `json:"attributes,omitempty"`
	IsPublic    bool      `json:"is_public"`
	IsTraitImpl bool      `json:"is_trait_impl"`
	IsPayable   bool      `json:"is_payable"`
	IsEvent     bool      `json:"is_event"`
	IsMutable   bool      `json:"is_mutable"`
	IsProcess   bool      `json:"is_process"`
	IsView      bool      `json:"is_view"`
	Calls       []CallRef `json:"calls,omitempty"`
	Filepath    string    `json:"filepath"`
	StartLine   int       `json:"start_line"`
	EndLine     int       `json:"end_line"`
}

// CallRef is an unresolved call. An empty Type means the caller's own type.
type CallRef struct {
	Type string `json:"type,omitempty"`
	Name string `json:"name"`
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string) (*UnitFacts, error)
}
