package extractor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// RustExtractor implements LanguageExtractor for near-sdk style Rust contracts.
type RustExtractor struct {
	opts Options
}

func NewRustExtractor(opts Options) *RustExtractor {
	return &RustExtractor{opts: opts.withDefaults()}
}

func (r *RustExtractor) GetLanguage() *sitter.Language {
	return rust.GetLanguage()
}

func (r *RustExtractor) GetQuery() string {
	return `(impl_item) @impl`
}

func (r *RustExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string) (*UnitFacts, error) {
	if captureName != "impl" {
		return nil, nil
	}

	attrs := precedingAttributes(node, sourceCode)
	if !r.opts.IncludeAllImpls && !containsAny(attrs, r.opts.ContractAttributes) {
		return nil, nil
	}

	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return nil, nil
	}
	if params := node.ChildByFieldName("type_parameters"); params != nil {
		return nil, fmt.Errorf("%s:%d: impl type parameters are not supported for smart contracts",
			filepath, params.StartPoint().Row+1)
	}

	unit := &UnitFacts{
		TypeName:   baseTypeName(typeNode.Content(sourceCode)),
		Attributes: attrs,
		Filepath:   filepath,
		StartLine:  int(node.StartPoint().Row + 1),
		EndLine:    int(node.EndPoint().Row + 1),
		Functions:  []*FunctionFacts{},
	}
	if traitNode := node.ChildByFieldName("trait"); traitNode != nil {
		unit.Trait = baseTypeName(traitNode.Content(sourceCode))
		unit.IsTraitImpl = true
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return unit, nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "function_item" {
			continue
		}
		if fn := r.extractFunction(child, unit, sourceCode); fn != nil {
			unit.Functions = append(unit.Functions, fn)
		}
	}
	return unit, nil
}

func (r *RustExtractor) extractFunction(node *sitter.Node, unit *UnitFacts, sourceCode []byte) *FunctionFacts {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	fn := &FunctionFacts{
		Name:        nameNode.Content(sourceCode),
		TypeName:    unit.TypeName,
		Attributes:  precedingAttributes(node, sourceCode),
		IsTraitImpl: unit.IsTraitImpl,
		Filepath:    unit.Filepath,
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
	}

	// trait methods of a contract impl are exported like pub methods
	fn.IsPublic = unit.IsTraitImpl || hasPubVisibility(node, sourceCode)
	fn.IsPayable = containsAny(fn.Attributes, []string{"payable"})

	if params := node.ChildByFieldName("parameters"); params != nil {
		fn.Receiver = selfReceiver(params, sourceCode)
		if strings.Contains(params.Content(sourceCode), "#[callback") {
			fn.IsProcess = true
		}
	}
	fn.IsMutable = fn.Receiver != "" && strings.Contains(fn.Receiver, "mut")
	fn.IsView = fn.Receiver != "" && !fn.IsMutable

	if ret := node.ChildByFieldName("return_type"); ret != nil {
		if strings.Contains(ret.Content(sourceCode), "Promise") {
			fn.IsProcess = true
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		seen := make(map[CallRef]bool)
		r.scanBody(body, sourceCode, fn, seen)
	}
	return fn
}

// scanBody walks a function body in source order collecting calls and event emissions.
func (r *RustExtractor) scanBody(node *sitter.Node, sourceCode []byte, fn *FunctionFacts, seen map[CallRef]bool) {
	switch node.Type() {
	case "function_item", "impl_item", "mod_item":
		return
	case "macro_invocation":
		macro := node.ChildByFieldName("macro")
		if macro == nil && node.NamedChildCount() > 0 {
			macro = node.NamedChild(0)
		}
		if macro != nil && containsAny([]string{lastSegment(macro.Content(sourceCode))}, r.opts.EventMacros) {
			fn.IsEvent = true
		}
	case "call_expression":
		if call, event := r.classifyCall(node.ChildByFieldName("function"), sourceCode); event {
			fn.IsEvent = true
		} else if call != nil && !seen[*call] {
			seen[*call] = true
			fn.Calls = append(fn.Calls, *call)
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		r.scanBody(node.NamedChild(i), sourceCode, fn, seen)
	}
}

// classifyCall inspects the callee of a call expression. It returns the call
// when it may resolve to a contract function, or event=true for log/emit calls.
func (r *RustExtractor) classifyCall(callee *sitter.Node, sourceCode []byte) (*CallRef, bool) {
	if callee == nil {
		return nil, false
	}
	if callee.Type() == "generic_function" {
		if inner := callee.ChildByFieldName("function"); inner != nil {
			callee = inner
		}
	}

	switch callee.Type() {
	case "field_expression":
		value := callee.ChildByFieldName("value")
		field := callee.ChildByFieldName("field")
		if value == nil || field == nil {
			return nil, false
		}
		name := field.Content(sourceCode)
		if value.Type() == "self" || value.Content(sourceCode) == "self" {
			return &CallRef{Name: name}, false
		}
		return nil, name == "emit"
	case "scoped_identifier":
		path := callee.ChildByFieldName("path")
		name := callee.ChildByFieldName("name")
		if path == nil || name == nil {
			return nil, false
		}
		owner := lastSegment(path.Content(sourceCode))
		fname := name.Content(sourceCode)
		if owner == "env" && strings.HasPrefix(fname, "log") {
			return nil, true
		}
		if owner == "Self" {
			owner = ""
		}
		return &CallRef{Type: owner, Name: fname}, false
	}
	return nil, false
}

// precedingAttributes collects the names of attributes directly above node,
// skipping comments.
func precedingAttributes(node *sitter.Node, sourceCode []byte) []string {
	var attrs []string
	for prev := node.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		switch prev.Type() {
		case "attribute_item":
			if name := attributeName(prev.Content(sourceCode)); name != "" {
				attrs = append([]string{name}, attrs...)
			}
		case "line_comment", "block_comment":
			continue
		default:
			return attrs
		}
	}
	return attrs
}

// attributeName reduces "#[near_sdk::near_bindgen]" or "#[near(contract_state)]"
// to its bare name.
func attributeName(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(s, "!")
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if i := strings.IndexAny(s, "( ="); i >= 0 {
		s = s[:i]
	}
	return lastSegment(strings.TrimSpace(s))
}

func hasPubVisibility(node *sitter.Node, sourceCode []byte) bool {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			return strings.TrimSpace(child.Content(sourceCode)) == "pub"
		}
	}
	return false
}

// selfReceiver returns the normalised receiver ("&mut self", "&self", "self")
// or "" for associated functions.
func selfReceiver(params *sitter.Node, sourceCode []byte) string {
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "self_parameter":
			return canonicalize(p.Content(sourceCode))
		case "parameter":
			pattern := p.ChildByFieldName("pattern")
			typ := p.ChildByFieldName("type")
			if pattern != nil && typ != nil && strings.TrimSpace(pattern.Content(sourceCode)) == "self" {
				return canonicalize(typ.Content(sourceCode))
			}
		}
	}
	return ""
}

func baseTypeName(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "<"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "&")
	s = strings.TrimPrefix(s, "mut ")
	return lastSegment(strings.TrimSpace(s))
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

func canonicalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
