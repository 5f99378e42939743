package ir

// Evidence describes where a record originated in source code.
type Evidence struct {
	Filepath  string `json:"filepath,omitempty" yaml:"filepath,omitempty"`
	StartLine int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
}

// Contains reports whether line falls inside the evidence span.
func (e Evidence) Contains(line int) bool {
	return e.StartLine > 0 && line >= e.StartLine && line <= e.EndLine
}

// FunctionRecord is one parsed function with its classification facts already resolved.
// IsPublic is nil when the collaborator could not resolve visibility.
// InnerCalls holds the functions it calls, in call order.
type FunctionRecord struct {
	Name        string            `json:"name" yaml:"name"`
	IsPublic    *bool             `json:"is_public,omitempty" yaml:"is_public,omitempty"`
	IsTraitImpl bool              `json:"is_trait_impl" yaml:"is_trait_impl"`
	IsPayable   bool              `json:"is_payable" yaml:"is_payable"`
	IsEvent     bool              `json:"is_event" yaml:"is_event"`
	IsMutable   bool              `json:"is_mutable" yaml:"is_mutable"`
	IsProcess   bool              `json:"is_process" yaml:"is_process"`
	IsView      bool              `json:"is_view" yaml:"is_view"`
	InnerCalls  []*FunctionRecord `json:"inner_calls" yaml:"inner_calls"`
	Evidence    Evidence          `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// Public reports an explicitly public visibility.
func (r *FunctionRecord) Public() bool {
	return r.IsPublic != nil && *r.IsPublic
}

// Private reports an explicitly non-public visibility.
func (r *FunctionRecord) Private() bool {
	return r.IsPublic != nil && !*r.IsPublic
}

// Bool returns a pointer to v, for populating IsPublic.
func Bool(v bool) *bool {
	return &v
}

// UnitRecord is a declaring unit (an impl block) and the functions it declares.
type UnitRecord struct {
	Name        string            `json:"name" yaml:"name"`
	Trait       string            `json:"trait,omitempty" yaml:"trait,omitempty"`
	IsTraitImpl bool              `json:"is_trait_impl" yaml:"is_trait_impl"`
	Evidence    Evidence          `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Functions   []*FunctionRecord `json:"functions" yaml:"functions"`
}

// ContractRecord is the full input of one analysis run.
type ContractRecord struct {
	Name  string       `json:"name" yaml:"name"`
	Units []UnitRecord `json:"units" yaml:"units"`
}

// AllFunctions concatenates the function lists of every unit in declaration order.
func (c ContractRecord) AllFunctions() []*FunctionRecord {
	var out []*FunctionRecord
	for _, u := range c.Units {
		out = append(out, u.Functions...)
	}
	return out
}
