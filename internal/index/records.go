package index

import (
	"fmt"

	"contractmap/internal/graph"
	"contractmap/internal/ir"

	"gopkg.in/yaml.v3"
)

// requiredFunctionKeys must be present on every function record of a records
// file. is_public is left out: an absent value means unresolved visibility.
var requiredFunctionKeys = []string{
	"name",
	"is_trait_impl",
	"is_payable",
	"is_event",
	"is_mutable",
	"is_process",
	"is_view",
	"inner_calls",
}

// validateRecords checks the raw document for fields the decoder would
// otherwise fill with zero values.
func validateRecords(doc *yaml.Node, root string) error {
	top := deref(doc)
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = deref(top.Content[0])
	}
	if top.Kind != yaml.MappingNode {
		return fmt.Errorf("records file must hold a mapping")
	}

	units := mappingValue(top, "units")
	if units == nil || units.Kind != yaml.SequenceNode {
		return nil
	}
	path := []string{root}
	for _, u := range units.Content {
		u = deref(u)
		if u.Kind != yaml.MappingNode {
			continue
		}
		fns := mappingValue(u, "functions")
		if fns == nil || isNull(fns) {
			continue
		}
		if fns.Kind != yaml.SequenceNode {
			return &graph.PreconditionError{Path: path, Reason: "functions is not a list"}
		}
		if err := validateFunctions(fns.Content, path); err != nil {
			return err
		}
	}
	return nil
}

func validateFunctions(items []*yaml.Node, path []string) error {
	for i, item := range items {
		item = deref(item)
		at := fmt.Sprintf("#%d", i)
		if item.Kind != yaml.MappingNode {
			return precondition(path, at, "record is not a mapping")
		}
		if name := mappingValue(item, "name"); name != nil && name.Kind == yaml.ScalarNode && name.Value != "" {
			at = name.Value
		}
		for _, key := range requiredFunctionKeys {
			if v := mappingValue(item, key); v == nil || isNull(v) {
				return precondition(path, at, "missing field "+key)
			}
		}

		calls := mappingValue(item, "inner_calls")
		if calls.Kind != yaml.SequenceNode {
			return precondition(path, at, "inner_calls is not a list")
		}
		if err := validateFunctions(calls.Content, append(path[:len(path):len(path)], at)); err != nil {
			return err
		}
	}
	return nil
}

func precondition(path []string, at, reason string) error {
	full := make([]string, 0, len(path)+1)
	full = append(full, path...)
	full = append(full, at)
	return &graph.PreconditionError{Path: full, Reason: reason}
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return deref(m.Content[i+1])
		}
	}
	return nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// withCallLists copies c, replacing nil call lists with empty ones.
func withCallLists(c ir.ContractRecord) ir.ContractRecord {
	out := ir.ContractRecord{Name: c.Name, Units: make([]ir.UnitRecord, 0, len(c.Units))}
	for _, u := range c.Units {
		unit := u
		unit.Functions = copyRecords(u.Functions, make(map[*ir.FunctionRecord]bool))
		out.Units = append(out.Units, unit)
	}
	return out
}

// A record reachable from itself is kept as is; the encoder rejects the cycle.
func copyRecords(records []*ir.FunctionRecord, onPath map[*ir.FunctionRecord]bool) []*ir.FunctionRecord {
	if records == nil {
		return nil
	}
	out := make([]*ir.FunctionRecord, 0, len(records))
	for _, r := range records {
		if r == nil || onPath[r] {
			out = append(out, r)
			continue
		}
		cp := *r
		onPath[r] = true
		cp.InnerCalls = copyRecords(r.InnerCalls, onPath)
		delete(onPath, r)
		if cp.InnerCalls == nil {
			cp.InnerCalls = []*ir.FunctionRecord{}
		}
		out = append(out, &cp)
	}
	return out
}
