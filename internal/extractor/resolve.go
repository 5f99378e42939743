package extractor

import "contractmap/internal/ir"

type funcKey struct {
	typ  string
	name string
}

// Assemble resolves the calls recorded in files and produces the records of one
// contract. A call resolves to the inherent method when a trait impl on the same
// type declares the same name; otherwise the first declaration wins. Each unit keeps its declaration order. A call that would re-enter a
// function already on the current call path is dropped, so the result is acyclic.
// Calls that match no extracted function (library calls) are dropped too.
func Assemble(name string, files []*FileFacts) ir.ContractRecord {
	a := &assembler{index: make(map[funcKey]*FunctionFacts)}
	for _, f := range files {
		if f == nil {
			continue
		}
		for _, u := range f.Units {
			for _, fn := range u.Functions {
				k := funcKey{typ: fn.TypeName, name: fn.Name}
				// inherent methods shadow trait methods of the same name
				if prev, exists := a.index[k]; !exists || (prev.IsTraitImpl && !fn.IsTraitImpl) {
					a.index[k] = fn
				}
			}
		}
	}

	contract := ir.ContractRecord{Name: name}
	for _, f := range files {
		if f == nil {
			continue
		}
		for _, u := range f.Units {
			unit := ir.UnitRecord{
				Name:        u.TypeName,
				Trait:       u.Trait,
				IsTraitImpl: u.IsTraitImpl,
				Evidence: ir.Evidence{
					Filepath:  u.Filepath,
					StartLine: u.StartLine,
					EndLine:   u.EndLine,
				},
				Functions: make([]*ir.FunctionRecord, 0, len(u.Functions)),
			}
			for _, fn := range u.Functions {
				onPath := map[funcKey]bool{{typ: fn.TypeName, name: fn.Name}: true}
				unit.Functions = append(unit.Functions, a.expand(fn, onPath))
			}
			contract.Units = append(contract.Units, unit)
		}
	}
	return contract
}

type assembler struct {
	index map[funcKey]*FunctionFacts
}

func (a *assembler) expand(fn *FunctionFacts, onPath map[funcKey]bool) *ir.FunctionRecord {
	rec := &ir.FunctionRecord{
		Name:        fn.Name,
		IsPublic:    ir.Bool(fn.IsPublic),
		IsTraitImpl: fn.IsTraitImpl,
		IsPayable:   fn.IsPayable,
		IsEvent:     fn.IsEvent,
		IsMutable:   fn.IsMutable,
		IsProcess:   fn.IsProcess,
		IsView:      fn.IsView,
		InnerCalls:  []*ir.FunctionRecord{},
		Evidence: ir.Evidence{
			Filepath:  fn.Filepath,
			StartLine: fn.StartLine,
			EndLine:   fn.EndLine,
		},
	}

	for _, call := range fn.Calls {
		k := funcKey{typ: call.Type, name: call.Name}
		if k.typ == "" {
			k.typ = fn.TypeName
		}
		callee, ok := a.index[k]
		if !ok || onPath[k] {
			continue
		}
		onPath[k] = true
		rec.InnerCalls = append(rec.InnerCalls, a.expand(callee, onPath))
		delete(onPath, k)
	}
	return rec
}
