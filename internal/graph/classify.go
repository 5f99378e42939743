package graph

import "contractmap/internal/ir"

// Classification is the (scope, action, kind) triple derived from one record.
type Classification struct {
	Scope  Scope
	Action Action
	Kind   ConnectionKind
}

// Classify derives all three tags for r. It is pure and never fails.
func Classify(r *ir.FunctionRecord) Classification {
	return Classification{
		Scope:  ScopeOf(r),
		Action: ActionOf(r),
		Kind:   ConnectionKindOf(r),
	}
}

// ScopeOf applies first-match-wins precedence.
// The trait and payable branches can only fire when visibility is unresolved;
// a record with a resolved visibility never reaches them.
func ScopeOf(r *ir.FunctionRecord) Scope {
	switch {
	case r.Public():
		return ScopePublic
	case r.Private():
		return ScopePrivate
	case r.IsTraitImpl:
		return ScopeTrait
	case r.IsPayable:
		return ScopePayable
	default:
		return ScopePublic
	}
}

func ActionOf(r *ir.FunctionRecord) Action {
	switch {
	case r.IsEvent:
		return ActionEvent
	case r.IsMutable:
		return ActionMutation
	case r.IsProcess:
		return ActionProcess
	case r.IsView:
		return ActionView
	default:
		return ActionNone
	}
}

func ConnectionKindOf(r *ir.FunctionRecord) ConnectionKind {
	switch {
	case r.IsEvent:
		return Emission
	case r.IsTraitImpl:
		return CrossContractConnection
	default:
		return DirectConnection
	}
}
