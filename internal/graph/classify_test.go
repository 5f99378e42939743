package graph

import (
	"testing"

	"contractmap/internal/ir"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ScopePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		record ir.FunctionRecord
		want   Scope
	}{
		{"public wins over everything", ir.FunctionRecord{IsPublic: ir.Bool(true), IsTraitImpl: true, IsPayable: true}, ScopePublic},
		{"private is terminal", ir.FunctionRecord{IsPublic: ir.Bool(false)}, ScopePrivate},
		{"unresolved trait impl", ir.FunctionRecord{IsTraitImpl: true, IsPayable: true}, ScopeTrait},
		{"unresolved payable", ir.FunctionRecord{IsPayable: true}, ScopePayable},
		{"unresolved default", ir.FunctionRecord{}, ScopePublic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScopeOf(&tc.record))
		})
	}
}

// With a resolved visibility the trait and payable branches are unreachable.
func TestClassify_ResolvedVisibilityNeverYieldsTraitOrPayable(t *testing.T) {
	for _, public := range []bool{true, false} {
		for mask := 0; mask < 4; mask++ {
			r := ir.FunctionRecord{
				IsPublic:    ir.Bool(public),
				IsTraitImpl: mask&1 != 0,
				IsPayable:   mask&2 != 0,
			}
			s := ScopeOf(&r)
			assert.NotEqual(t, ScopeTrait, s)
			assert.NotEqual(t, ScopePayable, s)
		}
	}
}

func TestClassify_ActionPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		record ir.FunctionRecord
		want   Action
	}{
		{"event first", ir.FunctionRecord{IsEvent: true, IsMutable: true, IsProcess: true, IsView: true}, ActionEvent},
		{"mutation before process", ir.FunctionRecord{IsMutable: true, IsProcess: true, IsView: true}, ActionMutation},
		{"process before view", ir.FunctionRecord{IsProcess: true, IsView: true}, ActionProcess},
		{"view", ir.FunctionRecord{IsView: true}, ActionView},
		{"none", ir.FunctionRecord{}, ActionNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ActionOf(&tc.record))
		})
	}
}

func TestClassify_ConnectionKindPrecedence(t *testing.T) {
	assert.Equal(t, Emission, ConnectionKindOf(&ir.FunctionRecord{IsEvent: true, IsTraitImpl: true}))
	assert.Equal(t, CrossContractConnection, ConnectionKindOf(&ir.FunctionRecord{IsTraitImpl: true}))
	assert.Equal(t, DirectConnection, ConnectionKindOf(&ir.FunctionRecord{IsPayable: true, IsMutable: true}))
}

func TestClassify_IsPure(t *testing.T) {
	// every combination of the seven facts, visibility unresolved included
	for mask := 0; mask < 1<<7; mask++ {
		r := &ir.FunctionRecord{
			Name:        "f",
			IsTraitImpl: mask&2 != 0,
			IsPayable:   mask&4 != 0,
			IsEvent:     mask&8 != 0,
			IsMutable:   mask&16 != 0,
			IsProcess:   mask&32 != 0,
			IsView:      mask&64 != 0,
		}
		if mask&1 != 0 {
			r.IsPublic = ir.Bool(mask&128 == 0)
		}
		before := *r
		first := Classify(r)
		second := Classify(r)

		assert.Equal(t, first, second)
		assert.Equal(t, before, *r, "classification must not touch the record")
		assert.True(t, first.Scope.Valid())
		assert.True(t, first.Action.Valid())
		assert.True(t, first.Kind.Valid())
		assert.NotEqual(t, ScopeContract, first.Scope)
	}
}

func TestParseEnums(t *testing.T) {
	for _, s := range Scopes {
		got, err := ParseScope(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, a := range Actions {
		got, err := ParseAction(a.String())
		assert.NoError(t, err)
		assert.Equal(t, a, got)
	}
	for _, k := range ConnectionKinds {
		got, err := ParseConnectionKind(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseScope("global")
	assert.Error(t, err)
	_, err = ParseAction("")
	assert.Error(t, err)
	_, err = ParseConnectionKind("indirect")
	assert.Error(t, err)
}
