package graph

import (
	"testing"

	"contractmap/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Node {
	t.Helper()
	root, err := BuildHierarchy(ir.ContractRecord{
		Name: "Counter",
		Units: []ir.UnitRecord{{Functions: []*ir.FunctionRecord{
			{Name: "add", IsPublic: ir.Bool(true), IsMutable: true, InnerCalls: []*ir.FunctionRecord{
				{Name: "add_amount", IsPublic: ir.Bool(false), IsPayable: true, IsMutable: true},
				{Name: "log_added", IsPublic: ir.Bool(false), IsEvent: true},
			}},
			{Name: "add_amount", IsPublic: ir.Bool(false), IsPayable: true, IsMutable: true},
		}}},
	})
	require.NoError(t, err)
	return root
}

func TestFlatten_StableIDs(t *testing.T) {
	root := sampleTree(t)

	flat := Flatten("contracts/counter", root)
	require.Len(t, flat, 5)

	assert.Equal(t, "", flat[0].ParentID)
	assert.Equal(t, "Counter", flat[0].Name)
	assert.Equal(t, "0", flat[0].Path)

	assert.Equal(t, "add", flat[1].Name)
	assert.Equal(t, flat[0].ID, flat[1].ParentID)
	assert.Equal(t, "0.0.1", flat[3].Path)
	assert.Equal(t, Emission, flat[3].Kind)
	assert.Equal(t, 2, flat[3].Depth)

	// same name at different positions yields different ids
	assert.Equal(t, flat[2].Name, flat[4].Name)
	assert.NotEqual(t, flat[2].ID, flat[4].ID)

	again := Flatten("contracts/counter", root)
	assert.Equal(t, flat, again)

	other := Flatten("contracts/other", root)
	assert.NotEqual(t, flat[0].ID, other[0].ID)
}

func TestRebuild_RoundTrip(t *testing.T) {
	root := sampleTree(t)
	flat := Flatten("src", root)

	// reverse to prove ordering comes from Position
	reversed := make([]FlatNode, len(flat))
	for i := range flat {
		reversed[len(flat)-1-i] = flat[i]
	}

	rebuilt, err := Rebuild(reversed)
	require.NoError(t, err)
	assert.Equal(t, Flatten("src", rebuilt), flat)
}

func TestRebuild_RejectsBrokenInput(t *testing.T) {
	flat := Flatten("src", sampleTree(t))

	_, err := Rebuild(nil)
	assert.Error(t, err)

	orphan := append([]FlatNode{}, flat...)
	orphan[2].ParentID = "missing"
	_, err = Rebuild(orphan)
	assert.Error(t, err)

	twoRoots := append([]FlatNode{}, flat...)
	twoRoots[1].ParentID = ""
	_, err = Rebuild(twoRoots)
	assert.Error(t, err)

	dup := append([]FlatNode{}, flat...)
	dup = append(dup, flat[1])
	_, err = Rebuild(dup)
	assert.Error(t, err)
}
