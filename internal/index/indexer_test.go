package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"contractmap/internal/crawler"
	"contractmap/internal/extractor"
	"contractmap/internal/graph"
	"contractmap/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexer(t *testing.T, name string) *Indexer {
	t.Helper()
	ext, err := extractor.NewExtractor("rust", extractor.DefaultOptions())
	require.NoError(t, err)
	return NewIndexer(crawler.NewCrawler(ext, nil), name)
}

func TestIndexer_BuildContract(t *testing.T) {
	root := filepath.Join(t.TempDir(), "counter", "src")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.rs"), []byte(`
#[near_bindgen]
impl Counter {
    pub fn add(&mut self) {
        self.bump();
    }

    fn bump(&mut self) {}
}
`), 0o644))

	c, err := newIndexer(t, "").BuildContract(root)
	require.NoError(t, err)

	assert.Equal(t, "counter", c.Name, "src directories are named after their crate")
	require.Len(t, c.Units, 1)
	fns := c.Units[0].Functions
	require.Len(t, fns, 2)
	require.Len(t, fns[0].InnerCalls, 1)
	assert.Equal(t, "bump", fns[0].InnerCalls[0].Name)

	named, err := newIndexer(t, "Vault").BuildContract(root)
	require.NoError(t, err)
	assert.Equal(t, "Vault", named.Name)
}

func TestIndexer_SaveAndLoadContract(t *testing.T) {
	idx := newIndexer(t, "")
	c := ir.ContractRecord{
		Name: "Counter",
		Units: []ir.UnitRecord{{Name: "Counter", Functions: []*ir.FunctionRecord{
			{Name: "add", IsPublic: ir.Bool(true), IsMutable: true, InnerCalls: []*ir.FunctionRecord{
				{Name: "add_amount", IsPayable: true, InnerCalls: []*ir.FunctionRecord{}},
			}},
		}}},
	}

	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, idx.SaveContract(c, path))

	loaded, err := idx.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, loaded.Units, 1)

	add := loaded.Units[0].Functions[0]
	assert.True(t, add.Public())
	assert.True(t, add.IsMutable)
	require.Len(t, add.InnerCalls, 1)
	assert.Nil(t, add.InnerCalls[0].IsPublic, "unset visibility survives the round trip")
	assert.True(t, add.InnerCalls[0].IsPayable)
}

func TestIndexer_LoadYAMLRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
units:
  - name: Token
    is_trait_impl: true
    functions:
      - name: transfer
        is_trait_impl: true
        is_payable: false
        is_event: false
        is_mutable: true
        is_process: false
        is_view: false
        inner_calls:
          - name: add_amount
            is_trait_impl: false
            is_payable: true
            is_event: false
            is_mutable: false
            is_process: false
            is_view: false
            inner_calls: []
`), 0o644))

	c, err := newIndexer(t, "Token").Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Token", c.Name)
	fn := c.Units[0].Functions[0]
	assert.Equal(t, "transfer", fn.Name)
	assert.Nil(t, fn.IsPublic)
	assert.Equal(t, "add_amount", fn.InnerCalls[0].Name)
}

func TestIndexer_LoadRejectsMissingFields(t *testing.T) {
	const facts = `is_trait_impl: false, is_payable: false, is_event: false, is_mutable: false, is_process: false, is_view: false`
	cases := []struct {
		name   string
		doc    string
		path   []string
		reason string
	}{
		{
			name:   "bare record",
			doc:    `units: [{name: U, functions: [{name: f}]}]`,
			path:   []string{"Vault", "f"},
			reason: "missing field is_trait_impl",
		},
		{
			name:   "no inner_calls",
			doc:    `units: [{name: U, functions: [{name: f, ` + facts + `}]}]`,
			path:   []string{"Vault", "f"},
			reason: "missing field inner_calls",
		},
		{
			name:   "null inner_calls",
			doc:    `units: [{name: U, functions: [{name: f, ` + facts + `, inner_calls: null}]}]`,
			path:   []string{"Vault", "f"},
			reason: "missing field inner_calls",
		},
		{
			name:   "nested record without a fact",
			doc:    `{name: Bank, units: [{name: U, functions: [{name: f, ` + facts + `, inner_calls: [{name: g, is_trait_impl: false, is_payable: false, is_event: false, is_mutable: false, is_process: false, inner_calls: []}]}]}]}`,
			path:   []string{"Bank", "f", "g"},
			reason: "missing field is_view",
		},
		{
			name:   "no name",
			doc:    `units: [{name: U, functions: [{` + facts + `, inner_calls: []}]}]`,
			path:   []string{"Vault", "#0"},
			reason: "missing field name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "records.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.doc), 0o644))

			c, err := newIndexer(t, "Vault").LoadContract(path)
			require.Error(t, err)
			assert.Empty(t, c.Units)

			var pe *graph.PreconditionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.path, pe.Path)
			assert.Equal(t, tc.reason, pe.Reason)
		})
	}
}

func TestIndexer_LoadKeepsUnresolvedVisibility(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"units": [{"name": "U", "functions": [`+
		`{"name": "f", "is_trait_impl": true, "is_payable": false, "is_event": false, `+
		`"is_mutable": false, "is_process": false, "is_view": false, "inner_calls": []}]}]}`), 0o644))

	c, err := newIndexer(t, "").LoadContract(path)
	require.NoError(t, err)
	assert.Nil(t, c.Units[0].Functions[0].IsPublic)
}

func TestIndexer_SaveWritesEmptyCallLists(t *testing.T) {
	idx := newIndexer(t, "")
	c := ir.ContractRecord{Units: []ir.UnitRecord{{Functions: []*ir.FunctionRecord{{Name: "solo"}}}}}

	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, idx.SaveContract(c, path))
	assert.Nil(t, c.Units[0].Functions[0].InnerCalls, "input is not modified")

	loaded, err := idx.LoadContract(path)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Units[0].Functions[0].InnerCalls)
	assert.Empty(t, loaded.Units[0].Functions[0].InnerCalls)
}

func TestIndexer_LoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newIndexer(t, "").Load(ctx, "whatever.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRecordsFile(t *testing.T) {
	assert.True(t, IsRecordsFile("a/records.JSON"))
	assert.True(t, IsRecordsFile("x.yml"))
	assert.False(t, IsRecordsFile("src/lib.rs"))
	assert.False(t, IsRecordsFile("contracts"))
}
