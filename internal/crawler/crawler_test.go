package crawler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"contractmap/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractSrc = `
#[near_bindgen]
impl %s {
    pub fn get(&self) -> u64 {
        0
    }
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCrawler_ScanProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "lib.rs"), fmt.Sprintf(contractSrc, "Alpha"))
	writeFile(t, filepath.Join(root, "src", "b", "mod.rs"), fmt.Sprintf(contractSrc, "Beta"))
	writeFile(t, filepath.Join(root, "src", "plain.rs"), "fn main() {}\n")
	writeFile(t, filepath.Join(root, "src", "broken.rs"), "#[near_bindgen]\nimpl<T> G<T> {}\n")
	writeFile(t, filepath.Join(root, "target", "gen.rs"), fmt.Sprintf(contractSrc, "Generated"))
	writeFile(t, filepath.Join(root, "README.md"), "# not rust\n")

	ext, err := extractor.NewExtractor("rust", extractor.DefaultOptions())
	require.NoError(t, err)

	var types []string
	err = NewCrawler(ext, nil).ScanProject(root, func(f *extractor.FileFacts) {
		for _, u := range f.Units {
			types = append(types, u.TypeName)
		}
	})
	require.NoError(t, err)

	// lexical order: src/b/mod.rs before src/lib.rs; target skipped; broken logged and skipped
	assert.Equal(t, []string{"Beta", "Alpha"}, types)
}

func TestCrawler_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.rs")
	writeFile(t, path, fmt.Sprintf(contractSrc, "Solo"))

	ext, err := extractor.NewExtractor("rust", extractor.DefaultOptions())
	require.NoError(t, err)

	count := 0
	require.NoError(t, NewCrawler(ext, nil).ScanProject(path, func(*extractor.FileFacts) { count++ }))
	assert.Equal(t, 1, count)
}

func TestCrawler_MissingRoot(t *testing.T) {
	ext, err := extractor.NewExtractor("rust", extractor.DefaultOptions())
	require.NoError(t, err)

	err = NewCrawler(ext, nil).ScanProject(filepath.Join(t.TempDir(), "nope"), func(*extractor.FileFacts) {})
	assert.Error(t, err)
}
