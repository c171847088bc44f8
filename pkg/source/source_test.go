package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestDetect(t *testing.T) {
	tests := map[string]string{
		"Orders/OrderConsumer.cs": LangCSharp,
		"src/app.component.ts":    LangTypeScript,
		"publisher.MJS":           LangJavaScript,
		"rabbit.yml":              LangConfig,
		"Program.fs":              LangFSharp,
		"README.md":               "",
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, Detect(path))
		})
	}
}

func TestReadDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b/Service.java":          "class Service {}",
		"a/index.ts":              "import x from './x'",
		"node_modules/lib/lib.js": "ignored",
		".hidden/secret.cs":       "ignored",
		"notes.txt":               "not source",
		"bundle.min.js":           "skip me",
	})

	records, err := ReadDir(root, Options{Walk: WalkOptions{IgnorePatterns: []string{"*.min.js"}}})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a/index.ts", records[0].RelativePath)
	assert.Equal(t, LangTypeScript, records[0].Language)
	assert.Equal(t, "import x from './x'", records[0].Content)
	assert.Equal(t, "b/Service.java", records[1].ID())
}

func TestReadDir_IncludeAndSizeLimit(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.cs": "x",
		"large.cs": "0123456789",
		"app.ts":   "y",
	})

	records, err := ReadDir(root, Options{Include: []string{"*.cs"}, MaxFileSize: 5})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "small.cs", records[0].RelativePath)
}

func TestReadDir_Empty(t *testing.T) {
	records, err := ReadDir(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadDir_MissingRoot(t *testing.T) {
	_, err := ReadDir(filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInput))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
