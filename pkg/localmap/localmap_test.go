package localmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestParse(t *testing.T) {
	paths, err := Parse([]byte("paths:\n  counts: data/counts.csv\n  samples: /abs/samples.tsv\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"counts":  "data/counts.csv",
		"samples": "/abs/samples.tsv",
	}, paths)
}

func TestParse_NullPaths(t *testing.T) {
	paths, err := Parse([]byte("paths:\n"))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte("paths:\n  a: 3\n  b: [x]\n  c: ok.csv\n  d: ''\n"))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Len(t, formatErr.Problems, 3)
	msg := err.Error()
	assert.Contains(t, msg, "paths.a")
	assert.Contains(t, msg, "paths.b")
	assert.Contains(t, msg, "paths.d")
	assert.NotContains(t, msg, "paths.c")
}

func TestParse_ShapeErrors(t *testing.T) {
	tests := map[string]string{
		"missing key":    "other: {}\n",
		"paths is list":  "paths: [a, b]\n",
		"top level list": "- a\n",
		"empty document": "",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, IsFormatError(err), "got %T: %v", err, err)
		})
	}

	_, err := Parse([]byte("paths: [unclosed\n"))
	require.Error(t, err)
	assert.False(t, IsFormatError(err))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "inputs.local.yaml", "paths:\n  a: a.csv\n")

	paths, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "a.csv"}, paths)

	writeFile(t, root, "inputs.local.yaml", "paths:\n  a: 1\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)

	_, err = Load(filepath.Join(root, "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsGitIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inputs.local.yaml", "paths: {}\n")

	ignored, err := IsGitIgnored(root, "inputs.local.yaml")
	require.NoError(t, err)
	assert.False(t, ignored)

	writeFile(t, root, ".gitignore", "# machine specific\n*.local.yaml\n")
	ignored, err = IsGitIgnored(root, filepath.Join(root, "inputs.local.yaml"))
	require.NoError(t, err)
	assert.True(t, ignored)

	ignored, err = IsGitIgnored(root, filepath.Join(filepath.Dir(root), "elsewhere.local.yaml"))
	require.NoError(t, err)
	assert.False(t, ignored)
}
