package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "policy.json")

	require.NoError(t, WriteFileAtomic(testFile, []byte("hello world"), 0o644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	info, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files remain")
	assert.Equal(t, "policy.json", entries[0].Name())
}

func TestWriteFileAtomicOverwrite(t *testing.T) {
	t.Parallel()

	testFile := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, WriteFileAtomic(testFile, []byte("initial"), 0o644))
	require.NoError(t, WriteFileAtomic(testFile, []byte("updated content"), 0o644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "updated content", string(data))
}

func TestWriteFileAtomicInvalidDir(t *testing.T) {
	t.Parallel()

	err := WriteFileAtomic("/nonexistent/dir/test.txt", []byte("data"), 0o644)
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	type doc struct {
		Name   string    `json:"name"`
		Values []float64 `json:"values"`
	}
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	in := doc{Name: "run", Values: []float64{0.1, -0.25, 1e-9}}

	require.NoError(t, WriteJSONAtomic(path, in))

	var out doc
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, in, out)

	assert.Error(t, WriteJSONAtomic(path, func() {}), "functions are not encodable")
	assert.Error(t, ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out))
}
