package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/models")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "models"), expanded)

	unchanged, err := ExpandPath("/opt/models")
	require.NoError(t, err)
	assert.Equal(t, "/opt/models", unchanged)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "config.json"), "{}")
	writeFile(t, filepath.Join(src, "weights", "model.bin"), "weights")

	require.NoError(t, CopyTree(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	data, err = os.ReadFile(filepath.Join(dst, "weights", "model.bin"))
	require.NoError(t, err)
	assert.Equal(t, "weights", string(data))
}

// Existing destination directories are merged into and files overwritten,
// rather than failing on collision.
func TestCopyTreeMergesExistingDestination(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "weights", "model.bin"), "new")
	writeFile(t, filepath.Join(dst, "weights", "model.bin"), "old")
	writeFile(t, filepath.Join(dst, "tokenizer.json"), "keep")

	require.NoError(t, CopyTree(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "weights", "model.bin"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	data, err = os.ReadFile(filepath.Join(dst, "tokenizer.json"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestCopyTreeMissingSource(t *testing.T) {
	err := CopyTree(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}

func TestCopyTreeSourceNotDirectory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "file")
	writeFile(t, src, "not a dir")

	err := CopyTree(src, t.TempDir())
	assert.ErrorContains(t, err, "not a directory")
}
