package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteCreatesAndReplaces(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "record.json")

	require.NoError(t, Write(path, []byte("first")))
	require.NoError(t, Write(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, "nested", TempPattern))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestWriteFailsWhenTargetIsDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(filepath.Join(target), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "child"), []byte("x"), 0o644))

	require.ErrorContains(t, Write(target, []byte("data")), "rename")

	leftovers, err := filepath.Glob(filepath.Join(dir, TempPattern))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}
