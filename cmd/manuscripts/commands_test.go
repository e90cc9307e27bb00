package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/csheth/manuscripts/internal/logging"
	"github.com/csheth/manuscripts/internal/project"
)

func newStore(t *testing.T) *project.Store {
	t.Helper()
	store, err := project.NewStore(t.TempDir(), logging.Discard())
	require.NoError(t, err)
	return store
}

func TestResolveProject(t *testing.T) {
	store := newStore(t)
	essay, err := store.Create("Essay")
	require.NoError(t, err)
	_, err = store.Create("Twin")
	require.NoError(t, err)
	_, err = store.Create("twin")
	require.NoError(t, err)

	got, err := resolveProject(store, essay.ID)
	require.NoError(t, err)
	assert.Equal(t, "Essay", got.Name)

	got, err = resolveProject(store, "  ESSAY ")
	require.NoError(t, err)
	assert.Equal(t, essay.ID, got.ID)

	_, err = resolveProject(store, "")
	assert.ErrorIs(t, err, errProjectArg)

	_, err = resolveProject(store, "missing")
	assert.ErrorContains(t, err, "no manuscript named")

	_, err = resolveProject(store, "twin")
	assert.ErrorContains(t, err, "use the id")
}

func TestWriteSummaries(t *testing.T) {
	var out bytes.Buffer
	modified := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	require.NoError(t, writeSummaries(&out, []project.Summary{
		{ID: "01HX", Name: "Essay on Gatsby", Modified: modified},
	}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "NAME", "MODIFIED"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "Essay on Gatsby")
	assert.Contains(t, lines[1], "2024-03-01 09:30")
}

// runCLI runs the root command against a temporary data directory and
// returns what it printed.
func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := &cli.Command{
		Name:   "manuscripts",
		Writer: &out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: filepath.Join(dataDir, "missing.yaml")},
			&cli.StringFlag{Name: "data"},
			&cli.IntFlag{Name: "wrap"},
		},
		Commands: []*cli.Command{listCommand(), newCommand(), exportCommand(), importBibCommand()},
	}
	err := root.Run(context.Background(), append([]string{"manuscripts", "--data", dataDir}, args...))
	return out.String(), err
}

func TestCommandsRoundTrip(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCLI(t, dataDir, "new", "Essay")
	require.NoError(t, err)
	assert.Contains(t, out, "Created Essay")

	bib := filepath.Join(t.TempDir(), "refs.bib")
	require.NoError(t, os.WriteFile(bib, []byte(`@book{fitzgerald1925,
  author = {Fitzgerald, F. Scott},
  title = {The Great Gatsby},
  publisher = {Scribner},
  address = {New York},
  year = {1925}
}`), 0o644))

	out, err = runCLI(t, dataDir, "import-bib", "essay", bib)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 source(s) into Essay")

	out, err = runCLI(t, dataDir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Essay")

	out, err = runCLI(t, dataDir, "export", "--format", "md", "Essay")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, ".md", filepath.Ext(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCommandErrors(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCLI(t, dataDir, "new", "  ")
	assert.Error(t, err)

	_, err = runCLI(t, dataDir, "export", "--format", "odt", "Essay")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runCLI(t, dataDir, "import-bib", "Essay")
	assert.ErrorContains(t, err, "usage")

	empty := filepath.Join(t.TempDir(), "empty.bib")
	require.NoError(t, os.WriteFile(empty, []byte("% nothing here\n"), 0o644))
	_, err = runCLI(t, dataDir, "import-bib", "Essay", empty)
	assert.ErrorContains(t, err, "no entries found")
}
