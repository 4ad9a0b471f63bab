package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/catalog-server/internal/graph"
)

// run executes catalogctl against a sqlite store in dataDir and returns stdout.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{
		"--data-path", dataDir,
		"--store", "sqlite",
		"--env-file", filepath.Join(dataDir, "missing.env"),
	}, args...))

	// pflag keeps values from earlier Execute calls.
	schemaRaw = false
	queryJSON = false
	queryAs = ""
	queryVariables = ""
	inspectGenre = ""
	inspectAuthor = ""

	err := rootCmd.Execute()
	shutdown()
	return out.String(), err
}

func TestSchema(t *testing.T) {
	t.Run("formatted", func(t *testing.T) {
		out, err := run(t, t.TempDir(), "schema")
		require.NoError(t, err)

		assert.Contains(t, out, "type Query {")
		assert.Contains(t, out, "addBook(")
	})

	t.Run("raw", func(t *testing.T) {
		out, err := run(t, t.TempDir(), "schema", "--raw")
		require.NoError(t, err)
		assert.Equal(t, graph.SDL, out)
	})
}

func TestSeedAndInspect(t *testing.T) {
	dataDir := t.TempDir()

	out, err := run(t, dataDir, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 7 books as mluukkai")

	out, err = run(t, dataDir, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "Authors: 5")
	assert.Contains(t, out, "Books:   7")
	assert.Contains(t, out, "Fyodor Dostoevsky")
	assert.Contains(t, out, "1821")

	out, err = run(t, dataDir, "inspect", "--genre", "classic")
	require.NoError(t, err)
	assert.Contains(t, out, "Demons")
	assert.NotContains(t, out, "Clean Code")
}

func TestToken(t *testing.T) {
	dataDir := t.TempDir()

	_, err := run(t, dataDir, "seed")
	require.NoError(t, err)

	out, err := run(t, dataDir, "token", "mluukkai")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "v4.local."))

	_, err = run(t, dataDir, "token", "nobody")
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	dataDir := t.TempDir()

	_, err := run(t, dataDir, "seed")
	require.NoError(t, err)

	out, err := run(t, dataDir, "query", "--json", `{ authorCount bookCount }`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"authorCount":5,"bookCount":7}`, strings.TrimSpace(out))

	_, err = run(t, dataDir, "query", `mutation { editAuthor(name: "Sandi Metz", setBornTo: 1953) { born } }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authenticated")

	out, err = run(t, dataDir, "query", "--json", "--as", "mluukkai",
		`mutation { editAuthor(name: "Sandi Metz", setBornTo: 1953) { born } }`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"editAuthor":{"born":1953}}`, strings.TrimSpace(out))
}
