package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeFile creates dir/name with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeDataDir writes a three-point data directory:
//
//	id 0: (1, 1) category 1 group 1
//	id 1: (3, 3) category 1 group 1
//	id 2: (8, 8) category 2 group 2
func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	writeFile(t, dir, "points.txt", "1 1\n3 3\n8 8\n")
	writeFile(t, dir, "categories.txt", "1\n1\n2\n")
	writeFile(t, dir, "groups.txt", "1\n1\n2\n")
	return dir
}

// writeSQLiteConfig writes a config selecting a sqlite database in dir.
func writeSQLiteConfig(t *testing.T, dir string) string {
	t.Helper()
	db := filepath.ToSlash(filepath.Join(dir, "cropq.db"))
	return writeFile(t, dir, "cropq.toml", "[store]\nbackend = \"sqlite\"\nsqlite_path = \""+db+"\"\n")
}

const lowerLeftQuery = `{
  "valid_region": {"p_min": {"x": 0, "y": 0}, "p_max": {"x": 10, "y": 10}},
  "query": {"operator_crop": {"region": {"p_min": {"x": 0, "y": 0}, "p_max": {"x": 5, "y": 5}}}}
}`

const invertedQuery = `{
  "valid_region": {"p_min": {"x": 0, "y": 0}, "p_max": {"x": 10, "y": 10}},
  "query": {"operator_crop": {"region": {"p_min": {"x": 5, "y": 5}, "p_max": {"x": 0, "y": 0}}}}
}`
