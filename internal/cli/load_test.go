package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/store"
	"github.com/roach88/cropq/internal/store/sqlite"
)

func TestLoadCommand_ReplacesContents(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := writeSQLiteConfig(t, dir)

	first := writeDataDir(t)
	_, _, err := executeCommand(t, "load", "--config", cfg, "--data-directory", first)
	require.NoError(t, err)

	second := filepath.Join(dir, "second")
	writeFile(t, second, "points.txt", "5 5\n")
	writeFile(t, second, "categories.txt", "7\n")
	writeFile(t, second, "groups.txt", "42\n")

	stdout, _, err := executeCommand(t, "load", "--config", cfg, "--data-directory", second, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, LoadResult{Points: 1, Backend: "sqlite"}, resp.Data)

	st, err := sqlite.Open(filepath.Join(dir, "cropq.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	defer snap.Close()

	records, err := snap.QueryPoints(ctx, store.Filter{Region: geom.NewRegion(-100, -100, 100, 100)})
	require.NoError(t, err)
	assert.Equal(t, []store.Record{{ID: 0, X: 5, Y: 5, Category: 7, GroupID: 42}}, records)
}

func TestLoadCommand_InconsistentFiles(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := writeSQLiteConfig(t, dir)

	data := filepath.Join(dir, "data")
	writeFile(t, data, "points.txt", "1 1\n2 2\n")
	writeFile(t, data, "categories.txt", "1\n")
	writeFile(t, data, "groups.txt", "1\n1\n")

	stdout, _, err := executeCommand(t, "load", "--config", cfg, "--data-directory", data)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E009]")
}

func TestLoadResult_String(t *testing.T) {
	assert.Equal(t, "Loaded 12,000 points into the memory store.", LoadResult{Points: 12000, Backend: "memory"}.String())
}
