package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	for _, key := range []string{"SECRET_KEY", "PORT", "DATA_DIR", "DSS_READER_BIN", "CHART_FONT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "dssviz.yaml")
	data := "storage:\n  dataDirectory: ./data\nlog:\n  level: \"off\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path, filepath.Join(dir, "data")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dssviz "+Version)
}

func TestArtifactsCommand_Empty(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "artifacts")
	require.NoError(t, err)
	assert.Contains(t, out, "No files")
}

func TestArtifactsCommand_ListsExports(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)
	exports := filepath.Join(dataDir, "exports")
	require.NoError(t, os.MkdirAll(exports, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(exports, "abc.png"), make([]byte, 2048), 0o644))

	out, err := runCLI(t, "--config", cfgPath, "artifacts")
	require.NoError(t, err)
	assert.Contains(t, out, "abc.png")
	assert.Contains(t, out, "2.0 KiB")
}

func TestSweepCommand(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)
	uploads := filepath.Join(dataDir, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	old := filepath.Join(uploads, "old_a.dss")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	ts := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, ts, ts))

	out, err := runCLI(t, "--config", cfgPath, "sweep", "--max-age", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 of 1 files")
	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

func TestSweepCommand_RequiresMaxAge(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	_, err := runCLI(t, "--config", cfgPath, "sweep")
	assert.Error(t, err)
}

func TestPrintFiles(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printFiles(&buf, []*models.FileInfo{
		{Name: "a.png", Size: 1 << 20, ModifiedAt: now.Add(-2 * time.Hour)},
		{Name: "b.png", Size: 10, ModifiedAt: now.Add(-time.Minute)},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "a.png")
	assert.Contains(t, out, "1.0 MiB")
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "b.png")
	assert.Less(t, strings.Index(out, "NAME"), strings.Index(out, "a.png"))
	assert.Contains(t, out, "2 FILES")
}
