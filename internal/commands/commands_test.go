package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// memoryEnv points every path at a temp directory and selects the seeded
// memory source, so commands run hermetically.
func memoryEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "anggaran.db"))
	t.Setenv("EXPORT_DIR", filepath.Join(dir, "exports"))
	t.Setenv("SOURCE_BACKEND", "memory")
	t.Setenv("AMQP_URL", "")
	return dir
}

func TestInitCreatesProject(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized anggaran project")

	_, err = os.Stat(filepath.Join(dir, "anggaran.yaml"))
	require.NoError(t, err)
	for _, d := range []string{"data", "sheets"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	_, err = runCommand(t, "init", dir)
	require.Error(t, err, "init must not overwrite an existing config")
}

func TestInitRejectsUnknownBackend(t *testing.T) {
	_, err := runCommand(t, "init", t.TempDir(), "--backend", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend")
}

func TestSyncThenInspect(t *testing.T) {
	memoryEnv(t)

	out, err := runCommand(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "2 created")
	assert.Contains(t, out, "January 2025")
	assert.Contains(t, out, "February 2025")

	out, err = runCommand(t, "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "January 2025")
	assert.Contains(t, out, "2 of 2 documents")

	out, err = runCommand(t, "analysis", "--kind", "expense")
	require.NoError(t, err)
	assert.Contains(t, out, "expense analysis")
	assert.Contains(t, out, "housing")

	out, err = runCommand(t, "analysis", "--kind", "income", "--year", "2025", "--month", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "side")
	assert.NotContains(t, out, "housing")
}

func TestSyncTargetedDocument(t *testing.T) {
	memoryEnv(t)

	out, err := runCommand(t, "sync", "January 2025")
	require.NoError(t, err)
	assert.Contains(t, out, "created")
	assert.NotContains(t, out, "February 2025")
}

func TestSyncQueueWithoutBroker(t *testing.T) {
	memoryEnv(t)

	_, err := runCommand(t, "sync", "--queue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL is not configured")
}

func TestExportDocument(t *testing.T) {
	dir := memoryEnv(t)

	_, err := runCommand(t, "sync")
	require.NoError(t, err)

	out, err := runCommand(t, "export", "January 2025")
	require.NoError(t, err)
	assert.Contains(t, out, "name,amount,description,category,expense/income")
	assert.Contains(t, out, "rent")
	assert.Contains(t, out, "salary")

	target := filepath.Join(dir, "january.csv")
	out, err = runCommand(t, "export", "January 2025", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 4 transactions")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "electricity")
}

func TestExportUnknownDocument(t *testing.T) {
	memoryEnv(t)

	_, err := runCommand(t, "export", "March 2099")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "july.csv")
	sheet := strings.Join([]string{
		"Expenses,,,,,Income",
		"Date,Amount,Description,Category,,Date,Amount,Description,Category",
		"Jul 1,Rp15.000,coffee,food,,Jul 25,Rp500.000,salary,work",
		"Jul 2,Rp120.000,books,education,,,,,",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o644))

	out, err := runCommand(t, "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Expenses: 2 rows totalling 135000")
	assert.Contains(t, out, "Income: 1 rows totalling 500000")
	assert.Contains(t, out, "coffee")
}

func TestParseFileWithoutTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := runCommand(t, "parse", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no expenses or income table")
}

func TestConfigFileOverridesEnvironment(t *testing.T) {
	memoryEnv(t)
	fileDir := t.TempDir()

	configPath := filepath.Join(fileDir, "anggaran.yaml")
	yaml := strings.Join([]string{
		"database:",
		"  path: " + filepath.Join(fileDir, "other.db"),
		"export:",
		"  dir: " + filepath.Join(fileDir, "exports"),
		"source:",
		"  backend: memory",
	}, "\n")
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))

	_, err := runCommand(t, "sync", "--config", configPath)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(fileDir, "other.db"))
	require.NoError(t, err, "sync should have used the database from the config file")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := runCommand(t, "documents", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
