package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func isolate(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "champtrack.db"))
	t.Setenv("LOG_LEVEL", "error")
}

func TestDemoCommand(t *testing.T) {
	isolate(t)
	out := execute(t, "demo", "--plain", "--days", "5")

	assert.Contains(t, out, "Smith Family")
	assert.Contains(t, out, "Emma Smith")
	assert.Contains(t, out, "Jake Smith")
	assert.Contains(t, out, "Upcoming classes")
	assert.Contains(t, out, "unassigned_transportation")
}

func TestSeedThenSnapshot(t *testing.T) {
	isolate(t)
	familyID := strings.TrimSpace(execute(t, "seed", "--plain"))
	require.NotEmpty(t, familyID)

	out := execute(t, "snapshot", "--plain", "--family", familyID)
	assert.Contains(t, out, "Family "+familyID)
	assert.Contains(t, out, "children          2")
	assert.Contains(t, out, "Smith Family")
}

func TestMigrateNeedsDatabase(t *testing.T) {
	isolate(t)
	rootCmd.SetArgs([]string{"migrate", "status"})
	assert.ErrorContains(t, rootCmd.Execute(), "DATABASE_URL")
}

func TestSnapshotNeedsFamily(t *testing.T) {
	isolate(t)
	t.Setenv("SYNC_FAMILY_ID", "")
	familyFlag = ""
	rootCmd.SetArgs([]string{"snapshot"})
	assert.ErrorContains(t, rootCmd.Execute(), "--family")
}
