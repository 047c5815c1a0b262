package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chtemp runs the test from an empty temp directory so a developer's local
// library.yaml cannot leak into the assertions.
func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "library.db", cfg.Database.Path)
	assert.Equal(t, 14, cfg.Circulation.LoanPeriodDays)
	assert.Equal(t, 5, cfg.Circulation.MaxBorrowedBooks)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := chtemp(t)

	yaml := []byte("database:\n  path: /tmp/branch.db\ncirculation:\n  loan_period_days: 21\n  max_borrowed_books: 10\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.yaml"), yaml, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/branch.db", cfg.Database.Path)
	assert.Equal(t, 21, cfg.Circulation.LoanPeriodDays)
	assert.Equal(t, 10, cfg.Circulation.MaxBorrowedBooks)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	chtemp(t)
	t.Setenv("LIBRARY_DATABASE_PATH", "/var/lib/library/main.db")
	t.Setenv("LIBRARY_CIRCULATION_MAX_BORROWED_BOOKS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/library/main.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Circulation.MaxBorrowedBooks)
	// Untouched keys keep their defaults.
	assert.Equal(t, 14, cfg.Circulation.LoanPeriodDays)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chtemp(t)

	t.Setenv("LIBRARY_CIRCULATION_LOAN_PERIOD_DAYS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid loan period")
}
