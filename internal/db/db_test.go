package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDatabase(t *testing.T) {
	path := t.TempDir() + "/test.db"
	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()

	var mode string
	err = database.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := t.TempDir() + "/test.db"
	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.RunMigrations())
	require.NoError(t, database.RunMigrations())

	_, err = database.Exec("INSERT INTO credentials (key, value) VALUES ('k', 'v')")
	require.NoError(t, err)

	var value string
	err = database.QueryRow("SELECT value FROM credentials WHERE key = 'k'").Scan(&value)
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}
