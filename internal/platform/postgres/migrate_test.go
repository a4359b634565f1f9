package postgres

import (
	"context"
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var all strings.Builder
	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), ".sql"), e.Name())
		data, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", e.Name())
		assert.Contains(t, string(data), "-- +goose Down", e.Name())
		all.Write(data)
	}

	schema := all.String()
	for _, table := range []string{"users", "search_history", "bookmarks", "study_streaks", "study_streak_logs"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, schema, "UNIQUE (user_id, query)")
	assert.Contains(t, schema, "UNIQUE (user_id, date)")
	assert.Contains(t, schema, "CHECK (current_streak <= longest_streak)")
}

func TestRunGooseRejectsUnknownCommand(t *testing.T) {
	err := runGoose(context.Background(), nil, "sideways", slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown migration command "sideways"`)
}
