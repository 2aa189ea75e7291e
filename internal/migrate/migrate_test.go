package migrate

import (
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	content, err := fs.ReadFile(migrations, "migrations/00001_analytics.sql")
	require.NoError(t, err)
	for _, table := range []string{"website", "session", "website_event"} {
		assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, string(content), "-- +goose Up")
	assert.Contains(t, string(content), "-- +goose Down")
}

func TestNewProvider(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p, err := NewProvider(db)
	require.NoError(t, err)

	sources := p.ListSources()
	require.Len(t, sources, 1)
	assert.Equal(t, int64(1), sources[0].Version)
}

func TestNewProvider_NilDB(t *testing.T) {
	_, err := NewProvider(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not opened")
}
