package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
		want []string
	}{
		{
			name: "single statement",
			ddl:  "CREATE TABLE a (id INTEGER);",
			want: []string{"CREATE TABLE a (id INTEGER);"},
		},
		{
			name: "multi-line statement",
			ddl:  "CREATE TABLE a (\n    id INTEGER\n);",
			want: []string{"CREATE TABLE a (\n    id INTEGER\n);"},
		},
		{
			name: "full-line comments dropped",
			ddl:  "-- header\nCREATE TABLE a (\n  -- the key\n  id INTEGER\n);\n  -- trailing",
			want: []string{"CREATE TABLE a (\n  id INTEGER\n);"},
		},
		{
			name: "several statements",
			ddl:  "CREATE TABLE a (id INTEGER);\n\nCREATE TABLE b (id INTEGER);\n",
			want: []string{"CREATE TABLE a (id INTEGER);", "\nCREATE TABLE b (id INTEGER);"},
		},
		{
			name: "unterminated tail ignored",
			ddl:  "CREATE TABLE a (id INTEGER);\nCREATE TABLE b (id INTEGER)",
			want: []string{"CREATE TABLE a (id INTEGER);"},
		},
		{
			name: "empty script",
			ddl:  "\n-- nothing here\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.ddl))
		})
	}
}

func TestInitializeSchema_CreatesTables(t *testing.T) {
	s := newSchemaStore(t)

	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	for _, want := range SchemaTables {
		assert.Contains(t, tables, want)
	}
}

func TestInitializeSchema_ReapplyFails(t *testing.T) {
	s := newSchemaStore(t)

	err := s.InitializeDefaultSchema(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSchemaApplicationFailed)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitializeSchema_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ddl := "CREATE TABLE alpha (id INTEGER);\nCREATE TABLE beta (id INTEGER REFERENCES;\n"
	err := s.InitializeSchema(ctx, ddl)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSchemaApplicationFailed)
	assert.Contains(t, err.Error(), "statement 2")

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "alpha", "first statement must be rolled back")
}

func TestInitializeSchema_StorageUnavailable(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope", "travelogue.sqlite3"))

	err := s.InitializeDefaultSchema(context.Background())
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)
}

func TestSchema_JoinTablesCascadeOnTripDelete(t *testing.T) {
	ctx := context.Background()
	s := newSchemaStore(t)

	stmts := []string{
		"INSERT INTO people (id, name) VALUES (1, 'Ada')",
		"INSERT INTO cities (id, geonameid, name, country, latitude, longitude) VALUES (1, 2988507, 'Paris', 'FR', '48.85', '2.35')",
		"INSERT INTO trips (id, name, start_date, end_date) VALUES (1, 'Spring', '2024-04-01', '2024-04-10')",
		"INSERT INTO trip_participants (trip_id, person_id) VALUES (1, 1)",
		"INSERT INTO trip_cities (trip_id, city_id, notes) VALUES (1, 1, 'rain')",
	}
	for _, stmt := range stmts {
		_, err := s.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	_, err := s.ExecContext(ctx, "DELETE FROM trips WHERE id = 1")
	require.NoError(t, err)

	db, err := s.Open(ctx)
	require.NoError(t, err)
	var participants, visits int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trip_participants").Scan(&participants))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trip_cities").Scan(&visits))
	assert.Zero(t, participants)
	assert.Zero(t, visits)
}

func TestSchema_ForeignKeysEnforced(t *testing.T) {
	s := newSchemaStore(t)

	_, err := s.ExecContext(context.Background(),
		"INSERT INTO trip_participants (trip_id, person_id) VALUES (42, 42)")
	assert.Error(t, err, "dangling references must be rejected")
}

func TestNeedsSchema(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		needs, err := NeedsSchema(filepath.Join(dir, "missing.sqlite3"))
		require.NoError(t, err)
		assert.True(t, needs)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.sqlite3")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		needs, err := NeedsSchema(path)
		require.NoError(t, err)
		assert.True(t, needs)
	})

	t.Run("initialized file", func(t *testing.T) {
		s := newSchemaStore(t)
		require.NoError(t, s.Close())
		needs, err := NeedsSchema(s.Path())
		require.NoError(t, err)
		assert.False(t, needs)
	})
}
