package sqlite

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestStore returns a Store on a fresh path in a temp directory. The
// store is closed when the test ends.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "travelogue.sqlite3"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newSchemaStore returns a test Store with the default schema applied.
func newSchemaStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.InitializeDefaultSchema(context.Background()))
	return s
}

func insertPerson(t *testing.T, s *Store, name string) {
	t.Helper()
	_, err := s.ExecContext(context.Background(), "INSERT INTO people (name) VALUES (?)", name)
	require.NoError(t, err)
	s.MarkModified()
}

// personNames opens path as an independent store and returns every person
// name in it.
func personNames(t *testing.T, path string) []string {
	t.Helper()
	ctx := context.Background()
	s := New(path)
	defer s.Close()

	rows, err := s.QueryContext(ctx, "SELECT name FROM people ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

// corruptFile overwrites path with bytes that are not a SQLite database.
func corruptFile(t *testing.T, path string) {
	t.Helper()
	garbage := bytes.Repeat([]byte("not a database "), 512)
	require.NoError(t, os.WriteFile(path, garbage, 0o644))
}

func setModTime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}
