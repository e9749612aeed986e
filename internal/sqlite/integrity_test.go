package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckIntegrity_HealthyDatabase(t *testing.T) {
	s := newSchemaStore(t)
	insertPerson(t, s, "Ada")

	ok, message := s.CheckIntegrity(context.Background())
	assert.True(t, ok)
	assert.Contains(t, message, "passed")
}

func TestCheckIntegrity_UnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travelogue.sqlite3")
	corruptFile(t, path)
	s := New(path)
	defer s.Close()

	ok, message := s.CheckIntegrity(context.Background())
	assert.False(t, ok)
	assert.Contains(t, message, "Error")
}

func TestIntegrityResult(t *testing.T) {
	tests := []struct {
		name     string
		rows     []string
		wantOK   bool
		contains string
	}{
		{name: "ok row", rows: []string{"ok"}, wantOK: true, contains: "passed"},
		{
			name:     "single problem",
			rows:     []string{"row 3 missing from index idx_trips_start_date"},
			contains: "failed: row 3 missing from index idx_trips_start_date",
		},
		{
			name:     "problems joined",
			rows:     []string{"page 4 never used", "wrong # of entries in index x"},
			contains: "failed: page 4 never used; wrong # of entries in index x",
		},
		{name: "no rows", rows: nil, contains: "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, message := integrityResult(tt.rows)
			assert.Equal(t, tt.wantOK, ok)
			assert.Contains(t, message, tt.contains)
		})
	}
}
