package sqlite

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// Schema is the DDL script for a fresh travelbrag database.
//
//go:embed schema.sql
var Schema string

// SchemaTables lists the tables Schema creates.
var SchemaTables = []string{
	"cities",
	"people",
	"trips",
	"trip_participants",
	"trip_cities",
}

// NeedsSchema reports whether the file at path is missing or empty, which is
// how the application decides to apply the schema.
func NeedsSchema(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat database: %w", err)
	}
	return info.Size() == 0, nil
}

// SplitStatements splits a DDL script into statements. Lines whose first
// non-blank characters are "--" are dropped. Lines accumulate until one
// contains ';', which ends the statement. Text after the last terminator is
// ignored.
func SplitStatements(ddl string) []string {
	var statements []string
	var current []string

	for _, line := range strings.Split(ddl, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current = append(current, line)
		if !strings.Contains(line, ";") {
			continue
		}
		stmt := strings.Join(current, "\n")
		if trimmed := strings.TrimSpace(stmt); trimmed != "" && trimmed != ";" {
			statements = append(statements, stmt)
		}
		current = nil
	}

	return statements
}

// InitializeSchema applies a DDL script in a single transaction. Any failing
// statement rolls back the whole script and the error wraps
// types.ErrSchemaApplicationFailed. The script is not idempotent: applying it
// to a populated file fails on the first existing table.
func (s *Store) InitializeSchema(ctx context.Context, ddl string) error {
	db, err := s.Open(ctx)
	if err != nil {
		return err
	}

	statements := SplitStatements(ddl)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", types.ErrSchemaApplicationFailed, err)
	}
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: statement %d: %w", types.ErrSchemaApplicationFailed, i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", types.ErrSchemaApplicationFailed, err)
	}

	s.log.WithField("statements", len(statements)).Info("schema initialized")
	return nil
}

// InitializeDefaultSchema applies the embedded Schema.
func (s *Store) InitializeDefaultSchema(ctx context.Context) error {
	return s.InitializeSchema(ctx, Schema)
}

// Tables returns the names of the user tables in the database, sorted.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
