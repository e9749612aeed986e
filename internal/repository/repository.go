// Package repository is the data-access layer over the travelbrag store:
// people, trips, cities, and the joins between them.
//
// Every write that changes a row marks the store modified after it commits.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/travelbrag/internal/sqlite"
	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// Repository runs queries against one Store.
type Repository struct {
	store *sqlite.Store
}

// New creates a Repository over store.
func New(store *sqlite.Store) *Repository {
	return &Repository{store: store}
}

var (
	personColumns = []string{"id", "name"}
	cityColumns   = []string{"id", "geonameid", "name", "admin_division", "country", "latitude", "longitude"}
	tripColumns   = []string{"id", "name", "notes", "start_date", "end_date"}
)

// qualify prefixes each column with a table alias.
func qualify(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (types.Person, error) {
	var p types.Person
	err := s.Scan(&p.ID, &p.Name)
	return p, err
}

func scanCity(s scanner, extra ...any) (types.City, error) {
	var c types.City
	var admin sql.NullString
	dest := append([]any{&c.ID, &c.GeonameID, &c.Name, &admin, &c.Country, &c.Latitude, &c.Longitude}, extra...)
	err := s.Scan(dest...)
	c.AdminDivision = admin.String
	return c, err
}

func scanTrip(s scanner) (types.Trip, error) {
	var t types.Trip
	var notes sql.NullString
	err := s.Scan(&t.ID, &t.Name, &notes, &t.StartDate, &t.EndDate)
	t.Notes = notes.String
	return t, err
}

// nullable stores empty text as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// selectAll runs b and scans every row with scan.
func selectAll[T any](ctx context.Context, r *Repository, b sq.SelectBuilder, scan func(scanner) (T, error)) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// selectOne runs b and scans the first row. No row yields types.ErrNotFound.
func selectOne[T any](ctx context.Context, r *Repository, b sq.SelectBuilder, scan func(scanner) (T, error)) (T, error) {
	var zero T
	query, args, err := b.Limit(1).ToSql()
	if err != nil {
		return zero, err
	}

	db, err := r.store.Open(ctx)
	if err != nil {
		return zero, err
	}
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, types.ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execIn(ctx context.Context, e execer, s sq.Sqlizer) (sql.Result, error) {
	query, args, err := s.ToSql()
	if err != nil {
		return nil, err
	}
	return e.ExecContext(ctx, query, args...)
}

// write runs one statement in autocommit mode and returns the affected row
// count. The store is marked modified when any row changed.
func (r *Repository) write(ctx context.Context, s sq.Sqlizer) (int64, sql.Result, error) {
	db, err := r.store.Open(ctx)
	if err != nil {
		return 0, nil, err
	}
	res, err := execIn(ctx, db, s)
	if err != nil {
		return 0, nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil, err
	}
	if n > 0 {
		r.store.MarkModified()
	}
	return n, res, nil
}

// writeTx runs fn in a transaction followed by orphan-city cleanup, then
// commits. The store is marked modified when fn or the cleanup changed any
// row.
func (r *Repository) writeTx(ctx context.Context, fn func(tx *sql.Tx) (int64, error)) (int64, error) {
	tx, err := r.store.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n, err := fn(tx)
	if err != nil {
		return 0, err
	}
	res, err := execIn(ctx, tx, deleteOrphanCities())
	if err != nil {
		return 0, fmt.Errorf("cleaning up orphaned cities: %w", err)
	}
	orphans, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if n > 0 || orphans > 0 {
		r.store.MarkModified()
	}
	return n, nil
}

// deleteOrphanCities removes cities no trip visits.
func deleteOrphanCities() sq.DeleteBuilder {
	return sq.Delete("cities").Where("id NOT IN (SELECT city_id FROM trip_cities)")
}

func lastInsertID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	return id, nil
}
