// Package sqlite implements the durable local store for travelbrag: one
// SQLite file opened with strict durability pragmas, schema bootstrap,
// integrity verification, timestamped backups with rotation, restore from a
// backup, and a per-session modification flag.
//
// A Store is used from a single goroutine. It relies on SQLite's own file
// locking for crash safety and does not coordinate with other processes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/travelbrag/internal/logging"
	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

const driverName = "sqlite"

// dsnPragmas are applied by the driver to every connection it opens.
const dsnPragmas = "_pragma=foreign_keys(1)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(FULL)"

// dsn returns a file: URI for path carrying dsnPragmas. The driver splits a
// plain DSN at its first '?', so the path is escaped rather than appended.
func dsn(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		// Windows volume paths become file:///C:/...
		abs = "/" + abs
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: dsnPragmas}
	return u.String(), nil
}

// synchronousFull is the value PRAGMA synchronous reports for FULL.
const synchronousFull = 2

// connState is the lifecycle state of a Store's connection.
type connState int

const (
	stateClosed connState = iota
	stateOpen
)

// ModificationFlag reports whether the current session wrote to the store.
// Shutdown code depends on this rather than on the whole Store.
type ModificationFlag interface {
	WasModified() bool
}

// Store owns exactly one database file and at most one open connection to it.
// The connection is opened lazily on first use and is only reachable through
// Open, which applies the durability pragmas first.
type Store struct {
	path  string
	log   logrus.FieldLogger
	now   func() time.Time
	state connState
	db    *sql.DB

	modified atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for lifecycle and backup events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the clock used to name timestamped backups.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store for the file at path. No I/O happens until Open.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:  path,
		log:   logging.Discard(),
		now:   time.Now,
		state: stateClosed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("path", path)
	return s
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// IsOpen reports whether the Store currently holds an open connection.
func (s *Store) IsOpen() bool {
	return s.state == stateOpen
}

// Open returns the Store's connection, opening it if needed. The returned
// connection has foreign keys enforced, WAL journaling, and FULL synchronous
// mode; Open fails rather than hand out a connection without them.
// Failures wrap types.ErrStorageUnavailable and leave the Store closed.
func (s *Store) Open(ctx context.Context) (*sql.DB, error) {
	if s.state == stateOpen {
		return s.db, nil
	}

	name, err := dsn(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", types.ErrStorageUnavailable, s.path, err)
	}
	db, err := sql.Open(driverName, name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", types.ErrStorageUnavailable, s.path, err)
	}

	// One connection keeps the pragmas and the WAL snapshot consistent for
	// every caller.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", types.ErrStorageUnavailable, s.path, err)
	}

	p, err := readPragmas(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: read pragmas: %w", types.ErrStorageUnavailable, err)
	}
	if err := p.verify(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	s.db = db
	s.state = stateOpen
	s.log.Debug("database opened")
	return db, nil
}

// Close checkpoints the write-ahead log into the main file and releases the
// connection. Closing a Store that is not open is a no-op. The Store is
// closed afterwards even when the checkpoint fails.
func (s *Store) Close() error {
	if s.state == stateClosed {
		return nil
	}

	_, cpErr := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	closeErr := s.db.Close()
	s.db = nil
	s.state = stateClosed

	if cpErr != nil {
		return fmt.Errorf("checkpoint wal: %w", cpErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close database: %w", closeErr)
	}
	s.log.Debug("database closed")
	return nil
}

// ExecContext runs a statement against the Store's connection, opening it
// if needed. Callers that write must call MarkModified after it succeeds.
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query against the Store's connection, opening it if
// needed. The pool holds a single connection, so callers must close the rows
// before issuing another statement.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, query, args...)
}

// BeginTx starts a transaction on the Store's connection.
func (s *Store) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	db, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	return db.BeginTx(ctx, opts)
}

// MarkModified records that this session wrote to the store. The flag never
// resets for the lifetime of the Store, including across Close and Open.
func (s *Store) MarkModified() {
	s.modified.Store(true)
}

// WasModified reports whether MarkModified was called during this session.
func (s *Store) WasModified() bool {
	return s.modified.Load()
}

// Pragmas holds the durability settings in effect on a connection.
type Pragmas struct {
	ForeignKeys bool
	JournalMode string
	Synchronous int
}

// Pragmas reports the settings in effect on the Store's connection.
func (s *Store) Pragmas(ctx context.Context) (Pragmas, error) {
	db, err := s.Open(ctx)
	if err != nil {
		return Pragmas{}, err
	}
	return readPragmas(ctx, db)
}

func readPragmas(ctx context.Context, db *sql.DB) (Pragmas, error) {
	var p Pragmas
	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		return p, fmt.Errorf("foreign_keys: %w", err)
	}
	p.ForeignKeys = fk == 1
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&p.JournalMode); err != nil {
		return p, fmt.Errorf("journal_mode: %w", err)
	}
	if err := db.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&p.Synchronous); err != nil {
		return p, fmt.Errorf("synchronous: %w", err)
	}
	return p, nil
}

func (p Pragmas) verify() error {
	if !p.ForeignKeys {
		return fmt.Errorf("foreign key enforcement is off")
	}
	if !strings.EqualFold(p.JournalMode, "wal") {
		return fmt.Errorf("journal mode is %q, want wal", p.JournalMode)
	}
	if p.Synchronous != synchronousFull {
		return fmt.Errorf("synchronous is %d, want %d (FULL)", p.Synchronous, synchronousFull)
	}
	return nil
}
