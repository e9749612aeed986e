package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// Integrity check messages. Callers match on the words "passed", "failed",
// and "Error".
const (
	integrityPassed = "Database integrity check passed"
	integrityFailed = "Database integrity check failed: "
	integrityError  = "Error running integrity check: "
)

// CheckIntegrity runs SQLite's full consistency scan. It never returns an
// error: a clean scan yields (true, "...passed"), detected corruption yields
// (false, "...failed: <details>"), and a database that cannot be opened or
// queried yields (false, "Error running integrity check: <err>").
func (s *Store) CheckIntegrity(ctx context.Context) (ok bool, message string) {
	defer func() {
		if r := recover(); r != nil {
			ok, message = false, fmt.Sprintf("%s%v", integrityError, r)
		}
	}()

	problems, err := s.integrityCheck(ctx)
	if err != nil {
		s.log.WithError(err).Warn("integrity check could not run")
		return false, integrityError + err.Error()
	}
	ok, message = integrityResult(problems)
	if !ok {
		s.log.WithField("problems", len(problems)).Warn("integrity check failed")
	}
	return ok, message
}

// integrityResult interprets the rows of PRAGMA integrity_check. A healthy
// database reports the single row "ok".
func integrityResult(problems []string) (bool, string) {
	if len(problems) == 1 && problems[0] == "ok" {
		return true, integrityPassed
	}
	if len(problems) == 0 {
		return false, integrityError + "no result from integrity_check"
	}
	return false, integrityFailed + strings.Join(problems, "; ")
}

func (s *Store) integrityCheck(ctx context.Context) ([]string, error) {
	rows, err := s.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
