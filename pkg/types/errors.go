package types

import "errors"

// Store lifecycle errors. Callers match them with errors.Is; the store wraps
// the underlying driver or filesystem error alongside the sentinel.
var (
	// ErrStorageUnavailable means the database file could not be opened or
	// created, or the durability pragmas could not be applied.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrSchemaApplicationFailed means a statement of the DDL script failed
	// and the whole script was rolled back.
	ErrSchemaApplicationFailed = errors.New("schema application failed")

	// ErrBackupIOFailed means a backup destination could not be written.
	ErrBackupIOFailed = errors.New("backup I/O failed")

	// ErrRestoreFailed means a backup could not be copied over the live file.
	ErrRestoreFailed = errors.New("restore failed")
)

// Data-access errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidName       = errors.New("name must not be empty")
	ErrInvalidTripDates  = errors.New("end date must not be before start date")
	ErrInvalidDateFormat = errors.New("date must be YYYY-MM or YYYY-MM-DD")
)
