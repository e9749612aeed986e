// Package recovery runs the startup check over the live store: verify
// integrity, fall back to backups newest first when the check fails, and
// take a safety backup once the store is known to be healthy.
//
// The orchestrator absorbs integrity and restore failures. Every path ends
// in a Report, and a degraded Report still lets the application start.
package recovery

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/travelbrag/internal/logging"
	"github.com/mesh-intelligence/travelbrag/internal/sqlite"
)

// Target is the store surface the orchestrator drives. *sqlite.Store
// satisfies it.
type Target interface {
	CheckIntegrity(ctx context.Context) (bool, string)
	ListAvailableBackups(dir string) ([]sqlite.BackupFile, error)
	RestoreFrom(backupPath string) error
	CreateTimestampedBackup(ctx context.Context, dir string, maxBackups int) (sqlite.BackupFile, error)
}

var _ Target = (*sqlite.Store)(nil)

// Outcome is the terminal state of a recovery run.
type Outcome string

const (
	// OutcomeHealthy means the live store passed its first integrity check.
	OutcomeHealthy Outcome = "healthy"
	// OutcomeRestored means a backup replaced the live store and passed.
	OutcomeRestored Outcome = "restored"
	// OutcomeNoBackups means the store is corrupt and no backups exist.
	OutcomeNoBackups Outcome = "no_backups"
	// OutcomeRestoreExhausted means every available backup was tried and
	// none produced a store that passes the check.
	OutcomeRestoreExhausted Outcome = "restore_exhausted"
	// OutcomeCancelled means the context ended before a backup produced a
	// store that passes the check. Report.Err holds the context error.
	OutcomeCancelled Outcome = "cancelled"
)

// Attempt records one backup tried during recovery.
type Attempt struct {
	Backup  sqlite.BackupFile
	Err     error  // restore failed before the store was re-checked
	Message string // integrity message after the restore
	OK      bool
}

// Report describes a recovery run.
type Report struct {
	Outcome Outcome
	// Message is the integrity message of the last check performed.
	Message      string
	RestoredFrom sqlite.BackupFile
	Attempts     []Attempt

	// StartupBackup is set when a safety backup was taken after the store
	// was found healthy. BackupErr holds the reason when taking it failed.
	StartupBackup *sqlite.BackupFile
	BackupErr     error

	// Err is the context error when the run was cancelled.
	Err error
}

// Healthy reports whether the store passed integrity at the end of the run.
func (r Report) Healthy() bool {
	return r.Outcome == OutcomeHealthy || r.Outcome == OutcomeRestored
}

// Degraded reports whether the application is continuing on a store that
// did not pass integrity.
func (r Report) Degraded() bool {
	return !r.Healthy()
}

// Summary is a one-line operator-facing description of the run.
func (r Report) Summary() string {
	switch r.Outcome {
	case OutcomeHealthy:
		return r.Message
	case OutcomeRestored:
		return fmt.Sprintf("Database was corrupt and has been restored from backup %s", r.RestoredFrom.Name)
	case OutcomeNoBackups:
		return fmt.Sprintf("Database is corrupt and no backups are available (%s)", r.Message)
	case OutcomeRestoreExhausted:
		return fmt.Sprintf("Database is corrupt and none of %d backups could be restored (%s)", len(r.Attempts), r.Message)
	case OutcomeCancelled:
		return fmt.Sprintf("Database is corrupt and recovery was cancelled after %d restore attempts (%v)", len(r.Attempts), r.Err)
	default:
		return r.Message
	}
}

// Options configures an Orchestrator.
type Options struct {
	BackupDir string
	// MaxBackups bounds the backup directory after the startup backup.
	// Zero or less keeps every backup.
	MaxBackups int
	// StartupBackup enables the safety backup taken when the run ends
	// healthy.
	StartupBackup bool
	Logger        logrus.FieldLogger
}

// Orchestrator runs the startup recovery procedure against one Target.
type Orchestrator struct {
	target Target
	opts   Options
	log    logrus.FieldLogger
}

// New creates an Orchestrator for target.
func New(target Target, opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Orchestrator{
		target: target,
		opts:   opts,
		log:    log.WithField("component", "recovery"),
	}
}

// Run checks the store and, when the check fails, restores from the newest
// backup that yields a healthy store. It never returns an error; the Report
// carries the outcome.
func (o *Orchestrator) Run(ctx context.Context) Report {
	var report Report

	ok, message := o.target.CheckIntegrity(ctx)
	report.Message = message
	if ok {
		report.Outcome = OutcomeHealthy
	} else {
		o.log.WithField("check", message).Error("database integrity check failed")
		o.restore(ctx, &report)
	}

	log := o.log.WithField("outcome", report.Outcome)
	if report.Healthy() {
		log.Info(report.Summary())
		o.startupBackup(ctx, &report)
	} else {
		log.Error(report.Summary())
	}
	return report
}

// restore walks the backups newest first and stops at the first one that
// leaves the store healthy.
func (o *Orchestrator) restore(ctx context.Context, report *Report) {
	backups, err := o.target.ListAvailableBackups(o.opts.BackupDir)
	if err != nil {
		o.log.WithError(err).WithField("dir", o.opts.BackupDir).Warn("could not list backups")
	}
	if len(backups) == 0 {
		report.Outcome = OutcomeNoBackups
		return
	}

	for _, b := range backups {
		if err := ctx.Err(); err != nil {
			report.Outcome = OutcomeCancelled
			report.Err = err
			return
		}
		log := o.log.WithField("backup", b.Name)
		attempt := Attempt{Backup: b}

		if err := o.target.RestoreFrom(b.Path); err != nil {
			log.WithError(err).Warn("restore attempt failed")
			attempt.Err = err
			report.Attempts = append(report.Attempts, attempt)
			continue
		}

		attempt.OK, attempt.Message = o.target.CheckIntegrity(ctx)
		report.Attempts = append(report.Attempts, attempt)
		report.Message = attempt.Message
		if attempt.OK {
			report.Outcome = OutcomeRestored
			report.RestoredFrom = b
			return
		}
		log.WithField("check", attempt.Message).Warn("restored backup failed integrity check")
	}

	report.Outcome = OutcomeRestoreExhausted
}

// startupBackup takes the safety backup. Its failure is recorded, never
// fatal.
func (o *Orchestrator) startupBackup(ctx context.Context, report *Report) {
	if !o.opts.StartupBackup {
		return
	}
	b, err := o.target.CreateTimestampedBackup(ctx, o.opts.BackupDir, o.opts.MaxBackups)
	if err != nil {
		o.log.WithError(err).Warn("startup backup failed")
		report.BackupErr = err
		return
	}
	report.StartupBackup = &b
	o.log.WithField("backup", b.Name).Info("startup backup created")
}
