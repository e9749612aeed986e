// Package app wires the travelbrag store into a running session: resolve
// directories, load configuration, open and recover the store at startup,
// and run the shutdown steps in a fixed order.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/travelbrag/internal/config"
	"github.com/mesh-intelligence/travelbrag/internal/geojson"
	"github.com/mesh-intelligence/travelbrag/internal/logging"
	"github.com/mesh-intelligence/travelbrag/internal/paths"
	"github.com/mesh-intelligence/travelbrag/internal/recovery"
	"github.com/mesh-intelligence/travelbrag/internal/repository"
	"github.com/mesh-intelligence/travelbrag/internal/sqlite"
	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// Options are the command-line inputs to Startup.
type Options struct {
	ConfigDir string // --config-dir; empty uses env or platform default
	DataDir   string // --data-dir; empty uses config, env, or platform default

	// Out receives operator messages; LogOutput receives log entries.
	// They default to stdout and stderr.
	Out       io.Writer
	LogOutput io.Writer

	// SkipRecovery opens the store without the integrity check and startup
	// backup. Commands that only report on the store use it.
	SkipRecovery bool
}

// App is a running session.
type App struct {
	Store     *sqlite.Store
	Repo      *repository.Repository
	Config    types.Config
	Paths     paths.Layout
	Recovery  recovery.Report
	SessionID string

	Log      logrus.FieldLogger
	Notifier *Notifier

	shutdown bool
}

// Startup prepares a session. It fails only when the store cannot be
// opened for schema creation or the schema cannot be applied; a corrupt
// store that recovery could not repair still yields an App, with
// Recovery.Degraded() set.
func Startup(ctx context.Context, opts Options) (*App, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	configDir, err := paths.ResolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.ResolveDataDir(opts.DataDir, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}
	layout := paths.Layout{ConfigDir: configDir, DataDir: dataDir}
	if err := layout.Ensure(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	logger, err := logging.New(logging.Config{
		Level:  logging.Level(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: opts.LogOutput,
	})
	if err != nil {
		return nil, err
	}

	session, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	log := logger.WithField("session", session.String())

	store := sqlite.New(layout.DatabasePath(), sqlite.WithLogger(log))
	a := &App{
		Store:     store,
		Repo:      repository.New(store),
		Config:    cfg,
		Paths:     layout,
		SessionID: session.String(),
		Log:       log,
		Notifier:  NewNotifier(opts.Out, ColourEnabled(opts.Out)),
	}
	log.WithField("config", layout.ConfigFile()).Debug("configuration loaded")

	needsSchema, err := sqlite.NeedsSchema(layout.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}
	if needsSchema {
		if err := store.InitializeDefaultSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	if opts.SkipRecovery {
		a.Recovery = recovery.Report{Outcome: recovery.OutcomeHealthy}
		return a, nil
	}

	a.Recovery = recovery.New(store, recovery.Options{
		BackupDir:     layout.BackupDir(),
		MaxBackups:    cfg.Backups.Max,
		StartupBackup: cfg.Backups.OnStartup,
		Logger:        log,
	}).Run(ctx)
	a.Notifier.Recovery(a.Recovery)

	return a, nil
}

// ShutdownReport lists what Shutdown did and which steps failed.
type ShutdownReport struct {
	ExportedTo string // empty when no export ran
	Reminded   bool

	ExportErr error
	CloseErr  error
}

// Err joins the step errors.
func (r ShutdownReport) Err() error {
	return errors.Join(r.ExportErr, r.CloseErr)
}

// Shutdown runs the exit steps in order: GeoJSON export, the modification
// reminder, then closing the store. A failing step is logged and the next
// one still runs. Calling Shutdown again does nothing.
func (a *App) Shutdown(ctx context.Context) ShutdownReport {
	var report ShutdownReport
	if a.shutdown {
		return report
	}
	a.shutdown = true

	if path, ok := a.exportPath(); ok {
		if err := geojson.Export(ctx, a.Store, path, a.Config.Colours); err != nil {
			a.Log.WithError(err).Error("geojson export failed")
			a.Notifier.Errorf("Error exporting GeoJSON on exit: %v", err)
			report.ExportErr = err
		} else {
			report.ExportedTo = path
			a.Notifier.Exported(path)
		}
	}

	report.Reminded = a.Notifier.ModificationReminder(a.Store, a.Paths.DataDir, a.Config.BackupURL)

	if err := a.Store.Close(); err != nil {
		a.Log.WithError(err).Error("closing database failed")
		a.Notifier.Errorf("Error closing database on exit: %v", err)
		report.CloseErr = err
	}

	a.Log.WithField("modified", a.Store.WasModified()).Debug("session ended")
	return report
}

// exportPath returns the configured export path when its directory exists.
func (a *App) exportPath() (string, bool) {
	path := a.Config.Export.GeoJSON
	if path == "" {
		return "", false
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil || !info.IsDir() {
		a.Log.WithField("path", path).Debug("geojson export skipped; directory missing")
		return "", false
	}
	return path, true
}
