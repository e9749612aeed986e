// Package cli implements the travelbrag command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/travelbrag/internal/app"
	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "travelbrag" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "travelbrag",
		Short: "A personal travel log backed by a local SQLite file",
		Long: "Travelbrag records trips, the people on them, and the cities visited.\n" +
			"The database is checked at startup, restored from backups when damaged,\n" +
			"and backed up automatically.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newBackupsCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newPeopleCmd())
	root.AddCommand(newTripsCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps store failures to exitSysError and everything else to
// exitUserError.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrStorageUnavailable),
		errors.Is(err, types.ErrSchemaApplicationFailed),
		errors.Is(err, types.ErrBackupIOFailed),
		errors.Is(err, types.ErrRestoreFailed):
		return exitSysError
	default:
		return exitUserError
	}
}

// sessionOptions selects how withSession starts the app.
type sessionOptions struct {
	skipRecovery bool
}

// withSession starts a session, runs fn, and always shuts the session down.
// Shutdown failures are reported after fn's own error.
func withSession(cmd *cobra.Command, opts sessionOptions, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Startup(ctx, app.Options{
		ConfigDir:    flags.configDir,
		DataDir:      flags.dataDir,
		Out:          cmd.ErrOrStderr(),
		LogOutput:    cmd.ErrOrStderr(),
		SkipRecovery: opts.skipRecovery,
	})
	if err != nil {
		return err
	}

	runErr := fn(ctx, a)
	report := a.Shutdown(ctx)
	return errors.Join(runErr, report.Err())
}
