package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/travelbrag/internal/app"
	"github.com/mesh-intelligence/travelbrag/internal/geojson"
	"github.com/mesh-intelligence/travelbrag/internal/sqlite"
)

// statusOutput is the --json form of the status command.
type statusOutput struct {
	Database     string `json:"database"`
	BackupDir    string `json:"backup_dir"`
	Healthy      bool   `json:"healthy"`
	Integrity    string `json:"integrity"`
	ForeignKeys  bool   `json:"foreign_keys"`
	JournalMode  string `json:"journal_mode"`
	Synchronous  int    `json:"synchronous"`
	Backups      int    `json:"backups"`
	LatestBackup string `json:"latest_backup,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the database and show its settings and backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{skipRecovery: true}, func(ctx context.Context, a *app.App) error {
				out := statusOutput{
					Database:  a.Paths.DatabasePath(),
					BackupDir: a.Paths.BackupDir(),
				}
				out.Healthy, out.Integrity = a.Store.CheckIntegrity(ctx)
				if out.Healthy {
					p, err := a.Store.Pragmas(ctx)
					if err != nil {
						return err
					}
					out.ForeignKeys, out.JournalMode, out.Synchronous = p.ForeignKeys, p.JournalMode, p.Synchronous
				}
				backups, err := sqlite.ListAvailableBackups(a.Paths.BackupDir())
				if err != nil {
					return err
				}
				out.Backups = len(backups)
				if len(backups) > 0 {
					out.LatestBackup = backups[0].Name
				}

				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "Database:\t%s\n", out.Database)
				fmt.Fprintf(tw, "Integrity:\t%s\n", out.Integrity)
				if out.Healthy {
					fmt.Fprintf(tw, "Pragmas:\tforeign_keys=%t journal_mode=%s synchronous=%d\n",
						out.ForeignKeys, out.JournalMode, out.Synchronous)
				}
				fmt.Fprintf(tw, "Backups:\t%d in %s\n", out.Backups, out.BackupDir)
				if out.LatestBackup != "" {
					fmt.Fprintf(tw, "Latest backup:\t%s\n", out.LatestBackup)
				}
				return tw.Flush()
			})
		},
	}
}

func newBackupCmd() *cobra.Command {
	var dest string
	var force bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the database",
		Long: "Create a timestamped backup in the backup directory and rotate old ones,\n" +
			"or write a single copy to --dest. A database that fails its integrity\n" +
			"check is not backed up unless --force is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{skipRecovery: true}, func(ctx context.Context, a *app.App) error {
				if ok, message := a.Store.CheckIntegrity(ctx); !ok {
					if !force {
						return fmt.Errorf("%w: %s", errBackupRefused, message)
					}
					a.Log.WithField("check", message).Warn("backing up a database that failed its integrity check")
				}
				if dest != "" {
					if err := a.Store.Backup(ctx, dest); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Backup written: %s\n", dest)
					return nil
				}
				b, err := a.Store.CreateTimestampedBackup(ctx, a.Paths.BackupDir(), a.Config.Backups.Max)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s\n", b.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "write the backup to this file instead of the backup directory")
	cmd.Flags().BoolVar(&force, "force", false, "back up even when the integrity check fails")
	return cmd
}

// errBackupRefused is returned when backing up would copy a damaged
// database into the backup set and rotate a good backup out of it.
var errBackupRefused = errors.New("refusing to back up a database that failed its integrity check")

// backupOutput is the --json form of one backup.
type backupOutput struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

func newBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List available backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{skipRecovery: true}, func(ctx context.Context, a *app.App) error {
				backups, err := sqlite.ListAvailableBackups(a.Paths.BackupDir())
				if err != nil {
					return err
				}
				if flags.jsonMode {
					out := make([]backupOutput, 0, len(backups))
					for _, b := range backups {
						out = append(out, backupOutput(b))
					}
					return writeJSON(cmd.OutOrStdout(), out)
				}
				if len(backups) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No backups in %s\n", a.Paths.BackupDir())
					return nil
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "NAME\tMODIFIED\tSIZE")
				for _, b := range backups {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", b.Name, b.ModTime.Format(time.DateTime), b.Size)
				}
				return tw.Flush()
			})
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the database with a backup",
		Long: "Replace the live database with a backup. The argument is a file path or\n" +
			"the name of a file in the backup directory. The restored database is\n" +
			"checked before the command returns.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{skipRecovery: true}, func(ctx context.Context, a *app.App) error {
				path, err := resolveBackup(a.Paths.BackupDir(), args[0])
				if err != nil {
					return err
				}
				if err := a.Store.RestoreFrom(path); err != nil {
					return err
				}
				ok, message := a.Store.CheckIntegrity(ctx)
				if !ok {
					return fmt.Errorf("restored database is not healthy: %s", message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored from %s\n%s\n", path, message)
				return nil
			})
		},
	}
}

// resolveBackup accepts a path or a bare name inside backupDir.
func resolveBackup(backupDir, arg string) (string, error) {
	candidates := []string{arg}
	if filepath.Base(arg) == arg {
		candidates = append(candidates, filepath.Join(backupDir, arg))
	}
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err == nil && !info.IsDir() {
			return c, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("backup %q not found", arg)
}

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write visited cities as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, sessionOptions{skipRecovery: true}, func(ctx context.Context, a *app.App) error {
				path := outPath
				if path == "" {
					path = a.Config.Export.GeoJSON
				}
				if path == "" {
					return errors.New("no output path: pass --out or set export.geojson")
				}
				if err := geojson.Export(ctx, a.Store, path, a.Config.Colours); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "GeoJSON written: %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default: export.geojson from config)")
	return cmd
}
