package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// Backup file naming. Backups are found by BackupGlob and ordered by
// modification time; the embedded timestamp only keeps names unique.
const (
	BackupPrefix = "travelogue_"
	BackupExt    = ".sqlite3"
	BackupGlob   = BackupPrefix + "*" + BackupExt

	backupTimeLayout = "20060102_150405"
	partialSuffix    = ".partial"
)

// BackupFile is an immutable snapshot of the store on disk.
type BackupFile struct {
	Path    string
	Name    string
	ModTime time.Time
	Size    int64
}

// Backup writes a transactionally consistent copy of the live database to
// dest, creating parent directories as needed. The copy is taken with
// VACUUM INTO, which reads through the write-ahead log, so it is safe while
// the store is in use. The copy lands in a sibling file and is renamed over
// dest only once complete. Destination failures wrap types.ErrBackupIOFailed.
func (s *Store) Backup(ctx context.Context, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: create backup directory: %w", types.ErrBackupIOFailed, err)
	}

	db, err := s.Open(ctx)
	if err != nil {
		return err
	}

	partial := dest + partialSuffix
	if err := os.Remove(partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove stale %s: %w", types.ErrBackupIOFailed, partial, err)
	}

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", partial); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: vacuum into %s: %w", types.ErrBackupIOFailed, dest, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: rename into %s: %w", types.ErrBackupIOFailed, dest, err)
	}

	s.log.WithField("backup", dest).Debug("backup written")
	return nil
}

// CreateTimestampedBackup writes a backup named
// travelogue_<YYYYMMDD_HHMMSS_micros>.sqlite3 into dir and then rotates dir
// down to maxBackups files. Rotation never removes the backup just written,
// and failures to delete old backups are logged without failing the call.
// A maxBackups of zero or less disables rotation.
func (s *Store) CreateTimestampedBackup(ctx context.Context, dir string, maxBackups int) (BackupFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BackupFile{}, fmt.Errorf("%w: create backup directory: %w", types.ErrBackupIOFailed, err)
	}

	path, err := uniqueBackupPath(dir, s.now())
	if err != nil {
		return BackupFile{}, err
	}
	if err := s.Backup(ctx, path); err != nil {
		return BackupFile{}, err
	}

	created, err := statBackup(path)
	if err != nil {
		return BackupFile{}, fmt.Errorf("%w: stat new backup: %w", types.ErrBackupIOFailed, err)
	}

	result := RotateBackups(dir, maxBackups, path, s.log)
	s.log.WithField("backup", created.Name).
		WithField("deleted", len(result.Deleted)).
		Info("timestamped backup created")

	return created, nil
}

// ListAvailableBackups returns the backups in dir, newest first by
// modification time.
func (s *Store) ListAvailableBackups(dir string) ([]BackupFile, error) {
	return ListAvailableBackups(dir)
}

// ListAvailableBackups returns the files in dir matching BackupGlob, newest
// first by modification time. A missing directory yields an empty slice.
func ListAvailableBackups(dir string) ([]BackupFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	backups := make([]BackupFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isBackupName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		backups = append(backups, BackupFile{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].Name > backups[j].Name
		}
		return backups[i].ModTime.After(backups[j].ModTime)
	})
	return backups, nil
}

func isBackupName(name string) bool {
	ok, err := filepath.Match(BackupGlob, name)
	return err == nil && ok
}

// backupName formats the file name for a backup taken at t.
func backupName(t time.Time) string {
	return fmt.Sprintf("%s%s_%06d%s", BackupPrefix, t.Format(backupTimeLayout), t.Nanosecond()/1000, BackupExt)
}

// uniqueBackupPath returns a path in dir for a backup taken at t, stepping
// forward a microsecond at a time past names that already exist.
func uniqueBackupPath(dir string, t time.Time) (string, error) {
	for i := 0; i < 1000; i++ {
		path := filepath.Join(dir, backupName(t))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("%w: stat %s: %w", types.ErrBackupIOFailed, path, err)
		}
		t = t.Add(time.Microsecond)
	}
	return "", fmt.Errorf("%w: no free backup name in %s", types.ErrBackupIOFailed, dir)
}

func statBackup(path string) (BackupFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return BackupFile{}, err
	}
	return BackupFile{
		Path:    path,
		Name:    filepath.Base(path),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// samePath compares two paths after cleaning.
func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
