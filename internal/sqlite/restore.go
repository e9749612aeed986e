package sqlite

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

// sidecarSuffixes name the WAL-mode files that sit next to the database.
var sidecarSuffixes = []string{"-wal", "-shm"}

// RestoreFrom replaces the live database file with the bytes of the backup
// at backupPath. The Store is closed first and stays closed; the next use
// reopens it against the restored file. Stale WAL sidecars are removed so
// they cannot be replayed over the restored content. Failures wrap
// types.ErrRestoreFailed.
func (s *Store) RestoreFrom(backupPath string) error {
	log := s.log.WithField("backup", filepath.Base(backupPath))

	if err := s.Close(); err != nil {
		// The file is about to be replaced, so a failed checkpoint is moot.
		log.WithError(err).Warn("close before restore")
	}

	src, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("%w: open backup: %w", types.ErrRestoreFailed, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".restore-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", types.ErrRestoreFailed, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: copy backup: %w", types.ErrRestoreFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync: %w", types.ErrRestoreFailed, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close temp file: %w", types.ErrRestoreFailed, err)
	}

	for _, suffix := range sidecarSuffixes {
		if err := os.Remove(s.path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			cleanup()
			return fmt.Errorf("%w: remove %s: %w", types.ErrRestoreFailed, suffix, err)
		}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: replace live file: %w", types.ErrRestoreFailed, err)
	}

	log.Info("database restored from backup")
	return nil
}
