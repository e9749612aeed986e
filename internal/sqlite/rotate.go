package sqlite

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// RotationResult describes one rotation pass over a backup directory.
type RotationResult struct {
	Kept    []BackupFile
	Deleted []BackupFile
	Errors  []error // Per-file failures; none of them abort the pass.
}

// RotateBackups deletes the oldest backups in dir until at most maxBackups
// remain. The file at keep, normally the backup just written, always stays
// and counts toward the limit. A maxBackups of zero or less deletes nothing.
// Failures are logged and collected rather than returned.
func RotateBackups(dir string, maxBackups int, keep string, log logrus.FieldLogger) RotationResult {
	var result RotationResult
	if maxBackups <= 0 {
		return result
	}

	backups, err := ListAvailableBackups(dir)
	if err != nil {
		log.WithError(err).Warn("backup rotation skipped")
		result.Errors = append(result.Errors, err)
		return result
	}

	slots := maxBackups
	var candidates []BackupFile
	for _, b := range backups {
		if keep != "" && samePath(b.Path, keep) {
			result.Kept = append(result.Kept, b)
			slots--
			continue
		}
		candidates = append(candidates, b)
	}

	for i, b := range candidates {
		if i < slots {
			result.Kept = append(result.Kept, b)
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			log.WithError(err).WithField("backup", b.Name).Warn("could not delete old backup")
			result.Errors = append(result.Errors, fmt.Errorf("delete %s: %w", b.Name, err))
			continue
		}
		log.WithField("backup", b.Name).Debug("old backup deleted")
		result.Deleted = append(result.Deleted, b)
	}

	return result
}
