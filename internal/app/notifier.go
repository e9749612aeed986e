package app

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mesh-intelligence/travelbrag/internal/paths"
	"github.com/mesh-intelligence/travelbrag/internal/recovery"
	"github.com/mesh-intelligence/travelbrag/internal/sqlite"
)

// Notifier writes the operator-facing lines printed at startup and
// shutdown. Log entries go to the logger; these lines are for the person at
// the terminal.
type Notifier struct {
	out   io.Writer
	ok    *color.Color
	info  *color.Color
	warn  *color.Color
	alert *color.Color
}

// NewNotifier creates a Notifier writing to out. Colour is used only when
// colour is true.
func NewNotifier(out io.Writer, colour bool) *Notifier {
	n := &Notifier{
		out:   out,
		ok:    color.New(color.FgGreen),
		info:  color.New(color.FgCyan),
		warn:  color.New(color.FgYellow, color.Bold),
		alert: color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{n.ok, n.info, n.warn, n.alert} {
		if colour {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return n
}

// ColourEnabled reports whether out is a terminal that should get colour.
// NO_COLOR and TERM=dumb turn colour off.
func ColourEnabled(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Recovery reports the outcome of the startup recovery run.
func (n *Notifier) Recovery(r recovery.Report) {
	switch r.Outcome {
	case recovery.OutcomeHealthy:
		n.ok.Fprintln(n.out, r.Summary())
	case recovery.OutcomeRestored:
		for _, a := range r.Attempts {
			if !a.OK {
				n.warn.Fprintf(n.out, "Backup %s could not be used\n", a.Backup.Name)
			}
		}
		n.warn.Fprintln(n.out, r.Summary())
	default:
		n.alert.Fprintln(n.out, r.Summary())
		n.alert.Fprintln(n.out, "Skipping backup creation due to database integrity issues")
		return
	}

	switch {
	case r.StartupBackup != nil:
		n.info.Fprintf(n.out, "Database backup created: %s\n", r.StartupBackup.Name)
	case r.BackupErr != nil:
		n.warn.Fprintf(n.out, "Could not create backup: %v\n", r.BackupErr)
	}
}

// ModificationReminder tells the operator to back up the data directory
// when the session wrote to the store. It reports whether it printed.
func (n *Notifier) ModificationReminder(flag sqlite.ModificationFlag, dataDir, backupURL string) bool {
	if !flag.WasModified() {
		return false
	}
	n.warn.Fprintf(n.out, "Back up %s at: %s\n", paths.DatabaseFileName, dataDir)
	if backupURL != "" {
		n.info.Fprintf(n.out, "Backup URL: %s\n", backupURL)
	}
	return true
}

// Exported confirms a GeoJSON export.
func (n *Notifier) Exported(path string) {
	n.info.Fprintf(n.out, "GeoJSON file updated: %s\n", path)
}

// Errorf prints an error line.
func (n *Notifier) Errorf(format string, args ...any) {
	n.alert.Fprintln(n.out, fmt.Sprintf(format, args...))
}
