// Package logging sets up the logrus logger. The TUI owns the terminal, so
// entries go to a file in the data directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// FileName is the log file created inside the data directory.
const FileName = "taskboard.log"

// New returns a logger at level writing to w.
func New(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return l, nil
}

// OpenFile returns a logger appending to <dir>/taskboard.log and the file to
// close on exit.
func OpenFile(fs afero.Fs, dir, level string) (*logrus.Logger, io.Closer, error) {
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	f, err := fs.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	l, err := New(f, level)
	if err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, nil, err
	}
	return l, f, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
