// Package logging sets up the logrus logger shared by a run and the event log the
// runner records start, end and failures to.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a text logger at level writing to stdout and, when logFile is set, to
// that file too. The returned close function releases the file.
func New(level string, logFile string) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(parsed)

	if logFile == "" {
		logger.SetOutput(os.Stdout)
		return logger, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log folder: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return logger, f.Close, nil
}

// RunPrefix returns the run-stamped path prefix every file of a run starts with:
// <folder>/<script name>/<yyyy-mm-dd hhmmss (Weekday)>.
func RunPrefix(folder, scriptName string, now time.Time) string {
	stamp := now.Format("2006-01-02 150405") + " (" + now.Weekday().String() + ")"
	return filepath.Join(folder, sanitizeFileName(scriptName), stamp)
}

// LogFile returns the log file of the run with the given prefix.
func LogFile(prefix string) string {
	return prefix + ".log"
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}
