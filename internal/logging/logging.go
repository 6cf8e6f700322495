// Package logging configures the process logger and turns dispatcher signals
// into log lines.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

var debug atomic.Bool

// FileOptions enables size-rotated file output when Path is set.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup sets the level and output of the standard logger. The returned
// closer releases the log file, if any.
func Setup(level string, file FileOptions) io.Closer {
	SetLevel(level)
	log.SetFlags(log.LstdFlags)

	if file.Path == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}

// SetLevel enables debug lines for "debug"; every other value keeps them off.
func SetLevel(level string) {
	debug.Store(strings.EqualFold(strings.TrimSpace(level), "debug"))
}

// DebugEnabled reports whether Debugf writes anything.
func DebugEnabled() bool { return debug.Load() }

func Debugf(format string, args ...any) {
	if debug.Load() {
		log.Printf("[DEBUG] "+format, args...)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
