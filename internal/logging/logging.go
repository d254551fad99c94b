// Package logging builds the structured logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives the log in addition to stderr and is rotated.
	File string
	// Stderr overrides the terminal writer (tests).
	Stderr io.Writer
}

// New returns a logger writing to stderr and, optionally, a rotating file.
// The returned closer releases the file and is never nil.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = log.ParseLevel(opts.Level); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	var out io.Writer = os.Stderr
	if opts.Stderr != nil {
		out = opts.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(out, rotating)
		closer = rotating
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "cardsync",
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
