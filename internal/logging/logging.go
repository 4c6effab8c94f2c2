// Package logging builds the run logger: an append-only, rotated file sink
// that stage code writes warnings and progress to. The console is not a log
// destination — user-facing output goes through the report package — unless
// verbose mode is requested.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	// FilePath is the log file location. Empty disables file logging.
	FilePath string
	// MaxSizeMB caps a single log file before rotation. Zero means 50.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Zero means 3.
	MaxBackups int
	// Verbose additionally mirrors log events to stderr in console format.
	Verbose bool
}

// New constructs a zerolog logger per opts. The returned closer flushes and
// closes the rotating file sink; it is a no-op when file logging is off.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.FilePath != "" {
		if dir := filepath.Dir(opts.FilePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return zerolog.Nop(), nil, err
			}
		}

		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}

		lj := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			LocalTime:  true,
		}
		writers = append(writers, lj)
		closer = lj
	}

	if opts.Verbose {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
