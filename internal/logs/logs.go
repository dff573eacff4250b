// Package logs configures the process-wide logrus logger.
package logs

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the application logger. It is usable before Init with logrus
// defaults.
var Logger = logrus.New()

// Options selects level, format and an optional log file.
type Options struct {
	Level  string
	Format string
	File   string
}

// Init applies opts to Logger. When File is set, output goes to both stdout
// and the file.
func Init(opts Options) error {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	Logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unsupported log format %q", opts.Format)
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
	}
	Logger.SetOutput(out)
	return nil
}
