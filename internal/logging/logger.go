package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"annotator/internal/config"
)

const (
	logFileName       = "annotator.log"
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string // "console" (default) or "json"
	// Outputs lists "stdout", "stderr" or file paths; files are size-rotated.
	// Empty means stderr.
	Outputs   []string
	AddSource bool
}

// New constructs a slog logger. Debug level always records the caller.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	addSource := opts.AddSource || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	w, err := openOutputs(opts.Outputs)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		return slog.New(newJSONHandler(w, level, addSource)), nil
	}
	return slog.New(newConsoleHandler(w, level, addSource)), nil
}

// NewFromConfig creates the CLI logger. Records go to stderr so JSON command
// output on stdout stays clean, and to a rotated file under the log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info"})
	}
	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, logFileName))
	}
	return New(Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: outputs,
	})
}

// parseLevel accepts slog level names in any case; anything else is info.
func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func openOutputs(outputs []string) (io.Writer, error) {
	seen := make(map[string]struct{}, len(outputs))
	var writers []io.Writer
	for _, out := range outputs {
		out = strings.TrimSpace(out)
		if out == "" {
			continue
		}
		if _, dup := seen[out]; dup {
			continue
		}
		seen[out] = struct{}{}
		switch out {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return nil, fmt.Errorf("ensure log directory: %w", err)
			}
			writers = append(writers, &lumberjack.Logger{
				Filename:   out,
				MaxSize:    logFileMaxSizeMB,
				MaxBackups: logFileMaxBackups,
				MaxAge:     logFileMaxAgeDays,
				Compress:   true,
			})
		}
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
