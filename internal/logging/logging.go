// Copyright 2026 The Kodipack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging defines utilities for logging within kodipack. The program
// uses the [log/slog] package for logging, and this package contains the
// functions for setting up the logging.
//
// Before the configuration is parsed, logging is done using the bootstrap
// logger. By default it buffers the messages in memory so that they can be
// written to a file if the program crashes. Setting KODIPACK_DEBUG to "1" or
// "true" sends the bootstrap and the regular logs to standard error instead.
// After the configuration is loaded, the default logger is replaced with the
// one that [Init] creates from the user's configuration.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/spf13/afero"
)

// Default values for the logger.
const (
	defaultFilePerm       os.FileMode = 0o600                              // log file permissions
	defaultDirPerm        os.FileMode = 0o700                              // log directory permissions
	defaultJSONTimeFormat             = "2006-01-02T15:04:05.000000-07:00" // time format for JSON output
	defaultTextTimeFormat             = time.DateTime                      // time format for text output
)

// RunKey is the attribute key of the run ID that is added to every message.
const RunKey = "run"

// Errors for logging.
var (
	errInvalidFormat = errors.New("invalid log format")
	errInvalidOutput = errors.New("invalid log output")
)

// BootstrapWriter is the writer that the bootstrap logger buffers its output
// in. It is nil when the debug mode is on.
var BootstrapWriter *BufferedFileWriter //nolint:gochecknoglobals // flushed by the panic handler

// IsDebug reports whether the debug mode is enabled with the KODIPACK_DEBUG
// environment variable.
func IsDebug() bool {
	v := strings.ToLower(os.Getenv("KODIPACK_DEBUG"))

	return v == "true" || v == "1"
}

// InitBootstrap initializes the bootstrap logger and sets it as the default
// logger in [log/slog].
func InitBootstrap(fs afero.Fs, run uuid.UUID) {
	if IsDebug() {
		slog.SetDefault(slog.New(debugHandler()).With(RunKey, run.String(), "bootstrap", true))

		return
	}

	BootstrapWriter = NewBufferedFileWriter(fs, DefaultOutput().Dir().Join("bootstrap.log"))

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				BootstrapWriter,
				&slog.HandlerOptions{AddSource: true, Level: LevelTrace, ReplaceAttr: replaceAttrFunc(defaultJSONTimeFormat)},
			),
		).With(RunKey, run.String()),
	)
}

// Init initializes the proper logger of the program and sets it as the default
// logger in [log/slog]. Log files are opened through fs.
func Init(fs afero.Fs, cfg Config, run uuid.UUID) error {
	if IsDebug() {
		slog.SetDefault(slog.New(debugHandler()).With(RunKey, run.String()))

		return nil
	}

	if !cfg.Enabled {
		slog.SetDefault(slog.New(slog.DiscardHandler))

		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	var w io.Writer

	switch strings.ToLower(cfg.Output) {
	case "stderr":
		w = terminal.NewLockedWriter(os.Stderr)
	case "stdout":
		w = terminal.NewLockedWriter(os.Stdout)
	default:
		path, err := fspath.Path(cfg.Output).Abs()
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidOutput, err)
		}

		if err = path.Dir().MkdirAll(fs, defaultDirPerm); err != nil {
			return fmt.Errorf("failed to create directory for log output: %w", err)
		}

		fw, err := fs.OpenFile(path.String(), os.O_WRONLY|os.O_APPEND|os.O_CREATE, defaultFilePerm)
		if err != nil {
			return fmt.Errorf("failed to open log file at %s: %w", path, err)
		}

		w = fw
	}

	timeFormat := defaultJSONTimeFormat
	if strings.ToLower(cfg.Format) == "text" {
		timeFormat = defaultTextTimeFormat
	}

	opts := &slog.HandlerOptions{
		AddSource:   true,
		Level:       cfg.Level,
		ReplaceAttr: replaceAttrFunc(timeFormat),
	}

	var h slog.Handler

	if strings.ToLower(cfg.Format) == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(h).With(RunKey, run.String()))

	return nil
}

func debugHandler() slog.Handler {
	return slog.NewTextHandler(
		terminal.NewLockedWriter(os.Stderr),
		&slog.HandlerOptions{AddSource: true, Level: LevelTrace, ReplaceAttr: replaceAttrFunc(defaultTextTimeFormat)},
	)
}

func replaceAttrFunc(timeFormat string) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.TimeKey:
			return slog.String(slog.TimeKey, a.Value.Time().Format(timeFormat))
		case slog.LevelKey:
			level, ok := a.Value.Any().(slog.Level)
			if !ok {
				panic(fmt.Sprintf("failed to convert level value to slog.Level: %[1]v (%[1]T)", a.Value.Any()))
			}

			return slog.String(slog.LevelKey, Level(level).String())
		}

		return a
	}
}
