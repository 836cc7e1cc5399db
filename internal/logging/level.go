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

package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Levels of the logger. LevelTrace is below [slog.LevelDebug] and is used for
// the most detailed messages, like the individual file operations.
const (
	LevelTrace Level = Level(slog.LevelDebug - 4)
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

var errInvalidLevel = errors.New("invalid log level")

// A Level is the importance of a logging message. It implements [slog.Leveler]
// and [pflag.Value] so it can be used directly in the config and as a flag.
type Level slog.Level //nolint:recvcheck // needs different receiver types

// Level returns the [slog.Level] for l.
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

func (l Level) String() string {
	if l == LevelTrace {
		return "TRACE"
	}

	return slog.Level(l).String()
}

// Set sets the value of l from the level name. It implements [pflag.Value].
func (l *Level) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		*l = LevelTrace
	case "debug":
		*l = LevelDebug
	case "info", "":
		*l = LevelInfo
	case "warn", "warning":
		*l = LevelWarn
	case "error":
		*l = LevelError
	default:
		return fmt.Errorf("%w: %q", errInvalidLevel, s)
	}

	return nil
}

// Type returns the type name of the flag value.
func (*Level) Type() string {
	return "level"
}

// MarshalText implements [encoding.TextMarshaler].
func (l Level) MarshalText() ([]byte, error) { //nolint:unparam // implements interface
	return []byte(strings.ToLower(l.String())), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (l *Level) UnmarshalText(data []byte) error {
	return l.Set(string(data))
}
