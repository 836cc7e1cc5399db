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
	"fmt"
	"os"
	"strings"

	"github.com/kodipack/kodipack/internal/fspath"
)

const defaultLogFileName = "kodipack.log"

// Config is the configuration of the logger.
type Config struct {
	Format  string `flag:"log-format" mapstructure:"format"`  // format of the logs, "json" or "text"
	Output  string `flag:"log-output" mapstructure:"output"`  // "stderr", "stdout", or a file
	Level   Level  `flag:"log-level" mapstructure:"level"`    // minimum level
	Enabled bool   `flag:"log,no-log" mapstructure:"enabled"` // whether logging is enabled
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Format:  "json",
		Level:   LevelInfo,
		Output:  DefaultOutput().String(),
	}
}

// DefaultOutput returns the default log file. It is in the user cache
// directory or, if that cannot be resolved, in the temporary directory.
func DefaultOutput() fspath.Path {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}

	return fspath.New(dir, "kodipack", defaultLogFileName)
}

// Validate checks that the format and output of cfg can be used for creating
// the logger.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: %q", errInvalidFormat, c.Format)
	}

	if c.Enabled && c.Output == "" {
		return fmt.Errorf("%w: output is empty", errInvalidOutput)
	}

	return nil
}
