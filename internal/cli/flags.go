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

package cli

import (
	"fmt"

	"github.com/kodipack/kodipack/internal/config"
	"github.com/kodipack/kodipack/internal/flags"
	"github.com/spf13/pflag"
)

// newFlagSet returns the command-line flags of the program. The names of the
// flags that override config values must match the "flag" tags in
// [config.Config].
func newFlagSet() *flags.FlagSet {
	defaults := config.DefaultConfig()
	fs := flags.NewFlagSet(Name, pflag.ContinueOnError)

	fs.BoolP("help", "h", false, "show the help message and exit")
	fs.Bool("version", false, "print the version information and exit")
	fs.Bool("list", false, "list the entry points and exit")
	fs.BoolP("dry-run", "n", false, "print the steps that the entry point would run without running them")
	fs.Bool("graph", false, "print the step graph in the DOT language and exit")
	fs.BoolP("watch", "w", false, "run the entry point again when the addon sources change")

	fs.PathP(
		"config",
		"c",
		"",
		"use `<path>` as the configuration file instead of looking it up from the working directory",
	)
	fs.PathP("directory", "C", "", "run as if "+Name+" was started in `<path>`")

	fs.BoolP("verbose", "v", defaults.Verbose, "print more output during the run")
	fs.BoolP("quiet", "q", defaults.Quiet, "print only errors during the run")
	fs.MarkMutuallyExclusive("verbose", "quiet")

	fs.BoolP("interactive", "i", defaults.Interactive, "ask before removing files from the Kodi addons directory")

	colorMode := defaults.Color
	fs.Var(&colorMode, "color", "color the output: auto, always, or never")

	fs.BoolPair("log", "no-log", defaults.Logging.Enabled, "enable logging", "disable logging")

	if err := fs.MarkHidden("log"); err != nil {
		panic(fmt.Sprintf("failed to mark --log hidden: %v", err))
	}

	level := defaults.Logging.Level
	fs.Var(&level, "log-level", "log messages at `<level>` and above")
	fs.String("log-format", defaults.Logging.Format, "write logs as `<format>`, json or text")
	fs.String("log-output", "", "write logs to `<output>`, stderr, stdout, or a file")

	return fs
}
