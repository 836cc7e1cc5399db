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

// Package config defines the configuration of kodipack and the functions for
// reading it from the config file, the environment variables, and
// the command-line flags. The configuration is read once at start and it is not
// modified after [Parse] returns.
package config

import (
	"time"

	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/kodipack/kodipack/internal/logging"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/kodipack/kodipack/internal/versioning"
)

// EnvPrefix is the prefix used for the environment variables.
const EnvPrefix = "KODIPACK"

// Config is the configuration of a kodipack run.
type Config struct {
	// Addon contains the paths and the settings for building the package.
	Addon AddonConfig `mapstructure:"addon"`

	// Kodi contains the settings for publishing the package to Kodi.
	Kodi KodiConfig `mapstructure:"kodi"`

	// Logging contains the config values for logging.
	Logging logging.Config `mapstructure:"logging"`

	// Directory is the working directory that the relative paths are
	// resolved against. It cannot be set in the config file.
	Directory fspath.Path `flag:"directory" mapstructure:"-"`

	// Color tells whether colors should be enabled in the user output.
	Color terminal.ColorMode `flag:"color" mapstructure:"color"`

	// Interactive tells the program to ask for confirmation before deleting
	// files in the Kodi addons directory.
	Interactive bool `flag:"interactive" mapstructure:"interactive"`

	// Quiet tells the program to suppress all other output than errors.
	Quiet bool `flag:"quiet" mapstructure:"quiet"`

	// Verbose tells the program to print more verbose output.
	Verbose bool `flag:"verbose" mapstructure:"verbose"`
}

// AddonConfig is the "addon" section of the config.
type AddonConfig struct {
	Src            fspath.Path         `mapstructure:"src"`             // source tree of the addon
	Dist           fspath.Path         `mapstructure:"dist"`            // parent of the package folder
	PackageName    string              `mapstructure:"packagename"`     // name of the package folder and archive
	ZipDestination fspath.Path         `mapstructure:"zip_destination"` // directory for the archives
	PackageFile    fspath.Path         `mapstructure:"package_file"`    // manifest with the version field
	Semver         versioning.BumpKind `mapstructure:"semver"`          // default bump kind

	// CompressionLevel is the deflate level of the archive, from -1 to 9.
	CompressionLevel int `mapstructure:"compression_level"`
}

// KodiConfig is the "kodi" section of the config.
type KodiConfig struct {
	AddonsDirectory fspath.Path   `mapstructure:"addons_directory"` // local or mounted addons directory
	Host            string        `mapstructure:"host"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Exclude         string        `mapstructure:"exclude"`        // glob for the files that are kept in Kodi
	MediaDir        string        `mapstructure:"media_dir"`      // directory that is never removed
	AddonID         string        `mapstructure:"addon_id"`       // addon that executes the reload
	ReloadCommand   string        `mapstructure:"reload_command"` // built-in command for the reload
	Port            int           `mapstructure:"port"`
	Timeout         time.Duration `mapstructure:"timeout"` // timeout for the reload request
}

// PackageDir returns the directory that the package is assembled in.
func (c AddonConfig) PackageDir() fspath.Path {
	return c.Dist.Join(c.PackageName)
}

// Target returns the directory of the package inside the Kodi addons
// directory.
func (c KodiConfig) Target(packageName string) fspath.Path {
	return c.AddonsDirectory.Join(packageName)
}
