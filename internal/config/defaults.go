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

package config

import (
	"time"

	"github.com/kodipack/kodipack/internal/logging"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/kodipack/kodipack/internal/versioning"
)

// Default values of the config.
const (
	DefaultCompressionLevel = 9
	DefaultExclude          = "*.xbt"
	DefaultMediaDir         = "media"
	DefaultAddonID          = "script.toolbox"
	DefaultReloadCommand    = "ReloadSkin()"
	DefaultPackageFile      = "package.json"
	DefaultTimeout          = 10 * time.Second
)

// DefaultConfig returns the config with the default values set. The paths of
// the addon are left empty as they have no sensible defaults.
func DefaultConfig() *Config {
	return &Config{ //nolint:exhaustruct // paths are read from the file
		Addon: AddonConfig{ //nolint:exhaustruct // paths are read from the file
			PackageFile:      DefaultPackageFile,
			Semver:           versioning.BumpNone,
			CompressionLevel: DefaultCompressionLevel,
		},
		Kodi: KodiConfig{ //nolint:exhaustruct // connection is read from the file
			Exclude:       DefaultExclude,
			MediaDir:      DefaultMediaDir,
			AddonID:       DefaultAddonID,
			ReloadCommand: DefaultReloadCommand,
			Timeout:       DefaultTimeout,
		},
		Logging:     logging.DefaultConfig(),
		Color:       terminal.ColorAuto,
		Interactive: false,
		Quiet:       false,
		Verbose:     false,
	}
}
