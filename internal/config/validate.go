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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kodipack/kodipack/internal/fspath"
)

const maxPort = 65535

// Validate checks the values that every run needs. The Kodi connection is
// checked separately with [KodiConfig.Validate] as only the publishing entry
// points use it.
func (c *Config) Validate() error {
	for _, f := range []struct{ key, value string }{
		{"addon.src", c.Addon.Src.String()},
		{"addon.dist", c.Addon.Dist.String()},
		{"addon.packagename", c.Addon.PackageName},
		{"addon.zip_destination", c.Addon.ZipDestination.String()},
		{"addon.package_file", c.Addon.PackageFile.String()},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: %s is not set", ErrInvalidConfig, f.key)
		}
	}

	if strings.ContainsAny(c.Addon.PackageName, `/\`) || c.Addon.PackageName == "." || c.Addon.PackageName == ".." {
		return fmt.Errorf("%w: addon.packagename must be a plain name: %q", ErrInvalidConfig, c.Addon.PackageName)
	}

	if c.Addon.CompressionLevel < -1 || c.Addon.CompressionLevel > 9 {
		return fmt.Errorf(
			"%w: addon.compression_level must be between -1 and 9: %d",
			ErrInvalidConfig,
			c.Addon.CompressionLevel,
		)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: logging: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Validate checks the settings that publishing to Kodi needs.
func (c KodiConfig) Validate() error {
	if c.AddonsDirectory == "" {
		return fmt.Errorf("%w: kodi.addons_directory is not set", ErrInvalidConfig)
	}

	if c.Host == "" {
		return fmt.Errorf("%w: kodi.host is not set", ErrInvalidConfig)
	}

	if c.Port < 1 || c.Port > maxPort {
		return fmt.Errorf("%w: kodi.port must be between 1 and %d: %d", ErrInvalidConfig, maxPort, c.Port)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: kodi.timeout must be positive: %s", ErrInvalidConfig, c.Timeout)
	}

	if _, err := filepath.Match(c.Exclude, ""); err != nil {
		return fmt.Errorf("%w: kodi.exclude: %w", ErrInvalidConfig, err)
	}

	return nil
}

// resolvePaths makes the paths in the config absolute. The relative paths are
// resolved against the working directory of the run.
func (c *Config) resolvePaths() error {
	for _, p := range []*fspath.Path{
		&c.Addon.Src,
		&c.Addon.Dist,
		&c.Addon.ZipDestination,
		&c.Addon.PackageFile,
		&c.Kodi.AddonsDirectory,
	} {
		if *p == "" {
			continue
		}

		path, err := p.ExpandUser()
		if err != nil {
			return fmt.Errorf("%w", err)
		}

		path = path.ExpandEnv()

		if !path.IsAbs() {
			path = c.Directory.Join(path.String())
		}

		*p = path.Clean()
	}

	return nil
}
