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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kodipack/kodipack/internal/flags"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigNotAFile     = errors.New("config file is not a regular file")
	errUnknownFormat      = errors.New("unknown config file format")
)

// fileNames are the names of the config files that are looked up in
// the working directory, in order.
var fileNames = []string{ //nolint:gochecknoglobals // constant list
	"config.json",
	"kodipack.json",
	"kodipack.jsonc",
	"kodipack.toml",
	"kodipack.yaml",
	"kodipack.yml",
}

// resolveDirectory returns the working directory for the run. It is the value
// of "--directory" or the KODIPACK_DIRECTORY environment variable if set, and
// the current working directory otherwise.
func resolveDirectory(flagSet *flags.FlagSet) (fspath.Path, error) {
	dir := fspath.Path(os.Getenv(EnvPrefix + "_DIRECTORY"))

	if flagSet != nil && flagSet.Lookup("directory") != nil && flagSet.Changed("directory") {
		var err error

		dir, err = flagSet.GetPath("directory")
		if err != nil {
			return "", fmt.Errorf("failed to get the value for command-line option '--directory': %w", err)
		}
	}

	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w", err)
		}

		return fspath.Path(wd), nil
	}

	abs, err := dir.Abs()
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	return abs, nil
}

// resolveFile finds the config file. The file given with "--config" takes
// precedence over the KODIPACK_CONFIG_FILE environment variable. If neither is
// set, the default file names are looked up in dir.
func resolveFile(fs afero.Fs, dir fspath.Path, flagSet *flags.FlagSet) (fspath.Path, error) {
	fileValue := os.Getenv(EnvPrefix + "_CONFIG_FILE")

	if flagSet != nil && flagSet.Lookup("config") != nil && flagSet.Changed("config") {
		var err error

		fileValue, err = flagSet.GetString("config")
		if err != nil {
			return "", fmt.Errorf("failed to get the value for command-line option '--config': %w", err)
		}
	}

	if fileValue != "" {
		file, err := fspath.Path(fileValue).ExpandUser()
		if err != nil {
			return "", fmt.Errorf("%w", err)
		}

		file = file.ExpandEnv()

		if !file.IsAbs() {
			file = dir.Join(file.String())
		}

		ok, err := file.Exists(fs)
		if err != nil {
			return "", fmt.Errorf("%w", err)
		}

		// If the config file is set but it doesn't resolve, fail so that the
		// program doesn't use a config file from some other location by
		// surprise.
		if !ok {
			return "", fmt.Errorf("%w: %s", errConfigFileNotFound, file)
		}

		if ok, err = file.IsFile(fs); err != nil {
			return "", fmt.Errorf("%w", err)
		}

		if !ok {
			return "", fmt.Errorf("%w: %s", errConfigNotAFile, file)
		}

		return file.Clean(), nil
	}

	for _, name := range fileNames {
		file := dir.Join(name)

		ok, err := file.IsFile(fs)
		if err != nil {
			return "", fmt.Errorf("%w", err)
		}

		if ok {
			return file, nil
		}
	}

	return "", fmt.Errorf("%w: none of %s in %s", errConfigFileNotFound, strings.Join(fileNames, ", "), dir)
}

// decodeFile decodes the config file data into a map according to the file
// extension.
func decodeFile(file fspath.Path, data []byte) (map[string]any, error) {
	raw := make(map[string]any)

	var err error

	switch strings.ToLower(file.Ext()) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, file.Ext())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file.Base(), err)
	}

	return raw, nil
}
