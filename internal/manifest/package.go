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

// Package manifest reads and writes the version in the metadata files of
// the addon: the package manifest (package.json) and the addon descriptor
// (addon.xml).
package manifest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/kodipack/kodipack/internal/fsutil"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidManifest is returned when the package manifest cannot be used.
var ErrInvalidManifest = errors.New("invalid package manifest")

// Errors returned by SetVersion. They are wrapped in ErrInvalidManifest by the
// functions that operate on files.
var (
	errMalformed    = errors.New("malformed JSON")
	errNoVersion    = errors.New("no top-level version field")
	errVersionValue = errors.New("version is not a string")
)

// Package is the part of the package manifest that kodipack uses.
type Package struct {
	Name    string
	Version string
}

// ReadPackage reads the package manifest at path. When a field is given more
// than once, the first occurrence wins, the same one that [SetVersion]
// rewrites.
func ReadPackage(fs afero.Fs, path fspath.Path) (*Package, error) {
	data, err := afero.ReadFile(fs, path.String())
	if err != nil {
		return nil, &fsutil.FileSystemError{Op: "read", Path: path, Err: err}
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, errMalformed)
	}

	res := gjson.GetManyBytes(data, "name", "version")
	pkg := &Package{Name: res[0].String(), Version: res[1].String()}

	if res[1].Type != gjson.String || pkg.Version == "" {
		return nil, fmt.Errorf("%w: %s has no version", ErrInvalidManifest, path)
	}

	return pkg, nil
}

// WritePackageVersion sets the version in the package manifest at path. Only
// the value of the top-level "version" field changes, the rest of the file is
// kept byte for byte.
func WritePackageVersion(fs afero.Fs, path fspath.Path, version string) error {
	info, err := fs.Stat(path.String())
	if err != nil {
		return &fsutil.FileSystemError{Op: "stat", Path: path, Err: err}
	}

	data, err := afero.ReadFile(fs, path.String())
	if err != nil {
		return &fsutil.FileSystemError{Op: "read", Path: path, Err: err}
	}

	out, err := SetVersion(data, version)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, err)
	}

	if bytes.Equal(out, data) {
		return nil
	}

	if err = path.WriteFile(fs, out, info.Mode().Perm()); err != nil {
		return &fsutil.FileSystemError{Op: "write", Path: path, Err: err}
	}

	return nil
}

// SetVersion returns a copy of the JSON document data with the value of its
// top-level "version" field replaced with version. If the field occurs more
// than once, only the first one is replaced.
func SetVersion(data []byte, version string) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, errMalformed
	}

	res := gjson.GetBytes(data, "version")
	if !res.Exists() {
		return nil, errNoVersion
	}

	if res.Type != gjson.String {
		return nil, fmt.Errorf("%w: %s", errVersionValue, res.Raw)
	}

	// Optimistic replaces the value found above in place, keeping the rest of
	// the document untouched.
	out, err := sjson.SetBytesOptions(data, "version", version, &sjson.Options{Optimistic: true})
	if err != nil {
		return nil, fmt.Errorf("failed to set version: %w", err)
	}

	return out, nil
}
