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

// Package fspath implements utility routines for manipulating filename paths in
// a way compatible with the target operating system-defined file paths through
// the [Path] type. The file system operations on [Path] go through
// [afero.Fs] so that the callers can swap the real file system for an
// in-memory one.
package fspath

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// A Path is a file system path.
type Path string

// New returns a new path by joining the given string using [filepath.Join].
// Clean is called on the result.
func New(elem ...string) Path {
	return Path(filepath.Join(elem...))
}

// Abs returns an absolute representation of path. Relative paths will be joined
// with the current working directory. Abs calls Clean on the result. Abs also
// resolves user home directories and environment variables.
func (p Path) Abs() (Path, error) {
	p = p.ExpandEnv()

	var err error

	p, err = p.ExpandUser()
	if err != nil {
		return "", fmt.Errorf("failed to expand user home directory: %w", err)
	}

	absPath, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	return Path(absPath), nil
}

// Base returns the last element of path. Trailing path separators are removed
// before extracting the last element.
func (p Path) Base() string {
	return filepath.Base(string(p))
}

// Dir returns all but the last element of path, typically the path's directory.
func (p Path) Dir() Path {
	return Path(filepath.Dir(string(p)))
}

// Clean returns the shortest path name equivalent to path by eliminating
// redundant separators and resolving `.` and `..` elements. It wraps
// [filepath.Clean].
func (p Path) Clean() Path {
	return Path(filepath.Clean(string(p)))
}

// Exists reports whether a file or a directory exists at p.
func (p Path) Exists(fs afero.Fs) (bool, error) {
	ok, err := afero.Exists(fs, string(p))
	if err != nil {
		return false, fmt.Errorf("failed to check if %q exists: %w", p, err)
	}

	return ok, nil
}

// ExpandEnv replaces ${var} or $var and even %var% on Windows in the string
// according to the values of the current environment variables. References to
// undefined variables are replaced by an empty string.
func (p Path) ExpandEnv() Path {
	return expandOSEnv(p)
}

// ExpandUser tries to replace "~" or "~username" in the string to match the
// correspending user's home directory. If the wanted user does not exist, this
// function returns an error.
func (p Path) ExpandUser() (Path, error) {
	if !strings.HasPrefix(string(p), "~") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home dir: %w", err)
	}

	if p == "~" {
		return Path(home), nil
	}

	// Using the current user's home directory.
	if p[1] == '/' || p[1] == os.PathSeparator {
		return New(home, string(p[1:])), nil
	}

	p, err = expandOtherUser(p)
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	return p, nil
}

// Ext returns the file name extension used by path, including the dot.
func (p Path) Ext() string {
	return filepath.Ext(string(p))
}

// IsAbs reports whether the path is absolute.
func (p Path) IsAbs() bool {
	return filepath.IsAbs(string(p))
}

// IsDir reports whether the file name exists and is a directory.
func (p Path) IsDir(fs afero.Fs) (bool, error) {
	info, err := fs.Stat(string(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("%w", err)
	}

	return info.IsDir(), nil
}

// IsFile reports whether the file name exists and is a file.
func (p Path) IsFile(fs afero.Fs) (bool, error) {
	info, err := fs.Stat(string(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("%w", err)
	}

	return !info.IsDir(), nil
}

// Join joins any number of path elements into a single path, starting with
// Path p and separating the elements with an OS specific [os.PathSeparator].
// Empty elements are ignored. The result is Cleaned.
//
// Join wraps [filepath.Join].
func (p Path) Join(elem ...string) Path {
	all := make([]string, len(elem)+1)
	all[0] = string(p)

	copy(all[1:], elem)

	return Path(filepath.Join(all...))
}

// MkdirAll creates a directory named path, along with any necessary parents,
// and returns nil, or else returns an error. If path is already a directory,
// MkdirAll does nothing and returns nil.
//
// MkdirAll wraps [afero.Fs.MkdirAll].
func (p Path) MkdirAll(fs afero.Fs, perm os.FileMode) error {
	if err := fs.MkdirAll(string(p), perm); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", p, err)
	}

	return nil
}

// ReadFile reads the file at p and returns the contents.
//
// ReadFile wraps [afero.ReadFile].
func (p Path) ReadFile(fs afero.Fs) ([]byte, error) {
	data, err := afero.ReadFile(fs, string(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// Rel returns a relative path that is lexically equivalent to p when joined to
// base with an intervening separator.
func (p Path) Rel(base Path) (string, error) {
	rel, err := filepath.Rel(string(base), string(p))
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	return rel, nil
}

// String returns p as a string and implements [fmt.Stringer] for [Path].
func (p Path) String() string {
	return string(p)
}

// WriteFile writes data to the file at p, creating it if necessary. If the
// file exists, it is truncated.
//
// WriteFile wraps [afero.WriteFile].
func (p Path) WriteFile(fs afero.Fs, data []byte, perm os.FileMode) error {
	if err := afero.WriteFile(fs, string(p), data, perm); err != nil {
		return fmt.Errorf("failed to write file %q: %w", p, err)
	}

	return nil
}

// expandOtherUser tries to replace "~username" in path to match the
// correspending user's home directory. If the wanted user does not exist, this
// function returns an error.
func expandOtherUser(path Path) (Path, error) {
	var (
		i        int
		username string
	)

	if i = strings.IndexByte(string(path), os.PathSeparator); i != -1 {
		username = string(path[1:i])
	} else if i = strings.IndexByte(string(path), '/'); i != -1 {
		username = string(path[1:i])
	} else {
		username = string(path[1:])
	}

	u, err := user.Lookup(username)
	if err != nil {
		return "", fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	if i == -1 {
		return Path(u.HomeDir), nil
	}

	return New(u.HomeDir, string(path[i:])), nil
}
