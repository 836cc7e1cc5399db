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

// Package versioning computes the version of the addon package from the
// version in the package manifest and the requested bump kind.
package versioning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Bump kinds. The zero value is BumpNone.
const (
	BumpNone BumpKind = iota
	BumpPatch
	BumpMinor
)

var errInvalidBumpKind = errors.New("invalid semver bump kind")

// A BumpKind tells which component of the version is incremented.
type BumpKind int //nolint:recvcheck // needs different receiver types

// An InvalidVersionError is returned when a version string is not a valid
// semantic version of the form MAJOR.MINOR.PATCH with optional pre-release and
// build suffixes.
type InvalidVersionError struct {
	Version string
	Err     error
}

// Bump returns the version that results from bumping v by kind. Bumping by
// [BumpNone] returns v unchanged, but v must still be a valid version. The
// lower components are reset to zero, and bumping the patch component of
// a pre-release version drops the pre-release, so "1.2.3-beta" becomes
// "1.2.3".
func Bump(v string, kind BumpKind) (string, error) {
	ver, err := Parse(v)
	if err != nil {
		return "", err
	}

	switch kind {
	case BumpNone:
		return v, nil
	case BumpPatch:
		next := ver.IncPatch()

		return next.String(), nil
	case BumpMinor:
		next := ver.IncMinor()

		return next.String(), nil
	default:
		return "", fmt.Errorf("%w: %d", errInvalidBumpKind, kind)
	}
}

// Parse parses v as a strict semantic version.
func Parse(v string) (*semver.Version, error) {
	ver, err := semver.StrictNewVersion(v)
	if err != nil {
		return nil, &InvalidVersionError{Version: v, Err: err}
	}

	return ver, nil
}

func (k BumpKind) String() string {
	switch k {
	case BumpNone:
		return "none"
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	default:
		return "invalid"
	}
}

// Set parses s into k. The empty string is the same as "none".
func (k *BumpKind) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		*k = BumpNone
	case "patch":
		*k = BumpPatch
	case "minor":
		*k = BumpMinor
	default:
		return fmt.Errorf("%w: %q", errInvalidBumpKind, s)
	}

	return nil
}

// Type returns the type name of the flag value.
func (*BumpKind) Type() string {
	return "kind"
}

// MarshalText implements [encoding.TextMarshaler].
func (k BumpKind) MarshalText() ([]byte, error) { //nolint:unparam // implements interface
	return []byte(k.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *BumpKind) UnmarshalText(data []byte) error {
	return k.Set(string(data))
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %v", e.Version, e.Err)
}

func (e *InvalidVersionError) Unwrap() error {
	return e.Err
}
