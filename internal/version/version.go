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

// Package version holds the version of the kodipack program itself. The
// version is set at build time with
//
//	-ldflags "-X github.com/kodipack/kodipack/internal/version.buildVersion=<version>"
//
// and falls back to the module version from the build info.
package version

import (
	"runtime/debug"
	"strings"

	"github.com/anttikivi/semver"
)

// devVersion is the version used for builds without version information.
const devVersion = "0.1.0"

var buildVersion = "dev" //nolint:gochecknoglobals // set at build time

var version *semver.Version //nolint:gochecknoglobals // parsed once at start

func init() { //nolint:gochecknoinits // version must be parsed once at the start
	version = semver.MustParse(resolve(buildVersion, moduleVersion(), Revision()))
}

// Revision returns the VCS revision of the build, suffixed with "-dirty" if
// the working tree had modifications.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "no-buildinfo"
	}

	revision := ""
	dirty := ""

	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision":
			revision = s.Value
		case s.Key == "vcs.modified" && s.Value == "true":
			dirty = "-dirty"
		}
	}

	if revision == "" {
		return "no-vcs"
	}

	return revision + dirty
}

// Version returns the parsed version of the program.
func Version() *semver.Version {
	return version
}

// moduleVersion returns the main module version from the build info, or
// "(devel)" if it is not available.
func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}

	return info.Main.Version
}

// resolve returns the version string to parse. A development build gets
// a pre-release version that sorts below every release.
func resolve(build, module, revision string) string {
	if build != "dev" {
		return strings.TrimPrefix(build, "v")
	}

	if module == "" || module == "(devel)" {
		return devVersion + "-0.dev." + sanitize(revision)
	}

	// Pseudo-versions already carry a pre-release.
	return strings.TrimPrefix(module, "v")
}

// sanitize replaces the characters that are not allowed in a pre-release
// identifier.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}
