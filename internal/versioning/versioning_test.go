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

package versioning_test

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/kodipack/kodipack/internal/versioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validVersions = []string{
	"0.0.0",
	"0.0.1",
	"1.2.3",
	"2.0.0",
	"2.9.9",
	"10.20.30",
	"1.2.3-beta",
	"1.2.3-beta.2",
	"1.0.0-rc.1+build.5",
	"1.4.0+exp.sha.5114f85",
	"999.999.999",
}

func TestBump(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		kind versioning.BumpKind
		want string
	}{
		{"1.2.3", versioning.BumpPatch, "1.2.4"},
		{"1.2.3", versioning.BumpMinor, "1.3.0"},
		{"2.0.0", versioning.BumpMinor, "2.1.0"},
		{"1.2.9", versioning.BumpPatch, "1.2.10"},
		{"1.2.3-beta", versioning.BumpPatch, "1.2.3"},
		{"1.2.3-beta", versioning.BumpMinor, "1.3.0"},
		{"1.2.3+build.1", versioning.BumpPatch, "1.2.4"},
		{"1.2.3", versioning.BumpNone, "1.2.3"},
		{"1.2.3-beta+meta", versioning.BumpNone, "1.2.3-beta+meta"},
	}

	for _, tt := range tests {
		t.Run(tt.in+"/"+tt.kind.String(), func(t *testing.T) {
			t.Parallel()

			got, err := versioning.Bump(tt.in, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBumpIsGreater(t *testing.T) {
	t.Parallel()

	for _, v := range validVersions {
		for _, kind := range []versioning.BumpKind{versioning.BumpPatch, versioning.BumpMinor} {
			got, err := versioning.Bump(v, kind)
			require.NoError(t, err, v)

			old := semver.MustParse(v)
			next := semver.MustParse(got)

			assert.True(t, next.GreaterThan(old), "Bump(%q, %s) = %q is not greater", v, kind, got)
			assert.Empty(t, next.Metadata(), "Bump(%q, %s) = %q kept build metadata", v, kind, got)
			assert.Empty(t, next.Prerelease(), "Bump(%q, %s) = %q kept pre-release", v, kind, got)
			assert.Equal(t, old.Major(), next.Major())

			if kind == versioning.BumpMinor {
				assert.Equal(t, old.Minor()+1, next.Minor())
				assert.Zero(t, next.Patch())
			} else {
				assert.Equal(t, old.Minor(), next.Minor())
			}
		}
	}
}

func TestBumpNoneIsIdentity(t *testing.T) {
	t.Parallel()

	for _, v := range validVersions {
		got, err := versioning.Bump(v, versioning.BumpNone)
		require.NoError(t, err, v)
		assert.Equal(t, v, got)
	}
}

func TestBumpInvalidVersion(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"", "1", "1.2", "v1.2.3", "1.2.3.4", "a.b.c", "-1.2.3", "01.2.3"} {
		for _, kind := range []versioning.BumpKind{versioning.BumpNone, versioning.BumpPatch, versioning.BumpMinor} {
			_, err := versioning.Bump(v, kind)

			var verErr *versioning.InvalidVersionError
			require.ErrorAs(t, err, &verErr, "%q/%s", v, kind)
			assert.Equal(t, v, verErr.Version)
		}
	}
}

func TestBumpKindSet(t *testing.T) {
	t.Parallel()

	tests := map[string]versioning.BumpKind{
		"":      versioning.BumpNone,
		"none":  versioning.BumpNone,
		"patch": versioning.BumpPatch,
		"Minor": versioning.BumpMinor,
	}

	for in, want := range tests {
		var k versioning.BumpKind
		require.NoError(t, k.Set(in), in)
		assert.Equal(t, want, k, in)
	}

	var k versioning.BumpKind
	require.Error(t, k.Set("major"))
}
