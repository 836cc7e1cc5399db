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

package version

import "testing"

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		build    string
		module   string
		revision string
		want     string
	}{
		{"1.2.0", "(devel)", "abc", "1.2.0"},
		{"v1.2.0", "(devel)", "abc", "1.2.0"},
		{"dev", "(devel)", "4f2a9c1-dirty", "0.1.0-0.dev.4f2a9c1-dirty"},
		{"dev", "", "no-vcs", "0.1.0-0.dev.no-vcs"},
		{"dev", "v0.3.1", "abc", "0.3.1"},
		{"dev", "v0.0.0-20261019120000-4f2a9c1e8b7d", "abc", "0.0.0-20261019120000-4f2a9c1e8b7d"},
		{"dev", "(devel)", "a/b_c", "0.1.0-0.dev.a-b-c"},
	}

	for _, tt := range tests {
		got := resolve(tt.build, tt.module, tt.revision)
		if got != tt.want {
			t.Errorf("resolve(%q, %q, %q) = %q, want %q", tt.build, tt.module, tt.revision, got, tt.want)
		}
	}
}
