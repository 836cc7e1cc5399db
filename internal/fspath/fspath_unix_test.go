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

//go:build !windows

package fspath_test

import (
	"os"
	"os/user"
	"testing"

	"github.com/kodipack/kodipack/internal/fspath"
)

func TestAbs(t *testing.T) {
	tests := []struct {
		path    fspath.Path
		env     map[string]string
		want    fspath.Path
		wantErr bool
	}{
		{"./dist/plugin.video.x", nil, cwd() + "/dist/plugin.video.x", false},
		{"/srv/kodi/addons", nil, "/srv/kodi/addons", false},
		{"~/.kodi/addons", nil, home() + "/.kodi/addons", false},
		{"~nosuchkodiuser/addons", nil, "", true},
		{"$HOME/.kodi", nil, home() + "/.kodi", false},
		{"~/$KODI_DIR/addons", map[string]string{"KODI_DIR": ".kodi"}, home() + "/.kodi/addons", false},
		{
			"/${KODI_ROOT}/${KODI_SUB}",
			map[string]string{"KODI_ROOT": "opt", "KODI_SUB": "kodi"},
			"/opt/kodi",
			false,
		},
		{"~/", nil, home(), false},
		{"~", nil, home(), false},
		{"~" + currentUser(), nil, home(), false},
		{"~" + currentUser() + "/addons", nil, home() + "/addons", false},
		{"~/./addons/..", nil, home(), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.path), func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := tt.path.Abs()

			if err == nil && tt.wantErr {
				t.Fatal("Abs() succeeded unexpectedly")
			}

			if err != nil && !tt.wantErr {
				t.Errorf("Abs() failed: %v", err)
			}

			if got != tt.want {
				t.Errorf("Abs(%v) = %v, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestExpandUserKeepsPlainPaths(t *testing.T) {
	t.Parallel()

	for _, p := range []fspath.Path{"/abs/path", "relative/path", "a~b"} {
		got, err := p.ExpandUser()
		if err != nil {
			t.Fatalf("ExpandUser(%q) failed: %v", p, err)
		}

		if got != p {
			t.Errorf("ExpandUser(%q) = %q, want unchanged", p, got)
		}
	}
}

func cwd() fspath.Path {
	path, _ := os.Getwd()

	return fspath.Path(path)
}

func home() fspath.Path {
	path, _ := os.UserHomeDir()

	return fspath.Path(path)
}

func currentUser() fspath.Path {
	u, _ := user.Current()

	return fspath.Path(u.Username)
}
