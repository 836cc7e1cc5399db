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

package manifest

import (
	"bytes"

	"github.com/kodipack/kodipack/internal/fsutil"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/spf13/afero"
)

// VersionPlaceholder is the token in the addon descriptor that is replaced with
// the version of the package.
const VersionPlaceholder = "__VERSION__"

// WriteAddonXML copies the addon descriptor from src to dst replacing every
// [VersionPlaceholder] with version. It returns the number of replaced
// placeholders.
func WriteAddonXML(fs afero.Fs, src, dst fspath.Path, version string) (int, error) {
	data, err := afero.ReadFile(fs, src.String())
	if err != nil {
		return 0, &fsutil.FileSystemError{Op: "read", Path: src, Err: err}
	}

	n := bytes.Count(data, []byte(VersionPlaceholder))
	out := bytes.ReplaceAll(data, []byte(VersionPlaceholder), []byte(version))

	if err = fs.MkdirAll(dst.Dir().String(), fsutil.DirPerm); err != nil {
		return 0, &fsutil.FileSystemError{Op: "create directory", Path: dst.Dir(), Err: err}
	}

	if err = dst.WriteFile(fs, out, fsutil.FilePerm); err != nil {
		return 0, &fsutil.FileSystemError{Op: "write", Path: dst, Err: err}
	}

	return n, nil
}
