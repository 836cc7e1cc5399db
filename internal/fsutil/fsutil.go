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

// Package fsutil implements the file system operations of the packaging and
// deployment steps on top of [afero.Fs].
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/spf13/afero"
)

// Default permissions for the created files and directories.
const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

// A FileSystemError is returned when a file system operation fails. The
// pipeline treats it as fatal.
type FileSystemError struct {
	Op   string      // operation, e.g. "copy" or "remove"
	Path fspath.Path // path that the operation failed on
	Err  error
}

// A SkipFunc reports whether the file or directory at rel, relative to the root
// of the walk, should be left out. Skipping a directory skips its contents.
type SkipFunc func(rel string, info fs.FileInfo) bool

// CopyTree copies every regular file under src to dst, keeping the relative
// directory structure and overwriting existing files. The files for which skip
// returns true are not copied. CopyTree returns the number of copied files.
func CopyTree(afs afero.Fs, src, dst fspath.Path, skip SkipFunc) (int, error) {
	n := 0

	err := afero.Walk(afs, src.String(), func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return &FileSystemError{Op: "read", Path: fspath.Path(path), Err: err}
		}

		rel, err := filepath.Rel(src.String(), path)
		if err != nil {
			return &FileSystemError{Op: "resolve", Path: fspath.Path(path), Err: err}
		}

		if rel == "." {
			return nil
		}

		if skip != nil && skip(rel, info) {
			if info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		target := dst.Join(rel)

		if info.IsDir() {
			if err := afs.MkdirAll(target.String(), DirPerm); err != nil {
				return &FileSystemError{Op: "create directory", Path: target, Err: err}
			}

			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if err := CopyFile(afs, fspath.Path(path), target); err != nil {
			return err
		}

		n++

		return nil
	})
	if err != nil {
		return n, fmt.Errorf("%w", err)
	}

	return n, nil
}

// CopyFile copies the file at src to dst, creating the parent directories of
// dst as needed. The modification time of src is kept.
func CopyFile(afs afero.Fs, src, dst fspath.Path) error {
	in, err := afs.Open(src.String())
	if err != nil {
		return &FileSystemError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &FileSystemError{Op: "stat", Path: src, Err: err}
	}

	if err := afs.MkdirAll(dst.Dir().String(), DirPerm); err != nil {
		return &FileSystemError{Op: "create directory", Path: dst.Dir(), Err: err}
	}

	out, err := afs.OpenFile(dst.String(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FilePerm)
	if err != nil {
		return &FileSystemError{Op: "create", Path: dst, Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return &FileSystemError{Op: "copy", Path: dst, Err: err}
	}

	if err := out.Close(); err != nil {
		return &FileSystemError{Op: "close", Path: dst, Err: err}
	}

	if err := afs.Chtimes(dst.String(), info.ModTime(), info.ModTime()); err != nil {
		return &FileSystemError{Op: "set times", Path: dst, Err: err}
	}

	return nil
}

// RemoveAll removes path and any children it contains. A missing path is not
// an error.
func RemoveAll(afs afero.Fs, path fspath.Path) error {
	if err := afs.RemoveAll(path.String()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &FileSystemError{Op: "remove", Path: path, Err: err}
	}

	return nil
}

// CleanExcept deletes every file under root for which keep returns false. The
// root itself and the directories listed in keepDirs, given relative to root,
// are never removed. Other directories are removed once they are left empty.
// Paths that have already disappeared are ignored. CleanExcept returns the
// number of removed files.
func CleanExcept(afs afero.Fs, root fspath.Path, keep SkipFunc, keepDirs ...string) (int, error) {
	var (
		files []string
		dirs  []string
	)

	kept := make(map[string]bool, len(keepDirs))
	for _, d := range keepDirs {
		kept[filepath.Clean(d)] = true
	}

	err := afero.Walk(afs, root.String(), func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return &FileSystemError{Op: "read", Path: fspath.Path(path), Err: err}
		}

		rel, err := filepath.Rel(root.String(), path)
		if err != nil {
			return &FileSystemError{Op: "resolve", Path: fspath.Path(path), Err: err}
		}

		switch {
		case rel == ".":
		case info.IsDir():
			if !kept[rel] {
				dirs = append(dirs, path)
			}
		case keep == nil || !keep(rel, info):
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}

	n := 0

	for _, f := range files {
		if err := afs.Remove(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return n, &FileSystemError{Op: "remove", Path: fspath.Path(f), Err: err}
		}

		n++
	}

	// Deepest directories first so that the parents can become empty.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(os.PathSeparator)) > strings.Count(dirs[j], string(os.PathSeparator))
	})

	for _, d := range dirs {
		empty, err := afero.IsEmpty(afs, d)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return n, &FileSystemError{Op: "read", Path: fspath.Path(d), Err: err}
		}

		if !empty {
			continue
		}

		if err := afs.Remove(d); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, &FileSystemError{Op: "remove", Path: fspath.Path(d), Err: err}
		}
	}

	return n, nil
}

// ListFiles returns the slash-separated paths of the regular files under root
// relative to root, sorted.
func ListFiles(afs afero.Fs, root fspath.Path) ([]string, error) {
	var files []string

	err := afero.Walk(afs, root.String(), func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return &FileSystemError{Op: "read", Path: fspath.Path(path), Err: err}
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root.String(), path)
		if err != nil {
			return &FileSystemError{Op: "resolve", Path: fspath.Path(path), Err: err}
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	sort.Strings(files)

	return files, nil
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}
