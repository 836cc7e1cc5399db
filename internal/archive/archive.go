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

// Package archive writes the zip archive of a packaged addon.
package archive

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/kodipack/kodipack/internal/fsutil"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// Ext is the file name extension of the archives.
const Ext = ".zip"

// ErrInvalidLevel is returned for compression levels outside -1 to 9.
var ErrInvalidLevel = errors.New("invalid compression level")

// Result describes a written archive.
type Result struct {
	Path   fspath.Path // path of the archive file
	Files  int         // number of file entries
	Size   int64       // size of the archive in bytes
	Digest string      // hex-encoded BLAKE3 digest of the archive
}

// FileName returns the file name of the archive for the given package name and
// version.
func FileName(packageName, version string) string {
	return packageName + "-" + version + Ext
}

// Create writes the files under dir into a zip archive at dst. The entry names
// are relative to the parent of dir so that every entry starts with the base
// name of dir. The entries are sorted and keep their modification times. The
// directory of dst is created if needed and a partially written archive is
// removed on failure.
func Create(ctx context.Context, afs afero.Fs, dir, dst fspath.Path, level int) (*Result, error) {
	if level < flate.DefaultCompression || level > flate.BestCompression {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	files, err := fsutil.ListFiles(afs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if err = dst.Dir().MkdirAll(afs, fsutil.DirPerm); err != nil {
		return nil, &fsutil.FileSystemError{Op: "create directory", Path: dst.Dir(), Err: err}
	}

	f, err := afs.Create(dst.String())
	if err != nil {
		return nil, &fsutil.FileSystemError{Op: "create", Path: dst, Err: err}
	}

	res, err := write(ctx, afs, f, dir, files, level)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = &fsutil.FileSystemError{Op: "close", Path: dst, Err: cerr}
	}

	if err != nil {
		_ = afs.Remove(dst.String())

		return nil, err
	}

	res.Path = dst

	return res, nil
}

func write(ctx context.Context, afs afero.Fs, w io.Writer, dir fspath.Path, files []string, level int) (*Result, error) {
	hasher := blake3.New()
	cw := &countWriter{w: io.MultiWriter(w, hasher)}
	zw := zip.NewWriter(cw)

	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	prefix := dir.Base()

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("archive interrupted: %w", err)
		}

		if err := addFile(afs, zw, dir.Join(rel), path.Join(prefix, rel)); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	return &Result{
		Files:  len(files),
		Size:   cw.n,
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func addFile(afs afero.Fs, zw *zip.Writer, src fspath.Path, name string) error {
	info, err := afs.Stat(src.String())
	if err != nil {
		return &fsutil.FileSystemError{Op: "stat", Path: src, Err: err}
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", src, err)
	}

	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	r, err := afs.Open(src.String())
	if err != nil {
		return &fsutil.FileSystemError{Op: "open", Path: src, Err: err}
	}
	defer r.Close()

	if _, err = io.Copy(w, r); err != nil {
		return &fsutil.FileSystemError{Op: "archive", Path: src, Err: err}
	}

	return nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (w *countWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.n += int64(n)

	return n, err //nolint:wrapcheck // passthrough writer
}
