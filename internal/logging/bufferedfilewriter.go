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

package logging

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/spf13/afero"
)

// A BufferedFileWriter is a writer that keeps the written bytes in memory until
// they are flushed to the file. The bootstrap logger writes to it so that the
// early logs end up on disk only when something goes wrong.
type BufferedFileWriter struct {
	fs   afero.Fs
	buf  *bytes.Buffer
	file fspath.Path
	mu   sync.Mutex
}

// NewBufferedFileWriter returns a new BufferedFileWriter that flushes to file
// on fs.
func NewBufferedFileWriter(fs afero.Fs, file fspath.Path) *BufferedFileWriter {
	return &BufferedFileWriter{
		fs:   fs,
		buf:  &bytes.Buffer{},
		file: file,
		mu:   sync.Mutex{},
	}
}

// Bytes returns a copy of the buffered bytes.
func (w *BufferedFileWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()

	return bytes.Clone(w.buf.Bytes())
}

// File returns the path to the file the writer flushes to.
func (w *BufferedFileWriter) File() fspath.Path {
	return w.file
}

// Flush appends the buffered bytes to the file and resets the buffer.
func (w *BufferedFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Dir().MkdirAll(w.fs, defaultDirPerm); err != nil {
		return fmt.Errorf("%w", err)
	}

	f, err := w.fs.OpenFile(w.file.String(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", w.file, err)
	}

	if _, err = f.Write(w.buf.Bytes()); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write to %s: %w", w.file, err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", w.file, err)
	}

	w.buf.Reset()

	return nil
}

// Write writes p to the buffer.
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.buf.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w", err)
	}

	return n, nil
}
