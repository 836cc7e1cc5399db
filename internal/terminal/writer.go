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

package terminal

import (
	"io"
	"sync"
)

// stdioMu serializes the writes to the standard streams from the writers that
// bypass the Terminal.
var stdioMu sync.Mutex //nolint:gochecknoglobals // shared by all locked writers

type lockedWriter struct {
	w io.Writer
}

// NewLockedWriter returns a writer that holds a global lock while writing to w.
// The logger uses it for the standard streams.
func NewLockedWriter(w io.Writer) io.Writer {
	return &lockedWriter{w: w}
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	stdioMu.Lock()
	defer stdioMu.Unlock()

	return w.w.Write(p) //nolint:wrapcheck // plain writer
}
