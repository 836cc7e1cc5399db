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

// Package panichandler defines the panic handler functions for kodipack. They
// need to be deferred at the beginning of each goroutine. The functions print
// a crash report with the version and the stack trace and exit the program.
package panichandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/kodipack/kodipack/internal/logging"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/kodipack/kodipack/internal/text"
	"github.com/kodipack/kodipack/internal/version"
)

// ExitCode is the exit code of the program after a crash.
const ExitCode = 2

const (
	header = "!!! KODIPACK CRASHED !%s"
	//nolint:lll
	panicInfo = `
kodipack has encountered an unexpected error. This is most likely a bug in the program. In your bug report, please include the kodipack version and the stack trace shown below and the configuration and the entry point that you ran.
`
)

// panicMu is a mutex used to lock the panic handler in case multiple goroutines
// panic simultaneously. It ensures that only the first one recovers, prints the
// message, and exits the program.
var panicMu sync.Mutex //nolint:gochecknoglobals // used by multiple goroutines

// cancel is the cancel function for the program context. It should be set at
// the beginning of the program. It must be run before exiting the program.
var cancel context.CancelFunc //nolint:gochecknoglobals // global cancel for the context

// cancelOnce is used to ensure that cancel is only set once.
var cancelOnce sync.Once //nolint:gochecknoglobals // global cancel for the context

// exit exits the program. It is replaced in tests.
var exit = os.Exit //nolint:gochecknoglobals // replaced in tests

// stderr is where the crash report is written. It is replaced in tests.
var stderr io.Writer = os.Stderr //nolint:gochecknoglobals // replaced in tests

// Handle recovers the panics of the program and prints the information included
// with them with the stack trace.
func Handle() {
	panicMu.Lock()
	defer panicMu.Unlock()

	//revive:disable-next-line:defer This is a deferred function.
	r := recover()

	handlePanic(r, nil)
}

// WithStackTrace returns a function that is similar to Handle but it captures
// the current stack trace to it. This way the panic handler can print the full
// stack trace leading up to creating the panic handler with this function if a
// panic happens outside of the main goroutine.
func WithStackTrace() func() {
	trace := debug.Stack()

	return func() {
		panicMu.Lock()
		defer panicMu.Unlock()

		//revive:disable-next-line:defer This is a deferred function.
		r := recover()

		handlePanic(r, trace)
	}
}

// SetCancel sets the cancel function for the program context.
func SetCancel(c context.CancelFunc) {
	cancelOnce.Do(func() {
		cancel = c
	})
}

func handlePanic(r any, t []byte) {
	if r == nil {
		return
	}

	if cancel != nil {
		cancel()
	}

	_, _ = stderr.Write(report(r, debug.Stack(), t))

	//revive:disable-next-line:deep-exit Panic handler has to exit with error.
	exit(ExitCode)
}

// report returns the crash report for the recovered value r. stack is the
// stack trace of the panicking goroutine and t the trace of the goroutine that
// started it, if any.
func report(r any, stack, t []byte) []byte {
	var buf bytes.Buffer

	buf.WriteByte('\n')

	width := max(terminal.Width(), len(header))

	fmt.Fprintf(&buf, header, strings.Repeat("!", width-len(header)+1))
	buf.WriteString("\n\n")
	buf.WriteString(text.Wrap(panicInfo, width))
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "Version: %s (%s)\n", version.Version(), version.Revision())
	fmt.Fprintf(&buf, "Panic: %v\n\n", r)
	buf.WriteString("Stack trace:\n\n")
	buf.Write(stack)

	if t != nil {
		buf.WriteString("\nWith goroutine called from:\n\n")
		buf.Write(t)
	}

	if w := logging.BootstrapWriter; w != nil {
		if err := w.Flush(); err != nil {
			fmt.Fprintf(&buf, "\nFailed to write the bootstrap log to file: %v\n\n", err)
			buf.WriteString("The bootstrap logs:\n")
			buf.Write(w.Bytes())
		} else {
			fmt.Fprintf(&buf, "\nBootstrap log is written to %s\n", w.File())
			buf.WriteString("Consider including it in the bug report.\n")
		}
	}

	return buf.Bytes()
}
