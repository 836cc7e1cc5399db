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

// Package terminal implements the user-facing output of kodipack. All of the
// output goes through a single goroutine owned by a [Terminal] so that the
// progress messages from steps running in parallel, the log output, and the
// interactive prompts do not interleave.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// Output modes for the messages.
const (
	Buffered OutputMode = iota // buffered standard output
	Stdout                     // standard output, flushing the buffer first
	Stderr                     // standard error, flushing the buffer first
)

// Colors that can be used with [Terminal.Color].
const (
	Red     Color = 31
	Green   Color = 32
	Yellow  Color = 33
	Blue    Color = 34
	Magenta Color = 35
	Cyan    Color = 36
	Gray    Color = 90
)

const (
	escape       = '\x1b'
	reset        = 0
	defaultWidth = 80
)

// ErrQuietPrompt is returned when a prompt is requested in quiet mode.
var ErrQuietPrompt = errors.New("cannot prompt for input in quiet mode")

var (
	errClosed     = errors.New("terminal is closed")
	errNoResponse = errors.New("no response received")
)

var defaultTerminal *Terminal //nolint:gochecknoglobals // global Terminal instance

// An OutputMode tells where a message is written.
type OutputMode int

// A Color is an ANSI foreground color code.
type Color int

// Options are the settings for a new Terminal. The nil streams default to the
// standard streams of the process.
type Options struct {
	In          io.Reader
	Out         io.Writer
	ErrOut      io.Writer
	Color       ColorMode
	Quiet       bool
	Verbose     bool
	Interactive bool
}

// A Terminal is the user interface of the program. It must be created with
// [New] and closed with [Terminal.Close].
type Terminal struct {
	in            io.ReadCloser
	out           io.Writer
	errOut        io.Writer
	outCh         chan message
	promptCh      chan promptRequest
	flushCh       chan chan struct{}
	quit          chan struct{}
	done          chan struct{}
	err           *asyncError
	closeOnce     sync.Once
	quiet         bool
	verbose       bool
	interactive   bool
	colorsEnabled bool
}

type message struct {
	msg  string
	mode OutputMode
}

type promptRequest struct {
	response chan promptResponse
	prompt   string
}

type promptResponse struct {
	err      error
	response string
}

// New returns a new Terminal and starts its output goroutine. The goroutine
// stops when ctx is canceled or the Terminal is closed.
func New(ctx context.Context, opts Options) *Terminal {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}

	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}

	t := &Terminal{
		in:          readline.NewCancelableStdin(in),
		out:         opts.Out,
		errOut:      opts.ErrOut,
		outCh:       make(chan message),
		promptCh:    make(chan promptRequest),
		flushCh:     make(chan chan struct{}),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		err:         &asyncError{errs: nil, mu: sync.Mutex{}},
		quiet:       opts.Quiet,
		verbose:     opts.Verbose,
		interactive: opts.Interactive,
	}

	switch opts.Color {
	case ColorAlways:
		t.colorsEnabled = true
	case ColorNever:
		t.colorsEnabled = false
	case ColorAuto:
		t.colorsEnabled = isTerminal(opts.Out) && os.Getenv("NO_COLOR") == ""
	default:
		panic(fmt.Sprintf("invalid Terminal color mode: %v", opts.Color))
	}

	go t.doIO(ctx)

	return t
}

// Ask prompts the user for a line of input.
func (t *Terminal) Ask(ctx context.Context, prompt string) (string, error) {
	if t.quiet {
		return "", ErrQuietPrompt
	}

	responseCh := make(chan promptResponse, 1)

	select {
	case t.promptCh <- promptRequest{prompt: prompt, response: responseCh}:
	case <-t.done:
		return "", errClosed
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", errNoResponse, ctx.Err())
	}

	select {
	case resp := <-responseCh:
		if resp.err != nil {
			return "", resp.err
		}

		return resp.response, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", errNoResponse, ctx.Err())
	}
}

// Close flushes the output and stops the output goroutine. It returns the
// errors that occurred while writing the output.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		close(t.quit)
	})

	<-t.done

	return t.err.joined()
}

// Color returns s wrapped in the escape codes for c if the colors are enabled.
func (t *Terminal) Color(c Color, s string) string {
	if !t.colorsEnabled {
		return s
	}

	return fmt.Sprintf("%c[%dm%s%c[%dm", escape, c, s, escape, reset)
}

// Confirm asks the user a yes-or-no question. If the Terminal is not
// interactive, Confirm returns defaultChoice without asking.
func (t *Terminal) Confirm(ctx context.Context, prompt string, defaultChoice bool) (bool, error) {
	if !t.interactive {
		return defaultChoice, nil
	}

	if t.quiet {
		return false, ErrQuietPrompt
	}

	options := "[y/N]"
	if defaultChoice {
		options = "[Y/n]"
	}

	fullPrompt := fmt.Sprintf("%s %s ", strings.TrimSpace(prompt), options)

	for {
		answer, err := t.Ask(ctx, fullPrompt)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return defaultChoice, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			t.send(message{msg: "Please answer \"y\" or \"n\".\n", mode: Stderr})
		}
	}
}

// Errorf prints an error message to standard error. Errors are printed also in
// quiet mode.
func (t *Terminal) Errorf(format string, a ...any) {
	t.send(message{msg: t.Color(Red, fmt.Sprintf(format, a...)), mode: Stderr})
}

// Flush writes the buffered output.
func (t *Terminal) Flush() {
	ack := make(chan struct{})

	select {
	case t.flushCh <- ack:
		<-ack
	case <-t.done:
	}
}

// Interactive reports whether the Terminal may prompt the user.
func (t *Terminal) Interactive() bool {
	return t.interactive && !t.quiet
}

// Printf prints a message to the buffered standard output unless the Terminal
// is quiet.
func (t *Terminal) Printf(format string, a ...any) {
	if t.quiet {
		return
	}

	t.send(message{msg: fmt.Sprintf(format, a...), mode: Buffered})
}

// Println prints a message to the buffered standard output unless the Terminal
// is quiet.
func (t *Terminal) Println(a ...any) {
	if t.quiet {
		return
	}

	t.send(message{msg: fmt.Sprintln(a...), mode: Buffered})
}

// Verbosef prints a message only in verbose mode.
func (t *Terminal) Verbosef(format string, a ...any) {
	if !t.verbose || t.quiet {
		return
	}

	t.send(message{msg: fmt.Sprintf(format, a...), mode: Buffered})
}

// Warnf prints a warning to standard error unless the Terminal is quiet.
func (t *Terminal) Warnf(format string, a ...any) {
	if t.quiet {
		return
	}

	t.send(message{msg: t.Color(Yellow, "Warning: "+fmt.Sprintf(format, a...)), mode: Stderr})
}

// Default returns the global Terminal.
func Default() *Terminal {
	return defaultTerminal
}

// Set sets the global Terminal.
func Set(t *Terminal) {
	defaultTerminal = t
}

// Width returns the width of the terminal in standard output or a default width
// if it cannot be resolved.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}

	return defaultWidth
}

func (t *Terminal) doIO(ctx context.Context) {
	defer close(t.done)

	// The input is closed so that a pending prompt returns when the context
	// is canceled.
	go func() {
		select {
		case <-ctx.Done():
		case <-t.done:
		}

		if err := t.in.Close(); err != nil {
			t.err.append(err)
		}
	}()

	buf := bufio.NewWriter(t.out)

	flush := func() {
		if err := buf.Flush(); err != nil {
			t.err.append(err)
		}
	}

	defer flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.quit:
			return
		case msg := <-t.outCh:
			t.writeOut(msg, buf, flush)
		case p := <-t.promptCh:
			flush()
			t.doPrompt(p)
		case ack := <-t.flushCh:
			flush()
			close(ack)
		}
	}
}

func (t *Terminal) doPrompt(p promptRequest) {
	rl, err := readline.NewEx(&readline.Config{ //nolint:exhaustruct // use default values
		Prompt:                 p.prompt,
		DisableAutoSaveHistory: true,
		Stdin:                  t.in,
		Stdout:                 t.out,
		Stderr:                 t.errOut,
	})
	if err != nil {
		p.response <- promptResponse{response: "", err: err}

		return
	}

	defer func() {
		if err := rl.Close(); err != nil {
			t.err.append(err)
		}
	}()

	line, err := rl.Readline()
	p.response <- promptResponse{response: line, err: err}
}

func (t *Terminal) send(msg message) {
	select {
	case t.outCh <- msg:
	case <-t.done:
	}
}

func (t *Terminal) writeOut(msg message, buf *bufio.Writer, flush func()) {
	var err error

	switch msg.mode {
	case Buffered:
		_, err = buf.WriteString(msg.msg)
	case Stdout:
		flush()

		_, err = io.WriteString(t.out, msg.msg)
	case Stderr:
		flush()

		_, err = io.WriteString(t.errOut, msg.msg)
	default:
		panic(fmt.Sprintf("invalid output mode: %d", msg.mode))
	}

	if err != nil {
		t.err.append(err)
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
