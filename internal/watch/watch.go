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

// Package watch re-runs a function when the files in a directory tree change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/kodipack/kodipack/internal/logging"
)

// DefaultDebounce is the time the changes must settle before a new run.
const DefaultDebounce = 300 * time.Millisecond

// Options are the options for [Run].
type Options struct {
	// Debounce is the time to wait after the last change before running
	// again. Zero means [DefaultDebounce].
	Debounce time.Duration

	// Ignore reports whether a change to the path is ignored. It may be nil.
	Ignore func(path string) bool
}

// Run calls fn once and then again every time the files under root change.
// The calls are strictly sequential: the changes made during a call are
// collected and cause one new call after it returns. Run returns when ctx is
// canceled.
func Run(ctx context.Context, root fspath.Path, opts Options, fn func(ctx context.Context)) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	if err = addTree(w, root.String()); err != nil {
		return err
	}

	logging.DebugContext(ctx, "watching for changes", "root", root, "debounce", opts.Debounce)

	fn(ctx)

	var settled <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if !relevant(ev, opts.Ignore) {
				continue
			}

			logging.TraceContext(ctx, "file changed", "path", ev.Name, "op", ev.Op.String())

			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						logging.WarnContext(ctx, "failed to watch new directory", "path", ev.Name, "err", err)
					}
				}
			}

			settled = time.After(opts.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			logging.WarnContext(ctx, "file watcher error", "err", err)
		case <-settled:
			settled = nil

			if ctx.Err() != nil {
				return nil
			}

			fn(ctx)
		}
	}
}

func relevant(ev fsnotify.Event, ignore func(string) bool) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}

	return ignore == nil || !ignore(ev.Name)
}

// addTree adds root and every directory under it to w.
func addTree(w *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != root {
				return nil
			}

			return err
		}

		if !d.IsDir() {
			return nil
		}

		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}
