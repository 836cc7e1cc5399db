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
	"context"
	"log/slog"
	"runtime"
	"time"
)

// logCallerDepth is the depth of the stack trace to skip when logging.
// The skipped stack is [runtime.Callers, the function, the function's caller].
const logCallerDepth = 3

// TraceContext logs at [LevelTrace] using the default logger.
func TraceContext(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), LevelTrace, msg, args...)
}

// DebugContext calls [slog.Logger.DebugContext] on the default logger.
func DebugContext(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), LevelDebug, msg, args...)
}

// InfoContext calls [slog.Logger.InfoContext] on the default logger.
func InfoContext(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), LevelInfo, msg, args...)
}

// WarnContext calls [slog.Logger.WarnContext] on the default logger.
func WarnContext(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), LevelWarn, msg, args...)
}

// ErrorContext calls [slog.Logger.ErrorContext] on the default logger.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), LevelError, msg, args...)
}

// log is the low-level logging method for methods that take ...any. It must
// always be called directly by an exported logging method or function, because
// it uses a fixed call depth to obtain the pc.
func log(ctx context.Context, l *slog.Logger, level Level, msg string, args ...any) {
	if ctx == nil {
		panic("logging context is nil")
	}

	if !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pcs [1]uintptr

	runtime.Callers(logCallerDepth, pcs[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])

	r.Add(args...)

	// The handler errors are write errors on the log output that there is no
	// better place to report.
	_ = l.Handler().Handle(ctx, r)
}
