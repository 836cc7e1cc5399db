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

// Package main is the entry point for kodipack, the build, packaging, and
// deployment tool for Kodi addons.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/kodipack/kodipack/internal/cli"
	"github.com/kodipack/kodipack/internal/logging"
	"github.com/kodipack/kodipack/internal/panichandler"
	"github.com/kodipack/kodipack/internal/version"
	"github.com/spf13/afero"
)

func main() {
	code := run()
	if code != 0 {
		os.Exit(code)
	}
}

func run() int {
	defer panichandler.Handle()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panichandler.SetCancel(cancel)

	// Cancel the context on the signals so that the running steps stop and
	// the partial archives are removed.
	sigc := make(chan os.Signal, 1)

	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	handlePanic := panichandler.WithStackTrace()
	go func() {
		defer handlePanic()
		<-sigc
		cancel()
	}()

	fs := afero.NewOsFs()
	runID := uuid.New()

	logging.InitBootstrap(fs, runID)
	logging.DebugContext(ctx, "bootstrap logger initialized")
	logging.InfoContext(ctx, "bootstrapping kodipack", "version", version.Version(), "commit", version.Revision())

	err := cli.New(fs, runID).Execute(ctx, os.Args[1:])
	if err == nil {
		return cli.ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return cli.ExitFailure
}
