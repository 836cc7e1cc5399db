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

//go:build tool

// Buildtask builds the kodipack binary with the version information set
// through the linker flags. Run it with "go run -tags tool ./tools/buildtask".
//
// The environment variables GO, GOFLAGS, OUTPUT, and VERSION change the Go
// executable, the extra build flags, the name of the binary, and the version.
// Without VERSION, the version is read from the VERSION file and marked as a
// development build.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	name           = "kodipack"
	versionPackage = "github.com/kodipack/kodipack/internal/version"
)

func main() {
	log.SetFlags(0)

	exe := os.Getenv("GO")
	if exe == "" {
		exe = "go"
	}

	if err := build(exe); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintf(os.Stderr, "buildtask: building %s failed\n", name)
		os.Exit(1)
	}
}

func build(exe string) error {
	output := os.Getenv("OUTPUT")
	if output == "" {
		output = name
	}

	if isWindows() {
		output += ".exe"
	}

	info, err := os.Stat(output)
	if err == nil && !sourceFilesLaterThan(info.ModTime()) {
		fmt.Printf("buildtask: `%s` is up to date.\n", output)

		return nil
	}

	version := os.Getenv("VERSION")

	if version == "" {
		data, err := os.ReadFile("VERSION")
		if err != nil {
			return fmt.Errorf("%w", err)
		}

		version = strings.TrimSpace(string(data)) + "-0.dev." + time.Now().UTC().Format("20060102150405")
	}

	args := []string{exe, "build", "-trimpath"}
	args = append(args, strings.Fields(os.Getenv("GOFLAGS"))...)
	args = append(args, "-ldflags", "-X "+versionPackage+".buildVersion="+version)
	args = append(args, "-o", output)

	return run(args...)
}

// run prints and executes the given command.
func run(args ...string) error {
	path, err := exec.LookPath(args[0])
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	fmt.Println(quote(args))

	cmd := exec.Command(path, args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func quote(args []string) string {
	quoted := make([]string, len(args))

	for i, arg := range args {
		if strings.ContainsAny(arg, " \t'\"") {
			quoted[i] = fmt.Sprintf("%q", arg)
		} else {
			quoted[i] = arg
		}
	}

	return strings.Join(quoted, " ")
}

func isAccessDenied(err error) bool {
	var pathError *os.PathError

	return errors.As(err, &pathError) && strings.Contains(pathError.Err.Error(), "Access is denied")
}

func isWindows() bool {
	return os.Getenv("GOOS") == "windows" || runtime.GOOS == "windows"
}

// sourceFilesLaterThan reports whether a Go source file or the module files
// have been modified after t.
func sourceFilesLaterThan(t time.Time) bool {
	foundLater := false

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Symlinks to volumes that Windows cannot access are skipped.
			if path != "." && isAccessDenied(err) {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)

				return nil
			}

			return err
		}

		if foundLater {
			return filepath.SkipDir
		}

		if len(path) > 1 && (path[0] == '.' || path[0] == '_') {
			if info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if info.IsDir() {
			return nil
		}

		if path == "go.mod" || path == "go.sum" ||
			(strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")) {
			if info.ModTime().After(t) {
				foundLater = true
			}
		}

		return nil
	})
	if err != nil {
		panic(err)
	}

	return foundLater
}
