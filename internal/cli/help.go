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

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/kodipack/kodipack/internal/flags"
	"github.com/kodipack/kodipack/internal/steps"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/kodipack/kodipack/internal/text"
	"github.com/kodipack/kodipack/internal/version"
)

const description = Name + " builds, packages, and deploys a Kodi addon. It copies the addon sources into " +
	"the package directory, resolves the next version from the package file, writes it to the manifests, " +
	"and creates the zip archive or publishes the package to the addons directory of Kodi." +
	"\n\nIf no entry point is given, " + steps.Default + " is run."

// printHelp writes the usage information to w.
func printHelp(w io.Writer, fs *flags.FlagSet) error {
	width := terminal.Width()

	var sb strings.Builder

	sb.WriteString("Usage: " + UsageLine + "\n\n")
	sb.WriteString(text.Wrap(description, width))
	sb.WriteString("\nEntry points:\n")

	p, err := steps.NewPipeline(steps.Deps{}) //nolint:exhaustruct // only the names are used
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	printEntryPoints(&sb, p, "  ")

	sb.WriteString("\nFlags:\n")
	sb.WriteString(fs.FlagUsagesWrapped(width))

	if _, err = io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// printVersion writes the version information to w.
func printVersion(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s %v (%s)\n", Name, version.Version(), version.Revision()); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}
