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

// Package cli defines the command-line interface of kodipack. It parses the
// command-line flags, loads the configuration, and runs the selected entry
// point of the pipeline.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/kodipack/kodipack/internal/config"
	"github.com/kodipack/kodipack/internal/flags"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/kodipack/kodipack/internal/logging"
	"github.com/kodipack/kodipack/internal/pipeline"
	"github.com/kodipack/kodipack/internal/steps"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/kodipack/kodipack/internal/watch"
	"github.com/spf13/afero"
)

// Name is the name of the command that's run.
const Name = "kodipack"

// UsageLine is the one-line synopsis of the program.
const UsageLine = Name + " [flags] [<entry point>]"

// A CLI is the command-line interface that runs the program.
type CLI struct {
	In     io.Reader // standard input
	Out    io.Writer // standard output
	ErrOut io.Writer // standard error

	fs  afero.Fs
	run uuid.UUID
}

// options are the flags that select what the CLI does instead of the config
// values.
type options struct {
	entry  string
	help   bool
	list   bool
	dryRun bool
	graph  bool
	watch  bool
	show   bool
}

// New returns a new CLI that accesses the files through fs. The run ID is
// added to the log messages.
func New(fs afero.Fs, run uuid.UUID) *CLI {
	return &CLI{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		fs:     fs,
		run:    run,
	}
}

// Execute parses args, which must not contain the program name, and runs the
// selected entry point. The returned errors are [ExitError]s that carry the
// exit code of the program.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	flagSet := newFlagSet()

	opts, err := parseArgs(flagSet, args)
	if err != nil {
		return usageError(err)
	}

	if opts.help {
		if err = printHelp(c.Out, flagSet); err != nil {
			return failure(fmt.Errorf("failed to print the usage info: %w", err))
		}

		return nil
	}

	if opts.show {
		if err = printVersion(c.Out); err != nil {
			return failure(fmt.Errorf("failed to print the version info: %w", err))
		}

		return nil
	}

	// The layout of the pipeline does not depend on the config, so the entry
	// point is checked and described before reading the config.
	layout, err := steps.NewPipeline(steps.Deps{}) //nolint:exhaustruct // steps are not run
	if err != nil {
		return failure(err)
	}

	if opts.list {
		printEntryPoints(c.Out, layout, "")

		return nil
	}

	if _, ok := layout.Lookup(opts.entry); !ok {
		return usageError(fmt.Errorf("%w: %s", errUnknownEntryPoint, opts.entry))
	}

	if opts.graph {
		if err = layout.DOT(c.Out); err != nil {
			return failure(err)
		}

		return nil
	}

	cfg, err := config.Parse(ctx, c.fs, flagSet)
	if err != nil {
		return failure(err)
	}

	term := terminal.New(ctx, terminal.Options{
		In:          c.In,
		Out:         c.Out,
		ErrOut:      c.ErrOut,
		Color:       cfg.Color,
		Quiet:       cfg.Quiet,
		Verbose:     cfg.Verbose,
		Interactive: cfg.Interactive,
	})
	terminal.Set(term)

	err = c.execute(ctx, cfg, term, opts)

	if closeErr := term.Close(); closeErr != nil && err == nil {
		err = failure(fmt.Errorf("failed to write output: %w", closeErr))
	}

	return err
}

func (c *CLI) execute(ctx context.Context, cfg *config.Config, term *terminal.Terminal, opts options) error {
	if err := logging.Init(c.fs, cfg.Logging, c.run); err != nil {
		return failure(fmt.Errorf("failed to initialize logging: %w", err))
	}

	logging.InfoContext(ctx, "logging initialized", "entry", opts.entry, "directory", cfg.Directory)

	p, err := steps.NewPipeline(steps.Deps{Config: cfg, FS: c.fs, Terminal: term, Kodi: nil})
	if err != nil {
		return failure(err)
	}

	needsKodi, err := steps.NeedsKodi(p, opts.entry)
	if err != nil {
		return failure(err)
	}

	if needsKodi {
		if err = cfg.Kodi.Validate(); err != nil {
			return failure(err)
		}
	}

	if opts.dryRun {
		return printPlan(term, p, opts.entry)
	}

	if opts.watch {
		return c.watch(ctx, cfg, term, p, opts.entry)
	}

	if err = runOnce(ctx, cfg, term, p, opts.entry); err != nil {
		return failure(err)
	}

	return nil
}

// watch runs the entry point every time the addon sources change until ctx is
// canceled. A failed run does not stop the watch.
func (c *CLI) watch(
	ctx context.Context,
	cfg *config.Config,
	term *terminal.Terminal,
	p *pipeline.Pipeline,
	entry string,
) error {
	ignored := []fspath.Path{cfg.Addon.Dist, cfg.Addon.ZipDestination}

	err := watch.Run(ctx, cfg.Addon.Src, watch.Options{
		Debounce: watch.DefaultDebounce,
		Ignore: func(path string) bool {
			for _, dir := range ignored {
				if dir != "" && isWithin(fspath.Path(path), dir) {
					return true
				}
			}

			return false
		},
	}, func(ctx context.Context) {
		if err := runOnce(ctx, cfg, term, p, entry); err != nil {
			term.Errorf("Error: %v\n", err)
		}

		term.Printf("Watching %s for changes...\n", cfg.Addon.Src)
		term.Flush()
	})
	if err != nil {
		return failure(err)
	}

	return nil
}

// runOnce runs the entry point with a fresh state.
func runOnce(ctx context.Context, cfg *config.Config, term *terminal.Terminal, p *pipeline.Pipeline, entry string) error {
	state := pipeline.NewState(cfg.Addon.Semver)
	err := p.Run(ctx, entry, state, &progress{term: term})

	term.Flush()

	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// printEntryPoints writes the entry points of p and their descriptions to w.
// Every line is prefixed with indent.
func printEntryPoints(w io.Writer, p *pipeline.Pipeline, indent string) {
	names := p.EntryPoints()
	longest := 0

	for _, name := range names {
		longest = max(longest, len(name))
	}

	for _, name := range names {
		fmt.Fprintf(w, "%s%-*s  %s\n", indent, longest, name, steps.Describe(name))
	}
}

func printPlan(term *terminal.Terminal, p *pipeline.Pipeline, entry string) error {
	stages, err := p.Plan(entry)
	if err != nil {
		return failure(err)
	}

	term.Printf("Running '%s' would run:\n", entry)

	for i, stage := range stages {
		term.Printf("%3d. %s\n", i+1, strings.Join(stage, ", "))
	}

	return nil
}

// parseArgs parses the command-line arguments into fs and returns the options
// that are not part of the config.
func parseArgs(fs *flags.FlagSet, args []string) (options, error) {
	var opts options

	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("%w", err)
	}

	if err := fs.CheckMutuallyExclusive(); err != nil {
		return opts, fmt.Errorf("%w", err)
	}

	var err error

	for name, dst := range map[string]*bool{
		"help":    &opts.help,
		"version": &opts.show,
		"list":    &opts.list,
		"dry-run": &opts.dryRun,
		"graph":   &opts.graph,
		"watch":   &opts.watch,
	} {
		if *dst, err = fs.GetBool(name); err != nil {
			return opts, fmt.Errorf("failed to get the value for command-line option '--%s': %w", name, err)
		}
	}

	switch fs.NArg() {
	case 0:
		opts.entry = steps.Default
	case 1:
		opts.entry = fs.Arg(0)
	default:
		return opts, fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(fs.Args()[1:], " "))
	}

	return opts, nil
}

// isWithin reports whether path is dir or a file under it.
func isWithin(path, dir fspath.Path) bool {
	rel, err := path.Rel(dir)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}
