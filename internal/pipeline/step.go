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

// Package pipeline implements the composition and the execution of the build
// steps. A pipeline is built from leaf tasks that are composed into sequential
// and parallel groups. The whole composition is validated when the pipeline is
// created, and the named entry points are run against an explicit run state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kodipack/kodipack/internal/logging"
	"github.com/kodipack/kodipack/internal/panichandler"
	"golang.org/x/sync/errgroup"
)

// ErrSkip can be returned by a task to tell that it did not run. It is not
// a failure.
var ErrSkip = errors.New("step skipped")

// A Step is a named unit of work in the pipeline. It is either a single task or
// a group of other steps.
type Step interface {
	// Name returns the name of the step. The names are unique within
	// a pipeline.
	Name() string

	// Run runs the step. The state of the run is shared by all of the steps
	// that are run for an entry point.
	Run(ctx context.Context, state *State) error
}

// TaskFunc is the function that implements a task.
type TaskFunc func(ctx context.Context, state *State) error

// Task is a leaf step that runs a single function.
type Task struct {
	name     string
	fn       TaskFunc
	nonFatal bool
}

// TaskOption is an option for [NewTask].
type TaskOption func(*Task)

// Sequence is a group of steps that are run one after another. The sequence
// stops at the first step that fails.
type Sequence struct {
	name  string
	steps []Step
}

// Parallel is a group of steps that are run concurrently. The group finishes
// only after all of its members have finished, and it fails if any of them
// fails.
type Parallel struct {
	name  string
	steps []Step
}

// NewTask returns a new task with the given name and function.
func NewTask(name string, fn TaskFunc, opts ...TaskOption) *Task {
	t := &Task{name: name, fn: fn, nonFatal: false}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithNonFatal marks the task as non-fatal. A failure in a non-fatal task is
// reported but the pipeline continues as if the task had succeeded.
func WithNonFatal() TaskOption {
	return func(t *Task) {
		t.nonFatal = true
	}
}

// NewSequence returns a new sequential group of steps.
func NewSequence(name string, steps ...Step) *Sequence {
	return &Sequence{name: name, steps: steps}
}

// NewParallel returns a new parallel group of steps.
func NewParallel(name string, steps ...Step) *Parallel {
	return &Parallel{name: name, steps: steps}
}

// Fatal reports whether a failure in the task fails the pipeline.
func (t *Task) Fatal() bool {
	return !t.nonFatal
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) Run(ctx context.Context, state *State) error {
	return t.fn(ctx, state)
}

func (s *Sequence) Name() string {
	return s.name
}

func (s *Sequence) Run(ctx context.Context, state *State) error {
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w", err)
		}

		if err := runStep(ctx, step, state); err != nil {
			return err
		}
	}

	return nil
}

// Steps returns the members of the sequence in order.
func (s *Sequence) Steps() []Step {
	return s.steps
}

func (p *Parallel) Name() string {
	return p.name
}

func (p *Parallel) Run(ctx context.Context, state *State) error {
	var g errgroup.Group

	for _, step := range p.steps {
		handlePanic := panichandler.WithStackTrace()

		g.Go(func() error {
			defer handlePanic()

			return runStep(ctx, step, state)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// Steps returns the members of the group.
func (p *Parallel) Steps() []Step {
	return p.steps
}

// runStep runs step and reports its progress to the observer of the run. The
// errors from the step are wrapped in [StepError] unless they already are.
func runStep(ctx context.Context, step Step, state *State) error {
	name := step.Name()
	obs := state.observer()

	logging.DebugContext(ctx, "starting step", "step", name)
	obs.Started(name)

	start := time.Now()
	err := step.Run(ctx, state)
	elapsed := time.Since(start)

	if err == nil {
		logging.DebugContext(ctx, "finished step", "step", name, "elapsed", elapsed)
		obs.Finished(name, elapsed)

		return nil
	}

	if errors.Is(err, ErrSkip) {
		logging.InfoContext(ctx, "skipped step", "step", name, "reason", err)
		obs.Skipped(name, err)

		return nil
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		err = &StepError{Step: name, Err: err}
	}

	if t, ok := step.(*Task); ok && !t.Fatal() {
		logging.WarnContext(ctx, "non-fatal step failed", "step", name, "err", err)
		obs.Failed(name, elapsed, err, false)

		return nil
	}

	logging.ErrorContext(ctx, "step failed", "step", name, "err", err)
	obs.Failed(name, elapsed, err, true)

	return err
}
