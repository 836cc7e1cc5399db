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

package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kodipack/kodipack/internal/pipeline"
	"github.com/kodipack/kodipack/internal/versioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type event struct {
	kind  string
	step  string
	fatal bool
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(e event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *recorder) Started(step string) { r.add(event{kind: "start", step: step}) }

func (r *recorder) Finished(step string, _ time.Duration) { r.add(event{kind: "finish", step: step}) }

func (r *recorder) Skipped(step string, _ error) { r.add(event{kind: "skip", step: step}) }

func (r *recorder) Failed(step string, _ time.Duration, _ error, fatal bool) {
	r.add(event{kind: "fail", step: step, fatal: fatal})
}

func (r *recorder) kinds(step string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kinds []string

	for _, e := range r.events {
		if e.step == step {
			kinds = append(kinds, e.kind)
		}
	}

	return kinds
}

// trace records the order in which tasks run.
type trace struct {
	mu  sync.Mutex
	ran []string
}

func (tr *trace) task(name string, err error) *pipeline.Task {
	return pipeline.NewTask(name, func(context.Context, *pipeline.State) error {
		tr.mu.Lock()
		tr.ran = append(tr.ran, name)
		tr.mu.Unlock()

		return err
	})
}

func TestSequenceRunsInOrder(t *testing.T) {
	t.Parallel()

	var tr trace

	seq := pipeline.NewSequence("all", tr.task("a", nil), tr.task("b", nil), tr.task("c", nil))

	p, err := pipeline.New(seq)
	require.NoError(t, err)

	state := pipeline.NewState(versioning.BumpNone)
	require.NoError(t, p.Run(context.Background(), "all", state, nil))
	assert.Equal(t, []string{"a", "b", "c"}, tr.ran)
	assert.Equal(t, pipeline.StatusDone, state.Status())
}

func TestSequenceStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	var tr trace

	rec := &recorder{}
	seq := pipeline.NewSequence("all", tr.task("a", nil), tr.task("b", errBoom), tr.task("c", nil))

	p, err := pipeline.New(seq)
	require.NoError(t, err)

	state := pipeline.NewState(versioning.BumpNone)
	err = p.Run(context.Background(), "all", state, rec)
	require.ErrorIs(t, err, errBoom)

	var stepErr *pipeline.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "b", stepErr.Step)
	assert.Equal(t, `step "b" failed: boom`, err.Error())

	assert.Equal(t, []string{"a", "b"}, tr.ran)
	assert.Equal(t, pipeline.StatusFailed, state.Status())
	assert.Equal(t, "b", state.FailedStep())
	assert.Equal(t, []string{"start", "fail"}, rec.kinds("b"))
	assert.Equal(t, []string{"start", "fail"}, rec.kinds("all"))
	assert.Nil(t, rec.kinds("c"))
}

func TestParallelWaitsForAllMembers(t *testing.T) {
	t.Parallel()

	var slowDone atomic.Bool

	slow := pipeline.NewTask("slow", func(context.Context, *pipeline.State) error {
		time.Sleep(50 * time.Millisecond)
		slowDone.Store(true)

		return nil
	})
	failing := pipeline.NewTask("failing", func(context.Context, *pipeline.State) error {
		return errBoom
	})
	after := pipeline.NewTask("after", func(context.Context, *pipeline.State) error {
		t.Error("step after a failed parallel group must not run")

		return nil
	})

	p, err := pipeline.New(pipeline.NewSequence("all", pipeline.NewParallel("group", slow, failing), after))
	require.NoError(t, err)

	err = p.Run(context.Background(), "all", pipeline.NewState(versioning.BumpNone), nil)
	require.ErrorIs(t, err, errBoom)
	assert.True(t, slowDone.Load(), "parallel group returned before all members finished")
}

func TestParallelRunsConcurrently(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup

	wg.Add(2)

	member := func(name string) *pipeline.Task {
		return pipeline.NewTask(name, func(ctx context.Context, _ *pipeline.State) error {
			wg.Done()

			done := make(chan struct{})

			go func() {
				wg.Wait()
				close(done)
			}()

			select {
			case <-done:
				return nil
			case <-time.After(5 * time.Second):
				return errors.New("members did not run concurrently")
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	p, err := pipeline.New(pipeline.NewParallel("group", member("x"), member("y")))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), "group", pipeline.NewState(versioning.BumpNone), nil))
}

func TestNonFatalTask(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	reload := pipeline.NewTask("reload", func(context.Context, *pipeline.State) error {
		return errBoom
	}, pipeline.WithNonFatal())

	var tr trace

	p, err := pipeline.New(pipeline.NewSequence("publish", tr.task("copy", nil), reload, tr.task("last", nil)))
	require.NoError(t, err)

	state := pipeline.NewState(versioning.BumpNone)
	require.NoError(t, p.Run(context.Background(), "publish", state, rec))
	assert.Equal(t, []string{"copy", "last"}, tr.ran)
	assert.Equal(t, pipeline.StatusDone, state.Status())
	assert.Contains(t, rec.events, event{kind: "fail", step: "reload", fatal: false})
	assert.False(t, reload.Fatal())
}

func TestSkippedTask(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	skip := pipeline.NewTask("skip", func(context.Context, *pipeline.State) error {
		return fmt.Errorf("declined: %w", pipeline.ErrSkip)
	})

	var tr trace

	p, err := pipeline.New(pipeline.NewSequence("all", skip, tr.task("next", nil)))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), "all", pipeline.NewState(versioning.BumpNone), rec))
	assert.Equal(t, []string{"start", "skip"}, rec.kinds("skip"))
	assert.Equal(t, []string{"next"}, tr.ran)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	var tr trace

	ctx, cancel := context.WithCancel(context.Background())
	first := pipeline.NewTask("first", func(context.Context, *pipeline.State) error {
		cancel()

		return nil
	})

	p, err := pipeline.New(pipeline.NewSequence("all", first, tr.task("second", nil)))
	require.NoError(t, err)

	err = p.Run(ctx, "all", pipeline.NewState(versioning.BumpNone), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.ran)
}

func TestStateCells(t *testing.T) {
	t.Parallel()

	state := pipeline.NewState(versioning.BumpPatch)
	assert.Equal(t, versioning.BumpPatch, state.BumpKind())

	require.NoError(t, state.Bump.Set(versioning.BumpMinor))
	assert.Equal(t, versioning.BumpMinor, state.BumpKind())
	require.ErrorIs(t, state.Bump.Set(versioning.BumpPatch), pipeline.ErrAlreadySet)
	assert.Equal(t, versioning.BumpMinor, state.BumpKind())

	_, ok := state.Version.Get()
	assert.False(t, ok)

	require.NoError(t, state.Version.Set("1.2.4"))
	require.ErrorIs(t, state.Version.Set("1.2.5"), pipeline.ErrAlreadySet)

	v, ok := state.Version.Get()
	assert.True(t, ok)
	assert.Equal(t, "1.2.4", v)
}

func TestStateCannotBeReused(t *testing.T) {
	t.Parallel()

	var tr trace

	p, err := pipeline.New(tr.task("a", nil))
	require.NoError(t, err)

	state := pipeline.NewState(versioning.BumpNone)
	assert.Equal(t, pipeline.StatusPending, state.Status())
	require.NoError(t, p.Run(context.Background(), "a", state, nil))
	require.ErrorIs(t, p.Run(context.Background(), "a", state, nil), pipeline.ErrAlreadySet)
	assert.Equal(t, []string{"a"}, tr.ran)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	var tr trace

	_, err := pipeline.New(pipeline.NewSequence("all", tr.task("a", nil), tr.task("a", nil)))
	require.ErrorIs(t, err, pipeline.ErrDuplicateStep)

	shared := tr.task("shared", nil)
	_, err = pipeline.New(pipeline.NewSequence("all", shared, shared))
	require.ErrorIs(t, err, pipeline.ErrDuplicateStep)

	_, err = pipeline.New(pipeline.NewSequence("x", tr.task("", nil)))
	require.Error(t, err)

	prebuild := pipeline.NewSequence("prebuild", tr.task("clean", nil), tr.task("copy", nil))
	build := pipeline.NewSequence("build", prebuild, tr.task("zip", nil))
	publish := pipeline.NewSequence("publish", prebuild, tr.task("deploy", nil))

	p, err := pipeline.New(build, publish, prebuild)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "publish", "prebuild"}, p.EntryPoints())

	s, ok := p.Lookup("clean")
	require.True(t, ok)
	assert.Equal(t, "clean", s.Name())

	err = p.Run(context.Background(), "missing", pipeline.NewState(versioning.BumpNone), nil)
	require.ErrorIs(t, err, pipeline.ErrUnknownStep)
}

func TestPlan(t *testing.T) {
	t.Parallel()

	var tr trace

	setVersion := pipeline.NewParallel("setVersion", tr.task("pkg", nil), tr.task("xml", nil))
	semverUp := pipeline.NewSequence("semver-up", tr.task("getVersion", nil), setVersion)
	prebuild := pipeline.NewSequence("prebuild", tr.task("clean", nil), tr.task("copyFiles", nil))
	build := pipeline.NewSequence("build", prebuild, semverUp, tr.task("zip", nil))

	p, err := pipeline.New(build)
	require.NoError(t, err)

	stages, err := p.Plan("build")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"clean"},
		{"copyFiles"},
		{"getVersion"},
		{"pkg", "xml"},
		{"zip"},
	}, stages)

	_, err = p.Plan("nope")
	require.ErrorIs(t, err, pipeline.ErrUnknownStep)
}

func TestDOT(t *testing.T) {
	t.Parallel()

	var tr trace

	p, err := pipeline.New(pipeline.NewSequence("build", tr.task("clean", nil), pipeline.NewParallel("both", tr.task("x", nil), tr.task("y", nil))))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.DOT(&buf))

	out := buf.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, `"build" -> "clean"`)
	assert.Contains(t, out, `"both" -> "x"`)
	assert.Contains(t, out, "dashed")
}
