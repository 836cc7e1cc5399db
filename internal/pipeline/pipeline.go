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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/kodipack/kodipack/internal/logging"
)

// Pipeline is a validated composition of steps with named entry points.
type Pipeline struct {
	graph   graph.Graph[string, string]
	entries []string        // names of the entry points in registration order
	steps   map[string]Step // every step reachable from the entry points
}

// group is implemented by the steps that contain other steps.
type group interface {
	Step
	Steps() []Step
}

// New returns a new pipeline with the given steps as its entry points. It
// validates the whole composition: every step must have a non-empty name,
// different steps may not share a name, and no group may contain itself
// directly or through other groups.
func New(entries ...Step) (*Pipeline, error) {
	p := &Pipeline{
		entries: make([]string, 0, len(entries)),
		steps:   make(map[string]Step),
		graph:   graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
	}

	for _, s := range entries {
		if err := p.add(s); err != nil {
			return nil, err
		}

		p.entries = append(p.entries, s.Name())
	}

	return p, nil
}

// DOT writes the step graph of the pipeline in the DOT language to w.
func (p *Pipeline) DOT(w io.Writer) error {
	if err := draw.DOT(p.graph, w, draw.GraphAttribute("rankdir", "LR")); err != nil {
		return fmt.Errorf("failed to draw the pipeline graph: %w", err)
	}

	return nil
}

// EntryPoints returns the names of the entry points in the order they were
// given to [New].
func (p *Pipeline) EntryPoints() []string {
	names := make([]string, len(p.entries))
	copy(names, p.entries)

	return names
}

// Lookup returns the step with the given name.
func (p *Pipeline) Lookup(name string) (Step, bool) {
	s, ok := p.steps[name]

	return s, ok
}

// Plan returns the tasks that running the named step would run as a list of
// stages. The tasks within a stage may run concurrently, and a stage starts
// only after the previous stage has finished.
func (p *Pipeline) Plan(name string) ([][]string, error) {
	s, ok := p.steps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}

	return plan(s), nil
}

// Run runs the named step with the given state. The observer receives the
// progress of every step that is run. If a step fails, the returned error is
// a [StepError] that names the failed step.
func (p *Pipeline) Run(ctx context.Context, name string, state *State, obs Observer) error {
	s, ok := p.steps[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}

	if obs == nil {
		obs = NopObserver{}
	}

	if err := state.start(obs); err != nil {
		return err
	}

	logging.InfoContext(ctx, "running pipeline", "entry", name)

	err := runStep(ctx, s, state)

	var (
		failed  string
		stepErr *StepError
	)

	if errors.As(err, &stepErr) {
		failed = stepErr.Step
	}

	state.finish(failed, err)

	logging.InfoContext(ctx, "pipeline finished", "entry", name, "status", state.Status())

	return err
}

func (p *Pipeline) add(s Step) error {
	added, err := p.addVertex(s)
	if err != nil || !added {
		return err
	}

	return p.addMembers(s)
}

// addMembers adds the members of s to the pipeline and connects them to s. The
// members that are new to the pipeline are added recursively.
func (p *Pipeline) addMembers(s Step) error {
	g, ok := s.(group)
	if !ok {
		return nil
	}

	_, parallel := s.(*Parallel)

	for i, member := range g.Steps() {
		added, err := p.addVertex(member)
		if err != nil {
			return err
		}

		attr := graph.EdgeAttribute("style", "dashed")
		if !parallel {
			attr = graph.EdgeAttribute("label", strconv.Itoa(i+1))
		}

		err = p.graph.AddEdge(s.Name(), member.Name(), attr)

		switch {
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return fmt.Errorf("%w: %q contains %q", ErrCycle, s.Name(), member.Name())
		case errors.Is(err, graph.ErrEdgeAlreadyExists):
			return fmt.Errorf("%w: %q contains %q more than once", ErrDuplicateStep, s.Name(), member.Name())
		case err != nil:
			return fmt.Errorf("failed to add %q to %q: %w", member.Name(), s.Name(), err)
		}

		if added {
			if err = p.addMembers(member); err != nil {
				return err
			}
		}
	}

	return nil
}

// addVertex registers s in the pipeline and reports whether it was new.
// Registering the same step again is a no-op.
func (p *Pipeline) addVertex(s Step) (bool, error) {
	name := s.Name()
	if name == "" {
		return false, fmt.Errorf("%w: step without a name", ErrUnknownStep)
	}

	if existing, ok := p.steps[name]; ok {
		if existing != s {
			return false, fmt.Errorf("%w: %s", ErrDuplicateStep, name)
		}

		return false, nil
	}

	shape := "box"
	if _, ok := s.(group); ok {
		shape = "ellipse"
	}

	if err := p.graph.AddVertex(name, graph.VertexAttribute("shape", shape)); err != nil {
		return false, fmt.Errorf("failed to add step %q: %w", name, err)
	}

	p.steps[name] = s

	return true, nil
}

func plan(s Step) [][]string {
	switch s := s.(type) {
	case *Sequence:
		var stages [][]string

		for _, child := range s.steps {
			stages = append(stages, plan(child)...)
		}

		return stages
	case *Parallel:
		var stages [][]string

		for _, child := range s.steps {
			for i, stage := range plan(child) {
				if i == len(stages) {
					stages = append(stages, nil)
				}

				stages[i] = append(stages[i], stage...)
			}
		}

		return stages
	default:
		return [][]string{{s.Name()}}
	}
}
