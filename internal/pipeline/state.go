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
	"fmt"
	"sync"

	"github.com/kodipack/kodipack/internal/versioning"
)

// Status values of a run.
const (
	StatusPending Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

// Status is the status of a run.
type Status int

// State is the state of a single run of an entry point. It replaces the values
// that the steps would otherwise share through global variables: the bump kind
// chosen for the run and the version resolved for it. A State must not be
// reused between runs.
type State struct {
	// Bump is the bump kind for the run. It is set by the steps that select
	// the bump kind before the version is resolved.
	Bump Cell[versioning.BumpKind]

	// Version is the version resolved for the run.
	Version Cell[string]

	defaultBump versioning.BumpKind
	obs         Observer
	mu          sync.Mutex
	status      Status
	failedStep  string
}

// A Cell holds a value that can be set only once.
type Cell[T any] struct {
	name  string
	mu    sync.RWMutex
	value T
	set   bool
}

// NewState returns a new run state. The bump kind defaults to defaultBump if
// no step sets it.
func NewState(defaultBump versioning.BumpKind) *State {
	return &State{ //nolint:exhaustruct // zero values are valid
		Bump:        Cell[versioning.BumpKind]{name: "bump kind"},
		Version:     Cell[string]{name: "version"},
		defaultBump: defaultBump,
		status:      StatusPending,
	}
}

// BumpKind returns the bump kind of the run.
func (s *State) BumpKind() versioning.BumpKind {
	if k, ok := s.Bump.Get(); ok {
		return k
	}

	return s.defaultBump
}

// FailedStep returns the name of the step that failed the run, if any.
func (s *State) FailedStep() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.failedStep
}

// Status returns the current status of the run.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

func (s *State) observer() Observer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.obs == nil {
		return NopObserver{}
	}

	return s.obs
}

// start moves the run into running state. A run can be started only once.
func (s *State) start(obs Observer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPending {
		return fmt.Errorf("%w: run was already started", ErrAlreadySet)
	}

	s.obs = obs
	s.status = StatusRunning

	return nil
}

func (s *State) finish(failedStep string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = StatusFailed
		s.failedStep = failedStep

		return
	}

	s.status = StatusDone
}

// Get returns the value of the cell and whether it has been set.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.value, c.set
}

// Set sets the value of the cell. It returns an error if the value has already
// been set.
func (c *Cell[T]) Set(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set {
		return fmt.Errorf("%w: %s", ErrAlreadySet, c.label())
	}

	c.value = v
	c.set = true

	return nil
}

func (c *Cell[T]) label() string {
	if c.name == "" {
		return "value"
	}

	return c.name
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
