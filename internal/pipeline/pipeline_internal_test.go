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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsCycles(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, *State) error { return nil }

	inner := NewSequence("inner", NewTask("a", noop))
	outer := NewSequence("outer", inner)
	inner.steps = append(inner.steps, outer)

	_, err := New(outer)
	require.ErrorIs(t, err, ErrCycle)

	self := NewParallel("self")
	self.steps = append(self.steps, self)

	_, err = New(self)
	require.ErrorIs(t, err, ErrCycle)
}
