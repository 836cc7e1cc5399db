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

import "time"

// An Observer receives the progress of a run. The methods may be called
// concurrently from the members of a parallel group.
type Observer interface {
	// Started is called before a step is run.
	Started(step string)

	// Finished is called after a step has succeeded.
	Finished(step string, elapsed time.Duration)

	// Skipped is called when a step returned [ErrSkip].
	Skipped(step string, reason error)

	// Failed is called after a step has failed. If fatal is false, the failure
	// does not stop the run.
	Failed(step string, elapsed time.Duration, err error, fatal bool)
}

// NopObserver is an [Observer] that does nothing.
type NopObserver struct{}

func (NopObserver) Started(string) {}
func (NopObserver) Finished(string, time.Duration) {}
func (NopObserver) Skipped(string, error) {}
func (NopObserver) Failed(string, time.Duration, error, bool) {}
