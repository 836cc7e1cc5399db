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

package terminal

import (
	"errors"
	"sync"
)

// asyncError collects the errors that occur in the output goroutine.
type asyncError struct {
	errs []error
	mu   sync.Mutex
}

func (e *asyncError) append(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errs = append(e.errs, err)
}

func (e *asyncError) joined() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return errors.Join(e.errs...)
}
