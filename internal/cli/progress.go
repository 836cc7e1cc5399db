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
	"time"

	"github.com/kodipack/kodipack/internal/terminal"
)

// A progress prints the progress of a pipeline run to the terminal.
type progress struct {
	term *terminal.Terminal
}

func (p *progress) Started(step string) {
	p.term.Printf("Starting '%s'...\n", p.term.Color(terminal.Cyan, step))
}

func (p *progress) Finished(step string, elapsed time.Duration) {
	p.term.Printf(
		"Finished '%s' after %s\n",
		p.term.Color(terminal.Cyan, step),
		p.term.Color(terminal.Magenta, formatDuration(elapsed)),
	)
}

func (p *progress) Skipped(step string, reason error) {
	p.term.Warnf("skipped '%s': %v\n", step, reason)
}

func (p *progress) Failed(step string, elapsed time.Duration, err error, fatal bool) {
	if !fatal {
		p.term.Warnf("'%s' failed after %s: %v\n", step, formatDuration(elapsed), err)

		return
	}

	p.term.Errorf("'%s' errored after %s\n", step, formatDuration(elapsed))
}

// formatDuration formats d the way gulp prints the durations of the tasks.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%d μs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2f s", d.Seconds())
	default:
		return fmt.Sprintf("%d min %d s", int(d.Minutes()), int(d.Seconds())%60)
	}
}
