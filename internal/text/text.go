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

// Package text defines general text utilities.
package text

import (
	"strings"
	"unicode/utf8"
)

// Wrap wraps s to lines of at most width characters. Paragraphs are separated
// by a blank line and wrapped separately. A word longer than width gets a line
// of its own. The result ends with a newline.
func Wrap(s string, width int) string {
	paragraphs := strings.Split(strings.TrimSpace(s), "\n\n")
	wrapped := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		if words := strings.Fields(p); len(words) > 0 {
			wrapped = append(wrapped, wrapWords(words, width))
		}
	}

	return strings.Join(wrapped, "\n\n") + "\n"
}

func wrapWords(words []string, width int) string {
	var sb strings.Builder

	n := 0

	for _, w := range words {
		l := utf8.RuneCountInString(w)

		switch {
		case n == 0:
		case n+1+l > width:
			sb.WriteByte('\n')

			n = 0
		default:
			sb.WriteByte(' ')

			n++
		}

		sb.WriteString(w)

		n += l
	}

	return sb.String()
}
