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
	"fmt"
	"strings"
)

// Color modes for the output.
const (
	ColorAuto ColorMode = iota // color when standard output is a terminal
	ColorAlways
	ColorNever
)

var errColorMode = errors.New("invalid color mode")

// A ColorMode tells whether the output is colored. It implements [pflag.Value]
// and [encoding.TextUnmarshaler].
type ColorMode int //nolint:recvcheck // needs different receiver types

func (c ColorMode) String() string {
	switch c {
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "invalid"
	}
}

// Set parses s into c.
func (c *ColorMode) Set(s string) error {
	switch s = strings.ToLower(s); s {
	case "true", "always", "yes", "1":
		*c = ColorAlways
	case "false", "never", "no", "0":
		*c = ColorNever
	case "auto", "":
		*c = ColorAuto
	default:
		return fmt.Errorf("%w: %q", errColorMode, s)
	}

	return nil
}

// Type returns the type name of the flag value.
func (*ColorMode) Type() string {
	return "when"
}

// MarshalText implements [encoding.TextMarshaler].
func (c ColorMode) MarshalText() ([]byte, error) { //nolint:unparam // implements interface
	return []byte(c.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *ColorMode) UnmarshalText(data []byte) error {
	return c.Set(string(data))
}
