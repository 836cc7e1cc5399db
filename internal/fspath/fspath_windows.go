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

//go:build windows

package fspath

import (
	"os"
	"strings"
)

// expandOSEnv replaces %var%, ${var}, or $var in the string according to the
// values of the current environment variables. Kodi installations on Windows
// are commonly configured with paths like "%APPDATA%\Kodi\addons".
func expandOSEnv(path Path) Path {
	s := string(path)

	if strings.Contains(s, "%") {
		s = expandPercent(s)
	}

	return Path(os.ExpandEnv(s))
}

// expandPercent replaces the %var% references in s. A lone percent sign or
// a reference that is not terminated is kept as is.
func expandPercent(s string) string {
	var sb strings.Builder

	for {
		start := strings.IndexByte(s, '%')
		if start == -1 {
			sb.WriteString(s)

			break
		}

		end := start + 1
		for end < len(s) && isAlphaNum(s[end]) {
			end++
		}

		if end == start+1 || end >= len(s) || s[end] != '%' {
			sb.WriteString(s[:end])
			s = s[end:]

			continue
		}

		sb.WriteString(s[:start])
		sb.WriteString(os.Getenv(s[start+1 : end]))
		s = s[end+1:]
	}

	return sb.String()
}

// isAlphaNum reports whether the byte is an ASCII letter, number, or
// underscore.
func isAlphaNum(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
