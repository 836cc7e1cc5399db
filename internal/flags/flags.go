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

// Package flags wraps [pflag.FlagSet] with the flag types and the flag
// relationships that the kodipack command-line interface needs.
package flags

import (
	"errors"
	"fmt"

	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/spf13/pflag"
)

var errMutuallyExclusive = errors.New("two mutually exclusive flags set at the same time")

// A FlagSet is a set of command-line flags. It embeds [pflag.FlagSet] and adds
// path flags, inverted boolean flags, and groups of mutually exclusive flags.
type FlagSet struct {
	*pflag.FlagSet

	// inverted maps the name of a negative flag, like "no-log", to its
	// positive counterpart.
	inverted map[string]string

	// mutuallyExclusive is the list of flag names that are marked as
	// mutually exclusive. Each element of the slice is a slice that contains
	// the full names of the mutually exclusive flags in that group.
	mutuallyExclusive [][]string
}

// NewFlagSet returns a new, empty flag set with the specified name and error
// handling property. The usage message is not printed by pflag as the CLI
// prints its own help.
func NewFlagSet(name string, errorHandling pflag.ErrorHandling) *FlagSet {
	fs := pflag.NewFlagSet(name, errorHandling)
	fs.SortFlags = false
	fs.Usage = func() {}

	return &FlagSet{
		FlagSet:           fs,
		inverted:          make(map[string]string),
		mutuallyExclusive: [][]string{},
	}
}

// BoolPair defines a boolean flag and its negative counterpart, for example
// "--log" and "--no-log". The two flags are mutually exclusive. Use
// [FlagSet.GetPair] to read the resolved value.
func (f *FlagSet) BoolPair(name, negName string, value bool, usage, negUsage string) {
	f.FlagSet.Bool(name, value, usage)
	f.FlagSet.Bool(negName, !value, negUsage)

	f.inverted[negName] = name

	f.MarkMutuallyExclusive(name, negName)
}

// CheckMutuallyExclusive returns an error if two flags from the same group of
// mutually exclusive flags are set.
func (f *FlagSet) CheckMutuallyExclusive() error {
	if !f.Parsed() {
		panic("calling CheckMutuallyExclusive before parsing the flags")
	}

	for _, a := range f.mutuallyExclusive {
		var set string

		for _, s := range a {
			flag := f.Lookup(s)
			if flag == nil {
				panic("nil flag in the set of mutually exclusive flags: " + s)
			}

			if flag.Changed {
				if set != "" {
					return fmt.Errorf("%w: --%s and --%s (or their shorthands)", errMutuallyExclusive, set, s)
				}

				set = s
			}
		}
	}

	return nil
}

// GetPath returns the value of the named path flag.
func (f *FlagSet) GetPath(name string) (fspath.Path, error) {
	val, err := f.GetString(name)
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	return fspath.Path(val), nil
}

// GetPair returns the value of the boolean flag pair that name is the positive
// flag of. The second return value reports whether either of the flags was set.
func (f *FlagSet) GetPair(name string) (bool, bool, error) {
	for neg, pos := range f.inverted {
		if pos != name {
			continue
		}

		if f.Changed(neg) {
			v, err := f.GetBool(neg)
			if err != nil {
				return false, false, fmt.Errorf("%w", err)
			}

			return !v, true, nil
		}

		v, err := f.GetBool(name)
		if err != nil {
			return false, false, fmt.Errorf("%w", err)
		}

		return v, f.Changed(name), nil
	}

	return false, false, fmt.Errorf("no flag pair for %q", name) //nolint:err113 // programming error
}

// MarkMutuallyExclusive marks two or more flags as mutually exclusive so that
// [FlagSet.CheckMutuallyExclusive] returns an error if the user sets them at
// the same time.
func (f *FlagSet) MarkMutuallyExclusive(a ...string) {
	if len(a) < 2 { //nolint:mnd // obvious
		panic("only one flag cannot be marked as mutually exclusive")
	}

	for _, s := range a {
		if flag := f.Lookup(s); flag == nil {
			panic(fmt.Sprintf("failed to find flag %q while marking it as mutually exclusive", s))
		}
	}

	f.mutuallyExclusive = append(f.mutuallyExclusive, a)
}

// PathP defines a path flag with specified name, shorthand, default value, and
// usage string. The value is stored as a string and read with
// [FlagSet.GetPath].
func (f *FlagSet) PathP(name, shorthand string, value fspath.Path, usage string) {
	f.StringP(name, shorthand, value.String(), usage)
}
