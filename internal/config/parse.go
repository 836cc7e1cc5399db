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

package config

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/kodipack/kodipack/internal/flags"
	"github.com/kodipack/kodipack/internal/fspath"
	"github.com/kodipack/kodipack/internal/logging"
	"github.com/spf13/afero"
)

// ErrInvalidConfig is returned when the configuration is invalid.
var ErrInvalidConfig = errors.New("invalid config")

var (
	durationType        = reflect.TypeFor[time.Duration]()
	pathType            = reflect.TypeFor[fspath.Path]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// A valueParser applies the overrides from the environment variables and
// the command-line flags to a single config field.
type valueParser struct {
	flagSet  *flags.FlagSet
	value    reflect.Value
	field    reflect.StructField
	envName  string
	envValue string
	flagName string
}

// Parse reads the configuration from the config file on fs and applies the
// overrides from the environment variables and flagSet. The relative paths in
// the config are resolved against the working directory of the run.
func Parse(ctx context.Context, fs afero.Fs, flagSet *flags.FlagSet) (*Config, error) {
	dir, err := resolveDirectory(flagSet)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve the working directory: %w", err)
	}

	configFile, err := resolveFile(fs, dir, flagSet)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config file: %w", err)
	}

	logging.DebugContext(ctx, "reading config file", "path", configFile)

	data, err := configFile.ReadFile(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	rawCfg, err := decodeFile(configFile, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	logging.TraceContext(ctx, "unmarshaled config file", "cfg", rawCfg)
	normalizeKeys(rawCfg)
	logging.TraceContext(ctx, "normalized keys", "cfg", rawCfg)

	cfg := DefaultConfig()

	if err = decode(rawCfg, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.Directory = dir

	if err = applyOverrides(ctx, reflect.ValueOf(cfg).Elem(), EnvPrefix, flagSet); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err = cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	logging.DebugContext(ctx, "parsed config", "cfg", cfg)

	return cfg, nil
}

// LogValue implements [slog.LogValuer] for Config. The password is not logged.
func (c *Config) LogValue() slog.Value {
	kodi := c.Kodi
	if kodi.Password != "" {
		kodi.Password = "********"
	}

	return slog.GroupValue(
		slog.Any("addon", c.Addon),
		slog.Any("kodi", kodi),
		slog.Any("logging", c.Logging),
		slog.String("directory", c.Directory.String()),
		slog.String("color", c.Color.String()),
		slog.Bool("interactive", c.Interactive),
		slog.Bool("quiet", c.Quiet),
		slog.Bool("verbose", c.Verbose),
	)
}

// decode decodes the raw config map into cfg. Unknown keys are an error.
func decode(raw map[string]any, cfg *Config) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{ //nolint:exhaustruct // use default values
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err = d.Decode(raw); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// normalizeKeys converts the keys in the config map to snake case, so
// "zipDestination" and "zip-destination" both become "zip_destination".
func normalizeKeys(cfg map[string]any) {
	for k, v := range cfg {
		var sb strings.Builder

		prev := rune(0)

		for i, r := range k {
			switch {
			case r == '-' || r == '_' || r == ' ':
				if prev != '_' {
					sb.WriteRune('_')
				}

				prev = '_'

				continue
			case i > 0 && unicode.IsUpper(r) && prev != '_' && !unicode.IsUpper(prev):
				sb.WriteRune('_')
			}

			sb.WriteRune(unicode.ToLower(r))

			prev = r
		}

		key := sb.String()

		if m, ok := v.(map[string]any); ok {
			normalizeKeys(m)
		}

		if k != key {
			delete(cfg, k)

			cfg[key] = v
		}
	}
}

// applyOverrides walks the fields of the struct v and sets the values from
// the environment variables and the command-line flags. The name of
// the environment variable is derived from the mapstructure tag of the field
// and the prefix. The flag is given with the "flag" tag, and a tag with two
// names, like "log,no-log", is a boolean flag pair.
func applyOverrides(ctx context.Context, v reflect.Value, prefix string, flagSet *flags.FlagSet) error {
	t := v.Type()

	for i := range v.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		if !value.CanSet() {
			continue
		}

		// The fields that are not read from the file are resolved
		// separately.
		key, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if key == "-" {
			continue
		}

		if key == "" {
			key = strings.ToLower(field.Name)
		}

		envName := prefix + "_" + strings.ToUpper(key)

		if value.Kind() == reflect.Struct {
			if err := applyOverrides(ctx, value, envName, flagSet); err != nil {
				return err
			}

			continue
		}

		p := &valueParser{
			flagSet:  flagSet,
			value:    value,
			field:    field,
			envName:  envName,
			envValue: os.Getenv(envName),
			flagName: field.Tag.Get("flag"),
		}

		if err := p.apply(); err != nil {
			return err
		}

		logging.TraceContext(ctx, "config value checked", "field", field.Name, "env", envName, "flag", p.flagName)
	}

	return nil
}

func (p *valueParser) apply() error {
	if p.envValue != "" {
		if err := p.set(p.envValue); err != nil {
			return fmt.Errorf("%s=%q: %w", p.envName, p.envValue, err)
		}
	}

	if p.flagSet == nil || p.flagName == "" {
		return nil
	}

	if name, _, ok := strings.Cut(p.flagName, ","); ok {
		if p.flagSet.Lookup(name) == nil {
			return nil
		}

		x, changed, err := p.flagSet.GetPair(name)
		if err != nil {
			return fmt.Errorf("failed to get value for --%s: %w", name, err)
		}

		if changed {
			p.value.SetBool(x)
		}

		return nil
	}

	f := p.flagSet.Lookup(p.flagName)
	if f == nil || !f.Changed {
		return nil
	}

	if err := p.set(f.Value.String()); err != nil {
		return fmt.Errorf("invalid value for --%s: %w", p.flagName, err)
	}

	return nil
}

// set parses s according to the type of the field and sets the value.
func (p *valueParser) set(s string) error {
	typ := p.value.Type()

	if reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		ptr := reflect.New(typ)

		u, ok := ptr.Interface().(encoding.TextUnmarshaler)
		if !ok {
			panic(fmt.Sprintf("failed to cast %s to TextUnmarshaler", typ))
		}

		if err := u.UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("%w", err)
		}

		p.value.Set(ptr.Elem())

		return nil
	}

	switch {
	case typ == durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%w", err)
		}

		p.value.SetInt(int64(d))
	case typ == pathType:
		p.value.SetString(s)
	case typ.Kind() == reflect.Bool:
		x, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%w", err)
		}

		p.value.SetBool(x)
	case typ.Kind() == reflect.Int:
		x, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w", err)
		}

		p.value.SetInt(int64(x))
	case typ.Kind() == reflect.String:
		p.value.SetString(s)
	default:
		panic(fmt.Sprintf("unsupported config field type for %s: %s", p.field.Name, typ))
	}

	return nil
}
