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

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/kodipack/kodipack/internal/logging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"trace", logging.LevelTrace, false},
		{"DEBUG", logging.LevelDebug, false},
		{"", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{" error ", logging.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			var l logging.Level

			err := l.Set(tt.in)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, l)
		})
	}
}

func TestLevelString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TRACE", logging.LevelTrace.String())
	assert.Equal(t, "WARN", logging.LevelWarn.String())

	text, err := logging.LevelDebug.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "debug", string(text))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := logging.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Format = "xml"
	require.Error(t, cfg.Validate())

	cfg = logging.DefaultConfig()
	cfg.Output = ""
	require.Error(t, cfg.Validate())
}

func TestBufferedFileWriter(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := logging.NewBufferedFileWriter(fs, "/cache/kodipack/bootstrap.log")

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(w.Bytes()))

	ok, err := afero.Exists(fs, "/cache/kodipack/bootstrap.log")
	require.NoError(t, err)
	assert.False(t, ok, "nothing is written before Flush")

	require.NoError(t, w.Flush())
	assert.Empty(t, w.Bytes())

	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	data, err := afero.ReadFile(fs, "/cache/kodipack/bootstrap.log")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestContextFunctionsRespectLevel(t *testing.T) {
	var buf bytes.Buffer

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: logging.LevelDebug})))

	ctx := context.Background()

	logging.TraceContext(ctx, "hidden")
	logging.DebugContext(ctx, "shown", "step", "clean")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "clean", rec["step"])
}
