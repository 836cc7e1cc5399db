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

package steps_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/kodipack/kodipack/internal/config"
	"github.com/kodipack/kodipack/internal/fsutil"
	"github.com/kodipack/kodipack/internal/kodi"
	"github.com/kodipack/kodipack/internal/pipeline"
	"github.com/kodipack/kodipack/internal/steps"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/kodipack/kodipack/internal/versioning"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addonXML = `<?xml version="1.0" encoding="UTF-8"?>
<addon id="skin.test" name="Test" version="__VERSION__" provider-name="kodipack">
</addon>
`

type fixture struct {
	cfg  *config.Config
	fs   afero.Fs
	term *terminal.Terminal
	out  *bytes.Buffer
	kodi steps.Reloader
	p    *pipeline.Pipeline
}

func newFixture(t *testing.T, version string) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Directory = "/work"
	cfg.Addon.Src = "/work/src"
	cfg.Addon.Dist = "/work/dist"
	cfg.Addon.PackageName = "skin.test"
	cfg.Addon.ZipDestination = "/work/zips"
	cfg.Addon.PackageFile = "/work/package.json"
	cfg.Kodi.AddonsDirectory = "/kodi/addons"
	cfg.Kodi.Host = "127.0.0.1"
	cfg.Kodi.Port = 1

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/work/package.json":           `{"name": "skin.test", "version": "` + version + `"}` + "\n",
		"/work/src/addon.xml":          addonXML,
		"/work/src/xml/Home.xml":       "<window/>",
		"/work/src/media/Textures.xbt": "textures",
		"/work/src/fonts/font.ttf":     "font",
		"/work/src/test/fixture.py":    "print(1)",
		"/work/src/test/data/a.json":   "{}",
	}

	writeFiles(t, fs, files)

	var out, errOut bytes.Buffer

	term := terminal.New(context.Background(), terminal.Options{
		In:     &bytes.Buffer{},
		Out:    &out,
		ErrOut: &errOut,
		Color:  terminal.ColorNever,
	})
	t.Cleanup(func() { _ = term.Close() })

	f := &fixture{cfg: cfg, fs: fs, term: term, out: &out}
	f.rebuild(t)

	return f
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()

	for name, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
}

// rebuild creates the pipeline again after the config has been changed.
func (f *fixture) rebuild(t *testing.T) {
	t.Helper()

	p, err := steps.NewPipeline(steps.Deps{Config: f.cfg, FS: f.fs, Terminal: f.term, Kodi: f.kodi})
	require.NoError(t, err)

	f.p = p
}

func (f *fixture) run(t *testing.T, name string) (*pipeline.State, error) {
	t.Helper()

	state := pipeline.NewState(f.cfg.Addon.Semver)
	err := f.p.Run(context.Background(), name, state, nil)

	return state, err
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()

	data, err := afero.ReadFile(f.fs, name)
	require.NoError(t, err)

	return string(data)
}

func (f *fixture) exists(t *testing.T, name string) bool {
	t.Helper()

	ok, err := afero.Exists(f.fs, name)
	require.NoError(t, err)

	return ok
}

type stubReloader struct {
	calls atomic.Int32
}

func (r *stubReloader) ExecuteBuiltin(_ context.Context, _, _ string) (*kodi.Reply, error) {
	r.calls.Add(1)

	return &kodi.Reply{Body: []byte(`{"id":1,"jsonrpc":"2.0","result":"OK"}`)}, nil
}

func assertVersion(t *testing.T, state *pipeline.State, want string) {
	t.Helper()

	v, ok := state.Version.Get()
	require.True(t, ok, "version is not resolved")
	assert.Equal(t, want, v)
}

func kodiServer(t *testing.T, status int, calls *atomic.Int32) (string, int) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		_, _ = io.Copy(io.Discard, r.Body)

		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"id":1,"jsonrpc":"2.0","result":"OK"}`)
	}))
	t.Cleanup(srv.Close)

	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return host, p
}

func TestPrebuildCopiesFilteredTree(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "1.0.0")

	writeFiles(t, f.fs, map[string]string{"/work/dist/skin.test/stale.xml": "old"})

	_, err := f.run(t, steps.Prebuild)
	require.NoError(t, err)

	files, err := fsutil.ListFiles(f.fs, "/work/dist/skin.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"fonts/font.ttf", "media/Textures.xbt", "xml/Home.xml"}, files)

	_, err = f.run(t, steps.Prebuild)
	require.NoError(t, err)

	again, err := fsutil.ListFiles(f.fs, "/work/dist/skin.test")
	require.NoError(t, err)
	assert.Equal(t, files, again)
}

func TestBuildPatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "1.2.3")

	state, err := f.run(t, steps.BuildPatch)
	require.NoError(t, err)
	assertVersion(t, state, "1.2.4")
	assert.Equal(t, versioning.BumpPatch, state.BumpKind())

	want := `<?xml version="1.0" encoding="UTF-8"?>
<addon id="skin.test" name="Test" version="1.2.4" provider-name="kodipack">
</addon>
`
	assert.Equal(t, want, f.read(t, "/work/dist/skin.test/addon.xml"))
	assert.Equal(t, addonXML, f.read(t, "/work/src/addon.xml"))
	assert.Equal(t, `{"name": "skin.test", "version": "1.2.4"}`+"\n", f.read(t, "/work/package.json"))
	assert.True(t, f.exists(t, "/work/zips/skin.test-1.2.4.zip"))
}

func TestBuildMinor(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "2.0.0")

	state, err := f.run(t, steps.BuildMinor)
	require.NoError(t, err)
	assertVersion(t, state, "2.1.0")
	assert.Contains(t, f.read(t, "/work/package.json"), `"version": "2.1.0"`)

	data := f.read(t, "/work/zips/skin.test-2.1.0.zip")

	zr, err := zip.NewReader(bytes.NewReader([]byte(data)), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, file := range zr.File {
		names = append(names, file.Name)
	}

	assert.Equal(t, []string{
		"skin.test/addon.xml",
		"skin.test/fonts/font.ttf",
		"skin.test/media/Textures.xbt",
		"skin.test/xml/Home.xml",
	}, names)

	f.term.Flush()
	assert.Contains(t, f.out.String(), "Version package 2.1.0\n")
	assert.Contains(t, f.out.String(), "Creating package skin.test-2.1.0.zip\n")
}

func TestBuildUsesConfiguredBump(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "0.3.9")
	f.cfg.Addon.Semver = versioning.BumpPatch

	state, err := f.run(t, steps.Default)
	require.NoError(t, err)
	assertVersion(t, state, "0.3.10")
	assert.True(t, f.exists(t, "/work/zips/skin.test-0.3.10.zip"))
}

func TestBuildWithoutBumpKeepsVersion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "3.1.4")

	state, err := f.run(t, steps.Build)
	require.NoError(t, err)
	assertVersion(t, state, "3.1.4")
	assert.True(t, f.exists(t, "/work/zips/skin.test-3.1.4.zip"))
}

func TestBuildInvalidVersion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "1.2")

	state, err := f.run(t, steps.BuildPatch)

	var versionErr *versioning.InvalidVersionError
	require.True(t, errors.As(err, &versionErr))

	var stepErr *pipeline.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, steps.GetVersion, stepErr.Step)
	assert.Equal(t, steps.GetVersion, state.FailedStep())

	assert.Contains(t, f.read(t, "/work/package.json"), `"version": "1.2"`)
	assert.False(t, f.exists(t, "/work/dist/skin.test/addon.xml"))
	assert.False(t, f.exists(t, "/work/zips"))
}

func TestPublishToKodi(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "1.0.0")

	var calls atomic.Int32

	f.cfg.Kodi.Host, f.cfg.Kodi.Port = kodiServer(t, http.StatusOK, &calls)
	f.rebuild(t)

	target := map[string]string{
		"/kodi/addons/skin.test/media/skin.xbt":  "compiled",
		"/kodi/addons/skin.test/media/old.png":   "old",
		"/kodi/addons/skin.test/xml/Old.xml":     "old",
		"/kodi/addons/skin.test/addon.xml":       "old",
		"/kodi/addons/skin.test/legacy/gone.txt": "old",
	}

	writeFiles(t, f.fs, target)

	_, err := f.run(t, steps.Build)
	require.NoError(t, err)

	_, err = f.run(t, steps.PublishToKodi)
	require.NoError(t, err)

	files, err := fsutil.ListFiles(f.fs, "/kodi/addons/skin.test")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"addon.xml",
		"fonts/font.ttf",
		"media/skin.xbt",
		"xml/Home.xml",
	}, files)

	assert.Equal(t, "compiled", f.read(t, "/kodi/addons/skin.test/media/skin.xbt"))
	assert.Contains(t, f.read(t, "/kodi/addons/skin.test/addon.xml"), `version="1.0.0"`)
	assert.False(t, f.exists(t, "/kodi/addons/skin.test/legacy"))
	assert.EqualValues(t, 1, calls.Load())

	f.term.Flush()
	assert.Contains(t, f.out.String(), `Kodi responded with: {"id":1,"jsonrpc":"2.0","result":"OK"}`)
}

func TestPublishSucceedsWhenReloadFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "1.0.0")

	var calls atomic.Int32

	f.cfg.Kodi.Host, f.cfg.Kodi.Port = kodiServer(t, http.StatusInternalServerError, &calls)
	f.rebuild(t)

	state, err := f.run(t, steps.Publish)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusDone, state.Status())
	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, f.exists(t, "/kodi/addons/skin.test/xml/Home.xml"))
	assert.False(t, f.exists(t, "/work/zips"), "publish does not create an archive")
}

func TestNeedsKodi(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "1.0.0")

	tests := []struct {
		name string
		want bool
	}{
		{steps.Build, false},
		{steps.BuildMinor, false},
		{steps.Default, false},
		{steps.SemverUp, false},
		{steps.Publish, true},
		{steps.PublishToKodi, true},
		{steps.BuildPublishPatch, true},
	}

	for _, tt := range tests {
		got, err := steps.NeedsKodi(f.p, tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := steps.NeedsKodi(f.p, "nope")
	require.ErrorIs(t, err, pipeline.ErrUnknownStep)
}

func TestEntryPoints(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "1.0.0")

	for _, name := range f.p.EntryPoints() {
		assert.NotEmpty(t, steps.Describe(name), name)
	}

	stages, err := f.p.Plan(steps.BuildPublishMinor)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{steps.SemverMinor},
		{steps.Clean},
		{steps.CopyFiles},
		{steps.GetVersion},
		{steps.UpdateVersionInPackageFile, steps.UpdateVersionInAddonXML},
		{steps.CreatePackage},
		{steps.CleanRemoteTarget},
		{steps.CopyToRemoteTarget},
		{steps.RemoteReload},
	}, stages)
}

func TestRunEveryEntryPoint(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		wantErr  error
		failedAt []string
		reloads  int32
	}{
		steps.Build:             {},
		steps.BuildMinor:        {},
		steps.BuildPatch:        {},
		steps.Default:           {},
		steps.Prebuild:          {},
		steps.SemverUp:          {},
		steps.Publish:           {reloads: 1},
		steps.BuildPublish:      {reloads: 1},
		steps.BuildPublishMinor: {reloads: 1},
		steps.BuildPublishPatch: {reloads: 1},
		steps.PublishToKodi: {
			wantErr:  os.ErrNotExist,
			failedAt: []string{steps.CopyToRemoteTarget},
		},
		steps.SetVersion: {
			wantErr:  steps.ErrVersionNotResolved,
			failedAt: []string{steps.UpdateVersionInPackageFile, steps.UpdateVersionInAddonXML},
		},
	}

	names := newFixture(t, "1.0.0").p.EntryPoints()
	require.Len(t, names, len(tests))

	for _, name := range names {
		tt, ok := tests[name]
		require.True(t, ok, "no test case for %q", name)

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "1.0.0")
			reloader := &stubReloader{}
			f.kodi = reloader
			f.rebuild(t)

			var (
				state *pipeline.State
				err   error
			)

			require.NotPanics(t, func() { state, err = f.run(t, name) })
			assert.EqualValues(t, tt.reloads, reloader.calls.Load())

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, pipeline.StatusDone, state.Status())

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, pipeline.StatusFailed, state.Status())

			var stepErr *pipeline.StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Contains(t, tt.failedAt, stepErr.Step)
			assert.Contains(t, tt.failedAt, state.FailedStep())
		})
	}
}
