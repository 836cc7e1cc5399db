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

// Package steps implements the build, packaging, and deployment steps of
// kodipack and composes them into the entry points of the pipeline.
package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/kodipack/kodipack/internal/archive"
	"github.com/kodipack/kodipack/internal/config"
	"github.com/kodipack/kodipack/internal/fsutil"
	"github.com/kodipack/kodipack/internal/kodi"
	"github.com/kodipack/kodipack/internal/logging"
	"github.com/kodipack/kodipack/internal/manifest"
	"github.com/kodipack/kodipack/internal/pipeline"
	"github.com/kodipack/kodipack/internal/terminal"
	"github.com/kodipack/kodipack/internal/versioning"
	"github.com/spf13/afero"
)

// Names of the tasks.
const (
	Clean                      = "clean"
	CopyFiles                  = "copyFiles"
	GetVersion                 = "getVersion"
	UpdateVersionInPackageFile = "updateVersionInPackageFile"
	UpdateVersionInAddonXML    = "updateVersionInAddonXml"
	CreatePackage              = "createPackage"
	SemverMinor                = "semver-minor"
	SemverPatch                = "semver-patch"
	CleanRemoteTarget          = "cleanRemoteTarget"
	CopyToRemoteTarget         = "copyToRemoteTarget"
	RemoteReload               = "remoteReload"
)

// Names of the files and directories in the source tree that are not copied
// as is.
const (
	addonXML = "addon.xml"
	testDir  = "test"
)

// ErrVersionNotResolved is returned by the steps that need the version of the
// package when no earlier step in the run has resolved it.
var ErrVersionNotResolved = errors.New("version is not resolved")

// Reloader asks Kodi to run a built-in function.
type Reloader interface {
	ExecuteBuiltin(ctx context.Context, addonID, command string) (*kodi.Reply, error)
}

// Deps are the dependencies of the steps.
type Deps struct {
	Config   *config.Config
	FS       afero.Fs
	Terminal *terminal.Terminal

	// Kodi is the client used for the reload. If it is nil, a client is
	// created from the config when the reload runs.
	Kodi Reloader
}

// runner holds the dependencies that the task functions use.
type runner struct {
	cfg  *config.Config
	fs   afero.Fs
	term *terminal.Terminal
	kodi Reloader
}

func (r *runner) clean(ctx context.Context, _ *pipeline.State) error {
	dir := r.cfg.Addon.PackageDir()

	logging.DebugContext(ctx, "removing package directory", "path", dir)

	if err := fsutil.RemoveAll(r.fs, dir); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (r *runner) copyFiles(ctx context.Context, _ *pipeline.State) error {
	src := r.cfg.Addon.Src
	dst := r.cfg.Addon.PackageDir()

	n, err := fsutil.CopyTree(r.fs, src, dst, skipSourceFile)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	logging.DebugContext(ctx, "copied source files", "src", src, "dst", dst, "files", n)
	r.term.Verbosef("Copied %d files to %s\n", n, dst)

	return nil
}

// skipSourceFile reports whether the file at rel in the source tree is left out
// of the package. The test directory is never packaged and the addon
// descriptor is written separately with the version filled in.
func skipSourceFile(rel string, info fs.FileInfo) bool {
	if info.IsDir() {
		return rel == testDir
	}

	return rel == addonXML
}

func (r *runner) selectBump(kind versioning.BumpKind) pipeline.TaskFunc {
	return func(ctx context.Context, state *pipeline.State) error {
		if err := state.Bump.Set(kind); err != nil {
			return fmt.Errorf("%w", err)
		}

		logging.DebugContext(ctx, "selected bump kind", "kind", kind)
		r.term.Printf("Semver %s\n", kind)

		return nil
	}
}

func (r *runner) getVersion(ctx context.Context, state *pipeline.State) error {
	pkg, err := manifest.ReadPackage(r.fs, r.cfg.Addon.PackageFile)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	kind := state.BumpKind()

	v, err := versioning.Bump(pkg.Version, kind)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	if err = state.Version.Set(v); err != nil {
		return fmt.Errorf("%w", err)
	}

	logging.InfoContext(ctx, "resolved version", "current", pkg.Version, "bump", kind, "version", v)
	r.term.Printf("Version package %s\n", v)

	return nil
}

// resolvedVersion returns the version set by the getVersion task of the run.
func resolvedVersion(state *pipeline.State) (string, error) {
	v, ok := state.Version.Get()
	if !ok {
		return "", fmt.Errorf("%w: run %q first", ErrVersionNotResolved, GetVersion)
	}

	return v, nil
}

func (r *runner) updateVersionInPackageFile(ctx context.Context, state *pipeline.State) error {
	v, err := resolvedVersion(state)
	if err != nil {
		return err
	}

	file := r.cfg.Addon.PackageFile

	if err = manifest.WritePackageVersion(r.fs, file, v); err != nil {
		return fmt.Errorf("%w", err)
	}

	logging.DebugContext(ctx, "wrote version to package file", "path", file, "version", v)

	return nil
}

func (r *runner) updateVersionInAddonXML(ctx context.Context, state *pipeline.State) error {
	v, err := resolvedVersion(state)
	if err != nil {
		return err
	}

	src := r.cfg.Addon.Src.Join(addonXML)
	dst := r.cfg.Addon.PackageDir().Join(addonXML)

	n, err := manifest.WriteAddonXML(r.fs, src, dst, v)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	logging.DebugContext(ctx, "wrote addon descriptor", "src", src, "dst", dst, "replaced", n)

	if n == 0 {
		r.term.Warnf("%s has no %s placeholder\n", src, manifest.VersionPlaceholder)
	}

	return nil
}

func (r *runner) createPackage(ctx context.Context, state *pipeline.State) error {
	v, err := resolvedVersion(state)
	if err != nil {
		return err
	}

	name := archive.FileName(r.cfg.Addon.PackageName, v)
	dst := r.cfg.Addon.ZipDestination.Join(name)

	r.term.Printf("Creating package %s\n", name)

	res, err := archive.Create(ctx, r.fs, r.cfg.Addon.PackageDir(), dst, r.cfg.Addon.CompressionLevel)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	logging.InfoContext(
		ctx,
		"created package",
		"path", res.Path,
		"files", res.Files,
		"size", res.Size,
		"blake3", res.Digest,
	)
	r.term.Printf("Package %s: %d files, %d bytes, blake3 %s\n", res.Path, res.Files, res.Size, res.Digest)

	return nil
}

func (r *runner) cleanRemoteTarget(ctx context.Context, _ *pipeline.State) error {
	target := r.cfg.Kodi.Target(r.cfg.Addon.PackageName)

	if r.cfg.Interactive && r.term.Interactive() {
		ok, err := r.term.Confirm(ctx, fmt.Sprintf("Delete the files in %s?", target), false)
		if err != nil {
			return fmt.Errorf("%w", err)
		}

		if !ok {
			return fmt.Errorf("%w: deletion in %s was not confirmed", pipeline.ErrSkip, target)
		}
	}

	n, err := fsutil.CleanExcept(r.fs, target, r.excluded, r.cfg.Kodi.MediaDir)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	logging.DebugContext(ctx, "cleaned Kodi target", "path", target, "removed", n)
	r.term.Verbosef("Removed %d files from %s\n", n, target)

	return nil
}

func (r *runner) copyToRemoteTarget(ctx context.Context, _ *pipeline.State) error {
	src := r.cfg.Addon.PackageDir()
	target := r.cfg.Kodi.Target(r.cfg.Addon.PackageName)

	n, err := fsutil.CopyTree(r.fs, src, target, func(rel string, info fs.FileInfo) bool {
		return !info.IsDir() && r.excluded(rel, info)
	})
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	logging.DebugContext(ctx, "copied package to Kodi", "src", src, "dst", target, "files", n)
	r.term.Verbosef("Copied %d files to %s\n", n, target)

	return nil
}

// excluded reports whether the file is kept in Kodi as is. Such files are
// neither removed from nor copied to the Kodi addons directory.
func (r *runner) excluded(_ string, info fs.FileInfo) bool {
	ok, err := filepath.Match(r.cfg.Kodi.Exclude, info.Name())

	return err == nil && ok
}

func (r *runner) remoteReload(ctx context.Context, _ *pipeline.State) error {
	client := r.kodi
	if client == nil {
		client = kodi.NewClient(kodi.Options{
			Host:     r.cfg.Kodi.Host,
			User:     r.cfg.Kodi.User,
			Password: r.cfg.Kodi.Password,
			Port:     r.cfg.Kodi.Port,
			Timeout:  r.cfg.Kodi.Timeout,
		})
	}

	reply, err := client.ExecuteBuiltin(ctx, r.cfg.Kodi.AddonID, r.cfg.Kodi.ReloadCommand)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	r.term.Printf("Kodi responded with: %s\n", reply.Body)

	if reply.RPCError != nil {
		logging.WarnContext(ctx, "Kodi returned an error", "code", reply.RPCError.Code, "message", reply.RPCError.Message)
		r.term.Warnf("Kodi returned an error: %s (code %d)\n", reply.RPCError.Message, reply.RPCError.Code)
	}

	return nil
}
