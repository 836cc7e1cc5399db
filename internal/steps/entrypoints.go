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

package steps

import (
	"fmt"

	"github.com/kodipack/kodipack/internal/pipeline"
	"github.com/kodipack/kodipack/internal/versioning"
)

// Names of the groups. All of them can be run as entry points.
const (
	SetVersion        = "setVersion"
	SemverUp          = "semver-up"
	Prebuild          = "prebuild"
	Build             = "build"
	BuildMinor        = "build-minor"
	BuildPatch        = "build-patch"
	PublishToKodi     = "publish-to-kodi"
	Publish           = "publish"
	BuildPublish      = "build-publish"
	BuildPublishMinor = "build-publish-minor"
	BuildPublishPatch = "build-publish-patch"
	Default           = "default"
)

// descriptions are the help texts of the entry points.
var descriptions = map[string]string{ //nolint:gochecknoglobals // static table
	Build:             "build the package and the zip archive",
	BuildMinor:        "bump the minor version and build",
	BuildPatch:        "bump the patch version and build",
	Publish:           "build the package without an archive and publish it to Kodi",
	PublishToKodi:     "publish the built package to Kodi and reload the skin",
	BuildPublish:      "build and publish to Kodi",
	BuildPublishMinor: "bump the minor version, build, and publish to Kodi",
	BuildPublishPatch: "bump the patch version, build, and publish to Kodi",
	Default:           "same as build",
	Prebuild:          "clean the package directory and copy the source files",
	SemverUp:          "resolve the version and write it to the package files",
	SetVersion:        "write the resolved version to the package files",
}

// deploySteps are the tasks that need the Kodi settings.
var deploySteps = map[string]bool{ //nolint:gochecknoglobals // static table
	CleanRemoteTarget:  true,
	CopyToRemoteTarget: true,
	RemoteReload:       true,
}

// NewPipeline returns the pipeline of kodipack with the steps bound to d.
func NewPipeline(d Deps) (*pipeline.Pipeline, error) {
	r := &runner{cfg: d.Config, fs: d.FS, term: d.Terminal, kodi: d.Kodi}

	clean := pipeline.NewTask(Clean, r.clean)
	copyFiles := pipeline.NewTask(CopyFiles, r.copyFiles)
	getVersion := pipeline.NewTask(GetVersion, r.getVersion)
	updatePackageFile := pipeline.NewTask(UpdateVersionInPackageFile, r.updateVersionInPackageFile)
	updateAddonXML := pipeline.NewTask(UpdateVersionInAddonXML, r.updateVersionInAddonXML)
	createPackage := pipeline.NewTask(CreatePackage, r.createPackage)
	semverMinor := pipeline.NewTask(SemverMinor, r.selectBump(versioning.BumpMinor))
	semverPatch := pipeline.NewTask(SemverPatch, r.selectBump(versioning.BumpPatch))
	cleanRemote := pipeline.NewTask(CleanRemoteTarget, r.cleanRemoteTarget)
	copyToRemote := pipeline.NewTask(CopyToRemoteTarget, r.copyToRemoteTarget)
	reload := pipeline.NewTask(RemoteReload, r.remoteReload, pipeline.WithNonFatal())

	setVersion := pipeline.NewParallel(SetVersion, updatePackageFile, updateAddonXML)
	semverUp := pipeline.NewSequence(SemverUp, getVersion, setVersion)
	prebuild := pipeline.NewSequence(Prebuild, clean, copyFiles)
	build := pipeline.NewSequence(Build, prebuild, semverUp, createPackage)
	buildMinor := pipeline.NewSequence(BuildMinor, semverMinor, build)
	buildPatch := pipeline.NewSequence(BuildPatch, semverPatch, build)
	publishToKodi := pipeline.NewSequence(PublishToKodi, cleanRemote, copyToRemote, reload)
	publish := pipeline.NewSequence(Publish, prebuild, semverUp, publishToKodi)

	p, err := pipeline.New(
		build,
		buildMinor,
		buildPatch,
		publish,
		publishToKodi,
		pipeline.NewSequence(BuildPublish, build, publishToKodi),
		pipeline.NewSequence(BuildPublishMinor, buildMinor, publishToKodi),
		pipeline.NewSequence(BuildPublishPatch, buildPatch, publishToKodi),
		pipeline.NewSequence(Default, build),
		prebuild,
		semverUp,
		setVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create the pipeline: %w", err)
	}

	return p, nil
}

// Describe returns the help text of the entry point name.
func Describe(name string) string {
	return descriptions[name]
}

// NeedsKodi reports whether running the entry point name publishes to Kodi.
func NeedsKodi(p *pipeline.Pipeline, name string) (bool, error) {
	stages, err := p.Plan(name)
	if err != nil {
		return false, fmt.Errorf("%w", err)
	}

	for _, stage := range stages {
		for _, task := range stage {
			if deploySteps[task] {
				return true, nil
			}
		}
	}

	return false, nil
}
