// Copyright 2025 go-darknet Authors
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

package buildcfg

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Feature names accepted on the command line, in DARKNET_FEATURES and in
// the config file.
const (
	FeatureDylib            = "dylib"
	FeatureCUDA             = "enable-cuda"
	FeatureCUDNN            = "enable-cudnn"
	FeatureOpenCV           = "enable-opencv"
	FeatureOpenMP           = "enable-openmp"
	FeatureRuntime          = "runtime"
	FeatureBuildtimeBindgen = "buildtime-bindgen"
	FeatureDocs             = "docs"
)

// Features is the set of independent toggles selected for a build.
type Features struct {
	Dylib            bool // shared library instead of static
	CUDA             bool // accelerator backend
	CUDNN            bool // accelerator library; implies CUDA
	OpenCV           bool // vision backend
	OpenMP           bool // parallelism backend
	Runtime          bool // link a system-installed library, do not build
	BuildtimeBindgen bool // runtime mode: generate bindings instead of copying
	Docs             bool // documentation build: do nothing
}

// Mode is what a build invocation actually does.
type Mode string

const (
	ModeSource  Mode = "source"  // stage, build with CMake, link the result
	ModeRuntime Mode = "runtime" // link a library that is already installed
	ModeDocs    Mode = "docs"    // no native work at all
)

// Mode derives the build mode. Docs wins over runtime.
func (f Features) Mode() Mode {
	switch {
	case f.Docs:
		return ModeDocs
	case f.Runtime:
		return ModeRuntime
	default:
		return ModeSource
	}
}

// SplitFeatures splits a comma or whitespace separated feature list.
func SplitFeatures(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return lo.Uniq(fields)
}

// ParseFeatures builds a Features value from feature names. Unknown names
// are reported on logger and ignored.
func ParseFeatures(names []string, logger zerolog.Logger) Features {
	var f Features
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case FeatureDylib:
			f.Dylib = true
		case FeatureCUDA:
			f.CUDA = true
		case FeatureCUDNN:
			f.CUDNN = true
		case FeatureOpenCV:
			f.OpenCV = true
		case FeatureOpenMP:
			f.OpenMP = true
		case FeatureRuntime:
			f.Runtime = true
		case FeatureBuildtimeBindgen:
			f.BuildtimeBindgen = true
		case FeatureDocs:
			f.Docs = true
		default:
			logger.Warn().Str("feature", name).Msg("unknown feature; ignoring it")
		}
	}
	if f.CUDNN && !f.CUDA {
		logger.Info().Msgf("%s implies %s", FeatureCUDNN, FeatureCUDA)
		f.CUDA = true
	}
	return f
}

// Names returns the enabled features in canonical order.
func (f Features) Names() []string {
	all := []struct {
		on   bool
		name string
	}{
		{f.Dylib, FeatureDylib},
		{f.CUDA, FeatureCUDA},
		{f.CUDNN, FeatureCUDNN},
		{f.OpenCV, FeatureOpenCV},
		{f.OpenMP, FeatureOpenMP},
		{f.Runtime, FeatureRuntime},
		{f.BuildtimeBindgen, FeatureBuildtimeBindgen},
		{f.Docs, FeatureDocs},
	}
	var names []string
	for _, e := range all {
		if e.on {
			names = append(names, e.name)
		}
	}
	return names
}
