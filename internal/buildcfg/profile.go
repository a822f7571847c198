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
)

// Profile is a CMake build configuration (CMAKE_BUILD_TYPE).
type Profile string

const (
	ProfileDebug          Profile = "Debug"
	ProfileRelease        Profile = "Release"
	ProfileRelWithDebInfo Profile = "RelWithDebInfo"
	ProfileMinSizeRel     Profile = "MinSizeRel"
)

// LibraryName returns the name the darknet library is built under.
// CMake appends the "d" debug postfix to Debug builds.
func (p Profile) LibraryName() string {
	if p == ProfileDebug {
		return "darknetd"
	}
	return "darknet"
}

type buildKind int

const (
	kindDebug buildKind = iota
	kindRelease
)

func (k buildKind) String() string {
	if k == kindDebug {
		return "debug"
	}
	return "release"
}

type optLevel int

const (
	optDebug optLevel = iota
	optRelease
	optSize
)

func (o optLevel) String() string {
	switch o {
	case optDebug:
		return "Debug"
	case optRelease:
		return "Release"
	default:
		return "Size"
	}
}

// ResolveProfile maps the build profile ("debug", "release", "bench"), the
// optimization level ("0".."3", "s", "z") and the debug-info flag ("true",
// "false") to one CMake profile.
//
// Empty inputs take their documented defaults silently: release, then an
// optimization level and debug-info setting implied by the profile.
// Unrecognized values are reported on logger and fall back the same way,
// except that an unknown debug-info value defaults to true.
func ResolveProfile(profile, opt, debug string, logger zerolog.Logger) Profile {
	var kind buildKind
	switch strings.ToLower(profile) {
	case "debug":
		kind = kindDebug
	case "release", "bench", "":
		kind = kindRelease
	default:
		logger.Warn().Msgf("unknown profile=%s; defaulting to a release build.", profile)
		kind = kindRelease
	}

	var level optLevel
	switch strings.ToLower(opt) {
	case "0":
		level = optDebug
	case "1", "2", "3":
		level = optRelease
	case "s", "z":
		level = optSize
	default:
		level = optRelease
		if kind == kindDebug {
			level = optDebug
		}
		if opt != "" {
			logger.Warn().Msgf("unknown opt-level=%s; defaulting to a %s build.", opt, level)
		}
	}

	var debugInfo bool
	switch strings.ToLower(debug) {
	case "true":
		debugInfo = true
	case "false":
		debugInfo = false
	case "":
		debugInfo = kind == kindDebug
	default:
		logger.Warn().Msgf("unknown debug=%s; defaulting to `true`.", debug)
		debugInfo = true
	}

	switch {
	case level == optDebug:
		return ProfileDebug
	case level == optSize:
		return ProfileMinSizeRel
	case debugInfo:
		return ProfileRelWithDebInfo
	default:
		return ProfileRelease
	}
}
