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

// Package cmake drives the cmake binary through a configure step and a
// build-and-install step, the same two invocations a developer would type.
package cmake

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// Define is a single -D<Name>=<Value> cache entry.
type Define struct {
	Name  string
	Value string
}

func (d Define) String() string { return d.Name + "=" + d.Value }

// OnOff renders a boolean the way CMake options expect it.
func OnOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// Config describes one out-of-tree build.
type Config struct {
	Binary        string // cmake executable; "cmake" when empty
	SourceDir     string
	BuildDir      string
	InstallPrefix string
	BuildType     string // Debug, Release, RelWithDebInfo, MinSizeRel
	Generator     string // optional -G value
	Jobs          int    // --parallel value; omitted when <= 0
	Defines       []Define
}

func (c Config) binary() string {
	if c.Binary == "" {
		return "cmake"
	}
	return c.Binary
}

// ConfigureArgs returns the argument vector of the configure step.
// Defines keep their order; CMAKE_INSTALL_PREFIX always comes first.
func (c Config) ConfigureArgs() []string {
	args := []string{"-S", c.SourceDir, "-B", c.BuildDir}
	if c.Generator != "" {
		args = append(args, "-G", c.Generator)
	}
	args = append(args, "-DCMAKE_INSTALL_PREFIX="+c.InstallPrefix)
	for _, d := range c.Defines {
		args = append(args, "-D"+d.String())
	}
	return args
}

// BuildArgs returns the argument vector of the build-and-install step.
func (c Config) BuildArgs() []string {
	args := []string{"--build", c.BuildDir, "--target", "install"}
	if c.BuildType != "" {
		// Multi-config generators (Visual Studio, Xcode) pick the
		// configuration here rather than from CMAKE_BUILD_TYPE.
		args = append(args, "--config", c.BuildType)
	}
	if c.Jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(c.Jobs))
	}
	return args
}

// Runner executes an external command in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// Driver runs CMake builds.
type Driver struct {
	Runner Runner
	Logger zerolog.Logger
}

// NewDriver returns a Driver that executes commands on the host.
func NewDriver(logger zerolog.Logger) *Driver {
	return &Driver{
		Runner: &ExecRunner{Logger: logger},
		Logger: logger,
	}
}

// Build configures, builds and installs cfg and returns the install prefix.
func (d *Driver) Build(ctx context.Context, cfg Config) (string, error) {
	if cfg.SourceDir == "" || cfg.BuildDir == "" {
		return "", fmt.Errorf("cmake: source and build directories are required")
	}
	if cfg.InstallPrefix == "" {
		cfg.InstallPrefix = filepath.Dir(cfg.BuildDir)
	}

	d.Logger.Info().
		Str("source", cfg.SourceDir).
		Str("build", cfg.BuildDir).
		Str("type", cfg.BuildType).
		Msg("configuring")
	if err := d.Runner.Run(ctx, cfg.BuildDir, cfg.binary(), cfg.ConfigureArgs()...); err != nil {
		return "", fmt.Errorf("cmake configure: %w", err)
	}

	d.Logger.Info().Int("jobs", cfg.Jobs).Msg("building")
	if err := d.Runner.Run(ctx, cfg.BuildDir, cfg.binary(), cfg.BuildArgs()...); err != nil {
		return "", fmt.Errorf("cmake build: %w", err)
	}
	return cfg.InstallPrefix, nil
}
