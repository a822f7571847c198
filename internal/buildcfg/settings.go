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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvOutDir            = "DARKNET_OUT_DIR"
	EnvSource            = "DARKNET_SRC"
	EnvIncludePath       = "DARKNET_INCLUDE_PATH"
	EnvBindingsSrc       = "DARKNET_BINDINGS_SRC"
	EnvLibDir            = "DARKNET_LIB_DIR"
	EnvFeatures          = "DARKNET_FEATURES"
	EnvProfile           = "DARKNET_PROFILE"
	EnvOptLevel          = "DARKNET_OPT_LEVEL"
	EnvDebug             = "DARKNET_DEBUG"
	EnvPackage           = "DARKNET_PACKAGE"
	EnvJobs              = "DARKNET_JOBS"
	EnvCUDAPath          = "CUDA_PATH"
	EnvCUDAArchitectures = "CUDA_ARCHITECTURES"
	EnvCMake             = "CMAKE"
	EnvCMakeGenerator    = "CMAKE_GENERATOR"
	EnvGOOS              = "GOOS"
	EnvGOARCH            = "GOARCH"
)

// WatchedEnv lists every environment variable that influences a build.
// A change in any of them invalidates the build stamp.
var WatchedEnv = []string{
	EnvOutDir, EnvSource, EnvIncludePath, EnvBindingsSrc, EnvLibDir,
	EnvFeatures, EnvProfile, EnvOptLevel, EnvDebug, EnvPackage,
	EnvCUDAPath, EnvCUDAArchitectures, EnvCMake, EnvCMakeGenerator,
	EnvGOOS, EnvGOARCH,
}

// DefaultConfigName is looked up in the module root when no config file
// is given explicitly.
const DefaultConfigName = "darknet.yaml"

// Settings is the fully resolved configuration of one invocation.
type Settings struct {
	ModuleRoot  string
	SourceDir   string // vendored darknet tree
	IncludeDir  string // directory holding darknet.h (runtime mode)
	OutDir      string // build output; required for builds
	PkgDir      string // where generated Go files go; defaults to OutDir
	Package     string // Go package name of generated files
	BindingsSrc string // prebuilt bindings file (runtime mode)
	LibDir      string // system library directory (runtime mode)

	Features Features

	Profile   string
	OptLevel  string
	DebugInfo string

	CUDAPath          string
	CUDAArchitectures string

	CMake          string
	CMakeGenerator string
	Jobs           int

	GOOS   string
	GOARCH string
}

// BuildDir is the CMake binary directory; the library lands here.
func (s *Settings) BuildDir() string { return filepath.Join(s.OutDir, "build") }

// StagedSourceDir is where the vendored tree is copied before building.
func (s *Settings) StagedSourceDir() string { return filepath.Join(s.OutDir, "darknet") }

// RequireOutDir fails when no output directory was configured.
func (s *Settings) RequireOutDir() error {
	if s.OutDir == "" {
		return fmt.Errorf("output directory not set: use --out or %s", EnvOutDir)
	}
	return nil
}

// FileConfig is the on-disk YAML configuration. Relative paths are
// resolved against the directory of the file.
type FileConfig struct {
	Source    string   `yaml:"source"`
	Include   string   `yaml:"include"`
	Out       string   `yaml:"out"`
	PkgDir    string   `yaml:"pkg_dir"`
	Package   string   `yaml:"package"`
	Bindings  string   `yaml:"bindings"`
	LibDir    string   `yaml:"lib_dir"`
	Features  []string `yaml:"features"`
	Profile   string   `yaml:"profile"`
	OptLevel  string   `yaml:"opt_level"`
	DebugInfo string   `yaml:"debug_info"`
	CUDA      struct {
		Path          string `yaml:"path"`
		Architectures string `yaml:"architectures"`
	} `yaml:"cuda"`
	CMake struct {
		Binary    string `yaml:"binary"`
		Generator string `yaml:"generator"`
		Jobs      int    `yaml:"jobs"`
	} `yaml:"cmake"`
}

// ReadFileConfig parses a YAML config file, rejecting unknown keys.
func ReadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for _, p := range []*string{&fc.Source, &fc.Include, &fc.Out, &fc.PkgDir, &fc.Bindings, &fc.LibDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return &fc, nil
}

// Overrides are command-line values; empty fields are unset.
type Overrides struct {
	OutDir      string
	SourceDir   string
	IncludeDir  string
	PkgDir      string
	Package     string
	BindingsSrc string
	Features    []string // nil means unset
	Profile     string
	OptLevel    string
	DebugInfo   string
	Jobs        int
}

// LoadOptions configures Load.
type LoadOptions struct {
	WorkDir    string // defaults to the process working directory
	ConfigPath string // explicit config file; must exist when set
	Lookup     func(string) (string, bool)
	Overrides  Overrides
	Logger     zerolog.Logger
}

// Load resolves Settings from defaults, the config file, the environment
// and overrides, in increasing order of precedence.
func Load(opts LoadOptions) (*Settings, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workDir = wd
	}

	root, err := FindModuleRoot(workDir)
	if err != nil {
		opts.Logger.Debug().Str("dir", workDir).Msg("no go.mod found; using working directory as module root")
		root = workDir
	}

	s := &Settings{
		ModuleRoot:  root,
		SourceDir:   filepath.Join(root, "darknet"),
		IncludeDir:  filepath.Join(root, "darknet", "include"),
		BindingsSrc: filepath.Join(root, "bindings", "bindings.gen.go"),
		CMake:       "cmake",
		Jobs:        runtime.NumCPU(),
		GOOS:        runtime.GOOS,
		GOARCH:      runtime.GOARCH,
	}
	var features []string

	configPath := opts.ConfigPath
	if configPath == "" {
		candidate := filepath.Join(root, DefaultConfigName)
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
		}
	}
	if configPath != "" {
		fc, err := ReadFileConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		opts.Logger.Debug().Str("path", configPath).Msg("loaded config file")
		setString(&s.SourceDir, fc.Source)
		setString(&s.IncludeDir, fc.Include)
		setString(&s.OutDir, fc.Out)
		setString(&s.PkgDir, fc.PkgDir)
		setString(&s.Package, fc.Package)
		setString(&s.BindingsSrc, fc.Bindings)
		setString(&s.LibDir, fc.LibDir)
		setString(&s.Profile, fc.Profile)
		setString(&s.OptLevel, fc.OptLevel)
		setString(&s.DebugInfo, fc.DebugInfo)
		setString(&s.CUDAPath, fc.CUDA.Path)
		setString(&s.CUDAArchitectures, fc.CUDA.Architectures)
		setString(&s.CMake, fc.CMake.Binary)
		setString(&s.CMakeGenerator, fc.CMake.Generator)
		if fc.CMake.Jobs > 0 {
			s.Jobs = fc.CMake.Jobs
		}
		if fc.Features != nil {
			features = fc.Features
		}
	}

	setString(&s.OutDir, absFrom(workDir, env(EnvOutDir)))
	setString(&s.SourceDir, absFrom(workDir, env(EnvSource)))
	setString(&s.IncludeDir, absFrom(workDir, env(EnvIncludePath)))
	setString(&s.BindingsSrc, absFrom(workDir, env(EnvBindingsSrc)))
	setString(&s.LibDir, absFrom(workDir, env(EnvLibDir)))
	setString(&s.Package, env(EnvPackage))
	setString(&s.Profile, env(EnvProfile))
	setString(&s.OptLevel, env(EnvOptLevel))
	setString(&s.DebugInfo, env(EnvDebug))
	setString(&s.CUDAPath, env(EnvCUDAPath))
	setString(&s.CUDAArchitectures, env(EnvCUDAArchitectures))
	setString(&s.CMake, env(EnvCMake))
	setString(&s.CMakeGenerator, env(EnvCMakeGenerator))
	setString(&s.GOOS, env(EnvGOOS))
	setString(&s.GOARCH, env(EnvGOARCH))
	if v := env(EnvFeatures); v != "" {
		features = SplitFeatures(v)
	}
	if v := env(EnvJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			opts.Logger.Warn().Msgf("unknown %s=%s; defaulting to %d.", EnvJobs, v, s.Jobs)
		} else {
			s.Jobs = n
		}
	}

	o := opts.Overrides
	setString(&s.OutDir, absFrom(workDir, o.OutDir))
	setString(&s.SourceDir, absFrom(workDir, o.SourceDir))
	setString(&s.IncludeDir, absFrom(workDir, o.IncludeDir))
	setString(&s.PkgDir, absFrom(workDir, o.PkgDir))
	setString(&s.BindingsSrc, absFrom(workDir, o.BindingsSrc))
	setString(&s.Package, o.Package)
	setString(&s.Profile, o.Profile)
	setString(&s.OptLevel, o.OptLevel)
	setString(&s.DebugInfo, o.DebugInfo)
	if o.Features != nil {
		features = o.Features
	}
	if o.Jobs > 0 {
		s.Jobs = o.Jobs
	}

	if s.PkgDir == "" {
		s.PkgDir = s.OutDir
	}
	if s.Package == "" && s.PkgDir != "" {
		s.Package = PackageName(s.PkgDir)
	}
	s.Features = ParseFeatures(features, opts.Logger)
	return s, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func absFrom(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// FindModuleRoot walks up from dir to the directory holding go.mod.
func FindModuleRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found: %w", fs.ErrNotExist)
		}
		dir = parent
	}
}

// PackageName derives a Go package name from a directory path, the way
// the go tool names a package after its directory.
func PackageName(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	base := filepath.Base(dir)
	base = strings.ToLower(strings.NewReplacer("-", "_", ".", "_").Replace(base))
	if base == "" || base == string(filepath.Separator) || (base[0] >= '0' && base[0] <= '9') {
		return "darknet"
	}
	return base
}
