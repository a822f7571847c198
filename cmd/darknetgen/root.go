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

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-darknet/internal/buildcfg"
	"github.com/ajroetker/go-darknet/internal/cmake"
	"github.com/ajroetker/go-darknet/internal/log"
)

// logOutput overrides the log destination; nil means a console writer on
// stderr.
var logOutput io.Writer

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string

	// Test seams. Zero values mean the real environment, the host
	// machine, exec'd commands and the process working directory.
	lookup  func(string) (string, bool)
	host    *buildcfg.Host
	runner  cmake.Runner
	workDir string
}

func (g *globalOptions) env(key string) (string, bool) {
	if g.lookup != nil {
		return g.lookup(key)
	}
	return os.LookupEnv(key)
}

func (g *globalOptions) detectHost() buildcfg.Host {
	if g.host != nil {
		return *g.host
	}
	return buildcfg.DetectHost()
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&globalOptions{})
}

func newRootCmdWith(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "darknetgen",
		Short:         "Build darknet and generate the cgo files that link it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			log.Configure(log.Config{Level: g.logLevel, Output: logOutput})
		},
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: "+buildcfg.DefaultConfigName+" in the module root, if present)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (default: $LOG_LEVEL or info)")

	cmd.AddCommand(
		newBuildCmd(g),
		newBindgenCmd(g),
		newFlagsCmd(g),
		newProfileCmd(g),
		newDoctorCmd(g),
	)
	return cmd
}

// settingsFlags are the configuration flags accepted by the commands that
// resolve Settings.
type settingsFlags struct {
	out       string
	src       string
	include   string
	pkgDir    string
	pkg       string
	bindings  string
	features  []string
	profile   string
	optLevel  string
	debugInfo string
	jobs      int
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.out, "out", "", "output directory for the build tree and staged source ($"+buildcfg.EnvOutDir+")")
	fs.StringVar(&f.src, "src", "", "vendored darknet source tree ($"+buildcfg.EnvSource+")")
	fs.StringVar(&f.include, "include", "", "directory holding darknet.h for runtime builds ($"+buildcfg.EnvIncludePath+")")
	fs.StringVar(&f.pkgDir, "pkg-dir", "", "directory receiving the generated Go files (default: --out)")
	fs.StringVar(&f.pkg, "package", "", "package name of the generated Go files ($"+buildcfg.EnvPackage+")")
	fs.StringVar(&f.bindings, "bindings", "", "prebuilt bindings file for runtime builds ($"+buildcfg.EnvBindingsSrc+")")
	fs.StringSliceVar(&f.features, "features", nil, "comma separated features ($"+buildcfg.EnvFeatures+")")
	fs.StringVar(&f.profile, "profile", "", "build profile: debug, release or bench ($"+buildcfg.EnvProfile+")")
	fs.StringVar(&f.optLevel, "opt-level", "", "optimization level: 0-3, s or z ($"+buildcfg.EnvOptLevel+")")
	fs.StringVar(&f.debugInfo, "debug-info", "", "include debug info: true or false ($"+buildcfg.EnvDebug+")")
	fs.IntVar(&f.jobs, "jobs", 0, "parallel build jobs ($"+buildcfg.EnvJobs+", default: number of CPUs)")
}

func (f *settingsFlags) overrides(cmd *cobra.Command) buildcfg.Overrides {
	o := buildcfg.Overrides{
		OutDir:      f.out,
		SourceDir:   f.src,
		IncludeDir:  f.include,
		PkgDir:      f.pkgDir,
		Package:     f.pkg,
		BindingsSrc: f.bindings,
		Profile:     f.profile,
		OptLevel:    f.optLevel,
		DebugInfo:   f.debugInfo,
		Jobs:        f.jobs,
	}
	if cmd.Flags().Changed("features") {
		o.Features = f.features
		if o.Features == nil {
			o.Features = []string{}
		}
	}
	return o
}

func loadSettings(g *globalOptions, o buildcfg.Overrides) (*buildcfg.Settings, error) {
	return buildcfg.Load(buildcfg.LoadOptions{
		WorkDir:    g.workDir,
		ConfigPath: g.configPath,
		Lookup:     g.env,
		Overrides:  o,
		Logger:     log.WithComponent("config"),
	})
}
