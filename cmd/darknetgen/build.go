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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-darknet/internal/bindgen"
	"github.com/ajroetker/go-darknet/internal/buildcfg"
	"github.com/ajroetker/go-darknet/internal/cgoflags"
	"github.com/ajroetker/go-darknet/internal/cmake"
	"github.com/ajroetker/go-darknet/internal/log"
	"github.com/ajroetker/go-darknet/internal/stage"
	"github.com/ajroetker/go-darknet/internal/stamp"
)

// headerName is darknet's public header inside its include directory.
const headerName = "darknet.h"

func newBuildCmd(g *globalOptions) *cobra.Command {
	var (
		flags settingsFlags
		force bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build darknet and write the cgo flags and bindings files",
		Long: `Build stages the vendored darknet tree into <out>/darknet, configures,
builds and installs it with CMake, then writes cgo_flags.gen.go and
bindings.gen.go into the package directory.

With the "runtime" feature nothing is compiled: the flags file links a
system-installed library and the bindings are copied from a prebuilt file,
or generated from the installed header with "buildtime-bindgen".
With the "docs" feature the command does nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(g, flags.overrides(cmd))
			if err != nil {
				return err
			}
			b := &builder{
				settings: s,
				host:     g.detectHost(),
				runner:   g.runner,
				env:      g.env,
				force:    force,
				logger:   log.WithComponent("build"),
			}
			return b.run(cmd.Context())
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "rebuild even when the build stamp is current")
	return cmd
}

// builder runs one build invocation.
type builder struct {
	settings *buildcfg.Settings
	host     buildcfg.Host
	runner   cmake.Runner // nil runs commands on the host
	env      func(string) (string, bool)
	force    bool
	logger   zerolog.Logger
}

func (b *builder) run(ctx context.Context) error {
	s := b.settings
	profile := buildcfg.ResolveProfile(s.Profile, s.OptLevel, s.DebugInfo, log.WithComponent("profile"))
	plan := buildcfg.Translate(s, profile, b.host)

	b.logger.Info().
		Str("mode", string(plan.Mode)).
		Str("profile", string(profile)).
		Strs("features", s.Features.Names()).
		Str("target", s.GOOS+"/"+s.GOARCH).
		Msg("resolved build")

	switch plan.Mode {
	case buildcfg.ModeDocs:
		b.logger.Info().Msg("documentation build; skipping native build and code generation")
		return nil
	case buildcfg.ModeRuntime:
		return b.runtime(ctx, plan)
	default:
		return b.source(ctx, plan)
	}
}

// source builds darknet from the vendored tree.
func (b *builder) source(ctx context.Context, plan buildcfg.Plan) error {
	s := b.settings
	if err := s.RequireOutDir(); err != nil {
		return err
	}
	library := plan.Library(s)
	fingerprint := b.inputs(plan).Fingerprint()

	upToDate, reason := stamp.UpToDate(s.OutDir, fingerprint)
	switch {
	case upToDate && !b.force:
		b.logger.Info().Str("library", library).Msg("build stamp is current; skipping native build")
	default:
		if upToDate {
			reason = "forced"
		}
		b.logger.Info().Str("reason", reason).Msg("building darknet")
		if err := b.native(ctx, plan); err != nil {
			return err
		}
		if _, err := os.Stat(library); err != nil {
			return fmt.Errorf("cmake did not produce %s: %w", library, err)
		}
		err := stamp.Save(s.OutDir, &stamp.Stamp{
			Fingerprint: fingerprint,
			Library:     library,
			Features:    s.Features.Names(),
			Profile:     string(plan.Profile),
			Target:      s.GOOS + "/" + s.GOARCH,
			BuiltAt:     time.Now().UTC(),
		})
		if err != nil {
			return err
		}
	}

	if err := b.writeFlags(plan); err != nil {
		return err
	}
	header := filepath.Join(s.StagedSourceDir(), "include", headerName)
	return b.generateBindings(ctx, plan, header)
}

// native stages the source tree and runs CMake.
func (b *builder) native(ctx context.Context, plan buildcfg.Plan) error {
	s := b.settings
	// The stamp describes the previous tree; drop it until this build succeeds.
	if err := stamp.Remove(s.OutDir); err != nil {
		return err
	}

	st, err := stage.Copy(s.SourceDir, s.StagedSourceDir(), stage.Options{
		RemoveFirst: true,
		Logger:      log.WithComponent("stage"),
	})
	if err != nil {
		return err
	}
	b.logger.Info().
		Int("dirs", st.Dirs).
		Int("files", st.Files).
		Str("to", s.StagedSourceDir()).
		Msg("staged source")

	driver := cmake.NewDriver(log.WithComponent("cmake"))
	if b.runner != nil {
		driver.Runner = b.runner
	}
	prefix, err := driver.Build(ctx, cmake.Config{
		Binary:        s.CMake,
		SourceDir:     s.StagedSourceDir(),
		BuildDir:      s.BuildDir(),
		InstallPrefix: s.OutDir,
		BuildType:     string(plan.Profile),
		Generator:     s.CMakeGenerator,
		Jobs:          s.Jobs,
		Defines:       plan.Defines,
	})
	if err != nil {
		return err
	}
	b.logger.Info().Str("prefix", prefix).Msg("installed darknet")
	return nil
}

// runtime links a system-installed darknet.
func (b *builder) runtime(ctx context.Context, plan buildcfg.Plan) error {
	s := b.settings
	if s.PkgDir == "" {
		return fmt.Errorf("package directory not set: use --pkg-dir, --out or %s", buildcfg.EnvOutDir)
	}
	if err := b.writeFlags(plan); err != nil {
		return err
	}
	if s.Features.BuildtimeBindgen {
		return b.generateBindings(ctx, plan, filepath.Join(s.IncludeDir, headerName))
	}
	dst := filepath.Join(s.PkgDir, bindgen.FileName)
	if err := bindgen.CopyPrebuilt(s.BindingsSrc, dst); err != nil {
		return err
	}
	b.logger.Info().Str("from", s.BindingsSrc).Str("to", dst).Msg("copied prebuilt bindings")
	return nil
}

func (b *builder) writeFlags(plan buildcfg.Plan) error {
	s := b.settings
	if err := os.MkdirAll(s.PkgDir, 0o755); err != nil {
		return err
	}
	path, err := cgoflags.Write(s.PkgDir, s.Package, plan.Directives)
	if err != nil {
		return err
	}
	b.logger.Info().Str("path", path).Msg("wrote cgo flags")
	return nil
}

func (b *builder) generateBindings(ctx context.Context, plan buildcfg.Plan, header string) error {
	s := b.settings
	_, err := bindgen.Generate(ctx, header, s.PkgDir, s.Package, headerOptions(s, plan, nil))
	if err != nil {
		return fmt.Errorf("generate bindings: %w", err)
	}
	return nil
}

// headerOptions parses the header the way cgo will compile it: with the
// plan's include directories and backend macros, plus extra defines.
func headerOptions(s *buildcfg.Settings, plan buildcfg.Plan, extra []string) bindgen.Options {
	return bindgen.Options{
		GOOS:         s.GOOS,
		GOARCH:       s.GOARCH,
		IncludePaths: plan.Directives.IncludeDirs,
		Defines:      lo.Uniq(append(slices.Clone(plan.Directives.Defines), extra...)),
		Logger:       log.WithComponent("bindgen"),
	}
}

// inputs collects everything the native build depends on.
func (b *builder) inputs(plan buildcfg.Plan) stamp.Inputs {
	env := map[string]string{}
	for _, key := range buildcfg.WatchedEnv {
		if v, ok := b.env(key); ok {
			env[key] = v
		}
	}
	s := b.settings
	return stamp.Inputs{
		Env:      env,
		Features: s.Features.Names(),
		Profile:  string(plan.Profile),
		GOOS:     s.GOOS,
		GOARCH:   s.GOARCH,
		Defines:  lo.Map(plan.Defines, func(d cmake.Define, _ int) string { return d.String() }),

		Source:    s.SourceDir,
		CMake:     s.CMake,
		Generator: s.CMakeGenerator,
	}
}
