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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-darknet/internal/bindgen"
	"github.com/ajroetker/go-darknet/internal/buildcfg"
	"github.com/ajroetker/go-darknet/internal/log"
)

func newBindgenCmd(g *globalOptions) *cobra.Command {
	var (
		flags   settingsFlags
		header  string
		defines []string
	)
	cmd := &cobra.Command{
		Use:   "bindgen",
		Short: "Generate bindings.gen.go from the darknet header",
		Long: `Bindgen parses darknet.h from the include directory and writes Go
aliases, constants and wrappers to bindings.gen.go in the package directory.
No native code is built. Backend macros (GPU, CUDNN, OPENCV) follow the
selected features; --define adds more.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(g, flags.overrides(cmd))
			if err != nil {
				return err
			}
			if s.PkgDir == "" {
				return fmt.Errorf("package directory not set: use --pkg-dir or --out")
			}
			if err := os.MkdirAll(s.PkgDir, 0o755); err != nil {
				return err
			}
			profile := buildcfg.ResolveProfile(s.Profile, s.OptLevel, s.DebugInfo, log.WithComponent("profile"))
			plan := buildcfg.Translate(s, profile, g.detectHost())
			path, err := bindgen.Generate(cmd.Context(), filepath.Join(s.IncludeDir, header), s.PkgDir, s.Package,
				headerOptions(s, plan, defines))
			if err != nil {
				return fmt.Errorf("generate bindings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&header, "header", headerName, "header file name inside the include directory")
	cmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "preprocessor macro NAME or NAME=VALUE (repeatable)")
	return cmd
}
