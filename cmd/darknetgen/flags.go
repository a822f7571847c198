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

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-darknet/internal/buildcfg"
	"github.com/ajroetker/go-darknet/internal/cgoflags"
	"github.com/ajroetker/go-darknet/internal/log"
)

func newFlagsCmd(g *globalOptions) *cobra.Command {
	var (
		flags  settingsFlags
		render bool
	)
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Print the CMake definitions and link directives without building",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(g, flags.overrides(cmd))
			if err != nil {
				return err
			}
			profile := buildcfg.ResolveProfile(s.Profile, s.OptLevel, s.DebugInfo, log.WithComponent("profile"))
			plan := buildcfg.Translate(s, profile, g.detectHost())

			out := cmd.OutOrStdout()
			if render {
				src, err := cgoflags.Render(plan.Directives, s.Package)
				if err != nil {
					return err
				}
				_, err = out.Write(src)
				return err
			}
			fmt.Fprintf(out, "mode=%s\n", plan.Mode)
			for _, d := range plan.Defines {
				fmt.Fprintf(out, "define %s\n", d)
			}
			for _, line := range plan.Directives.Lines() {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&render, "go", false, "print the "+cgoflags.FileName+" contents instead")
	return cmd
}

func newProfileCmd(g *globalOptions) *cobra.Command {
	var flags settingsFlags
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the resolved CMake build type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(g, flags.overrides(cmd))
			if err != nil {
				return err
			}
			profile := buildcfg.ResolveProfile(s.Profile, s.OptLevel, s.DebugInfo, log.WithComponent("profile"))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", profile, profile.LibraryName())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
