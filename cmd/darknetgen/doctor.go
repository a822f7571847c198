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
	"io"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-darknet/internal/buildcfg"
)

// lookPath is swapped out by tests.
var lookPath = exec.LookPath

// doctorTools are the external programs a build may need.
var doctorTools = []struct {
	name string
	role string
}{
	{"cmake", "required for source builds"},
	{"cc", "C compiler; required by cgo and bindgen"},
	{"nvcc", "needed for enable-cuda"},
}

func newDoctorCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Print host diagnostics relevant to building darknet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printDoctor(cmd.OutOrStdout(), g.detectHost(), g.env)
			return nil
		},
	}
}

func printDoctor(w io.Writer, h buildcfg.Host, env func(string) (string, bool)) {
	fmt.Fprintf(w, "GOOS: %s\n", h.GOOS)
	fmt.Fprintf(w, "GOARCH: %s\n", h.GOARCH)
	fmt.Fprintf(w, "NumCPU: %d\n", h.NumCPU)
	fmt.Fprintln(w)

	switch h.GOARCH {
	case "arm64":
		fmt.Fprintln(w, "=== arm64 ===")
		fmt.Fprintf(w, "  HasASIMD: %v (NEON baseline)\n", h.HasASIMD)
	case "amd64":
		fmt.Fprintln(w, "=== amd64 ===")
		fmt.Fprintf(w, "  HasSSE41: %v\n", h.HasSSE41)
		fmt.Fprintf(w, "  HasAVX:   %v\n", h.HasAVX)
		fmt.Fprintf(w, "  HasAVX2:  %v\n", h.HasAVX2)
		fmt.Fprintf(w, "  HasFMA:   %v\n", h.HasFMA)
	}
	fmt.Fprintf(w, "SSE/AVX flags for native build: %v\n", h.AVXFlags(h.GOOS, h.GOARCH))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== tools ===")
	for _, t := range doctorTools {
		name := t.name
		if t.name == "cmake" {
			if v, ok := env(buildcfg.EnvCMake); ok && v != "" {
				name = v
			}
		}
		path, err := lookPath(name)
		if err != nil {
			fmt.Fprintf(w, "  %-6s missing (%s)\n", t.name, t.role)
			continue
		}
		fmt.Fprintf(w, "  %-6s %s\n", t.name, path)
	}

	cuda := buildcfg.DefaultCUDAPath
	if v, ok := env(buildcfg.EnvCUDAPath); ok && v != "" {
		cuda = v
	}
	fmt.Fprintf(w, "CUDA libraries: %s\n", buildcfg.CUDALibDir(cuda, h.GOOS))
}
