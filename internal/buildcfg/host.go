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
	"runtime"

	"golang.org/x/sys/cpu"
)

// Host describes the machine darknetgen runs on.
type Host struct {
	GOOS   string
	GOARCH string
	NumCPU int

	// x86 features darknet's SSE/AVX code paths rely on.
	HasSSE41 bool
	HasAVX   bool
	HasAVX2  bool
	HasFMA   bool

	// arm64 baseline SIMD.
	HasASIMD bool
}

// DetectHost reports the running machine.
func DetectHost() Host {
	return Host{
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
		NumCPU:   runtime.NumCPU(),
		HasSSE41: cpu.X86.HasSSE41,
		HasAVX:   cpu.X86.HasAVX,
		HasAVX2:  cpu.X86.HasAVX2,
		HasFMA:   cpu.X86.HasFMA,
		HasASIMD: cpu.ARM64.HasASIMD,
	}
}

// AVXFlags reports whether darknet's SSE/AVX compiler flags are safe for a
// goos/goarch target. They are only enabled for a native amd64 build on a
// CPU that has AVX; cross builds never get them.
func (h Host) AVXFlags(goos, goarch string) bool {
	return goarch == "amd64" && goos == h.GOOS && goarch == h.GOARCH && h.HasAVX
}
