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
	"path/filepath"

	"github.com/ajroetker/go-darknet/internal/cmake"
)

// DefaultCUDAPath is used for link search paths when CUDA_PATH is unset.
const DefaultCUDAPath = "/usr/local/cuda"

// Plan is the resolved native build: CMake definitions plus the link
// directives for the library it produces.
type Plan struct {
	Mode       Mode
	Profile    Profile
	Defines    []cmake.Define
	Directives Directives
}

// Translate maps settings and a resolved profile to a Plan.
func Translate(s *Settings, profile Profile, host Host) Plan {
	f := s.Features
	p := Plan{
		Mode:    f.Mode(),
		Profile: profile,
		Defines: []cmake.Define{
			{Name: "CMAKE_BUILD_TYPE", Value: string(profile)},
			{Name: "CMAKE_CXX_STANDARD", Value: "11"},
			{Name: "BUILD_SHARED_LIBS", Value: cmake.OnOff(f.Dylib)},
			{Name: "ENABLE_CUDA", Value: cmake.OnOff(f.CUDA)},
			{Name: "ENABLE_CUDNN", Value: cmake.OnOff(f.CUDNN)},
			{Name: "ENABLE_OPENCV", Value: cmake.OnOff(f.OpenCV)},
			{Name: "ENABLE_OPENMP", Value: cmake.OnOff(f.OpenMP)},
			{Name: "ENABLE_SSE_AND_AVX_FLAGS", Value: cmake.OnOff(host.AVXFlags(s.GOOS, s.GOARCH))},
		},
		Directives: Directives{GOOS: s.GOOS, GOARCH: s.GOARCH},
	}
	if f.CUDA {
		if s.CUDAPath != "" {
			p.Defines = append(p.Defines, cmake.Define{Name: "CUDAToolkit_ROOT", Value: s.CUDAPath})
		}
		if s.CUDAArchitectures != "" {
			p.Defines = append(p.Defines, cmake.Define{Name: "CMAKE_CUDA_ARCHITECTURES", Value: s.CUDAArchitectures})
		}
	}

	d := &p.Directives
	if p.Mode == ModeRuntime {
		// Already installed: link by name, let the system find it.
		d.addInclude(s.IncludeDir)
		backendHeaders(d, s)
		if s.LibDir != "" {
			d.addSearch(s.LibDir)
			d.addRPath(s.LibDir)
		}
		d.addLib(LinkDynamic, "darknet")
		d.Normalize()
		return p
	}

	kind := LinkStatic
	if f.Dylib {
		kind = LinkDynamic
	}
	d.addInclude(filepath.Join(s.StagedSourceDir(), "include"))
	backendHeaders(d, s)
	d.addSearch(s.BuildDir())
	d.addLib(kind, profile.LibraryName())
	if f.Dylib {
		d.addRPath(s.BuildDir())
		d.Normalize()
		return p
	}

	// A static archive carries none of its dependencies.
	if f.OpenMP {
		d.addLib(LinkDefault, OpenMPLibrary(s.GOOS))
	}
	if f.CUDA {
		d.addSearch(CUDALibDir(s.CUDAPath, s.GOOS))
		d.addLib(LinkDefault, "cudart", "cublas", "curand")
		if f.CUDNN {
			d.addLib(LinkDefault, "cudnn")
		}
	}
	if f.OpenCV {
		d.addLib(LinkDefault, "opencv_core", "opencv_imgproc", "opencv_imgcodecs", "opencv_videoio", "opencv_highgui")
	}
	d.addLib(LinkDefault, CXXLibrary(s.GOOS))
	if s.GOOS == "linux" {
		d.addLib(LinkDefault, "m", "pthread")
	}
	d.Normalize()
	return p
}

// HeaderMacros returns the macros darknet.h expects for the enabled
// backends. darknet's CMake defines the same ones when it compiles the
// library, and they change the layout of its public structs.
func HeaderMacros(f Features) []string {
	var macros []string
	if f.CUDA {
		macros = append(macros, "GPU")
	}
	if f.CUDNN {
		macros = append(macros, "CUDNN")
	}
	if f.OpenCV {
		macros = append(macros, "OPENCV")
	}
	return macros
}

// backendHeaders adds the macros and header directories the public header
// needs once backends are enabled; with GPU defined it includes
// cuda_runtime.h.
func backendHeaders(d *Directives, s *Settings) {
	for _, m := range HeaderMacros(s.Features) {
		d.addDefine(m)
	}
	if s.Features.CUDA {
		d.addInclude(CUDAIncludeDir(s.CUDAPath))
	}
}

// CUDAIncludeDir returns the CUDA header directory below root.
func CUDAIncludeDir(root string) string {
	if root == "" {
		root = DefaultCUDAPath
	}
	return filepath.Join(root, "include")
}

// OpenMPLibrary names the OpenMP runtime a static link needs on goos.
// GCC ships libgomp; clang-based toolchains ship libomp.
func OpenMPLibrary(goos string) string {
	switch goos {
	case "darwin", "freebsd", "openbsd":
		return "omp"
	default:
		return "gomp"
	}
}

// CXXLibrary names the C++ standard library on goos.
func CXXLibrary(goos string) string {
	switch goos {
	case "darwin", "freebsd", "openbsd":
		return "c++"
	default:
		return "stdc++"
	}
}

// CUDALibDir returns the CUDA library directory below root.
func CUDALibDir(root, goos string) string {
	if root == "" {
		root = DefaultCUDAPath
	}
	switch goos {
	case "linux":
		return filepath.Join(root, "lib64")
	case "windows":
		return filepath.Join(root, "lib", "x64")
	default:
		return filepath.Join(root, "lib")
	}
}

// Library returns the path of the library a source build produces, or ""
// for the other modes.
func (p Plan) Library(s *Settings) string {
	if p.Mode != ModeSource {
		return ""
	}
	kind := LinkStatic
	if s.Features.Dylib {
		kind = LinkDynamic
	}
	return filepath.Join(s.BuildDir(), LibraryFile(p.Profile.LibraryName(), kind, s.GOOS))
}
