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

// Package darknet hosts the tooling that builds the darknet C library and
// links Go code against it.
//
// The darknetgen command stages a vendored darknet tree, builds it with
// CMake and writes two cgo files into a package directory:
// cgo_flags.gen.go with the include, search path and library directives,
// and bindings.gen.go with Go aliases, constants and wrappers generated from
// darknet.h. A package wrapping darknet typically carries
//
//	//go:generate go run github.com/ajroetker/go-darknet/cmd/darknetgen build --out . --features enable-openmp
//
// and commits neither generated file. Settings come from flags, DARKNET_*
// environment variables and an optional darknet.yaml in the module root;
// see darknet.example.yaml.
package darknet
