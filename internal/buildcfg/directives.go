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
	"github.com/samber/lo"
)

// LinkKind says how a library is linked.
type LinkKind string

const (
	LinkDefault LinkKind = ""
	LinkStatic  LinkKind = "static"
	LinkDynamic LinkKind = "dylib"
)

// Lib is one library to link against.
type Lib struct {
	Kind LinkKind
	Name string
}

func (l Lib) String() string {
	if l.Kind == LinkDefault {
		return l.Name
	}
	return string(l.Kind) + "=" + l.Name
}

// Directives is everything the Go toolchain needs to compile against and
// link the native library.
type Directives struct {
	GOOS        string
	GOARCH      string
	IncludeDirs []string
	Defines     []string // preprocessor macros the library was built with
	SearchPaths []string
	Libs        []Lib
	RPaths      []string
}

func (d *Directives) addInclude(dir string) { d.IncludeDirs = append(d.IncludeDirs, dir) }
func (d *Directives) addDefine(m string)    { d.Defines = append(d.Defines, m) }
func (d *Directives) addSearch(dir string)  { d.SearchPaths = append(d.SearchPaths, dir) }
func (d *Directives) addRPath(dir string)   { d.RPaths = append(d.RPaths, dir) }

func (d *Directives) addLib(kind LinkKind, names ...string) {
	for _, n := range names {
		d.Libs = append(d.Libs, Lib{Kind: kind, Name: n})
	}
}

// Normalize drops duplicates, keeping the first occurrence of each entry.
func (d *Directives) Normalize() {
	d.IncludeDirs = lo.Uniq(d.IncludeDirs)
	d.Defines = lo.Uniq(d.Defines)
	d.SearchPaths = lo.Uniq(d.SearchPaths)
	d.RPaths = lo.Uniq(d.RPaths)
	d.Libs = lo.UniqBy(d.Libs, func(l Lib) string { return l.Name })
}

// Lines renders the directives one per line, for humans and scripts.
func (d Directives) Lines() []string {
	var lines []string
	for _, dir := range d.IncludeDirs {
		lines = append(lines, "include="+dir)
	}
	for _, m := range d.Defines {
		lines = append(lines, "macro="+m)
	}
	for _, dir := range d.SearchPaths {
		lines = append(lines, "link-search="+dir)
	}
	for _, l := range d.Libs {
		lines = append(lines, "link-lib="+l.String())
	}
	for _, dir := range d.RPaths {
		lines = append(lines, "rpath="+dir)
	}
	return lines
}

// LibraryFile returns the file name a linker resolves -l<name> to for the
// given link kind on goos.
func LibraryFile(name string, kind LinkKind, goos string) string {
	if goos == "windows" {
		if kind == LinkDynamic {
			return name + ".dll"
		}
		return name + ".lib"
	}
	if kind != LinkDynamic {
		return "lib" + name + ".a"
	}
	if goos == "darwin" || goos == "ios" {
		return "lib" + name + ".dylib"
	}
	return "lib" + name + ".so"
}
