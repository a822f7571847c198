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

// Package cgoflags turns resolved link directives into a Go source file
// carrying the matching #cgo CFLAGS and LDFLAGS.
package cgoflags

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/samber/lo"
	"golang.org/x/tools/imports"

	"github.com/ajroetker/go-darknet/internal/buildcfg"
)

// FileName is the name of the generated flags file.
const FileName = "cgo_flags.gen.go"

// Header marks every file darknetgen writes as generated.
const Header = "// Code generated by darknetgen. DO NOT EDIT."

// DefaultPackage is used when no package name is given.
const DefaultPackage = "darknet"

// CFlags returns the compiler flags for d: include directories, then the
// macros the library was built with.
func CFlags(d buildcfg.Directives) []string {
	flags := lo.Map(lo.Uniq(d.IncludeDirs), func(dir string, _ int) string {
		return quote("-I" + dir)
	})
	for _, m := range lo.Uniq(d.Defines) {
		flags = append(flags, quote("-D"+m))
	}
	return flags
}

// LDFlags returns the linker flags for d: search paths, then libraries in
// link order, then runtime search paths.
func LDFlags(d buildcfg.Directives) []string {
	var flags []string
	for _, dir := range lo.Uniq(d.SearchPaths) {
		flags = append(flags, quote("-L"+dir))
	}
	// A static build only produces the archive, so -l resolves to it
	// without any linker-specific syntax.
	libs := lo.UniqBy(d.Libs, func(l buildcfg.Lib) string { return l.Name })
	for _, l := range libs {
		flags = append(flags, "-l"+l.Name)
	}
	for _, dir := range lo.Uniq(d.RPaths) {
		flags = append(flags, quote("-Wl,-rpath,"+dir))
	}
	return flags
}

// Render returns the formatted source of the flags file for package pkg.
func Render(d buildcfg.Directives, pkg string) ([]byte, error) {
	if pkg == "" {
		pkg = DefaultPackage
	}
	var buf bytes.Buffer
	fmt.Fprintln(&buf, Header)
	fmt.Fprintln(&buf)
	if d.GOOS != "" && d.GOARCH != "" {
		fmt.Fprintf(&buf, "//go:build %s && %s\n\n", d.GOOS, d.GOARCH)
	}
	fmt.Fprintf(&buf, "package %s\n\n", pkg)

	if linked := staticLibs(d); len(linked) > 0 {
		fmt.Fprintf(&buf, "// Linked statically: %s.\n\n", strings.Join(linked, ", "))
	}
	fmt.Fprintln(&buf, "/*")
	if cflags := CFlags(d); len(cflags) > 0 {
		fmt.Fprintf(&buf, "#cgo CFLAGS: %s\n", strings.Join(cflags, " "))
	}
	if ldflags := LDFlags(d); len(ldflags) > 0 {
		fmt.Fprintf(&buf, "#cgo LDFLAGS: %s\n", strings.Join(ldflags, " "))
	}
	fmt.Fprintln(&buf, "*/")
	fmt.Fprintln(&buf, `import "C"`)

	out, err := imports.Process(FileName, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", FileName, err)
	}
	return out, nil
}

// Write renders d and atomically replaces dir/cgo_flags.gen.go. It returns
// the path written.
func Write(dir, pkg string, d buildcfg.Directives) (string, error) {
	src, err := Render(d, pkg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := renameio.WriteFile(path, src, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func staticLibs(d buildcfg.Directives) []string {
	static := lo.Filter(d.Libs, func(l buildcfg.Lib, _ int) bool { return l.Kind == buildcfg.LinkStatic })
	return lo.Map(static, func(l buildcfg.Lib, _ int) string { return l.Name })
}

// quote protects arguments containing spaces; cgo splits #cgo lines with
// shell-like quoting rules.
func quote(s string) string {
	if strings.ContainsAny(s, " \t'\"") {
		return strconv.Quote(s)
	}
	return s
}
