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

// Package bindgen generates Go bindings for the public declarations of a C
// header. The header is parsed with modernc.org/cc/v4 into a small model
// (Header) which Emit renders as a cgo source file: type aliases for
// typedefs, constants for enumerators and constant macros, and thin
// wrappers for functions.
package bindgen

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Header is the bindable subset of a parsed C header.
type Header struct {
	// Path of the header, as included by the generated file.
	Path string

	Types     []TypeAlias
	Constants []Constant
	Functions []Function

	// Skipped lists declarations that have no binding, with the reason.
	Skipped []Skipped
}

// TypeAlias binds a C typedef: type Name = C.CName.
type TypeAlias struct {
	Name  string
	CName string
}

// Constant binds an enumerator or constant macro: const Name = C.CName.
type Constant struct {
	Name  string
	CName string
}

// Param is one function parameter. Type is a Go type expression.
type Param struct {
	Name string
	Type string
}

// Function binds a C function through a wrapper that forwards its
// arguments. Result is empty for void functions.
type Function struct {
	Name   string
	CName  string
	Params []Param
	Result string
}

// Skipped is a declaration left out of the bindings.
type Skipped struct {
	CName  string
	Reason string
}

// UsesUnsafe reports whether any signature refers to unsafe.Pointer.
func (h *Header) UsesUnsafe() bool {
	for _, fn := range h.Functions {
		if strings.Contains(fn.Result, "unsafe.") {
			return true
		}
		for _, p := range fn.Params {
			if strings.Contains(p.Type, "unsafe.") {
				return true
			}
		}
	}
	return false
}

// GoName converts a C identifier to an exported Go name: load_network
// becomes LoadNetwork, LOGISTIC becomes Logistic and getNetwork becomes
// GetNetwork. It returns "" when nothing usable is left.
func GoName(cname string) string {
	titler := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.Split(cname, "_") {
		if part == "" {
			continue
		}
		if strings.ToUpper(part) == part {
			part = strings.ToLower(part)
		}
		b.WriteString(titler.String(part))
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		return ""
	}
	return name
}

// reservedParams would shadow identifiers the generated wrappers use.
var reservedParams = map[string]bool{"C": true, "unsafe": true}

// ParamName makes a C parameter name usable in Go. Unnamed parameters
// become argN, where N is the zero-based position.
func ParamName(cname string, index int) string {
	switch {
	case cname == "":
		return "arg" + strconv.Itoa(index)
	case token.IsKeyword(cname), reservedParams[cname]:
		return cname + "_"
	default:
		return cname
	}
}
