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

package bindgen

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"modernc.org/cc/v4"
	mtoken "modernc.org/token"
)

// Options configures ParseHeader.
type Options struct {
	// GOOS and GOARCH select the target ABI; empty means the host.
	GOOS   string
	GOARCH string

	// IncludePaths are searched after the header's own directory.
	IncludePaths []string

	// Defines are passed to the preprocessor as NAME or NAME=VALUE.
	Defines []string

	Logger zerolog.Logger
}

// ParseHeader parses a C header and collects the declarations located in
// the header's directory. Declarations pulled in from system headers are
// ignored.
func ParseHeader(ctx context.Context, header string, opts Options) (*Header, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(header)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	dir := filepath.Dir(abs)

	cfg, err := cc.NewConfig(opts.GOOS, opts.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("configure C front end: %w", err)
	}
	cfg.EvalAllMacros = true
	cfg.IncludePaths = append(cfg.IncludePaths, dir)
	cfg.IncludePaths = append(cfg.IncludePaths, opts.IncludePaths...)
	cfg.SysIncludePaths = append(cfg.SysIncludePaths, dir)
	cfg.SysIncludePaths = append(cfg.SysIncludePaths, opts.IncludePaths...)

	var defines strings.Builder
	for _, d := range opts.Defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok {
			value = "1"
		}
		fmt.Fprintf(&defines, "#define %s %s\n", name, value)
	}

	sources := []cc.Source{
		{Name: "<predefined>", Value: cfg.Predefined},
		{Name: "<builtin>", Value: cc.Builtin},
	}
	if defines.Len() > 0 {
		sources = append(sources, cc.Source{Name: "<defines>", Value: defines.String()})
	}
	sources = append(sources, cc.Source{Name: abs})

	opts.Logger.Debug().Str("header", abs).Str("cc", cfg.CC).Msg("parsing header")
	ast, err := cc.Translate(cfg, sources)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", abs, err)
	}

	c := &collector{dir: dir, logger: opts.Logger, typedefs: map[string]string{}, skippedTypes: map[string]bool{}}
	c.collect(ast)
	h := c.header()
	h.Path = abs
	opts.Logger.Info().
		Int("types", len(h.Types)).
		Int("constants", len(h.Constants)).
		Int("functions", len(h.Functions)).
		Int("skipped", len(h.Skipped)).
		Msg("parsed header")
	return h, nil
}

type decl struct {
	pos   mtoken.Position
	cname string
	kind  int // declType, declConst or declFunc
	node  any
}

const (
	declType = iota
	declConst
	declFunc
)

type collector struct {
	dir    string
	logger zerolog.Logger

	decls []decl

	typedefs     map[string]string // C typedef name -> Go alias name
	skippedTypes map[string]bool
}

func (c *collector) local(pos mtoken.Position) bool {
	if pos.Filename == "" {
		return false
	}
	rel, err := filepath.Rel(c.dir, pos.Filename)
	return err == nil && !strings.HasPrefix(rel, "..")
}

func (c *collector) collect(ast *cc.AST) {
	for name, nodes := range ast.Scope.Nodes {
		for _, n := range nodes {
			switch x := n.(type) {
			case *cc.Declarator:
				if !c.local(x.Position()) {
					continue
				}
				switch {
				case x.IsTypename():
					c.decls = append(c.decls, decl{pos: x.Position(), cname: name, kind: declType, node: x})
				case x.Type().Kind() == cc.Function:
					c.decls = append(c.decls, decl{pos: x.Position(), cname: name, kind: declFunc, node: x})
				default:
					continue
				}
			case *cc.Enumerator:
				if !c.local(x.Position()) {
					continue
				}
				c.decls = append(c.decls, decl{pos: x.Position(), cname: name, kind: declConst, node: x})
			default:
				continue
			}
			break // first matching declaration of a name wins
		}
	}
	for name, m := range ast.Macros {
		if m.IsFnLike || !m.IsConst || !c.local(m.Name.Position()) {
			continue
		}
		switch m.Value().(type) {
		case cc.Int64Value, cc.UInt64Value, cc.Float64Value:
			c.decls = append(c.decls, decl{pos: m.Name.Position(), cname: name, kind: declConst, node: m})
		}
	}

	slices.SortFunc(c.decls, func(a, b decl) int {
		return cmp.Or(
			cmp.Compare(a.pos.Filename, b.pos.Filename),
			cmp.Compare(a.pos.Line, b.pos.Line),
			cmp.Compare(a.pos.Column, b.pos.Column),
			cmp.Compare(a.cname, b.cname),
		)
	})
}

// header resolves the collected declarations in source order. Typedefs are
// resolved first so that function signatures can refer to their aliases.
func (c *collector) header() *Header {
	h := &Header{}
	used := map[string]string{} // Go name -> C name

	claim := func(cname string) (string, bool) {
		name := GoName(cname)
		if name == "" {
			h.Skipped = append(h.Skipped, Skipped{CName: cname, Reason: "no valid Go name"})
			return "", false
		}
		if prev, ok := used[name]; ok {
			h.Skipped = append(h.Skipped, Skipped{CName: cname, Reason: fmt.Sprintf("name %s already used by %s", name, prev)})
			return "", false
		}
		used[name] = cname
		return name, true
	}

	for _, d := range c.decls {
		if d.kind != declType {
			continue
		}
		t := d.node.(*cc.Declarator).Type()
		if reason := unsupportedTypedef(t); reason != "" {
			c.skippedTypes[d.cname] = true
			h.Skipped = append(h.Skipped, Skipped{CName: d.cname, Reason: reason})
			continue
		}
		name, ok := claim(d.cname)
		if !ok {
			c.skippedTypes[d.cname] = true
			continue
		}
		c.typedefs[d.cname] = name
		h.Types = append(h.Types, TypeAlias{Name: name, CName: d.cname})
	}

	for _, d := range c.decls {
		switch d.kind {
		case declConst:
			if name, ok := claim(d.cname); ok {
				h.Constants = append(h.Constants, Constant{Name: name, CName: d.cname})
			}
		case declFunc:
			ft, ok := d.node.(*cc.Declarator).Type().(*cc.FunctionType)
			if !ok {
				h.Skipped = append(h.Skipped, Skipped{CName: d.cname, Reason: "function declared through a typedef"})
				continue
			}
			fn, err := c.function(d.cname, ft)
			if err != nil {
				h.Skipped = append(h.Skipped, Skipped{CName: d.cname, Reason: err.Error()})
				continue
			}
			name, ok := claim(d.cname)
			if !ok {
				continue
			}
			fn.Name = name
			h.Functions = append(h.Functions, fn)
		}
	}
	for _, s := range h.Skipped {
		c.logger.Debug().Str("decl", s.CName).Str("reason", s.Reason).Msg("skipping declaration")
	}
	return h
}

func (c *collector) function(cname string, ft *cc.FunctionType) (Function, error) {
	fn := Function{CName: cname}
	if ft.IsVariadic() {
		return fn, errors.New("variadic function")
	}
	if ft.Result().Kind() != cc.Void || ft.Result().Typedef() != nil {
		res, err := c.goType(ft.Result())
		if err != nil {
			return fn, fmt.Errorf("result: %w", err)
		}
		fn.Result = res
	}
	seen := map[string]bool{}
	for i, p := range ft.Parameters() {
		t := p.Type()
		if t.Kind() == cc.Void && len(ft.Parameters()) == 1 {
			break // f(void)
		}
		typ, err := c.goType(t.Decay())
		if err != nil {
			return fn, fmt.Errorf("parameter %d: %w", i, err)
		}
		name := ParamName(p.Name(), i)
		if seen[name] {
			name = ParamName("", i)
		}
		seen[name] = true
		fn.Params = append(fn.Params, Param{Name: name, Type: typ})
	}
	return fn, nil
}

var scalarTypes = map[cc.Kind]string{
	cc.Char:      "C.char",
	cc.SChar:     "C.schar",
	cc.UChar:     "C.uchar",
	cc.Short:     "C.short",
	cc.UShort:    "C.ushort",
	cc.Int:       "C.int",
	cc.UInt:      "C.uint",
	cc.Long:      "C.long",
	cc.ULong:     "C.ulong",
	cc.LongLong:  "C.longlong",
	cc.ULongLong: "C.ulonglong",
	cc.Float:     "C.float",
	cc.Double:    "C.double",
}

// goType maps a C type to a Go type expression.
func (c *collector) goType(t cc.Type) (string, error) {
	if td := t.Typedef(); td != nil {
		name := td.Name()
		if alias, ok := c.typedefs[name]; ok {
			return alias, nil
		}
		if c.skippedTypes[name] {
			return "", fmt.Errorf("type %s is not bound", name)
		}
		if reason := unsupportedTypedef(t); reason != "" {
			return "", fmt.Errorf("type %s: %s", name, reason)
		}
		return "C." + name, nil
	}

	switch x := t.(type) {
	case *cc.PointerType:
		elem := x.Elem()
		if elem.Kind() == cc.Function {
			return "", errors.New("function pointer")
		}
		if elem.Kind() == cc.Void && elem.Typedef() == nil {
			return "unsafe.Pointer", nil
		}
		inner, err := c.goType(elem)
		if err != nil {
			return "", err
		}
		return "*" + inner, nil
	case *cc.StructType:
		tag := x.Tag()
		if tag.SrcStr() == "" {
			return "", errors.New("anonymous struct")
		}
		return "C.struct_" + tag.SrcStr(), nil
	case *cc.EnumType:
		tag := x.Tag()
		if tag.SrcStr() == "" {
			return "", errors.New("anonymous enum")
		}
		return "C.enum_" + tag.SrcStr(), nil
	}

	if s, ok := scalarTypes[t.Kind()]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unsupported type %s", t)
}

// unsupportedTypedef returns why a typedef of t cannot be aliased, or "".
func unsupportedTypedef(t cc.Type) string {
	switch k := t.Kind(); k {
	case cc.Union:
		return "union type"
	case cc.Bool:
		return "bool type"
	case cc.LongDouble:
		return "long double type"
	case cc.Function:
		return "function type"
	case cc.Ptr, cc.Struct, cc.Enum, cc.Array, cc.Void:
		return ""
	default:
		if _, ok := scalarTypes[k]; ok {
			return ""
		}
		if strings.HasPrefix(k.String(), "_Complex") {
			return "complex type"
		}
		return fmt.Sprintf("%s type", k)
	}
}
