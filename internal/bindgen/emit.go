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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"golang.org/x/tools/imports"
)

// FileName is the name of the generated bindings file.
const FileName = "bindings.gen.go"

const generatedBy = "// Code generated by darknetgen. DO NOT EDIT."

// Emit renders h as a formatted Go source file in package pkg.
func Emit(h *Header, pkg string) ([]byte, error) {
	if pkg == "" {
		pkg = "darknet"
	}
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n\n", generatedBy)
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "/*\n#include \"%s\"\n*/\n", filepath.Base(h.Path))
	fmt.Fprintf(&buf, "import \"C\"\n\n")
	if h.UsesUnsafe() {
		fmt.Fprintf(&buf, "import \"unsafe\"\n\n")
	}

	if len(h.Skipped) > 0 {
		fmt.Fprintf(&buf, "// Declarations without bindings:\n//\n")
		for _, s := range h.Skipped {
			fmt.Fprintf(&buf, "//   - %s: %s\n", s.CName, s.Reason)
		}
		fmt.Fprintf(&buf, "\n")
	}

	if len(h.Types) > 0 {
		fmt.Fprintf(&buf, "type (\n")
		for _, t := range h.Types {
			fmt.Fprintf(&buf, "\t%s = C.%s\n", t.Name, t.CName)
		}
		fmt.Fprintf(&buf, ")\n\n")
	}

	if len(h.Constants) > 0 {
		fmt.Fprintf(&buf, "const (\n")
		for _, c := range h.Constants {
			fmt.Fprintf(&buf, "\t%s = C.%s\n", c.Name, c.CName)
		}
		fmt.Fprintf(&buf, ")\n\n")
	}

	for _, fn := range h.Functions {
		emitWrapper(&buf, fn)
	}

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

func emitWrapper(w io.Writer, fn Function) {
	params := make([]string, len(fn.Params))
	args := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name + " " + p.Type
		args[i] = p.Name
	}
	fmt.Fprintf(w, "// %s calls %s.\n", fn.Name, fn.CName)
	fmt.Fprintf(w, "func %s(%s)", fn.Name, strings.Join(params, ", "))
	if fn.Result != "" {
		fmt.Fprintf(w, " %s", fn.Result)
	}
	fmt.Fprintf(w, " {\n\t")
	if fn.Result != "" {
		fmt.Fprintf(w, "return ")
	}
	fmt.Fprintf(w, "C.%s(%s)\n}\n\n", fn.CName, strings.Join(args, ", "))
}

// Generate parses header and atomically writes the bindings to
// dir/bindings.gen.go. It returns the path written.
func Generate(ctx context.Context, header, dir, pkg string, opts Options) (string, error) {
	h, err := ParseHeader(ctx, header, opts)
	if err != nil {
		return "", err
	}
	src, err := Emit(h, pkg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := renameio.WriteFile(path, src, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	opts.Logger.Info().Str("path", path).Msg("wrote bindings")
	return path, nil
}

// CopyPrebuilt atomically copies a checked-in bindings file to dst.
func CopyPrebuilt(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open prebuilt bindings: %w", err)
	}
	defer in.Close()

	pending, err := renameio.NewPendingFile(dst, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending bindings file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := io.Copy(pending, in); err != nil {
		return fmt.Errorf("copy bindings: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", dst, err)
	}
	return nil
}
