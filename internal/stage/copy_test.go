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

package stage

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCopyMirrorsTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out", "darknet")
	writeTree(t, src, map[string]string{
		"CMakeLists.txt":    "project(darknet)",
		"include/darknet.h": "int x;",
		"src/a/b/c.c":       "int c;",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))

	st, err := Copy(src, dst, Options{})
	require.NoError(t, err)

	assert.Equal(t, "project(darknet)", readFile(t, filepath.Join(dst, "CMakeLists.txt")))
	assert.Equal(t, "int x;", readFile(t, filepath.Join(dst, "include", "darknet.h")))
	assert.Equal(t, "int c;", readFile(t, filepath.Join(dst, "src", "a", "b", "c.c")))
	assert.DirExists(t, filepath.Join(dst, "empty"))
	assert.Equal(t, 3, st.Files)
}

func TestCopyIsIdempotentAndOverwrites(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "one"})

	_, err := Copy(src, dst, Options{})
	require.NoError(t, err)

	writeTree(t, src, map[string]string{"a.txt": "two"})
	st, err := Copy(src, dst, Options{})
	require.NoError(t, err)

	assert.Equal(t, "two", readFile(t, filepath.Join(dst, "a.txt")))
	assert.Equal(t, 0, st.Dirs, "existing directories are not recreated")
	assert.Equal(t, 1, st.Files)
}

func TestCopyRemoveFirst(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"ro.h": "new"})
	writeTree(t, dst, map[string]string{"ro.h": "old"})
	require.NoError(t, os.Chmod(filepath.Join(dst, "ro.h"), 0o444))

	_, err := Copy(src, dst, Options{RemoveFirst: true})
	require.NoError(t, err)
	assert.Equal(t, "new", readFile(t, filepath.Join(dst, "ro.h")))
}

func TestCopyPreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	src := t.TempDir()
	dst := t.TempDir()
	script := filepath.Join(src, "configure")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))

	_, err := Copy(src, dst, Options{})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, "configure"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o755), info.Mode().Perm())
}

func TestCopySkipsVCSMetadata(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		".git/HEAD":  "ref: refs/heads/master",
		"darknet.c": "int main;",
	})

	_, err := Copy(src, dst, Options{})
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dst, ".git"))
	assert.FileExists(t, filepath.Join(dst, "darknet.c"))
}

func TestCopyCustomSkip(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		"build/CMakeCache.txt": "stale",
		"keep.c":               "",
	})

	_, err := Copy(src, dst, Options{Skip: func(rel string, d fs.DirEntry) bool {
		return d.IsDir() && rel == "build"
	}})
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dst, "build"))
	assert.FileExists(t, filepath.Join(dst, "keep.c"))
}

func TestCopySymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"real.h": "x"})
	require.NoError(t, os.Symlink("real.h", filepath.Join(src, "alias.h")))

	for range 2 {
		_, err := Copy(src, dst, Options{})
		require.NoError(t, err)
	}

	target, err := os.Readlink(filepath.Join(dst, "alias.h"))
	require.NoError(t, err)
	assert.Equal(t, "real.h", target)
}

func TestCopyReplacesDestinationSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	src := t.TempDir()
	dst := t.TempDir()
	outside := filepath.Join(t.TempDir(), "outside.h")
	require.NoError(t, os.WriteFile(outside, []byte("untouched"), 0o644))
	writeTree(t, src, map[string]string{"config.h": "staged"})
	require.NoError(t, os.Symlink(outside, filepath.Join(dst, "config.h")))

	_, err := Copy(src, dst, Options{})
	require.NoError(t, err)

	assert.Equal(t, "untouched", readFile(t, outside))
	info, err := os.Lstat(filepath.Join(dst, "config.h"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Equal(t, "staged", readFile(t, filepath.Join(dst, "config.h")))
}

func TestCopyErrors(t *testing.T) {
	src := t.TempDir()
	file := filepath.Join(src, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name string
		from string
		to   string
	}{
		{"MissingSource", filepath.Join(src, "missing"), t.TempDir()},
		{"SourceIsFile", file, t.TempDir()},
		{"DestinationInsideSource", src, filepath.Join(src, "out")},
		{"DestinationIsSource", src, src},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Copy(tt.from, tt.to, Options{})
			assert.Error(t, err)
		})
	}
}
