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

// Package stage mirrors a vendored source tree into a writable build
// location so that an out-of-tree build never touches the checked-in copy.
package stage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Options controls a Copy.
type Options struct {
	// RemoveFirst deletes an existing destination file before writing it.
	// Needed when the previous copy left read-only files behind.
	RemoveFirst bool

	// Skip reports whether an entry (path relative to the source root)
	// should be left out. Returning true for a directory prunes it.
	// Nil means DefaultSkip.
	Skip func(rel string, d fs.DirEntry) bool

	Logger zerolog.Logger
}

// Stats summarizes what a Copy did.
type Stats struct {
	Dirs     int
	Files    int
	Symlinks int
}

// DefaultSkip prunes VCS metadata.
func DefaultSkip(rel string, d fs.DirEntry) bool {
	switch d.Name() {
	case ".git", ".hg", ".svn":
		return true
	}
	return false
}

// Copy recursively mirrors from into to. Missing directories are created,
// existing files are overwritten and permission bits are preserved.
// Running it twice over the same trees is a no-op apart from rewrites.
func Copy(from, to string, opts Options) (Stats, error) {
	var st Stats

	info, err := os.Stat(from)
	if err != nil {
		return st, fmt.Errorf("stage source: %w", err)
	}
	if !info.IsDir() {
		return st, fmt.Errorf("stage source %s is not a directory", from)
	}

	absFrom, err := filepath.Abs(from)
	if err != nil {
		return st, err
	}
	absTo, err := filepath.Abs(to)
	if err != nil {
		return st, err
	}
	if within(absFrom, absTo) {
		return st, fmt.Errorf("stage destination %s is inside source %s", to, from)
	}

	skip := opts.Skip
	if skip == nil {
		skip = DefaultSkip
	}
	logger := opts.Logger

	err = filepath.WalkDir(absFrom, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(absFrom, path)
		if err != nil {
			return err
		}
		if rel != "." && skip(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		dst := filepath.Join(absTo, rel)

		switch {
		case d.IsDir():
			if _, err := os.Stat(dst); err != nil {
				logger.Debug().Str("dir", dst).Msg("mkdir")
				if err := os.MkdirAll(dst, 0o755); err != nil {
					return err
				}
				st.Dirs++
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			if err := copySymlink(path, dst); err != nil {
				return err
			}
			st.Symlinks++
			return nil
		case d.Type().IsRegular():
			logger.Debug().Str("src", path).Str("dst", dst).Msg("copy")
			if err := copyFile(path, dst, opts.RemoveFirst); err != nil {
				return err
			}
			st.Files++
			return nil
		default:
			logger.Warn().Str("path", path).Stringer("mode", d.Type()).Msg("skipping irregular file")
			return nil
		}
	})
	if err != nil {
		return st, fmt.Errorf("stage %s -> %s: %w", from, to, err)
	}
	return st, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	if root == path {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

func copyFile(src, dst string, removeFirst bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	// A symlink left at dst would be written through to its target.
	if fi, err := os.Lstat(dst); err == nil && (removeFirst || fi.Mode()&fs.ModeSymlink != 0) {
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile only applies perm on creation.
	return os.Chmod(dst, info.Mode().Perm())
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Symlink(target, dst)
}
