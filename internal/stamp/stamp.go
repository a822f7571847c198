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

// Package stamp records the inputs of the last successful native build so
// that an unchanged configuration does not rebuild darknet.
package stamp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// FileName is the stamp file inside the output directory.
const FileName = ".darknetgen-stamp.yaml"

// Inputs are the values a native build depends on.
type Inputs struct {
	Env      map[string]string // watched environment variables; unset ones are omitted
	Features []string
	Profile  string
	GOOS     string
	GOARCH   string
	Defines  []string // CMake definitions as NAME=VALUE

	// Resolved values that may come from flags or the config file rather
	// than the environment.
	Source    string // vendored source tree
	CMake     string // cmake binary
	Generator string // CMake generator
}

// Fingerprint hashes the inputs. Map order does not matter; slice order
// does, since it is significant to CMake and the linker.
func (in Inputs) Fingerprint() string {
	h := xxhash.New()
	field := func(k, v string) {
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(v)
		_, _ = h.WriteString("\n")
	}

	keys := make([]string, 0, len(in.Env))
	for k := range in.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		field("env."+k, in.Env[k])
	}
	for i, f := range in.Features {
		field("feature."+strconv.Itoa(i), f)
	}
	field("profile", in.Profile)
	field("goos", in.GOOS)
	field("goarch", in.GOARCH)
	for i, d := range in.Defines {
		field("define."+strconv.Itoa(i), d)
	}
	field("source", in.Source)
	field("cmake", in.CMake)
	field("generator", in.Generator)
	return strconv.FormatUint(h.Sum64(), 16)
}

// Stamp is the persisted record.
type Stamp struct {
	Fingerprint string    `yaml:"fingerprint"`
	Library     string    `yaml:"library"` // path of the built library
	Features    []string  `yaml:"features,omitempty"`
	Profile     string    `yaml:"profile"`
	Target      string    `yaml:"target"` // goos/goarch
	BuiltAt     time.Time `yaml:"built_at"`
}

// Path returns the stamp path inside outDir.
func Path(outDir string) string { return filepath.Join(outDir, FileName) }

// Load reads the stamp in outDir. A missing stamp yields (nil, nil).
func Load(outDir string) (*Stamp, error) {
	data, err := os.ReadFile(Path(outDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Stamp
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse stamp: %w", err)
	}
	return &s, nil
}

// Save atomically writes s into outDir.
func Save(outDir string, s *Stamp) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode stamp: %w", err)
	}
	if err := renameio.WriteFile(Path(outDir), data, 0o644); err != nil {
		return fmt.Errorf("write stamp: %w", err)
	}
	return nil
}

// Remove deletes the stamp in outDir, if any.
func Remove(outDir string) error {
	err := os.Remove(Path(outDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// UpToDate reports whether a previous build with the same fingerprint left
// its library in place. The reason is suitable for logging.
func UpToDate(outDir, fingerprint string) (bool, string) {
	s, err := Load(outDir)
	switch {
	case err != nil:
		return false, err.Error()
	case s == nil:
		return false, "no previous build"
	case s.Fingerprint != fingerprint:
		return false, "build inputs changed"
	}
	if _, err := os.Stat(s.Library); err != nil {
		return false, "library missing"
	}
	return true, "inputs unchanged"
}
