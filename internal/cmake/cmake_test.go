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

package cmake

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Dir  string
	Name string
	Args []string
}

type fakeRunner struct {
	calls  []call
	failOn int // 1-based call index that fails; 0 never fails
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	f.calls = append(f.calls, call{Dir: dir, Name: name, Args: args})
	if f.failOn == len(f.calls) {
		return errors.New("exit status 1")
	}
	return nil
}

func TestConfigureArgs(t *testing.T) {
	cfg := Config{
		SourceDir:     "/out/darknet",
		BuildDir:      "/out/build",
		InstallPrefix: "/out",
		Generator:     "Ninja",
		Defines: []Define{
			{"CMAKE_BUILD_TYPE", "Release"},
			{"ENABLE_CUDA", OnOff(false)},
		},
	}
	want := []string{
		"-S", "/out/darknet", "-B", "/out/build",
		"-G", "Ninja",
		"-DCMAKE_INSTALL_PREFIX=/out",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DENABLE_CUDA=OFF",
	}
	if diff := cmp.Diff(want, cfg.ConfigureArgs()); diff != "" {
		t.Errorf("ConfigureArgs() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "Full",
			cfg:  Config{BuildDir: "b", BuildType: "Debug", Jobs: 8},
			want: []string{"--build", "b", "--target", "install", "--config", "Debug", "--parallel", "8"},
		},
		{
			name: "Minimal",
			cfg:  Config{BuildDir: "b"},
			want: []string{"--build", "b", "--target", "install"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.cfg.BuildArgs()); diff != "" {
				t.Errorf("BuildArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDriverBuild(t *testing.T) {
	runner := &fakeRunner{}
	d := &Driver{Runner: runner, Logger: zerolog.Nop()}

	dst, err := d.Build(context.Background(), Config{
		Binary:    "/opt/cmake/bin/cmake",
		SourceDir: "/out/darknet",
		BuildDir:  "/out/build",
		BuildType: "Release",
	})
	require.NoError(t, err)
	assert.Equal(t, "/out", dst, "install prefix defaults to the parent of the build dir")

	require.Len(t, runner.calls, 2)
	for _, c := range runner.calls {
		assert.Equal(t, "/opt/cmake/bin/cmake", c.Name)
		assert.Equal(t, "/out/build", c.Dir)
	}
	assert.Contains(t, runner.calls[0].Args, "-DCMAKE_INSTALL_PREFIX=/out")
	assert.Equal(t, "--build", runner.calls[1].Args[0])
}

func TestDriverBuildFailure(t *testing.T) {
	tests := []struct {
		name    string
		failOn  int
		wantErr string
		calls   int
	}{
		{"Configure", 1, "cmake configure", 1},
		{"Build", 2, "cmake build", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{failOn: tt.failOn}
			d := &Driver{Runner: runner, Logger: zerolog.Nop()}
			_, err := d.Build(context.Background(), Config{SourceDir: "s", BuildDir: "b"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Len(t, runner.calls, tt.calls)
		})
	}
}

func TestDriverRequiresDirs(t *testing.T) {
	d := &Driver{Runner: &fakeRunner{}, Logger: zerolog.Nop()}
	_, err := d.Build(context.Background(), Config{})
	assert.Error(t, err)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := filepath.Join(t.TempDir(), "nested", "build")
	r := &ExecRunner{Logger: zerolog.Nop()}

	require.NoError(t, r.Run(context.Background(), dir, "sh", "-c", "echo configured"))
	assert.DirExists(t, dir, "Run creates the working directory")

	err := r.Run(context.Background(), dir, "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLineWriter(t *testing.T) {
	var got []string
	w := &lineWriter{emit: func(s string) { got = append(got, s) }}

	_, _ = w.Write([]byte("one\ntw"))
	_, _ = w.Write([]byte("o\r\nthree"))
	w.flush()

	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestRingKeepsTail(t *testing.T) {
	r := &ring{max: 2}
	for _, s := range []string{"a", "b", "c"} {
		r.add(s)
	}
	assert.Equal(t, []string{"b", "c"}, r.lines())
}
