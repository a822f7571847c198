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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// tailLines is how much command output is kept for error reports.
const tailLines = 40

// ExecRunner runs commands with os/exec, streaming their output to Logger
// line by line. Stdout is logged at debug level, stderr at info.
type ExecRunner struct {
	Logger zerolog.Logger
	Env    []string // appended to os.Environ()
}

// Run creates dir if needed and runs name with args inside it. On failure
// the error carries the command line and the last lines of output.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)

	tail := &ring{max: tailLines}
	stdout := &lineWriter{emit: func(line string) {
		tail.add(line)
		r.Logger.Debug().Msg(line)
	}}
	stderr := &lineWriter{emit: func(line string) {
		tail.add(line)
		r.Logger.Info().Msg(line)
	}}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.Logger.Debug().Str("dir", dir).Msgf("running %s %s", name, strings.Join(args, " "))
	err := cmd.Run()
	stdout.flush()
	stderr.flush()
	if err != nil {
		return fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, strings.Join(tail.lines(), "\n"))
	}
	return nil
}

// lineWriter splits a byte stream into lines.
type lineWriter struct {
	buf  bytes.Buffer
	emit func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line: put it back for the next Write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

// ring keeps the last max lines.
type ring struct {
	mu   sync.Mutex
	max  int
	data []string
}

func (r *ring) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, line)
	if len(r.data) > r.max {
		r.data = r.data[len(r.data)-r.max:]
	}
}

func (r *ring) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.data...)
}
