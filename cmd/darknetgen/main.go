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

// Command darknetgen builds the darknet C library and generates the cgo
// files that link Go code against it.
//
// Usage:
//
//	darknetgen build   [--out dir] [--features list] [--profile p] ...
//	darknetgen bindgen --include dir [--out dir] [--package name]
//	darknetgen flags   [--features list]
//	darknetgen profile [--profile p] [--opt-level n] [--debug-info b]
//	darknetgen doctor
//
// It is normally run from a go:generate directive:
//
//	//go:generate go run github.com/ajroetker/go-darknet/cmd/darknetgen build --out .
//
// Every flag has an environment counterpart (DARKNET_OUT_DIR,
// DARKNET_FEATURES, DARKNET_PROFILE, ...) and an optional darknet.yaml in
// the module root supplies defaults.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajroetker/go-darknet/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger := log.Base()
		logger.Error().Err(err).Msg("darknetgen failed")
		stop()
		os.Exit(1)
	}
}
