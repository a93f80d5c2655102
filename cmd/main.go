// Copyright 2025 Emiliano Spinella (eminwux)
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
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/eminwux/dreap/cmd/dreap"
	"github.com/eminwux/dreap/cmd/types"
	"github.com/eminwux/dreap/internal/logging"
	"github.com/spf13/cobra"
)

type rootFactory func() (*cobra.Command, error)

type factoryMap map[string]rootFactory

// mockFactoryMapKey is used to inject mock factory maps in tests via context.
type mockFactoryMapKey struct{}

func getFactories(ctx context.Context) factoryMap {
	if mockFactories, ok := ctx.Value(mockFactoryMapKey{}).(factoryMap); ok {
		return mockFactories
	}
	return factoryMap{
		"dreap": dreap.NewDreapCmd,
	}
}

func execRoot(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func runWithFactory(ctx context.Context, factory rootFactory) int {
	root, err := factory()
	if err != nil {
		return 1
	}

	root.SetContext(ctx)
	return execRoot(root)
}

// dispatch picks the command tree from the executable name, falling back to
// DREAP_DEBUG_MODE when running under a differently named binary (IDE, debugger).
func dispatch(ctx context.Context, exe, debug string, stderr io.Writer) int {
	factories := getFactories(ctx)

	if factory, ok := factories[exe]; ok {
		return runWithFactory(ctx, factory)
	}
	if factory, ok := factories[debug]; ok {
		return runWithFactory(ctx, factory)
	}

	fmt.Fprintf(stderr, "unknown entry command: %s\n", exe)
	return 1
}

func main() {
	logger := logging.NewNoopLogger()
	ctx := context.WithValue(context.Background(), types.CtxLogger, logger)

	// An interrupt stops the teardown between stages; the summary is still printed.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	code := dispatch(ctx, filepath.Base(os.Args[0]), os.Getenv("DREAP_DEBUG_MODE"), os.Stderr)
	stop()
	os.Exit(code)
}
