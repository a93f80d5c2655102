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

package config

import (
	"context"
	"log/slog"
	"strings"

	"github.com/eminwux/dreap/cmd/types"
	"github.com/eminwux/dreap/internal/docker"
	"github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type containerLister interface {
	List(ctx context.Context) ([]intmodel.ContainerSummary, error)
	Close() error
}

// MockContainerListerKey is used to inject a container source in tests via context.
type MockContainerListerKey struct{}

// listerFromCmd talks to the runtime directly; the controller would import this package.
func listerFromCmd(cmd *cobra.Command) (containerLister, error) {
	if mock, ok := cmd.Context().Value(MockContainerListerKey{}).(containerLister); ok {
		return mock, nil
	}
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return nil, errdefs.ErrLoggerNotFound
	}
	return docker.NewClient(logger, docker.Options{
		Host: viper.GetString(DREAP_ROOT_DOCKER_HOST.ViperKey),
	}), nil
}

// CompleteContainerNames completes container names and short ids, stopped containers included.
func CompleteContainerNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) >= 1 {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	lister, err := listerFromCmd(cmd)
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	defer lister.Close()

	containers, err := lister.List(cmd.Context())
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(containers)*2)
	add := func(candidate string) {
		if candidate == "" || seen[candidate] {
			return
		}
		if toComplete == "" || strings.HasPrefix(candidate, toComplete) {
			seen[candidate] = true
			names = append(names, candidate)
		}
	}
	for _, c := range containers {
		add(c.Name)
		id := c.ID
		if len(id) > 12 {
			id = id[:12]
		}
		add(id)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
