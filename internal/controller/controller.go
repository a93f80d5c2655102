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

package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/eminwux/dreap/internal/controller/runner"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
)

type Controller interface {
	EnsureDaemon(ctx context.Context) error
	Inspect(ctx context.Context, identifier string) (intmodel.ContainerRecord, error)
	ListContainers(ctx context.Context) ([]intmodel.ContainerSummary, error)
	Status(ctx context.Context) (StatusReport, error)
	ForceRemove(ctx context.Context, identifier string) (intmodel.TeardownReport, error)
	Close() error
}

// Observer is notified around every pipeline stage, in order.
type Observer interface {
	StepStarted(index int, name string)
	StepFinished(result intmodel.StepResult)
}

type Exec struct {
	logger *slog.Logger
	opts   Options
	runner runner.Runner
}

type Options struct {
	DockerHost          string
	RuntimeRoot         string
	LogDir              string
	ServiceName         string
	FirewallTag         string
	AppNetwork          string
	NetnsDir            string
	ContainerdSocket    string
	ContainerdNamespace string
	CgroupMountpoint    string
	RestartGrace        time.Duration
	RestartTimeout      time.Duration
	SkipRestart         bool
	Observer            Observer
}

func NewControllerExec(ctx context.Context, logger *slog.Logger, opts Options) *Exec {
	return &Exec{
		logger: logger,
		opts:   opts,
		runner: runner.NewRunner(ctx, logger, runner.Options{
			DockerHost:          opts.DockerHost,
			RuntimeRoot:         opts.RuntimeRoot,
			ServiceName:         opts.ServiceName,
			FirewallTag:         opts.FirewallTag,
			AppNetwork:          opts.AppNetwork,
			NetnsDir:            opts.NetnsDir,
			ContainerdSocket:    opts.ContainerdSocket,
			ContainerdNamespace: opts.ContainerdNamespace,
			CgroupMountpoint:    opts.CgroupMountpoint,
			RestartGrace:        opts.RestartGrace,
			RestartTimeout:      opts.RestartTimeout,
		}),
	}
}

// NewControllerExecForTesting wires a controller over an arbitrary runner.
func NewControllerExecForTesting(logger *slog.Logger, opts Options, r runner.Runner) *Exec {
	return &Exec{logger: logger, opts: opts, runner: r}
}

func (b *Exec) Close() error {
	return b.runner.Close()
}

func (b *Exec) Inspect(ctx context.Context, identifier string) (intmodel.ContainerRecord, error) {
	return b.runner.InspectContainer(ctx, identifier)
}

func (b *Exec) ListContainers(ctx context.Context) ([]intmodel.ContainerSummary, error) {
	return b.runner.ListContainers(ctx)
}
