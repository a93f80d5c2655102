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

package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/ctr"
	"github.com/eminwux/dreap/internal/docker"
	"github.com/eminwux/dreap/internal/firewall"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/mount"
	"github.com/eminwux/dreap/internal/netns"
	"github.com/eminwux/dreap/internal/proc"
	"github.com/eminwux/dreap/internal/service"
)

// Runner performs the host-side effects of a forced removal. Every method is safe to call
// again on an already reclaimed container.
type Runner interface {
	Ping(ctx context.Context) error
	InspectContainer(ctx context.Context, identifier string) (intmodel.ContainerRecord, error)
	ListContainers(ctx context.Context) ([]intmodel.ContainerSummary, error)
	RemoveContainer(ctx context.Context, identifier string) error
	KillContainerProcesses(ctx context.Context, record intmodel.ContainerRecord) (int, error)
	ReclaimMounts(ctx context.Context, record intmodel.ContainerRecord) (MountOutcome, error)
	ReclaimNetwork(ctx context.Context, record intmodel.ContainerRecord) (NetworkOutcome, error)
	PurgeStateDir(ctx context.Context, record intmodel.ContainerRecord) (bool, error)
	StartRuntime(ctx context.Context) error
	RestartRuntime(ctx context.Context) (bool, error)
	RuntimeStatus(ctx context.Context) (string, error)
	PruneNetworkResources(ctx context.Context) (NetworkPruneOutcome, error)
	Close() error
}

var _ Runner = (*Exec)(nil)

type Exec struct {
	logger  *slog.Logger
	opts    Options
	deps    Deps
	selfPID int32

	// protected holds the tool and its ancestors once resolved.
	protected    *intmodel.ProcessSet
	ctrConnected bool
}

type Options struct {
	DockerHost          string
	RuntimeRoot         string
	ServiceName         string
	FirewallTag         string
	AppNetwork          string
	NetnsDir            string
	ContainerdSocket    string
	ContainerdNamespace string
	CgroupMountpoint    string
	ShimNames           []string
	RestartGrace        time.Duration
	RestartTimeout      time.Duration
}

// Deps are the host capabilities the runner drives. A nil Containerd disables the
// containerd task and cgroup pid sources; a nil Service is connected on first use.
type Deps struct {
	Docker     docker.Client
	Containerd ctr.Client
	Processes  proc.Lister
	Signals    proc.Signaller
	Mounts     mount.PointChecker
	Unmounter  mount.Unmounter
	Netns      netns.Registry
	Firewall   firewall.RuleStore
	Service    service.Manager
}

func NewRunner(ctx context.Context, logger *slog.Logger, opts Options) Runner {
	opts = opts.withDefaults()
	containerd := ctr.NewClient(ctx, logger, opts.ContainerdSocket)
	containerd.SetNamespace(opts.ContainerdNamespace)
	return NewRunnerWithDeps(logger, opts, Deps{
		Docker:     docker.NewClient(logger, docker.Options{Host: opts.DockerHost, RuntimeRoot: opts.RuntimeRoot}),
		Containerd: containerd,
		Processes:  proc.NewLister(),
		Signals:    proc.NewSignaller(),
		Mounts:     mount.NewPointChecker(),
		Unmounter:  mount.NewUnmounter(),
		Netns:      netns.NewRegistry(opts.NetnsDir),
		Firewall:   firewall.NewIptablesStore(firewall.NewExecRunner()),
	})
}

// NewRunnerWithDeps builds a runner over caller supplied capabilities.
func NewRunnerWithDeps(logger *slog.Logger, opts Options, deps Deps) *Exec {
	return &Exec{
		logger:  logger,
		opts:    opts.withDefaults(),
		deps:    deps,
		selfPID: int32(os.Getpid()),
	}
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.ServiceName) == "" {
		o.ServiceName = consts.DefaultServiceName
	}
	if strings.TrimSpace(o.NetnsDir) == "" {
		o.NetnsDir = consts.DefaultNetnsDir
	}
	if strings.TrimSpace(o.ContainerdSocket) == "" {
		o.ContainerdSocket = consts.DefaultContainerdSocket
	}
	if strings.TrimSpace(o.ContainerdNamespace) == "" {
		o.ContainerdNamespace = consts.DefaultContainerdNS
	}
	if len(o.ShimNames) == 0 {
		o.ShimNames = consts.ShimProcessNames()
	}
	if o.RestartGrace <= 0 {
		o.RestartGrace = consts.DefaultRestartGrace
	}
	if o.RestartTimeout <= 0 {
		o.RestartTimeout = consts.DefaultRestartTimeout
	}
	return o
}

func (r *Exec) Close() error {
	var errs []error
	if r.deps.Docker != nil {
		errs = append(errs, r.deps.Docker.Close())
	}
	if r.deps.Containerd != nil && r.ctrConnected {
		errs = append(errs, r.deps.Containerd.Close())
		r.ctrConnected = false
	}
	if r.deps.Service != nil {
		r.deps.Service.Close()
		r.deps.Service = nil
	}
	return errors.Join(errs...)
}

// protectedPIDs resolves the tool's own process chain once. A shell or sudo wrapper
// carries the container id in its argument vector and would otherwise match.
func (r *Exec) protectedPIDs(ctx context.Context) intmodel.ProcessSet {
	if r.protected != nil {
		return *r.protected
	}
	set := intmodel.NewProcessSet(r.selfPID)
	chain, err := r.deps.Processes.Ancestors(ctx, r.selfPID)
	if err != nil {
		r.logger.DebugContext(ctx, "ancestor walk incomplete", "pid", r.selfPID, "err", err)
	}
	set.Add(chain...)
	r.protected = &set
	return set
}

// skipPID reports pids that must never be signalled: init, the tool and its ancestors.
func (r *Exec) skipPID(ctx context.Context, pid int32) bool {
	if pid <= 1 {
		return true
	}
	protected := r.protectedPIDs(ctx)
	return protected.Contains(pid)
}
