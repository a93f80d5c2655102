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

package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/system"
	dockerclient "github.com/docker/docker/client"
	"github.com/eminwux/dreap/internal/consts"
	dreaperr "github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/util/fs"
	"github.com/eminwux/dreap/internal/util/naming"
)

// engineAPI is the subset of the Docker Engine API the tool relies on.
// *dockerclient.Client satisfies it.
type engineAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	Info(ctx context.Context) (system.Info, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	NetworkRemove(ctx context.Context, networkID string) error
	NetworksPrune(ctx context.Context, pruneFilter filters.Args) (network.PruneReport, error)
	Close() error
}

type Client interface {
	Connect() error
	Close() error
	Ping(ctx context.Context) error
	Inspect(ctx context.Context, identifier string) (intmodel.ContainerRecord, error)
	Remove(ctx context.Context, identifier string) error
	List(ctx context.Context) ([]intmodel.ContainerSummary, error)
	RemoveNetwork(ctx context.Context, name string) (bool, error)
	PruneNetworks(ctx context.Context) ([]string, error)
	RuntimeRoot(ctx context.Context) string
}

type Options struct {
	// Host is the engine endpoint; empty means DOCKER_HOST or the default socket.
	Host string
	// RuntimeRoot overrides the data root reported by the daemon.
	RuntimeRoot string
}

type client struct {
	logger *slog.Logger
	opts   Options
	api    engineAPI

	runtimeRoot string
}

func NewClient(logger *slog.Logger, opts Options) Client {
	return &client{logger: logger, opts: opts}
}

// NewClientWithAPI builds a client around an already connected engine API.
func NewClientWithAPI(logger *slog.Logger, api engineAPI, opts Options) Client {
	return &client{logger: logger, opts: opts, api: api}
}

func (c *client) Connect() error {
	if c.api != nil {
		return nil
	}
	clientOpts := []dockerclient.Opt{dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation()}
	if host := strings.TrimSpace(c.opts.Host); host != "" {
		clientOpts = append(clientOpts, dockerclient.WithHost(host))
	}
	api, err := dockerclient.NewClientWithOpts(clientOpts...)
	if err != nil {
		return fmt.Errorf("%w: %w", dreaperr.ErrConnectDocker, err)
	}
	c.api = api
	c.logger.Debug("docker client ready", "host", api.DaemonHost())
	return nil
}

func (c *client) Close() error {
	if c.api == nil {
		return nil
	}
	err := c.api.Close()
	c.api = nil
	return err
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.Connect(); err != nil {
		return fmt.Errorf("%w: %w", dreaperr.ErrDaemonUnreachable, err)
	}
	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", dreaperr.ErrDaemonUnreachable, err)
	}
	return nil
}

// Inspect resolves identifier into a ContainerRecord. It never mutates runtime state.
func (c *client) Inspect(ctx context.Context, identifier string) (intmodel.ContainerRecord, error) {
	if err := c.Connect(); err != nil {
		return intmodel.ContainerRecord{}, fmt.Errorf("%w: %w", dreaperr.ErrDaemonUnreachable, err)
	}

	resp, err := c.api.ContainerInspect(ctx, identifier)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return intmodel.ContainerRecord{}, fmt.Errorf("%w: %q", dreaperr.ErrContainerNotFound, identifier)
		}
		return intmodel.ContainerRecord{}, fmt.Errorf("%w: inspect %q: %w", dreaperr.ErrDaemonUnreachable, identifier, err)
	}
	if resp.ContainerJSONBase == nil || strings.TrimSpace(resp.ID) == "" {
		return intmodel.ContainerRecord{}, fmt.Errorf("%w: empty inspect response for %q", dreaperr.ErrContainerNotFound, identifier)
	}

	root := c.RuntimeRoot(ctx)
	mountPaths, err := fs.ContainerMountPaths(root, resp.ID)
	if err != nil {
		return intmodel.ContainerRecord{}, fmt.Errorf("%w: %w", dreaperr.ErrContainerNotFound, err)
	}

	record := intmodel.ContainerRecord{
		ID:          resp.ID,
		Name:        naming.TrimContainerName(resp.Name),
		State:       intmodel.ContainerStateUnknown,
		RuntimeRoot: root,
		MountPaths:  mountPaths,
	}
	if resp.State != nil {
		record.RawStatus = string(resp.State.Status)
		record.State = intmodel.ParseContainerState(record.RawStatus)
		record.Pid = resp.State.Pid
	}
	if resp.Config != nil {
		record.Image = resp.Config.Image
	}
	if resp.NetworkSettings != nil {
		record.NetworkSandboxKey = resp.NetworkSettings.SandboxKey
	}

	c.logger.DebugContext(ctx, "inspected container", "id", record.ID, "name", record.Name, "state", record.State)
	return record, nil
}

// Remove issues the runtime's own forced removal. A container that no longer exists counts as removed.
func (c *client) Remove(ctx context.Context, identifier string) error {
	if err := c.Connect(); err != nil {
		return fmt.Errorf("%w: %w", dreaperr.ErrDaemonUnreachable, err)
	}
	err := c.api.ContainerRemove(ctx, identifier, container.RemoveOptions{Force: true})
	if err != nil {
		if errdefs.IsNotFound(err) {
			c.logger.DebugContext(ctx, "container already removed", "id", identifier)
			return nil
		}
		return fmt.Errorf("remove container %s: %w", identifier, err)
	}
	return nil
}

func (c *client) List(ctx context.Context) ([]intmodel.ContainerSummary, error) {
	if err := c.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %w", dreaperr.ErrDaemonUnreachable, err)
	}
	containers, err := c.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("%w: list containers: %w", dreaperr.ErrDaemonUnreachable, err)
	}
	out := make([]intmodel.ContainerSummary, 0, len(containers))
	for _, ctr := range containers {
		summary := intmodel.ContainerSummary{
			ID:     ctr.ID,
			Image:  ctr.Image,
			State:  string(ctr.State),
			Status: ctr.Status,
		}
		if len(ctr.Names) > 0 {
			summary.Name = naming.TrimContainerName(ctr.Names[0])
		}
		out = append(out, summary)
	}
	return out, nil
}

// RemoveNetwork deletes a network object by name. It reports false when the network did not exist.
func (c *client) RemoveNetwork(ctx context.Context, name string) (bool, error) {
	if err := c.Connect(); err != nil {
		return false, fmt.Errorf("%w: %w", dreaperr.ErrDaemonUnreachable, err)
	}
	if err := c.api.NetworkRemove(ctx, name); err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove network %s: %w", name, err)
	}
	return true, nil
}

func (c *client) PruneNetworks(ctx context.Context) ([]string, error) {
	if err := c.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %w", dreaperr.ErrDaemonUnreachable, err)
	}
	report, err := c.api.NetworksPrune(ctx, filters.NewArgs())
	if err != nil {
		return nil, fmt.Errorf("prune networks: %w", err)
	}
	return report.NetworksDeleted, nil
}

// RuntimeRoot returns the configured data root, else the one the daemon reports, else the default.
func (c *client) RuntimeRoot(ctx context.Context) string {
	if root := strings.TrimSpace(c.opts.RuntimeRoot); root != "" {
		return root
	}
	if c.runtimeRoot != "" {
		return c.runtimeRoot
	}
	c.runtimeRoot = consts.DefaultRuntimeRoot
	if c.api == nil {
		return c.runtimeRoot
	}
	info, err := c.api.Info(ctx)
	if err != nil {
		c.logger.DebugContext(ctx, "could not query docker root dir, using default", "error", err)
		return c.runtimeRoot
	}
	if strings.TrimSpace(info.DockerRootDir) != "" {
		c.runtimeRoot = info.DockerRootDir
	}
	return c.runtimeRoot
}
