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

package ctr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/namespaces"
	"github.com/eminwux/dreap/internal/consts"
	dreaperr "github.com/eminwux/dreap/internal/errdefs"
)

type client struct {
	ctx         context.Context
	logger      *slog.Logger
	socket      string
	cClient     *containerd.Client
	namespace   string
	namespaceMu sync.RWMutex
}

// Client exposes the read-only containerd views the reaper needs: the task pid of a
// container and the processes of a cgroup.
type Client interface {
	Connect() error
	Close() error
	SetNamespace(namespace string)
	Namespace() string
	TaskPID(ctx context.Context, id string) (uint32, error)
	CgroupProcs(mountpoint, group string) ([]uint64, error)
}

func NewClient(ctx context.Context, logger *slog.Logger, socket string) Client {
	return &client{
		ctx:       ctx,
		logger:    logger,
		socket:    socket,
		namespace: consts.DefaultContainerdNS,
	}
}

func (c *client) Connect() error {
	if c.cClient != nil {
		c.logger.DebugContext(c.ctx, "containerd client already connected, reusing connection", "socket", c.socket)
		return nil
	}

	var err error
	c.cClient, err = containerd.New(c.socket)
	if err != nil {
		c.logger.DebugContext(c.ctx, "failed to connect to containerd", "socket", c.socket, "err", err)
		return fmt.Errorf("%w: %w", dreaperr.ErrConnectContainerd, err)
	}
	c.logger.DebugContext(c.ctx, "connected to containerd", "socket", c.socket)
	return nil
}

func (c *client) Close() error {
	if c.cClient == nil {
		return nil
	}
	err := c.cClient.Close()
	// Still set to nil even if close failed
	c.cClient = nil
	if err != nil {
		return fmt.Errorf("close containerd client: %w", err)
	}
	return nil
}

// SetNamespace sets the namespace for subsequent operations.
func (c *client) SetNamespace(namespace string) {
	c.namespaceMu.Lock()
	defer c.namespaceMu.Unlock()
	c.namespace = namespace
	c.logger.DebugContext(c.ctx, "set namespace", "namespace", namespace)
}

func (c *client) Namespace() string {
	c.namespaceMu.RLock()
	defer c.namespaceMu.RUnlock()
	return c.namespace
}

func (c *client) namespaceCtx(ctx context.Context) context.Context {
	return namespaces.WithNamespace(ctx, c.Namespace())
}
