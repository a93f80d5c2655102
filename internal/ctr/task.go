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

	"github.com/containerd/errdefs"
)

// TaskPID returns the pid of the container's task in the current namespace.
func (c *client) TaskPID(ctx context.Context, id string) (uint32, error) {
	if id == "" {
		return 0, ErrEmptyContainerID
	}
	if c.cClient == nil {
		return 0, ErrNotConnected
	}

	nsCtx := c.namespaceCtx(ctx)
	container, err := c.cClient.LoadContainer(nsCtx, id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return 0, fmt.Errorf("%w: %w", ErrContainerNotFound, err)
		}
		return 0, err
	}

	task, err := container.Task(nsCtx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTaskNotFound, err)
	}
	return task.Pid(), nil
}
