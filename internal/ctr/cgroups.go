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
	"errors"
	"os"
	"path/filepath"
	"strings"

	cgroup2 "github.com/containerd/cgroups/v2/cgroup2"
	"github.com/eminwux/dreap/internal/consts"
)

// CgroupProcs returns every pid in group and its descendants. A group that does not exist
// yields no pids and no error.
func (c *client) CgroupProcs(mountpoint, group string) ([]uint64, error) {
	if strings.TrimSpace(group) == "" {
		return nil, ErrEmptyGroupPath
	}
	if err := cgroup2.VerifyGroupPath(group); err != nil {
		return nil, err
	}
	mp := mountpoint
	if mp == "" {
		mp = consts.DefaultCgroupMountpoint
	}

	cgroupPath := filepath.Join(mp, strings.TrimPrefix(group, "/"))
	if _, err := os.Stat(cgroupPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	manager, err := cgroup2.LoadManager(mp, group)
	if err != nil {
		return nil, err
	}
	procs, err := manager.Procs(true)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(c.ctx, "read cgroup procs", "group", group, "count", len(procs))
	return procs, nil
}
