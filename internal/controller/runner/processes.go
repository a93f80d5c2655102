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
	"fmt"
	"strings"

	"github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/util/naming"
)

// KillContainerProcesses sends SIGKILL to every process believed to belong to the container
// and returns how many were signalled. Finding nothing is not an error.
func (r *Exec) KillContainerProcesses(ctx context.Context, record intmodel.ContainerRecord) (int, error) {
	if strings.TrimSpace(record.ID) == "" {
		return 0, errdefs.ErrEmptyContainerID
	}

	pids, err := r.discoverProcesses(ctx, record)
	if err != nil {
		return 0, err
	}

	for _, pid := range pids.Sorted() {
		if r.skipPID(ctx, pid) {
			r.logger.DebugContext(ctx, "sparing protected process", "pid", pid)
			pids.Remove(pid)
		}
	}

	killed := 0
	for _, pid := range pids.Sorted() {
		if killErr := r.deps.Signals.Kill(pid); killErr != nil {
			r.logger.DebugContext(ctx, "failed to kill process", "pid", pid, "err", killErr)
			continue
		}
		r.logger.DebugContext(ctx, "killed process", "pid", pid, "container", record.ShortID())
		killed++
	}
	return killed, nil
}

func (r *Exec) discoverProcesses(ctx context.Context, record intmodel.ContainerRecord) (intmodel.ProcessSet, error) {
	set := intmodel.NewProcessSet()

	procs, err := r.deps.Processes.List(ctx)
	if err != nil {
		return set, fmt.Errorf("%w: %w", errdefs.ErrListProcesses, err)
	}
	for _, p := range procs {
		if strings.Contains(p.Cmdline, record.ID) {
			set.Add(p.PID)
		}
	}
	r.logger.DebugContext(ctx, "direct process matches", "count", set.Len())

	if set.Len() == 0 {
		set = set.Union(r.shimMatches(ctx, record.ID))
	}
	set = set.Union(r.cgroupMatches(ctx, record.ID))
	set = set.Union(r.taskMatches(ctx, record))
	return set, nil
}

// shimMatches finds the supervising shim of the container by its argument vector.
func (r *Exec) shimMatches(ctx context.Context, id string) intmodel.ProcessSet {
	set := intmodel.NewProcessSet()
	shims, err := r.deps.Processes.ByName(ctx, r.opts.ShimNames...)
	if err != nil {
		r.logger.DebugContext(ctx, "shim lookup failed", "err", err)
		return set
	}
	for _, pid := range shims {
		cmdline, cmdErr := r.deps.Processes.Cmdline(ctx, pid)
		if cmdErr != nil {
			r.logger.DebugContext(ctx, "failed to read shim arguments", "pid", pid, "err", cmdErr)
			continue
		}
		if strings.Contains(cmdline, id) {
			set.Add(pid)
		}
	}
	r.logger.DebugContext(ctx, "shim process matches", "count", set.Len())
	return set
}

// cgroupMatches reads the container's cgroup under both the systemd and cgroupfs layouts.
func (r *Exec) cgroupMatches(ctx context.Context, id string) intmodel.ProcessSet {
	set := intmodel.NewProcessSet()
	if r.deps.Containerd == nil || strings.TrimSpace(r.opts.CgroupMountpoint) == "" {
		return set
	}
	for _, group := range []string{naming.BuildSystemdScopeGroup(id), naming.BuildCgroupfsGroup(id)} {
		procs, err := r.deps.Containerd.CgroupProcs(r.opts.CgroupMountpoint, group)
		if err != nil {
			r.logger.DebugContext(ctx, "cgroup unavailable", "group", group, "err", err)
			continue
		}
		for _, pid := range procs {
			set.Add(int32(pid))
		}
	}
	return set
}

// taskMatches adds the init pid known to containerd and to the runtime.
func (r *Exec) taskMatches(ctx context.Context, record intmodel.ContainerRecord) intmodel.ProcessSet {
	set := intmodel.NewProcessSet()
	if record.Pid > 0 {
		set.Add(int32(record.Pid))
	}
	if r.deps.Containerd == nil {
		return set
	}
	if !r.ctrConnected {
		if err := r.deps.Containerd.Connect(); err != nil {
			r.logger.DebugContext(ctx, "containerd unavailable", "err", err)
			return set
		}
		r.ctrConnected = true
	}
	pid, err := r.deps.Containerd.TaskPID(ctx, record.ID)
	if err != nil {
		r.logger.DebugContext(ctx, "containerd task pid unavailable", "err", err)
		return set
	}
	set.Add(int32(pid))
	return set
}
