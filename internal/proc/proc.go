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

package proc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// Process is one row of the process table.
type Process struct {
	PID     int32
	Name    string
	Cmdline string
}

// Lister is the read side of the process table.
type Lister interface {
	// List returns every live process with its full command line.
	List(ctx context.Context) ([]Process, error)
	// ByName returns the pids of processes whose name is one of names.
	ByName(ctx context.Context, names ...string) ([]int32, error)
	// Cmdline returns the argument vector of pid joined by spaces.
	Cmdline(ctx context.Context, pid int32) (string, error)
	// Ancestors returns the parent chain of pid, nearest first, stopping before init.
	Ancestors(ctx context.Context, pid int32) ([]int32, error)
}

// Signaller delivers SIGKILL. Killing a process that is already gone is not an error.
type Signaller interface {
	Kill(pid int32) error
}

func NewLister() Lister { return psLister{} }

func NewSignaller() Signaller { return killSignaller{} }

type psLister struct{}

func (psLister) List(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read process table: %w", err)
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		cmdline, cmdErr := p.CmdlineWithContext(ctx)
		if cmdErr != nil {
			// process exited between listing and reading, or is a kernel thread
			continue
		}
		name, _ := p.NameWithContext(ctx)
		out = append(out, Process{PID: p.Pid, Name: name, Cmdline: cmdline})
	}
	return out, nil
}

func (psLister) ByName(ctx context.Context, names ...string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read process table: %w", err)
	}
	var pids []int32
	for _, p := range procs {
		name, nameErr := p.NameWithContext(ctx)
		if nameErr != nil {
			continue
		}
		if slices.Contains(names, name) {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

func (psLister) Cmdline(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	args, err := p.CmdlineSliceWithContext(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}

// maxAncestry bounds the parent walk against ppid cycles in a racing process table.
const maxAncestry = 64

func (psLister) Ancestors(ctx context.Context, pid int32) ([]int32, error) {
	var chain []int32
	for range maxAncestry {
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			if len(chain) == 0 {
				return nil, err
			}
			return chain, nil
		}
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			return chain, err
		}
		if ppid <= 1 || ppid == pid {
			return chain, nil
		}
		chain = append(chain, ppid)
		pid = ppid
	}
	return chain, nil
}

type killSignaller struct{}

func (killSignaller) Kill(pid int32) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	if err := unix.Kill(int(pid), unix.SIGKILL); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}
