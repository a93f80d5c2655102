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

package runner_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/eminwux/dreap/internal/controller/runner"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/proc"
)

type fakeDocker struct {
	record         intmodel.ContainerRecord
	inspectErr     error
	removeErr      error
	removed        []string
	networkRemoved bool
	networkErr     error
	pruned         []string
	pruneErr       error
	closed         bool
}

func (f *fakeDocker) Connect() error                     { return nil }
func (f *fakeDocker) Close() error                       { f.closed = true; return nil }
func (f *fakeDocker) Ping(context.Context) error         { return nil }
func (f *fakeDocker) RuntimeRoot(context.Context) string { return f.record.RuntimeRoot }
func (f *fakeDocker) Inspect(_ context.Context, _ string) (intmodel.ContainerRecord, error) {
	return f.record, f.inspectErr
}
func (f *fakeDocker) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return f.removeErr
}
func (f *fakeDocker) List(context.Context) ([]intmodel.ContainerSummary, error) { return nil, nil }
func (f *fakeDocker) RemoveNetwork(_ context.Context, _ string) (bool, error) {
	return f.networkRemoved, f.networkErr
}
func (f *fakeDocker) PruneNetworks(context.Context) ([]string, error) { return f.pruned, f.pruneErr }

type fakeLister struct {
	procs      []proc.Process
	listErr    error
	byName     map[string][]int32
	byNameHits int
	cmdlines   map[int32]string
	ancestors  []int32
	walks      int
}

func (f *fakeLister) List(context.Context) ([]proc.Process, error) { return f.procs, f.listErr }

func (f *fakeLister) ByName(_ context.Context, names ...string) ([]int32, error) {
	f.byNameHits++
	var pids []int32
	for _, n := range names {
		pids = append(pids, f.byName[n]...)
	}
	return pids, nil
}

func (f *fakeLister) Cmdline(_ context.Context, pid int32) (string, error) {
	c, ok := f.cmdlines[pid]
	if !ok {
		return "", errors.New("no such process")
	}
	return c, nil
}

func (f *fakeLister) Ancestors(context.Context, int32) ([]int32, error) {
	f.walks++
	return f.ancestors, nil
}

type fakeSignaller struct {
	killed []int32
}

func (f *fakeSignaller) Kill(pid int32) error {
	f.killed = append(f.killed, pid)
	return nil
}

type fakeMounts struct {
	present   map[string]bool
	mounted   map[string]bool
	probeErr  error
	unmounted []string
	errs      map[string]error
}

func (f *fakeMounts) Exists(path string) bool { return f.present[path] }
func (f *fakeMounts) IsMountPoint(path string) (bool, error) {
	return f.mounted[path], f.probeErr
}
func (f *fakeMounts) Unmount(path string) error {
	f.unmounted = append(f.unmounted, path)
	return f.errs[path]
}

type fakeNetns struct {
	present map[string]bool
	stale   map[string]bool
	deleted []string
	err     error
}

func (f *fakeNetns) Path(id string) string      { return "/var/run/netns/" + id }
func (f *fakeNetns) Exists(id string) bool      { return f.present[id] }
func (f *fakeNetns) IsNamespace(id string) bool { return f.present[id] && !f.stale[id] }
func (f *fakeNetns) Delete(id string) error {
	f.deleted = append(f.deleted, id)
	if f.err != nil {
		return f.err
	}
	delete(f.present, id)
	return nil
}

type fakeFirewall struct {
	rules    string
	dumps    int
	restored []string
	dumpErr  error
}

func (f *fakeFirewall) Dump(context.Context) (string, error) {
	f.dumps++
	return f.rules, f.dumpErr
}

func (f *fakeFirewall) Restore(_ context.Context, rules string) error {
	f.restored = append(f.restored, rules)
	f.rules = rules
	return nil
}

type fakeService struct {
	calls    []string
	statuses []string
	startErr error
	stopErr  error
}

func (f *fakeService) Stop(_ context.Context, unit string) error {
	f.calls = append(f.calls, "stop "+unit)
	return f.stopErr
}

func (f *fakeService) Start(_ context.Context, unit string) error {
	f.calls = append(f.calls, "start "+unit)
	return f.startErr
}

func (f *fakeService) Status(context.Context, string) (string, error) {
	if len(f.statuses) == 0 {
		return "active (running)", nil
	}
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s, nil
}

func (f *fakeService) Close() {}

type fakeContainerd struct {
	taskPID    uint32
	taskErr    error
	connectErr error
	cgroups    map[string][]uint64
}

func (f *fakeContainerd) Connect() error      { return f.connectErr }
func (f *fakeContainerd) Close() error        { return nil }
func (f *fakeContainerd) SetNamespace(string) {}
func (f *fakeContainerd) Namespace() string   { return "moby" }
func (f *fakeContainerd) TaskPID(context.Context, string) (uint32, error) {
	return f.taskPID, f.taskErr
}
func (f *fakeContainerd) CgroupProcs(_, group string) ([]uint64, error) {
	return f.cgroups[group], nil
}

type harness struct {
	docker   *fakeDocker
	lister   *fakeLister
	signals  *fakeSignaller
	mounts   *fakeMounts
	netns    *fakeNetns
	firewall *fakeFirewall
	service  *fakeService
}

func newHarness() *harness {
	return &harness{
		docker:   &fakeDocker{},
		lister:   &fakeLister{byName: map[string][]int32{}, cmdlines: map[int32]string{}},
		signals:  &fakeSignaller{},
		mounts:   &fakeMounts{present: map[string]bool{}, mounted: map[string]bool{}},
		netns:    &fakeNetns{present: map[string]bool{}},
		firewall: &fakeFirewall{},
		service:  &fakeService{},
	}
}

func (h *harness) deps() runner.Deps {
	return runner.Deps{
		Docker:    h.docker,
		Processes: h.lister,
		Signals:   h.signals,
		Mounts:    h.mounts,
		Unmounter: h.mounts,
		Netns:     h.netns,
		Firewall:  h.firewall,
		Service:   h.service,
	}
}

func testOptions() runner.Options {
	return runner.Options{
		FirewallTag:  "surgio",
		AppNetwork:   "surgio_default",
		RestartGrace: 1,
	}
}

func (h *harness) runner(t *testing.T) *runner.Exec {
	t.Helper()
	return runner.NewRunnerWithDeps(slog.New(slog.NewTextHandler(io.Discard, nil)), testOptions(), h.deps())
}

func sortedCopy(pids []int32) []int32 {
	out := slices.Clone(pids)
	slices.Sort(out)
	return out
}
