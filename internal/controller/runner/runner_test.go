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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eminwux/dreap/internal/controller/runner"
	"github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/proc"
	"github.com/eminwux/dreap/internal/util/fs"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const testID = "abc123def456abc123def456abc123def456abc123def456abc123def456abcd"

func testRecord(root string) intmodel.ContainerRecord {
	paths, _ := fs.ContainerMountPaths(root, testID)
	return intmodel.ContainerRecord{
		ID:          testID,
		Name:        "web",
		RuntimeRoot: root,
		MountPaths:  paths,
	}
}

func TestKillContainerProcesses(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *harness)
		wantCount  int
		wantKilled []int32
		wantShims  bool
	}{
		{
			name: "direct matches skip the shim fallback",
			setup: func(h *harness) {
				h.lister.procs = []proc.Process{
					{PID: 111, Cmdline: "/usr/bin/app --id " + testID},
					{PID: 222, Cmdline: "sh -c sleep " + testID},
					{PID: 333, Cmdline: "unrelated"},
				}
				h.lister.byName["containerd-shim-runc-v2"] = []int32{444}
				h.lister.cmdlines[444] = "containerd-shim-runc-v2 -id " + testID
			},
			wantCount:  2,
			wantKilled: []int32{111, 222},
			wantShims:  false,
		},
		{
			name: "shim fallback when nothing matches directly",
			setup: func(h *harness) {
				h.lister.procs = []proc.Process{{PID: 333, Cmdline: "unrelated"}}
				h.lister.byName["containerd-shim-runc-v2"] = []int32{444, 555}
				h.lister.cmdlines[444] = "containerd-shim-runc-v2 -namespace moby -id " + testID
				h.lister.cmdlines[555] = "containerd-shim-runc-v2 -namespace moby -id other"
			},
			wantCount:  1,
			wantKilled: []int32{444},
			wantShims:  true,
		},
		{
			name: "no matching processes",
			setup: func(h *harness) {
				h.lister.procs = []proc.Process{{PID: 333, Cmdline: "unrelated"}}
			},
			wantCount: 0,
			wantShims: true,
		},
		{
			name: "init and self are never signalled",
			setup: func(h *harness) {
				h.lister.procs = []proc.Process{
					{PID: 1, Cmdline: "init " + testID},
					{PID: int32(os.Getpid()), Cmdline: "dreap clean " + testID},
					{PID: 111, Cmdline: testID},
				}
			},
			wantCount:  1,
			wantKilled: []int32{111},
		},
		{
			name: "ancestors carrying the id are spared",
			setup: func(h *harness) {
				h.lister.ancestors = []int32{5160, 5100}
				h.lister.procs = []proc.Process{
					{PID: 5100, Cmdline: "bash -c dreap clean " + testID},
					{PID: 5160, Cmdline: "sudo dreap clean " + testID},
					{PID: 4242, Cmdline: "/app/server " + testID},
				}
			},
			wantCount:  1,
			wantKilled: []int32{4242},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)
			r := h.runner(t)

			count, err := r.KillContainerProcesses(context.Background(), testRecord(t.TempDir()))
			if err != nil {
				t.Fatalf("KillContainerProcesses() unexpected error: %v", err)
			}
			if count != tt.wantCount {
				t.Errorf("KillContainerProcesses() = %d, want %d", count, tt.wantCount)
			}
			if diff := cmp.Diff(tt.wantKilled, sortedCopy(h.signals.killed), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("killed pids mismatch (-want +got):\n%s", diff)
			}
			if tt.wantShims != (h.lister.byNameHits > 0) {
				t.Errorf("shim lookup consulted = %v, want %v", h.lister.byNameHits > 0, tt.wantShims)
			}
		})
	}
}

func TestKillContainerProcessesSupplementalSources(t *testing.T) {
	h := newHarness()
	h.lister.procs = []proc.Process{{PID: 111, Cmdline: testID}}
	deps := h.deps()
	deps.Containerd = &fakeContainerd{
		taskPID: 600,
		cgroups: map[string][]uint64{
			"/system.slice/docker-" + testID + ".scope": {111, 601},
		},
	}
	opts := testOptions()
	opts.CgroupMountpoint = "/sys/fs/cgroup"
	r := runner.NewRunnerWithDeps(slog.New(slog.NewTextHandler(io.Discard, nil)), opts, deps)

	record := testRecord(t.TempDir())
	record.Pid = 600
	count, err := r.KillContainerProcesses(context.Background(), record)
	if err != nil {
		t.Fatalf("KillContainerProcesses() unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("KillContainerProcesses() = %d, want 3", count)
	}
	if diff := cmp.Diff([]int32{111, 600, 601}, sortedCopy(h.signals.killed)); diff != "" {
		t.Errorf("each pid must be signalled once (-want +got):\n%s", diff)
	}
}

func TestKillContainerProcessesWalksAncestorsOnce(t *testing.T) {
	h := newHarness()
	h.lister.ancestors = []int32{int32(os.Getppid())}
	h.lister.procs = []proc.Process{
		{PID: int32(os.Getppid()), Cmdline: "sudo dreap clean " + testID},
		{PID: 4242, Cmdline: testID},
	}
	r := h.runner(t)
	record := testRecord(t.TempDir())

	for range 2 {
		if _, err := r.KillContainerProcesses(context.Background(), record); err != nil {
			t.Fatalf("KillContainerProcesses() unexpected error: %v", err)
		}
	}
	if diff := cmp.Diff([]int32{4242, 4242}, h.signals.killed); diff != "" {
		t.Errorf("killed pids mismatch (-want +got):\n%s", diff)
	}
	if h.lister.walks != 1 {
		t.Errorf("ancestor walks = %d, want 1", h.lister.walks)
	}
}

func TestKillContainerProcessesErrors(t *testing.T) {
	h := newHarness()
	h.lister.listErr = errors.New("proc unreadable")
	r := h.runner(t)

	if _, err := r.KillContainerProcesses(context.Background(), testRecord(t.TempDir())); !errors.Is(err, errdefs.ErrListProcesses) {
		t.Errorf("KillContainerProcesses() error = %v, want ErrListProcesses", err)
	}
	if _, err := r.KillContainerProcesses(context.Background(), intmodel.ContainerRecord{}); !errors.Is(err, errdefs.ErrEmptyContainerID) {
		t.Errorf("KillContainerProcesses() error = %v, want ErrEmptyContainerID", err)
	}
}

func TestReclaimMounts(t *testing.T) {
	root := t.TempDir()
	record := testRecord(root)
	shm := filepath.Join(root, "containers", testID, "shm")

	t.Run("only shm present and mounted", func(t *testing.T) {
		h := newHarness()
		h.mounts.present[shm] = true
		h.mounts.mounted[shm] = true
		outcome, err := h.runner(t).ReclaimMounts(context.Background(), record)
		if err != nil || !outcome.Attempted() {
			t.Fatalf("ReclaimMounts() = %v, %v; want attempted, nil", outcome, err)
		}
		if diff := cmp.Diff([]string{shm}, h.mounts.unmounted); diff != "" {
			t.Errorf("unmount calls mismatch (-want +got):\n%s", diff)
		}
		if got := outcome.String(); got != "detached 1 of 1 mounted path(s)" {
			t.Errorf("String() = %q", got)
		}
		if diff := cmp.Diff([]runner.MountPath{{Path: shm, Mounted: true}}, outcome.Paths); diff != "" {
			t.Errorf("paths mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("present but not mounted", func(t *testing.T) {
		h := newHarness()
		h.mounts.present[shm] = true
		outcome, err := h.runner(t).ReclaimMounts(context.Background(), record)
		if err != nil {
			t.Fatalf("ReclaimMounts() unexpected error: %v", err)
		}
		if len(h.mounts.unmounted) != 1 {
			t.Errorf("unmount calls = %v, want the leftover directory detached anyway", h.mounts.unmounted)
		}
		if got := outcome.String(); got != "1 path(s) present but not mounted" {
			t.Errorf("String() = %q", got)
		}
		if outcome.Paths[0].Mounted {
			t.Error("plain directory reported as mounted")
		}
	})

	t.Run("unreadable mountinfo counts as mounted", func(t *testing.T) {
		h := newHarness()
		h.mounts.present[shm] = true
		h.mounts.probeErr = errors.New("mountinfo unreadable")
		outcome, err := h.runner(t).ReclaimMounts(context.Background(), record)
		if err != nil {
			t.Fatalf("ReclaimMounts() unexpected error: %v", err)
		}
		if got := outcome.String(); got != "detached 1 of 1 mounted path(s)" {
			t.Errorf("String() = %q", got)
		}
	})

	t.Run("nothing present", func(t *testing.T) {
		h := newHarness()
		outcome, err := h.runner(t).ReclaimMounts(context.Background(), record)
		if err != nil || outcome.Attempted() {
			t.Fatalf("ReclaimMounts() = %v, %v; want nothing attempted", outcome, err)
		}
		if len(h.mounts.unmounted) != 0 {
			t.Errorf("unexpected unmount calls: %v", h.mounts.unmounted)
		}
		if got := outcome.String(); got != "no mount points present" {
			t.Errorf("String() = %q", got)
		}
	})

	t.Run("busy mounts are not errors", func(t *testing.T) {
		h := newHarness()
		for _, p := range record.MountPaths {
			h.mounts.present[p] = true
			h.mounts.mounted[p] = true
		}
		h.mounts.errs = map[string]error{shm: errdefs.ErrResourceBusy}
		outcome, err := h.runner(t).ReclaimMounts(context.Background(), record)
		if err != nil || !outcome.Attempted() {
			t.Fatalf("ReclaimMounts() = %v, %v; want attempted, nil", outcome, err)
		}
		if len(h.mounts.unmounted) != 3 {
			t.Errorf("unmount calls = %d, want 3", len(h.mounts.unmounted))
		}
		if got := outcome.String(); got != "detached 3 of 3 mounted path(s)" {
			t.Errorf("String() = %q", got)
		}
		busy := 0
		for _, p := range outcome.Paths {
			if p.Busy {
				busy++
			}
		}
		if busy != 1 {
			t.Errorf("busy paths = %d, want 1", busy)
		}
	})

	t.Run("other failures are reported after trying every path", func(t *testing.T) {
		h := newHarness()
		for _, p := range record.MountPaths {
			h.mounts.present[p] = true
			h.mounts.mounted[p] = true
		}
		h.mounts.errs = map[string]error{record.MountPaths[0]: errors.New("operation not permitted")}
		outcome, err := h.runner(t).ReclaimMounts(context.Background(), record)
		if err == nil {
			t.Fatal("ReclaimMounts() expected error")
		}
		if len(h.mounts.unmounted) != 3 {
			t.Errorf("unmount calls = %d, want 3", len(h.mounts.unmounted))
		}
		if got := outcome.String(); got != "detached 2 of 3 mounted path(s)" {
			t.Errorf("String() = %q", got)
		}
	})
}

const taggedRules = "*filter\n-A DOCKER -m comment --comment surgio -j ACCEPT\n-A INPUT -j ACCEPT\nCOMMIT\n"

func TestReclaimNetwork(t *testing.T) {
	t.Run("sandbox key deletes namespace and prunes", func(t *testing.T) {
		h := newHarness()
		h.netns.present["xyz789"] = true
		h.firewall.rules = taggedRules
		record := intmodel.ContainerRecord{ID: "abc123", NetworkSandboxKey: "/var/run/docker/netns/xyz789"}

		outcome, err := h.runner(t).ReclaimNetwork(context.Background(), record)
		if err != nil {
			t.Fatalf("ReclaimNetwork() unexpected error: %v", err)
		}
		if outcome.Namespace != runner.NamespaceRemoved || outcome.NamespaceID != "xyz789" {
			t.Errorf("outcome = %+v, want removed xyz789", outcome)
		}
		if diff := cmp.Diff([]string{"xyz789"}, h.netns.deleted); diff != "" {
			t.Errorf("deleted namespaces mismatch (-want +got):\n%s", diff)
		}
		if outcome.RulesPruned != 1 || len(h.firewall.restored) != 1 {
			t.Errorf("firewall prune: pruned=%d restores=%d", outcome.RulesPruned, len(h.firewall.restored))
		}
	})

	t.Run("leftover handle without a mount", func(t *testing.T) {
		h := newHarness()
		h.netns.present["xyz789"] = true
		h.netns.stale = map[string]bool{"xyz789": true}
		record := intmodel.ContainerRecord{ID: "abc123", NetworkSandboxKey: "/var/run/docker/netns/xyz789"}

		outcome, err := h.runner(t).ReclaimNetwork(context.Background(), record)
		if err != nil {
			t.Fatalf("ReclaimNetwork() unexpected error: %v", err)
		}
		if outcome.Namespace != runner.NamespaceStale {
			t.Errorf("outcome.Namespace = %q, want %q", outcome.Namespace, runner.NamespaceStale)
		}
		if len(h.netns.deleted) != 1 {
			t.Errorf("stale handle must still be deleted, got %v", h.netns.deleted)
		}
		if !strings.HasPrefix(outcome.String(), "stale namespace handle xyz789 removed") {
			t.Errorf("String() = %q", outcome.String())
		}
	})

	t.Run("empty sandbox key still prunes", func(t *testing.T) {
		h := newHarness()
		h.firewall.rules = taggedRules
		outcome, err := h.runner(t).ReclaimNetwork(context.Background(), intmodel.ContainerRecord{ID: "abc123"})
		if err != nil {
			t.Fatalf("ReclaimNetwork() unexpected error: %v", err)
		}
		if outcome.Namespace != runner.NoSandboxKey {
			t.Errorf("outcome.Namespace = %q, want %q", outcome.Namespace, runner.NoSandboxKey)
		}
		if len(h.netns.deleted) != 0 {
			t.Errorf("namespace deletion attempted: %v", h.netns.deleted)
		}
		if h.firewall.dumps != 1 {
			t.Errorf("firewall dumps = %d, want 1", h.firewall.dumps)
		}
	})

	t.Run("absent namespace", func(t *testing.T) {
		h := newHarness()
		outcome, err := h.runner(t).ReclaimNetwork(context.Background(),
			intmodel.ContainerRecord{ID: "abc123", NetworkSandboxKey: "/var/run/docker/netns/gone"})
		if err != nil || outcome.Namespace != runner.NamespaceAbsent {
			t.Fatalf("ReclaimNetwork() = %+v, %v; want absent", outcome, err)
		}
	})

	t.Run("prune failure is swallowed", func(t *testing.T) {
		h := newHarness()
		h.firewall.dumpErr = errors.New("iptables-save missing")
		outcome, err := h.runner(t).ReclaimNetwork(context.Background(), intmodel.ContainerRecord{ID: "abc123"})
		if err != nil {
			t.Fatalf("ReclaimNetwork() unexpected error: %v", err)
		}
		if outcome.PruneErr == nil || !strings.Contains(outcome.String(), "firewall prune failed") {
			t.Errorf("outcome = %q, want prune failure reported", outcome.String())
		}
	})

	t.Run("namespace deletion failure", func(t *testing.T) {
		h := newHarness()
		h.netns.present["xyz789"] = true
		h.netns.err = errdefs.ErrResourceBusy
		h.firewall.rules = taggedRules
		outcome, err := h.runner(t).ReclaimNetwork(context.Background(),
			intmodel.ContainerRecord{ID: "abc123", NetworkSandboxKey: "/var/run/docker/netns/xyz789"})
		if !errors.Is(err, errdefs.ErrResourceBusy) {
			t.Fatalf("ReclaimNetwork() error = %v, want ErrResourceBusy", err)
		}
		if outcome.RulesPruned != 1 {
			t.Errorf("prune must run even when namespace deletion fails, pruned=%d", outcome.RulesPruned)
		}
	})
}

func TestPurgeStateDir(t *testing.T) {
	root := t.TempDir()
	record := testRecord(root)
	dir := filepath.Join(root, "containers", testID)
	if err := os.MkdirAll(filepath.Join(dir, "mounts", "shm"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.v2.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	r := newHarness().runner(t)

	removed, err := r.PurgeStateDir(context.Background(), record)
	if err != nil || !removed {
		t.Fatalf("PurgeStateDir() = %v, %v; want true, nil", removed, err)
	}
	if fs.Exists(dir) {
		t.Error("state directory still present")
	}

	removed, err = r.PurgeStateDir(context.Background(), record)
	if err != nil || removed {
		t.Fatalf("second PurgeStateDir() = %v, %v; want false, nil", removed, err)
	}

	if _, err = r.PurgeStateDir(context.Background(), intmodel.ContainerRecord{RuntimeRoot: root}); !errors.Is(err, errdefs.ErrEmptyContainerID) {
		t.Errorf("PurgeStateDir() with empty id error = %v", err)
	}
	if _, err = r.PurgeStateDir(context.Background(), intmodel.ContainerRecord{ID: "../../etc", RuntimeRoot: root}); err == nil {
		t.Error("PurgeStateDir() must refuse ids escaping the runtime root")
	}
}

func TestRestartRuntime(t *testing.T) {
	h := newHarness()
	h.lister.byName["dockerd"] = []int32{900}
	h.lister.byName["docker-containerd-shim"] = []int32{901}
	h.service.statuses = []string{"activating (start)", "active (running)"}

	ok, err := h.runner(t).RestartRuntime(context.Background())
	if err != nil || !ok {
		t.Fatalf("RestartRuntime() = %v, %v; want true, nil", ok, err)
	}
	if diff := cmp.Diff([]string{"stop docker.service", "start docker.service"}, h.service.calls); diff != "" {
		t.Errorf("service calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{900, 901}, sortedCopy(h.signals.killed)); diff != "" {
		t.Errorf("residual kills mismatch (-want +got):\n%s", diff)
	}
}

func TestRestartRuntimeStartFailure(t *testing.T) {
	h := newHarness()
	h.service.stopErr = errors.New("unit not loaded")
	h.service.startErr = errors.New("start refused")

	ok, err := h.runner(t).RestartRuntime(context.Background())
	if ok || !errors.Is(err, errdefs.ErrDaemonUnreachable) {
		t.Fatalf("RestartRuntime() = %v, %v; want false, ErrDaemonUnreachable", ok, err)
	}
	if len(h.service.calls) != 2 {
		t.Errorf("a failed stop must still be followed by a start, calls = %v", h.service.calls)
	}
}

func TestPruneNetworkResources(t *testing.T) {
	h := newHarness()
	h.docker.networkRemoved = true
	h.docker.pruned = []string{"stale_net"}

	outcome, err := h.runner(t).PruneNetworkResources(context.Background())
	if err != nil {
		t.Fatalf("PruneNetworkResources() unexpected error: %v", err)
	}
	want := runner.NetworkPruneOutcome{AppNetworkRemoved: true, Pruned: []string{"stale_net"}}
	if diff := cmp.Diff(want, outcome); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}

	h.docker.networkErr = errors.New("network has active endpoints")
	h.docker.pruneErr = errors.New("daemon gone")
	if _, err = h.runner(t).PruneNetworkResources(context.Background()); err == nil {
		t.Error("PruneNetworkResources() expected prune error")
	}
}
