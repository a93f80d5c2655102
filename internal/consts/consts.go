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

package consts

import "time"

const (
	DreapAppName = "dreap"

	DefaultConfigFile        = "/etc/dreap/config.yaml"
	DefaultRuntimeRoot       = "/var/lib/docker"
	DefaultLogDir            = "/var/log"
	DefaultServiceName       = "docker.service"
	DefaultNetnsDir          = "/var/run/netns"
	DefaultContainerdSocket  = "/run/containerd/containerd.sock"
	DefaultContainerdNS      = "moby"
	DefaultCgroupMountpoint  = "/sys/fs/cgroup"
	DefaultFirewallTag       = "surgio"
	DefaultAppNetwork        = "surgio_default"
	DefaultRestartGrace      = 2 * time.Second
	DefaultRestartTimeout    = 30 * time.Second
	DefaultRunLogPrefix      = "docker_force_clean_"
	RunLogTimestampLayout    = "20060102_150405"
	ContainersDirName        = "containers"
	ServiceRunningIndicator  = "active (running)"
	DaemonProcessName        = "dockerd"
	ShortIDLength            = 12
	IptablesSaveBinary       = "iptables-save"
	IptablesRestoreBinary    = "iptables-restore"
	SystemdJobModeReplace    = "replace"
	SystemdJobResultDone     = "done"
	ContainerStateRunning    = "running"
	ContainerStateStopped    = "stopped"
	ContainerStateUnknown    = "unknown"
	InteractiveCancelKeyword = "exit"
)

// ShimProcessNames lists the process names the runtime uses for its per-container shim.
func ShimProcessNames() []string {
	return []string{"containerd-shim", "containerd-shim-runc-v2", "docker-containerd-shim"}
}

// ContainerMountSuffixes lists the per-container mounts, relative to the container state dir,
// in the order they are reclaimed.
func ContainerMountSuffixes() []string {
	return []string{"mounts/shm", "mounts/mqueue", "shm"}
}
