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

package modelhub

import (
	"path/filepath"
	"strings"

	"github.com/eminwux/dreap/internal/consts"
)

// ContainerRecord is the snapshot of a container taken once per run. It is never
// mutated after RuntimeQuery builds it.
type ContainerRecord struct {
	ID                string         `json:"id"                yaml:"id"`
	Name              string         `json:"name"              yaml:"name"`
	State             ContainerState `json:"state"             yaml:"state"`
	RawStatus         string         `json:"rawStatus"         yaml:"rawStatus"`
	Image             string         `json:"image"             yaml:"image"`
	Pid               int            `json:"pid"               yaml:"pid"`
	RuntimeRoot       string         `json:"runtimeRoot"       yaml:"runtimeRoot"`
	MountPaths        []string       `json:"mountPaths"        yaml:"mountPaths"`
	NetworkSandboxKey string         `json:"networkSandboxKey" yaml:"networkSandboxKey"`
}

type ContainerState string

const (
	ContainerStateRunning ContainerState = consts.ContainerStateRunning
	ContainerStateStopped ContainerState = consts.ContainerStateStopped
	ContainerStateUnknown ContainerState = consts.ContainerStateUnknown
)

// ParseContainerState folds the runtime's status vocabulary into running/stopped/unknown.
func ParseContainerState(status string) ContainerState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "running", "paused", "restarting":
		return ContainerStateRunning
	case "created", "exited", "dead", "removing":
		return ContainerStateStopped
	default:
		return ContainerStateUnknown
	}
}

// ShortID returns the abbreviated identifier used in user-facing output.
func (r *ContainerRecord) ShortID() string {
	if len(r.ID) <= consts.ShortIDLength {
		return r.ID
	}
	return r.ID[:consts.ShortIDLength]
}

// StateDir returns <runtime-root>/containers/<id>, or "" when the record lacks either part.
func (r *ContainerRecord) StateDir() string {
	if r.ID == "" || r.RuntimeRoot == "" {
		return ""
	}
	return filepath.Join(r.RuntimeRoot, consts.ContainersDirName, r.ID)
}

// NamespaceID is the last path segment of the sandbox key.
func (r *ContainerRecord) NamespaceID() string {
	key := strings.TrimRight(strings.TrimSpace(r.NetworkSandboxKey), "/")
	if key == "" {
		return ""
	}
	return filepath.Base(key)
}
