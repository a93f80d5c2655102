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

package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/errdefs"
)

var (
	//nolint:gochecknoglobals // compiled once
	hexIDPattern = regexp.MustCompile(`^[a-f0-9]+$`)
	//nolint:gochecknoglobals // compiled once
	namePattern = regexp.MustCompile(`^[\w-]+$`)
)

// ValidateIdentifier accepts a hex container id or a container name made of
// word characters and dashes. The inspection call does no sanitization of its own.
func ValidateIdentifier(identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", fmt.Errorf("%w: identifier is empty", errdefs.ErrInvalidIdentifier)
	}
	if !hexIDPattern.MatchString(id) && !namePattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", errdefs.ErrInvalidIdentifier, id)
	}
	return id, nil
}

// TrimContainerName strips the leading slash the runtime puts on container names.
func TrimContainerName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "/")
}

// BuildRunLogName builds the per-run transcript file name, e.g.
// docker_force_clean_20250101_120000.log.
func BuildRunLogName(now time.Time) string {
	return fmt.Sprintf("%s%s.log", consts.DefaultRunLogPrefix, now.Format(consts.RunLogTimestampLayout))
}

// BuildSystemdScopeGroup returns the cgroup path of a container under the systemd cgroup driver.
func BuildSystemdScopeGroup(containerID string) string {
	return fmt.Sprintf("/system.slice/docker-%s.scope", containerID)
}

// BuildCgroupfsGroup returns the cgroup path of a container under the cgroupfs driver.
func BuildCgroupfsGroup(containerID string) string {
	return fmt.Sprintf("/docker/%s", containerID)
}
