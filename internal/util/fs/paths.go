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

package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/errdefs"
)

// ContainerStateDir returns <runtimeRoot>/containers/<id>. The id must be a single path
// element so the result can never leave the containers directory.
func ContainerStateDir(runtimeRoot, containerID string) (string, error) {
	containerID = strings.TrimSpace(containerID)
	if containerID == "" {
		return "", errdefs.ErrEmptyContainerID
	}
	if strings.TrimSpace(runtimeRoot) == "" {
		return "", fmt.Errorf("%w: runtime root is required", errdefs.ErrConfig)
	}
	if containerID != filepath.Base(containerID) || containerID == "." || containerID == ".." {
		return "", fmt.Errorf("%w: %q", errdefs.ErrUnsafePath, containerID)
	}
	containersDir := filepath.Join(filepath.Clean(runtimeRoot), consts.ContainersDirName)
	dir := filepath.Join(containersDir, containerID)
	if !strings.HasPrefix(dir, containersDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errdefs.ErrUnsafePath, dir)
	}
	return dir, nil
}

// ContainerMountPaths returns the well-known per-container mount points in reclaim order.
func ContainerMountPaths(runtimeRoot, containerID string) ([]string, error) {
	dir, err := ContainerStateDir(runtimeRoot, containerID)
	if err != nil {
		return nil, err
	}
	suffixes := consts.ContainerMountSuffixes()
	paths := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		paths = append(paths, filepath.Join(dir, filepath.FromSlash(suffix)))
	}
	return paths, nil
}

// Exists reports whether path is present. Errors other than "does not exist" count as present
// so callers still attempt the operation and surface the real error.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
