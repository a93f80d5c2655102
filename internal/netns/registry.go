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

package netns

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/eminwux/dreap/internal/util/fs"
	vnetns "github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// Registry is the directory of persisted network namespace handles (ip netns).
type Registry interface {
	Path(id string) string
	Exists(id string) bool
	// IsNamespace reports whether the handle is still a bind-mounted namespace and not a
	// leftover file whose mount is gone.
	IsNamespace(id string) bool
	Delete(id string) error
}

func NewRegistry(dir string) Registry {
	if strings.TrimSpace(dir) == "" {
		dir = consts.DefaultNetnsDir
	}
	return &registry{dir: filepath.Clean(dir)}
}

type registry struct {
	dir string
}

func (r *registry) Path(id string) string {
	return filepath.Join(r.dir, id)
}

func (r *registry) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	return fs.Exists(r.Path(id))
}

func (r *registry) IsNamespace(id string) bool {
	if !validID(id) {
		return false
	}
	handle, err := vnetns.GetFromPath(r.Path(id))
	if err != nil {
		return false
	}
	defer handle.Close()
	return isNsfs(int(handle))
}

func isNsfs(fd int) bool {
	var st unix.Statfs_t
	if err := unix.Fstatfs(fd, &st); err != nil {
		return false
	}
	return st.Type == unix.NSFS_MAGIC
}

// Delete removes the namespace handle. Deleting an absent handle is a no-op.
func (r *registry) Delete(id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: namespace id %q", errdefs.ErrUnsafePath, id)
	}
	path := r.Path(id)
	if !fs.Exists(path) {
		return nil
	}

	if isSystemRegistry(r.dir) {
		if err := vnetns.DeleteNamed(id); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete netns %s: %w", id, err)
		}
		return nil
	}

	if err := unix.Unmount(path, unix.MNT_DETACH); err != nil &&
		!errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EPERM) {
		if errors.Is(err, unix.EBUSY) {
			return fmt.Errorf("%w: %s: %w", errdefs.ErrResourceBusy, path, err)
		}
		return fmt.Errorf("unmount netns %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove netns handle %s: %w", path, err)
	}
	return nil
}

func validID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "." && id != ".." && !strings.ContainsRune(id, '/')
}

func isSystemRegistry(dir string) bool {
	return dir == consts.DefaultNetnsDir || dir == "/run/netns"
}
