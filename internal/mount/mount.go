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

package mount

import (
	"errors"
	"fmt"

	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/eminwux/dreap/internal/util/fs"
	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// PointChecker answers questions about candidate mount points.
type PointChecker interface {
	Exists(path string) bool
	IsMountPoint(path string) (bool, error)
}

// Unmounter detaches a mount even when it is busy.
type Unmounter interface {
	Unmount(path string) error
}

func NewPointChecker() PointChecker { return hostChecker{} }

func NewUnmounter() Unmounter { return forceUnmounter{} }

type hostChecker struct{}

func (hostChecker) Exists(path string) bool { return fs.Exists(path) }

func (hostChecker) IsMountPoint(path string) (bool, error) {
	return mountinfo.Mounted(path)
}

type forceUnmounter struct{}

// Unmount issues umount2(MNT_FORCE|MNT_DETACH). A path that is not mounted, or that has
// vanished, is already in the desired state.
func (forceUnmounter) Unmount(path string) error {
	err := unix.Unmount(path, unix.MNT_FORCE|unix.MNT_DETACH)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOENT):
		return nil
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s: %w", errdefs.ErrResourceBusy, path, err)
	default:
		return fmt.Errorf("unmount %s: %w", path, err)
	}
}
