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
	"errors"
	"fmt"

	"github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
)

// MountPath is the fate of one per-container path found on disk.
type MountPath struct {
	Path    string
	Mounted bool
	Busy    bool
	Err     error
}

// MountOutcome reports what ReclaimMounts did. Paths missing from disk are not listed.
type MountOutcome struct {
	Paths []MountPath
}

// Attempted reports whether any unmount was issued.
func (o MountOutcome) Attempted() bool { return len(o.Paths) > 0 }

func (o MountOutcome) String() string {
	if len(o.Paths) == 0 {
		return "no mount points present"
	}
	mounted, detached := 0, 0
	for _, p := range o.Paths {
		if !p.Mounted {
			continue
		}
		mounted++
		if p.Err == nil {
			detached++
		}
	}
	if mounted == 0 {
		return fmt.Sprintf("%d path(s) present but not mounted", len(o.Paths))
	}
	return fmt.Sprintf("detached %d of %d mounted path(s)", detached, mounted)
}

func (p MountPath) String() string {
	state := "not a mount point"
	if p.Mounted {
		state = "mounted"
	}
	switch {
	case p.Err != nil:
		return fmt.Sprintf("%s (%s): %v", p.Path, state, p.Err)
	case p.Busy:
		return fmt.Sprintf("%s (%s): busy, detached lazily", p.Path, state)
	default:
		return fmt.Sprintf("%s (%s): unmounted", p.Path, state)
	}
}

// ReclaimMounts force-detaches every per-container mount present on disk. Each path is
// probed first so the outcome tells real mounts from leftover directories; the unmount is
// issued either way. A failed probe counts as mounted.
func (r *Exec) ReclaimMounts(ctx context.Context, record intmodel.ContainerRecord) (MountOutcome, error) {
	var outcome MountOutcome
	var errs []error
	for _, path := range record.MountPaths {
		if !r.deps.Mounts.Exists(path) {
			continue
		}
		mounted, probeErr := r.deps.Mounts.IsMountPoint(path)
		if probeErr != nil {
			r.logger.DebugContext(ctx, "mount probe failed", "path", path, "err", probeErr)
			mounted = true
		}
		entry := MountPath{Path: path, Mounted: mounted}

		err := r.deps.Unmounter.Unmount(path)
		switch {
		case err == nil:
		case errors.Is(err, errdefs.ErrResourceBusy):
			r.logger.WarnContext(ctx, "mount busy, detached lazily", "path", path, "err", err)
			entry.Busy = true
		default:
			entry.Err = err
			errs = append(errs, fmt.Errorf("unmount %s: %w", path, err))
		}
		outcome.Paths = append(outcome.Paths, entry)
	}
	return outcome, errors.Join(errs...)
}
