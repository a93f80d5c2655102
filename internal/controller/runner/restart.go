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
	"fmt"
	"time"

	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/eminwux/dreap/internal/service"
)

func (r *Exec) serviceManager(ctx context.Context) (service.Manager, error) {
	if r.deps.Service != nil {
		return r.deps.Service, nil
	}
	mgr, err := service.NewSystemdManager(ctx, r.logger)
	if err != nil {
		return nil, err
	}
	r.deps.Service = mgr
	return mgr, nil
}

func (r *Exec) RuntimeStatus(ctx context.Context) (string, error) {
	mgr, err := r.serviceManager(ctx)
	if err != nil {
		return "", err
	}
	return mgr.Status(ctx, r.opts.ServiceName)
}

// StartRuntime starts the daemon service and waits until it reports running.
func (r *Exec) StartRuntime(ctx context.Context) error {
	mgr, err := r.serviceManager(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, err)
	}
	if err = mgr.Start(ctx, r.opts.ServiceName); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, err)
	}
	if _, err = service.WaitRunning(ctx, mgr, r.opts.ServiceName, r.opts.RestartTimeout); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, err)
	}
	return nil
}

// RestartRuntime stops the daemon, kills what survived the stop, waits the grace interval
// and starts it again. It reports true once the service is back to active (running).
func (r *Exec) RestartRuntime(ctx context.Context) (bool, error) {
	mgr, err := r.serviceManager(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, err)
	}

	if err = mgr.Stop(ctx, r.opts.ServiceName); err != nil {
		r.logger.WarnContext(ctx, "service stop failed, killing daemon", "unit", r.opts.ServiceName, "err", err)
	}
	r.killResiduals(ctx)

	select {
	case <-time.After(r.opts.RestartGrace):
	case <-ctx.Done():
		return false, ctx.Err()
	}

	if err = mgr.Start(ctx, r.opts.ServiceName); err != nil {
		return false, fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, err)
	}
	status, err := service.WaitRunning(ctx, mgr, r.opts.ServiceName, r.opts.RestartTimeout)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, err)
	}
	r.logger.DebugContext(ctx, "runtime restarted", "unit", r.opts.ServiceName, "status", status)
	return true, nil
}

// killResiduals SIGKILLs daemon and shim processes still alive after the stop.
func (r *Exec) killResiduals(ctx context.Context) {
	names := append([]string{consts.DaemonProcessName}, r.opts.ShimNames...)
	pids, err := r.deps.Processes.ByName(ctx, names...)
	if err != nil {
		r.logger.DebugContext(ctx, "residual process lookup failed", "err", err)
		return
	}
	for _, pid := range pids {
		if r.skipPID(ctx, pid) {
			continue
		}
		if killErr := r.deps.Signals.Kill(pid); killErr != nil {
			r.logger.DebugContext(ctx, "failed to kill residual process", "pid", pid, "err", killErr)
		}
	}
}
