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

package controller

import (
	"context"
	"fmt"

	"github.com/eminwux/dreap/internal/errdefs"
)

// StatusReport describes the runtime daemon as seen by the service manager and the API.
type StatusReport struct {
	Service    string `json:"service"              yaml:"service"`
	ServiceErr string `json:"serviceError,omitempty" yaml:"serviceError,omitempty"`
	Reachable  bool   `json:"reachable"            yaml:"reachable"`
	PingErr    string `json:"pingError,omitempty"  yaml:"pingError,omitempty"`
}

// EnsureDaemon makes sure the runtime answers. A daemon that does not answer is started
// once through the service manager and probed again.
func (b *Exec) EnsureDaemon(ctx context.Context) error {
	err := b.runner.Ping(ctx)
	if err == nil {
		return nil
	}
	b.logger.WarnContext(ctx, "runtime not reachable, starting service", "err", err)

	if startErr := b.runner.StartRuntime(ctx); startErr != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, startErr)
	}
	if err = b.runner.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrDaemonUnreachable, err)
	}
	return nil
}

func (b *Exec) Status(ctx context.Context) (StatusReport, error) {
	var report StatusReport
	status, err := b.runner.RuntimeStatus(ctx)
	if err != nil {
		report.ServiceErr = err.Error()
	}
	report.Service = status

	if pingErr := b.runner.Ping(ctx); pingErr != nil {
		report.PingErr = pingErr.Error()
	} else {
		report.Reachable = true
	}
	return report, nil
}
