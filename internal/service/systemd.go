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

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/eminwux/dreap/internal/consts"
)

// Manager controls the runtime daemon's service unit.
type Manager interface {
	Stop(ctx context.Context, unit string) error
	Start(ctx context.Context, unit string) error
	// Status renders the unit state as "<active> (<sub>)", e.g. "active (running)".
	Status(ctx context.Context, unit string) (string, error)
	Close()
}

// unitConn is the part of the systemd D-Bus connection the manager uses.
// *dbus.Conn satisfies it.
type unitConn interface {
	StopUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	GetUnitPropertiesContext(ctx context.Context, unit string) (map[string]interface{}, error)
	Close()
}

type systemdManager struct {
	logger *slog.Logger
	conn   unitConn
}

// NewSystemdManager connects to the system bus.
func NewSystemdManager(ctx context.Context, logger *slog.Logger) (Manager, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}
	return &systemdManager{logger: logger, conn: conn}, nil
}

func newSystemdManagerWithConn(logger *slog.Logger, conn unitConn) Manager {
	return &systemdManager{logger: logger, conn: conn}
}

func (m *systemdManager) Stop(ctx context.Context, unit string) error {
	ch := make(chan string, 1)
	if _, err := m.conn.StopUnitContext(ctx, unit, consts.SystemdJobModeReplace, ch); err != nil {
		return fmt.Errorf("stop %s: %w", unit, err)
	}
	return m.waitJob(ctx, "stop", unit, ch)
}

func (m *systemdManager) Start(ctx context.Context, unit string) error {
	ch := make(chan string, 1)
	if _, err := m.conn.StartUnitContext(ctx, unit, consts.SystemdJobModeReplace, ch); err != nil {
		return fmt.Errorf("start %s: %w", unit, err)
	}
	return m.waitJob(ctx, "start", unit, ch)
}

func (m *systemdManager) waitJob(ctx context.Context, verb, unit string, ch <-chan string) error {
	select {
	case result := <-ch:
		m.logger.DebugContext(ctx, "systemd job finished", "unit", unit, "job", verb, "result", result)
		if result != consts.SystemdJobResultDone {
			return fmt.Errorf("%s %s: job result %q", verb, unit, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *systemdManager) Status(ctx context.Context, unit string) (string, error) {
	props, err := m.conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		return "", fmt.Errorf("status %s: %w", unit, err)
	}
	active, _ := props["ActiveState"].(string)
	sub, _ := props["SubState"].(string)
	if active == "" {
		active = "unknown"
	}
	if sub == "" {
		return active, nil
	}
	return fmt.Sprintf("%s (%s)", active, sub), nil
}

func (m *systemdManager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
