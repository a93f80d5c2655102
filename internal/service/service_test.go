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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/eminwux/dreap/internal/logging"
)

type fakeConn struct {
	mu       sync.Mutex
	result   string
	startErr error
	props    []map[string]interface{}
	calls    []string
	closed   bool
}

func (f *fakeConn) job(verb, name string, ch chan<- string, err error) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, verb+" "+name)
	if err != nil {
		return 0, err
	}
	result := f.result
	if result == "" {
		result = "done"
	}
	ch <- result
	return 1, nil
}

func (f *fakeConn) StopUnitContext(_ context.Context, name string, _ string, ch chan<- string) (int, error) {
	return f.job("stop", name, ch, nil)
}

func (f *fakeConn) StartUnitContext(_ context.Context, name string, _ string, ch chan<- string) (int, error) {
	return f.job("start", name, ch, f.startErr)
}

func (f *fakeConn) GetUnitPropertiesContext(_ context.Context, _ string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.props) == 0 {
		return nil, errors.New("no such unit")
	}
	p := f.props[0]
	if len(f.props) > 1 {
		f.props = f.props[1:]
	}
	return p, nil
}

func (f *fakeConn) Close() { f.closed = true }

func props(active, sub string) map[string]interface{} {
	return map[string]interface{}{"ActiveState": active, "SubState": sub}
}

func TestSystemdManagerJobs(t *testing.T) {
	conn := &fakeConn{}
	mgr := newSystemdManagerWithConn(logging.NewNoopLogger(), conn)
	ctx := context.Background()

	if err := mgr.Stop(ctx, "docker.service"); err != nil {
		t.Fatalf("Stop() unexpected error: %v", err)
	}
	if err := mgr.Start(ctx, "docker.service"); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	want := []string{"stop docker.service", "start docker.service"}
	if len(conn.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", conn.calls, want)
	}
	for i := range want {
		if conn.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, conn.calls[i], want[i])
		}
	}

	mgr.Close()
	if !conn.closed {
		t.Error("Close() did not close the connection")
	}
}

func TestSystemdManagerJobFailure(t *testing.T) {
	conn := &fakeConn{result: "failed"}
	mgr := newSystemdManagerWithConn(logging.NewNoopLogger(), conn)
	if err := mgr.Start(context.Background(), "docker.service"); err == nil {
		t.Fatal("Start() expected error for failed job result")
	}

	conn = &fakeConn{startErr: errors.New("unit masked")}
	mgr = newSystemdManagerWithConn(logging.NewNoopLogger(), conn)
	if err := mgr.Start(context.Background(), "docker.service"); err == nil {
		t.Fatal("Start() expected error when the bus call fails")
	}
}

func TestSystemdManagerStatus(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]interface{}
		want  string
	}{
		{"running", props("active", "running"), "active (running)"},
		{"dead", props("inactive", "dead"), "inactive (dead)"},
		{"no substate", map[string]interface{}{"ActiveState": "failed"}, "failed"},
		{"empty", map[string]interface{}{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{props: []map[string]interface{}{tt.props}}
			mgr := newSystemdManagerWithConn(logging.NewNoopLogger(), conn)
			got, err := mgr.Status(context.Background(), "docker.service")
			if err != nil {
				t.Fatalf("Status() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWaitRunningEventuallyHealthy(t *testing.T) {
	conn := &fakeConn{props: []map[string]interface{}{
		props("activating", "start"),
		props("activating", "start"),
		props("active", "running"),
	}}
	mgr := newSystemdManagerWithConn(logging.NewNoopLogger(), conn)

	status, err := WaitRunning(context.Background(), mgr, "docker.service", 2*time.Second)
	if err != nil {
		t.Fatalf("WaitRunning() unexpected error: %v", err)
	}
	if status != "active (running)" {
		t.Errorf("WaitRunning() status = %q", status)
	}
}

func TestWaitRunningTimesOut(t *testing.T) {
	conn := &fakeConn{props: []map[string]interface{}{props("failed", "failed")}}
	mgr := newSystemdManagerWithConn(logging.NewNoopLogger(), conn)

	status, err := WaitRunning(context.Background(), mgr, "docker.service", 50*time.Millisecond)
	if !errors.Is(err, errdefs.ErrServiceUnhealthy) {
		t.Fatalf("WaitRunning() error = %v, want ErrServiceUnhealthy", err)
	}
	if status != "failed (failed)" {
		t.Errorf("WaitRunning() last status = %q", status)
	}
}

func TestWaitRunningHonoursContext(t *testing.T) {
	conn := &fakeConn{props: []map[string]interface{}{props("inactive", "dead")}}
	mgr := newSystemdManagerWithConn(logging.NewNoopLogger(), conn)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := WaitRunning(ctx, mgr, "docker.service", 10*time.Second); err == nil {
		t.Fatal("WaitRunning() expected error on cancelled context")
	}
}
