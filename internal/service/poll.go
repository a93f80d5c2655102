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
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/errdefs"
)

const maxPollInterval = 2 * time.Second

// WaitRunning polls the unit status with exponential backoff until it reports
// "active (running)" or timeout elapses. It returns the last observed status.
func WaitRunning(ctx context.Context, mgr Manager, unit string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = consts.DefaultRestartTimeout
	}
	initial := timeout / 20
	if initial > 250*time.Millisecond {
		initial = 250 * time.Millisecond
	}
	if initial <= 0 {
		initial = time.Millisecond
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxPollInterval
	b.MaxElapsedTime = timeout

	var last string
	op := func() error {
		status, err := mgr.Status(ctx, unit)
		if err != nil {
			return err
		}
		last = status
		if !strings.Contains(status, consts.ServiceRunningIndicator) {
			return fmt.Errorf("%s is %q", unit, status)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return last, fmt.Errorf("%w: %w", errdefs.ErrServiceUnhealthy, err)
	}
	return last, nil
}
