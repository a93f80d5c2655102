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

package shared

import (
	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// MockEUIDKey is used to inject the effective uid in tests via context.
type MockEUIDKey struct{}

// RequireRoot fails with ErrPermissionDenied unless the effective uid is 0.
func RequireRoot(cmd *cobra.Command) error {
	euid, ok := cmd.Context().Value(MockEUIDKey{}).(int)
	if !ok {
		euid = unix.Geteuid()
	}
	if euid != 0 {
		return errdefs.ErrPermissionDenied
	}
	return nil
}
