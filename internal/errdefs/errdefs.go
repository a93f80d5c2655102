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

package errdefs

import (
	"errors"
)

var (
	ErrConfig             = errors.New("config error")
	ErrLoggerNotFound     = errors.New("logger not found in context")
	ErrContainerNotFound  = errors.New("container not found")
	ErrDaemonUnreachable  = errors.New("container runtime daemon unreachable")
	ErrResourceBusy       = errors.New("resource busy")
	ErrPermissionDenied   = errors.New("permission denied: must be run as root")
	ErrInvalidIdentifier  = errors.New("invalid container identifier")
	ErrEmptyContainerID   = errors.New("container id is required")
	ErrUnsafePath         = errors.New("path escapes the runtime root")
	ErrServiceUnhealthy   = errors.New("service did not report active (running)")
	ErrOperationCancelled = errors.New("operation cancelled")
	ErrConnectContainerd  = errors.New("failed to connect to containerd")
	ErrConnectDocker      = errors.New("failed to connect to docker")
	ErrFirewallDump       = errors.New("failed to dump firewall rules")
	ErrFirewallRestore    = errors.New("failed to restore firewall rules")
	ErrListProcesses      = errors.New("failed to list processes")
	ErrStepPanicked       = errors.New("step panicked")
	ErrOpenRunLog         = errors.New("failed to open run log")
	ErrMissingReport      = errors.New("report file does not exist")
	ErrWriteReport        = errors.New("failed to write report")
)
