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

package ctr

import "errors"

var (
	// ErrEmptyGroupPath indicates that a cgroup group path is required.
	ErrEmptyGroupPath = errors.New("ctr: cgroup group path is required")
	// ErrEmptyContainerID indicates that a container id is required.
	ErrEmptyContainerID = errors.New("ctr: container id is required")
	// ErrNotConnected indicates that Connect was not called or failed.
	ErrNotConnected = errors.New("ctr: client is not connected")
	// ErrContainerNotFound indicates that a container was not found.
	ErrContainerNotFound = errors.New("ctr: container not found")
	// ErrTaskNotFound indicates that a task was not found.
	ErrTaskNotFound = errors.New("ctr: task not found")
)
