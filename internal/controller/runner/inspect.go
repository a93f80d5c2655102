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

	intmodel "github.com/eminwux/dreap/internal/modelhub"
)

func (r *Exec) Ping(ctx context.Context) error {
	return r.deps.Docker.Ping(ctx)
}

// InspectContainer resolves identifier into a record. It has no side effects.
func (r *Exec) InspectContainer(ctx context.Context, identifier string) (intmodel.ContainerRecord, error) {
	return r.deps.Docker.Inspect(ctx, identifier)
}

func (r *Exec) ListContainers(ctx context.Context) ([]intmodel.ContainerSummary, error) {
	return r.deps.Docker.List(ctx)
}

// RemoveContainer asks the runtime to force-remove the container. An already removed
// container is not an error.
func (r *Exec) RemoveContainer(ctx context.Context, identifier string) error {
	return r.deps.Docker.Remove(ctx, identifier)
}
