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
	"os"

	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/util/fs"
)

// PurgeStateDir deletes <runtime-root>/containers/<id>. It reports false when the directory
// was already gone.
func (r *Exec) PurgeStateDir(ctx context.Context, record intmodel.ContainerRecord) (bool, error) {
	dir, err := fs.ContainerStateDir(record.RuntimeRoot, record.ID)
	if err != nil {
		return false, err
	}
	if !fs.Exists(dir) {
		r.logger.DebugContext(ctx, "state directory absent", "path", dir)
		return false, nil
	}
	if err = os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("remove %s: %w", dir, err)
	}
	r.logger.DebugContext(ctx, "removed state directory", "path", dir)
	return true, nil
}
