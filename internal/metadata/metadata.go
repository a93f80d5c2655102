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

// Package metadata persists run reports as JSON next to their transcripts.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eminwux/dreap/internal/errdefs"
)

const reportFileMode = 0o640

// ReportPathFor maps a transcript path to the path of its JSON report:
// docker_force_clean_X.log becomes docker_force_clean_X.json.
func ReportPathFor(logPath string) string {
	if logPath == "" {
		return ""
	}
	return strings.TrimSuffix(logPath, filepath.Ext(logPath)) + ".json"
}

// WriteMetadata marshals v as indented JSON and replaces file atomically.
func WriteMetadata(ctx context.Context, logger *slog.Logger, v any, file string) error {
	logger.DebugContext(ctx, "writing report", "file", file)

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", errdefs.ErrWriteReport, filepath.Dir(file), err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %w", errdefs.ErrWriteReport, file, err)
	}
	data = append(data, '\n')

	if err = atomicWriteFile(file, data, reportFileMode); err != nil {
		return fmt.Errorf("%w: %s: %w", errdefs.ErrWriteReport, file, err)
	}
	logger.DebugContext(ctx, "report written", "file", file)
	return nil
}

// atomicWriteFile writes to a temp file in the same dir, fsyncs, then renames.
func atomicWriteFile(file string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(file)

	f, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}()

	if err = f.Chmod(mode); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err = os.Rename(tmp, file); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if d, openErr := os.Open(dir); openErr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// ReadMetadata decodes a report written by WriteMetadata.
func ReadMetadata[T any](ctx context.Context, logger *slog.Logger, file string) (T, error) {
	var out T
	logger.DebugContext(ctx, "reading report", "file", file)

	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return out, fmt.Errorf("%w: %s", errdefs.ErrMissingReport, file)
	}
	if err != nil {
		return out, fmt.Errorf("read %s: %w", file, err)
	}
	if err = json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal %s: %w", file, err)
	}
	return out, nil
}
