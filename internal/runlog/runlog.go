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

package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/util/naming"
)

// Log is the append-only transcript of one teardown run.
type Log struct {
	mu   sync.Mutex
	path string
	w    io.Writer
	c    io.Closer
}

// Open creates <dir>/docker_force_clean_<timestamp>.log and writes the run header.
func Open(dir string, now time.Time, runID string, record intmodel.ContainerRecord) (*Log, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty log directory", errdefs.ErrOpenRunLog)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", errdefs.ErrOpenRunLog, err)
	}
	path := filepath.Join(dir, naming.BuildRunLogName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errdefs.ErrOpenRunLog, err)
	}
	l := &Log{path: path, w: f, c: f}
	l.header(now, runID, record)
	return l, nil
}

// Discard returns a Log that writes nowhere, used when the log file cannot be opened.
func Discard() *Log {
	return &Log{w: io.Discard}
}

func (l *Log) Path() string { return l.path }

func (l *Log) header(now time.Time, runID string, record intmodel.ContainerRecord) {
	l.printf("Force removal run %s\n", runID)
	l.printf("Started: %s\n", now.Format(time.RFC3339))
	l.printf("Container: %s (%s)\n", record.ID, record.Name)
	l.printf("Status: %s\n", record.RawStatus)
	l.printf("Image: %s\n", record.Image)
}

// BeginStep writes the step banner.
func (l *Log) BeginStep(index int, name string) {
	l.printf("\n\n=== Step %d: %s ===\n", index, name)
}

// Note appends a free-form line to the current step.
func (l *Log) Note(format string, args ...any) {
	l.printf(format+"\n", args...)
}

// EndStep writes the outcome of the step.
func (l *Log) EndStep(result intmodel.StepResult) {
	l.printf("%s: %s (%s)\n", result.Status(), result.Detail, result.Duration.Round(time.Millisecond))
	if result.Err != "" {
		l.printf("error: %s\n", result.Err)
	}
}

// Finish writes the trailer.
func (l *Log) Finish(now time.Time, failed int) {
	l.printf("\nFinished: %s, failed steps: %d\n", now.Format(time.RFC3339), failed)
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c == nil {
		return nil
	}
	err := l.c.Close()
	l.c = nil
	l.w = io.Discard
	return err
}

func (l *Log) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// transcript write errors must not stop the teardown
	_, _ = fmt.Fprintf(l.w, format, args...)
}
