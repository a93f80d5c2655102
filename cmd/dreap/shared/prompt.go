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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eminwux/dreap/internal/errdefs"
)

// LineReader reads answers from the command's input, one line at a time.
type LineReader struct {
	r *bufio.Reader
}

func NewLineReader(in io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(in)}
}

// ReadLine returns the next trimmed line. Reaching end of input before any text counts
// as a cancelled prompt.
func (l *LineReader) ReadLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errdefs.ErrOperationCancelled
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm reports whether the next line is an explicit yes. Only "y" and "yes" confirm.
func (l *LineReader) Confirm() (bool, error) {
	answer, err := l.ReadLine()
	if err != nil {
		if errors.Is(err, errdefs.ErrOperationCancelled) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
