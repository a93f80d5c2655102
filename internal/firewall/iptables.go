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

package firewall

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/errdefs"
)

// RuleStore is the host firewall rule table as a whole: dumped and reloaded atomically.
type RuleStore interface {
	Dump(ctx context.Context) (string, error)
	Restore(ctx context.Context, rules string) error
}

func NewIptablesStore(runner CommandRunner) RuleStore {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &iptablesStore{runner: runner}
}

type iptablesStore struct {
	runner CommandRunner
}

func (s *iptablesStore) Dump(ctx context.Context) (string, error) {
	out, err := s.runner.Run(ctx, nil, consts.IptablesSaveBinary)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errdefs.ErrFirewallDump, err)
	}
	return string(out), nil
}

func (s *iptablesStore) Restore(ctx context.Context, rules string) error {
	if _, err := s.runner.Run(ctx, strings.NewReader(rules), consts.IptablesRestoreBinary); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrFirewallRestore, err)
	}
	return nil
}

// FilterRules drops every line containing tag and returns the remaining rule set together
// with the number of dropped lines.
func FilterRules(rules, tag string) (string, int) {
	if tag == "" {
		return rules, 0
	}
	var b strings.Builder
	removed := 0
	scanner := bufio.NewScanner(strings.NewReader(rules))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, tag) {
			removed++
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), removed
}

// Prune reloads the rule set without the lines tagged with tag. Nothing is reloaded when no
// line matches or when the dump is empty.
func Prune(ctx context.Context, store RuleStore, tag string) (int, error) {
	if strings.TrimSpace(tag) == "" {
		return 0, nil
	}
	rules, err := store.Dump(ctx)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(rules) == "" {
		return 0, nil
	}
	filtered, removed := FilterRules(rules, tag)
	if removed == 0 {
		return 0, nil
	}
	if err := store.Restore(ctx, filtered); err != nil {
		return 0, err
	}
	return removed, nil
}
