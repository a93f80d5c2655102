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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// ParseOutputFormat normalises an --output value.
func ParseOutputFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	case OutputYAML, "yml":
		return OutputYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported output format %q (text, json, yaml)", errdefs.ErrConfig, format)
	}
}

// PrintJSONOrYAML prints data in JSON or YAML format.
// The data parameter should be a struct that can be marshaled.
func PrintJSONOrYAML(cmd *cobra.Command, data interface{}, format string) error {
	var outputStr string

	if format == OutputJSON {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		outputStr = string(b) + "\n"
	} else {
		b, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		outputStr = string(b)
	}

	_, err := fmt.Fprint(cmd.OutOrStdout(), outputStr)
	return err
}

// CompleteOutputFormats is the flag completion for --output.
func CompleteOutputFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{OutputText, OutputJSON, OutputYAML}, cobra.ShellCompDirectiveNoFileComp
}
