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

package autocomplete

import (
	"errors"

	"github.com/spf13/cobra"
)

func NewAutocompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocomplete",
		Short: "Generate shell completion scripts",
		Long:  "Generate shell completion scripts for bash, zsh, or fish",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(newShellCmd("bash", func(root *cobra.Command, c *cobra.Command) error {
		return root.GenBashCompletionV2(c.OutOrStdout(), true)
	}))
	cmd.AddCommand(newShellCmd("zsh", func(root *cobra.Command, c *cobra.Command) error {
		return root.GenZshCompletion(c.OutOrStdout())
	}))
	cmd.AddCommand(newShellCmd("fish", func(root *cobra.Command, c *cobra.Command) error {
		return root.GenFishCompletion(c.OutOrStdout(), true)
	}))

	return cmd
}

func newShellCmd(shell string, gen func(root, cmd *cobra.Command) error) *cobra.Command {
	return &cobra.Command{
		Use:   shell,
		Short: "Generate " + shell + " completion script",
		Long:  "Generate " + shell + " completion script. Output to stdout for redirecting to a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rootCmd := cmd.Root()
			if rootCmd == nil {
				return errors.New("failed to get root command")
			}
			return gen(rootCmd, cmd)
		},
	}
}
