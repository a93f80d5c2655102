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

package list

import (
	"context"

	"github.com/eminwux/dreap/cmd/config"
	"github.com/eminwux/dreap/cmd/dreap/shared"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type listController interface {
	ListContainers(ctx context.Context) ([]intmodel.ContainerSummary, error)
	Close() error
}

// MockControllerKey is used to inject mock controllers in tests via context.
type MockControllerKey struct{}

func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Aliases:       []string{"ls"},
		Short:         "List all containers known to the runtime",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runList,
	}

	cmd.Flags().StringP("output", "o", shared.OutputText, "Output format: text, json or yaml")
	_ = viper.BindPFlag(config.DREAP_LIST_OUTPUT.ViperKey, cmd.Flags().Lookup("output"))
	_ = cmd.RegisterFlagCompletionFunc("output", shared.CompleteOutputFormats)

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	format, err := shared.ParseOutputFormat(viper.GetString(config.DREAP_LIST_OUTPUT.ViperKey))
	if err != nil {
		return err
	}

	ctrl, err := shared.GetControllerWithMock(cmd, MockControllerKey{}, func(c *cobra.Command) (listController, error) {
		return shared.ControllerFromCmd(c)
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	containers, err := ctrl.ListContainers(cmd.Context())
	if err != nil {
		return err
	}

	if format != shared.OutputText {
		if containers == nil {
			containers = []intmodel.ContainerSummary{}
		}
		return shared.PrintJSONOrYAML(cmd, containers, format)
	}
	shared.PrinterFromCmd(cmd).Containers(containers)
	return nil
}
