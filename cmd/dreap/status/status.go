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

package status

import (
	"context"

	"github.com/eminwux/dreap/cmd/config"
	"github.com/eminwux/dreap/cmd/dreap/shared"
	"github.com/eminwux/dreap/internal/controller"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type statusController interface {
	Status(ctx context.Context) (controller.StatusReport, error)
	Close() error
}

// MockControllerKey is used to inject mock controllers in tests via context.
type MockControllerKey struct{}

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show whether the runtime daemon is active and answering",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runStatus,
	}

	cmd.Flags().StringP("output", "o", shared.OutputText, "Output format: text, json or yaml")
	_ = viper.BindPFlag(config.DREAP_STATUS_OUTPUT.ViperKey, cmd.Flags().Lookup("output"))
	_ = cmd.RegisterFlagCompletionFunc("output", shared.CompleteOutputFormats)

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, err := shared.ParseOutputFormat(viper.GetString(config.DREAP_STATUS_OUTPUT.ViperKey))
	if err != nil {
		return err
	}

	ctrl, err := shared.GetControllerWithMock(cmd, MockControllerKey{}, func(c *cobra.Command) (statusController, error) {
		return shared.ControllerFromCmd(c)
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	report, err := ctrl.Status(cmd.Context())
	if err != nil {
		return err
	}

	if format != shared.OutputText {
		return shared.PrintJSONOrYAML(cmd, report, format)
	}

	printer := shared.PrinterFromCmd(cmd)
	serviceName := viper.GetString(config.DREAP_ROOT_SERVICE_NAME.ViperKey)
	if report.ServiceErr != "" {
		printer.Warn("Service %s: unknown (%s)", serviceName, report.ServiceErr)
	} else {
		printer.Info("Service %s: %s", serviceName, report.Service)
	}
	if report.Reachable {
		printer.Success("Daemon API: reachable")
	} else {
		printer.Error("Daemon API: unreachable (%s)", report.PingErr)
	}
	return nil
}
