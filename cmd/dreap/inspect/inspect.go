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

package inspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/eminwux/dreap/cmd/config"
	"github.com/eminwux/dreap/cmd/dreap/shared"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/util/naming"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type inspectController interface {
	Inspect(ctx context.Context, identifier string) (intmodel.ContainerRecord, error)
	Close() error
}

// MockControllerKey is used to inject mock controllers in tests via context.
type MockControllerKey struct{}

func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inspect <id|name>",
		Short:         "Show the host resources a container holds",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runInspect,
	}

	cmd.Flags().StringP("output", "o", shared.OutputText, "Output format: text, json or yaml")
	_ = viper.BindPFlag(config.DREAP_INSPECT_OUTPUT.ViperKey, cmd.Flags().Lookup("output"))

	cmd.ValidArgsFunction = config.CompleteContainerNames
	_ = cmd.RegisterFlagCompletionFunc("output", shared.CompleteOutputFormats)

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	format, err := shared.ParseOutputFormat(viper.GetString(config.DREAP_INSPECT_OUTPUT.ViperKey))
	if err != nil {
		return err
	}
	identifier, err := naming.ValidateIdentifier(args[0])
	if err != nil {
		return err
	}

	ctrl, err := shared.GetControllerWithMock(cmd, MockControllerKey{}, func(c *cobra.Command) (inspectController, error) {
		return shared.ControllerFromCmd(c)
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	record, err := ctrl.Inspect(cmd.Context(), identifier)
	if err != nil {
		return fmt.Errorf("container %s not found or inaccessible: %w", identifier, err)
	}

	if format != shared.OutputText {
		return shared.PrintJSONOrYAML(cmd, record, format)
	}

	printer := shared.PrinterFromCmd(cmd)
	printer.Record(record)
	mounts := "-"
	if len(record.MountPaths) > 0 {
		mounts = strings.Join(record.MountPaths, "\n")
	}
	sandbox := record.NetworkSandboxKey
	if sandbox == "" {
		sandbox = "-"
	}
	printer.PrintTable([]string{"FIELD", "VALUE"}, [][]string{
		{"State", string(record.State)},
		{"PID", strconv.Itoa(record.Pid)},
		{"Sandbox key", sandbox},
		{"Runtime root", record.RuntimeRoot},
		{"State dir", record.StateDir()},
		{"Mounts", mounts},
	})
	return nil
}
