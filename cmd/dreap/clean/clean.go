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

package clean

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eminwux/dreap/cmd/config"
	"github.com/eminwux/dreap/cmd/dreap/shared"
	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/controller"
	"github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/ui"
	"github.com/eminwux/dreap/internal/util/naming"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cleanController interface {
	EnsureDaemon(ctx context.Context) error
	ListContainers(ctx context.Context) ([]intmodel.ContainerSummary, error)
	Inspect(ctx context.Context, identifier string) (intmodel.ContainerRecord, error)
	ForceRemove(ctx context.Context, identifier string) (intmodel.TeardownReport, error)
	Close() error
}

// MockControllerKey is used to inject mock controllers in tests via context.
type MockControllerKey struct{}

func NewCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [id|name]",
		Short: "Force remove a stuck container and reclaim its host resources",
		Long: "Force remove a container that the runtime cannot remove on its own.\n" +
			"Kills its processes, detaches its mounts, deletes its network namespace and state\n" +
			"directory, restarts the runtime and asks it to remove the container again.\n" +
			"Without an argument the containers are listed and the identifier is prompted for.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runClean,
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	_ = viper.BindPFlag(config.DREAP_CLEAN_YES.ViperKey, cmd.Flags().Lookup("yes"))

	cmd.Flags().Bool("no-restart", false, "Skip the runtime daemon restart stage")
	_ = viper.BindPFlag(config.DREAP_CLEAN_NO_RESTART.ViperKey, cmd.Flags().Lookup("no-restart"))

	cmd.Flags().String("firewall-tag", consts.DefaultFirewallTag, "Firewall rules containing this text are pruned")
	_ = viper.BindPFlag(config.DREAP_CLEAN_FIREWALL_TAG.ViperKey, cmd.Flags().Lookup("firewall-tag"))

	cmd.Flags().String("app-network", consts.DefaultAppNetwork, "Application network removed after the container")
	_ = viper.BindPFlag(config.DREAP_CLEAN_APP_NETWORK.ViperKey, cmd.Flags().Lookup("app-network"))

	cmd.Flags().String("log-dir", consts.DefaultLogDir, "Directory for the run transcript")
	_ = viper.BindPFlag(config.DREAP_CLEAN_LOG_DIR.ViperKey, cmd.Flags().Lookup("log-dir"))

	cmd.Flags().StringP("output", "o", shared.OutputText, "Report format: text, json or yaml")
	_ = viper.BindPFlag(config.DREAP_CLEAN_OUTPUT.ViperKey, cmd.Flags().Lookup("output"))

	cmd.ValidArgsFunction = config.CompleteContainerNames
	_ = cmd.RegisterFlagCompletionFunc("output", shared.CompleteOutputFormats)

	return cmd
}

func runClean(cmd *cobra.Command, args []string) error {
	format, err := shared.ParseOutputFormat(viper.GetString(config.DREAP_CLEAN_OUTPUT.ViperKey))
	if err != nil {
		return err
	}
	printer := shared.StatusPrinterFromCmd(cmd, format)

	if err = shared.RequireRoot(cmd); err != nil {
		return err
	}

	var identifier string
	if len(args) > 0 {
		if identifier, err = naming.ValidateIdentifier(args[0]); err != nil {
			return err
		}
	}

	var observer controller.Observer
	if format == shared.OutputText {
		observer = &stepPrinter{printer: printer}
	}
	ctrl, err := shared.GetControllerWithMock(cmd, MockControllerKey{}, func(c *cobra.Command) (cleanController, error) {
		return shared.ControllerFromCmd(c, func(o *controller.Options) { o.Observer = observer })
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctx := cmd.Context()
	if err = ctrl.EnsureDaemon(ctx); err != nil {
		return err
	}

	input := shared.NewLineReader(cmd.InOrStdin())
	if identifier == "" {
		identifier, err = promptIdentifier(ctx, ctrl, printer, input)
		if errors.Is(err, errdefs.ErrOperationCancelled) {
			printer.Warn("Operation canceled")
			return nil
		}
		if err != nil {
			return err
		}
	}

	printer.Info("Processing container: %s", identifier)
	record, err := ctrl.Inspect(ctx, identifier)
	if err != nil {
		return fmt.Errorf("container %s not found or inaccessible: %w", identifier, err)
	}
	printer.Record(record)

	if !viper.GetBool(config.DREAP_CLEAN_YES.ViperKey) {
		printer.Prompt("\nWARNING: This will force remove the container. Continue? (y/N): ")
		ok, confirmErr := input.Confirm()
		if confirmErr != nil {
			return confirmErr
		}
		if !ok {
			printer.Warn("Operation canceled")
			return nil
		}
	}

	if format == shared.OutputText {
		printer.Error("\n=== Starting Force Removal Procedure ===")
	}
	report, err := ctrl.ForceRemove(ctx, record.ID)
	if err != nil {
		return err
	}

	if format != shared.OutputText {
		return shared.PrintJSONOrYAML(cmd, report, format)
	}
	printer.Summary(report)
	if ctx.Err() != nil {
		printer.Warn("Interrupted: remaining steps were not run")
	}
	return nil
}

// promptIdentifier lists every container and asks which one to remove.
func promptIdentifier(
	ctx context.Context,
	ctrl cleanController,
	printer *ui.Printer,
	input *shared.LineReader,
) (string, error) {
	containers, err := ctrl.ListContainers(ctx)
	if err != nil {
		return "", err
	}
	printer.Info("Current containers:")
	printer.Containers(containers)

	printer.Prompt("\nEnter container ID or name to remove (or '%s' to cancel): ", consts.InteractiveCancelKeyword)
	answer, err := input.ReadLine()
	if err != nil {
		return "", err
	}
	if strings.EqualFold(answer, consts.InteractiveCancelKeyword) {
		return "", errdefs.ErrOperationCancelled
	}
	return naming.ValidateIdentifier(answer)
}

// stepPrinter renders pipeline progress as it happens.
type stepPrinter struct {
	printer *ui.Printer
}

func (s *stepPrinter) StepStarted(index int, name string) {
	s.printer.StepStart(index, name)
}

func (s *stepPrinter) StepFinished(result intmodel.StepResult) {
	s.printer.StepResult(result)
}
