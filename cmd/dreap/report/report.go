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

package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/eminwux/dreap/cmd/config"
	"github.com/eminwux/dreap/cmd/dreap/shared"
	"github.com/eminwux/dreap/internal/metadata"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Show the saved report of a past clean run",
		Long: "Show the report saved next to a clean run's transcript.\n" +
			"Either the .json report or the .log transcript of the run may be given.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runReport,
	}

	cmd.Flags().StringP("output", "o", shared.OutputText, "Output format: text, json or yaml")
	_ = viper.BindPFlag(config.DREAP_REPORT_OUTPUT.ViperKey, cmd.Flags().Lookup("output"))
	_ = cmd.RegisterFlagCompletionFunc("output", shared.CompleteOutputFormats)

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := shared.ParseOutputFormat(viper.GetString(config.DREAP_REPORT_OUTPUT.ViperKey))
	if err != nil {
		return err
	}
	logger, err := shared.LoggerFromCmd(cmd)
	if err != nil {
		return err
	}

	file := strings.TrimSpace(args[0])
	if strings.HasSuffix(file, ".log") {
		file = metadata.ReportPathFor(file)
	}
	report, err := metadata.ReadMetadata[intmodel.TeardownReport](cmd.Context(), logger, file)
	if err != nil {
		return err
	}

	if format != shared.OutputText {
		return shared.PrintJSONOrYAML(cmd, report, format)
	}

	printer := shared.PrinterFromCmd(cmd)
	printer.Info("Run %s", report.RunID)
	printer.Record(report.Record)
	rows := make([][]string, 0, len(report.Steps))
	for _, step := range report.Steps {
		detail := step.Detail
		if step.Err != "" {
			detail += ": " + step.Err
		}
		rows = append(rows, []string{
			strconv.Itoa(step.Index),
			step.Name,
			step.Status(),
			detail,
			step.Duration.Round(time.Millisecond).String(),
		})
	}
	printer.PrintTable([]string{"STEP", "NAME", "STATUS", "DETAIL", "DURATION"}, rows)
	printer.Summary(report)
	return nil
}
