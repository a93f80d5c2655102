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
	"log/slog"
	"os"

	"github.com/eminwux/dreap/cmd/config"
	"github.com/eminwux/dreap/cmd/types"
	"github.com/eminwux/dreap/internal/controller"
	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/eminwux/dreap/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LoggerFromCmd extracts the slog logger from the Cobra command context.
func LoggerFromCmd(cmd *cobra.Command) (*slog.Logger, error) {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return nil, errdefs.ErrLoggerNotFound
	}
	return logger, nil
}

// OptionsFromViper builds controller options from the persistent flags and environment.
func OptionsFromViper() controller.Options {
	return controller.Options{
		DockerHost:          viper.GetString(config.DREAP_ROOT_DOCKER_HOST.ViperKey),
		RuntimeRoot:         viper.GetString(config.DREAP_ROOT_RUNTIME_ROOT.ViperKey),
		ServiceName:         viper.GetString(config.DREAP_ROOT_SERVICE_NAME.ViperKey),
		NetnsDir:            viper.GetString(config.DREAP_ROOT_NETNS_DIR.ViperKey),
		ContainerdSocket:    viper.GetString(config.DREAP_ROOT_CONTAINERD_SOCKET.ViperKey),
		ContainerdNamespace: viper.GetString(config.DREAP_ROOT_CONTAINERD_NAMESPACE.ViperKey),
		CgroupMountpoint:    viper.GetString(config.DREAP_ROOT_CGROUP_MOUNTPOINT.ViperKey),
		RestartGrace:        viper.GetDuration(config.DREAP_ROOT_RESTART_GRACE.ViperKey),
		RestartTimeout:      viper.GetDuration(config.DREAP_ROOT_RESTART_TIMEOUT.ViperKey),
		FirewallTag:         viper.GetString(config.DREAP_CLEAN_FIREWALL_TAG.ViperKey),
		AppNetwork:          viper.GetString(config.DREAP_CLEAN_APP_NETWORK.ViperKey),
		LogDir:              viper.GetString(config.DREAP_CLEAN_LOG_DIR.ViperKey),
		SkipRestart:         viper.GetBool(config.DREAP_CLEAN_NO_RESTART.ViperKey),
	}
}

// ControllerFromCmd instantiates a controller.Exec configured from the shared flags.
// Callers may adjust the options before the controller is built.
func ControllerFromCmd(cmd *cobra.Command, mutate ...func(*controller.Options)) (*controller.Exec, error) {
	logger, err := LoggerFromCmd(cmd)
	if err != nil {
		return nil, err
	}

	opts := OptionsFromViper()
	for _, m := range mutate {
		m(&opts)
	}
	return controller.NewControllerExec(cmd.Context(), logger, opts), nil
}

// GetControllerWithMock returns the controller injected under mockKey, or a real one.
func GetControllerWithMock[T any](
	cmd *cobra.Command,
	mockKey any,
	realController func(*cobra.Command) (T, error),
) (T, error) {
	if mockCtrl, ok := cmd.Context().Value(mockKey).(T); ok {
		return mockCtrl, nil
	}
	return realController(cmd)
}

// PrinterFromCmd builds the user-facing printer on the command's output stream.
func PrinterFromCmd(cmd *cobra.Command) *ui.Printer {
	return ui.NewPrinter(cmd.OutOrStdout(), colorEnabled())
}

// StatusPrinterFromCmd builds the printer for progress and prompts. With a structured
// format stdout carries only the document, so the printer moves to stderr.
func StatusPrinterFromCmd(cmd *cobra.Command, format string) *ui.Printer {
	if format == OutputText {
		return PrinterFromCmd(cmd)
	}
	return ui.NewPrinter(cmd.ErrOrStderr(), colorEnabled())
}

func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return !viper.GetBool(config.DREAP_ROOT_NO_COLOR.ViperKey)
}
