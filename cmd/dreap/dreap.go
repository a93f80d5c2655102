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

package dreap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/eminwux/dreap/cmd/config"
	autocompletecmd "github.com/eminwux/dreap/cmd/dreap/autocomplete"
	cleancmd "github.com/eminwux/dreap/cmd/dreap/clean"
	inspectcmd "github.com/eminwux/dreap/cmd/dreap/inspect"
	listcmd "github.com/eminwux/dreap/cmd/dreap/list"
	reportcmd "github.com/eminwux/dreap/cmd/dreap/report"
	statuscmd "github.com/eminwux/dreap/cmd/dreap/status"
	"github.com/eminwux/dreap/cmd/dreap/version"
	"github.com/eminwux/dreap/cmd/types"
	"github.com/eminwux/dreap/internal/consts"
	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/eminwux/dreap/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ConfigLoader interface {
	LoadConfig() error
}

// MockConfigLoaderKey is used to inject mock config loaders in tests via context.
type MockConfigLoaderKey struct{}

func NewDreapCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "dreap",
		Short: "Forcibly reclaim stuck Docker containers and their kernel resources",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var logger *slog.Logger
			if viper.GetBool(config.DREAP_ROOT_VERBOSE.ViperKey) {
				logLevel := viper.GetString(config.DREAP_ROOT_LOG_LEVEL.ViperKey)
				if logLevel == "" {
					logLevel = "info"
				}

				levelVar := new(slog.LevelVar)
				levelVar.Set(logging.ParseLevel(logLevel))
				logger = logging.NewConsoleLogger(os.Stderr, levelVar, viper.GetBool(config.DREAP_ROOT_NO_COLOR.ViperKey))

				ctx := cmd.Context()
				ctx = context.WithValue(ctx, types.CtxLogger, logger)
				ctx = context.WithValue(ctx, types.CtxLevelVar, levelVar)
				cmd.SetContext(ctx)
				logger.DebugContext(cmd.Context(), "enabling verbose", "log-level", logLevel)
			}

			var loader ConfigLoader
			if mockLoader, ok := cmd.Context().Value(MockConfigLoaderKey{}).(ConfigLoader); ok {
				loader = mockLoader
			} else {
				loader = &realConfigLoader{}
			}

			if err := loader.LoadConfig(); err != nil {
				if logger != nil {
					logger.DebugContext(cmd.Context(), "config error", "error", err)
				}
				return fmt.Errorf("%w: %w", errdefs.ErrConfig, err)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	if err := SetupDreapCmd(cmd); err != nil {
		return nil, fmt.Errorf("failed to setup dreap command: %w", err)
	}

	return cmd, nil
}

func SetupDreapCmd(rootCmd *cobra.Command) error {
	rootCmd.AddCommand(cleancmd.NewCleanCmd())
	rootCmd.AddCommand(inspectcmd.NewInspectCmd())
	rootCmd.AddCommand(listcmd.NewListCmd())
	rootCmd.AddCommand(statuscmd.NewStatusCmd())
	rootCmd.AddCommand(reportcmd.NewReportCmd())
	rootCmd.AddCommand(autocompletecmd.NewAutocompleteCmd())
	rootCmd.AddCommand(version.NewVersionCmd())

	return SetPersistentFlags(rootCmd)
}

type persistentFlag struct {
	name  string
	short string
	value any
	usage string
	v     *config.Var
}

func SetPersistentFlags(rootCmd *cobra.Command) error {
	flags := []persistentFlag{
		{"config", "", config.DefaultConfigFile(), "config file", &config.DREAP_ROOT_CONFIG_FILE},
		{"verbose", "v", false, "Enable verbose logging", &config.DREAP_ROOT_VERBOSE},
		{"log-level", "", "", "Log level (debug, info, warn, error)", &config.DREAP_ROOT_LOG_LEVEL},
		{"no-color", "", false, "Disable colored output", &config.DREAP_ROOT_NO_COLOR},
		{"docker-host", "", "", "Docker daemon endpoint (defaults to DOCKER_HOST or the local socket)", &config.DREAP_ROOT_DOCKER_HOST},
		{"runtime-root", "", "", "Docker data root (defaults to the daemon's DockerRootDir)", &config.DREAP_ROOT_RUNTIME_ROOT},
		{"service-name", "", consts.DefaultServiceName, "systemd unit of the Docker daemon", &config.DREAP_ROOT_SERVICE_NAME},
		{"netns-dir", "", consts.DefaultNetnsDir, "Directory of named network namespaces", &config.DREAP_ROOT_NETNS_DIR},
		{"containerd-socket", "", consts.DefaultContainerdSocket, "containerd socket file", &config.DREAP_ROOT_CONTAINERD_SOCKET},
		{"containerd-namespace", "", consts.DefaultContainerdNS, "containerd namespace used by Docker", &config.DREAP_ROOT_CONTAINERD_NAMESPACE},
		{"cgroup-mountpoint", "", consts.DefaultCgroupMountpoint, "cgroup v2 mount point", &config.DREAP_ROOT_CGROUP_MOUNTPOINT},
		{"restart-grace", "", consts.DefaultRestartGrace, "Pause between stopping and starting the daemon", &config.DREAP_ROOT_RESTART_GRACE},
		{"restart-timeout", "", consts.DefaultRestartTimeout, "How long to wait for the daemon to report active (running)", &config.DREAP_ROOT_RESTART_TIMEOUT},
	}

	pf := rootCmd.PersistentFlags()
	for _, f := range flags {
		switch def := f.value.(type) {
		case string:
			pf.StringP(f.name, f.short, def, f.usage)
		case bool:
			pf.BoolP(f.name, f.short, def, f.usage)
		case time.Duration:
			pf.DurationP(f.name, f.short, def, f.usage)
		}
		if err := viper.BindPFlag(f.v.ViperKey, pf.Lookup(f.name)); err != nil {
			return err
		}
	}

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	return nil
}

type realConfigLoader struct{}

func (r *realConfigLoader) LoadConfig() error {
	return loadConfig()
}

func loadConfig() error {
	for _, v := range config.EnvVars() {
		_ = v.BindEnv()
	}

	configFile := viper.GetString(config.DREAP_ROOT_CONFIG_FILE.ViperKey)
	if configFile == "" || configFile == config.DefaultConfigFile() {
		// the default file is optional
		configFile = config.DefaultConfigFile()
		viper.SetConfigName(trimExt(filepath.Base(configFile)))
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Dir(configFile))
	} else {
		viper.SetConfigFile(configFile)
	}

	logLevel := viper.GetString(config.DREAP_ROOT_LOG_LEVEL.ViperKey)
	if logLevel == "" {
		viper.Set(config.DREAP_ROOT_LOG_LEVEL.ViperKey, "info")
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("%w: %w", errdefs.ErrConfig, err)
		}
	}

	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// LoadConfig is a public wrapper for backward compatibility.
func LoadConfig() error {
	return loadConfig()
}
