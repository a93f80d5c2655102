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

package config

import (
	"os"

	"github.com/eminwux/dreap/internal/consts"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags "-X .../cmd/config.Version=...".
//
//nolint:gochecknoglobals // set by the linker
var Version = "dev"

type Var struct {
	Key        string // e.g. "DREAP_LOG_DIR"
	ViperKey   string // optional, e.g. "dreap/logDir"
	Default    string // optional
	HasDefault bool
}

func DefineKV(envName, viperKey string, defaultVal ...string) Var {
	v := Var{Key: envName, ViperKey: viperKey}
	if len(defaultVal) > 0 {
		v.Default = defaultVal[0]
		v.HasDefault = true
	}
	return v
}

func (v *Var) EnvKey() string               { return v.Key }
func (v *Var) DefaultValue() (string, bool) { return v.Default, v.HasDefault }

// ValueOrDefault defines precedence: viper (if ViperKey set and value present) → OS env → default → "".
func (v *Var) ValueOrDefault() string {
	if v.ViperKey != "" && viper.IsSet(v.ViperKey) {
		return viper.GetString(v.ViperKey)
	}
	if val, ok := os.LookupEnv(v.Key); ok {
		return val
	}
	if v.HasDefault {
		return v.Default
	}
	return ""
}

// BindEnv is safe if ViperKey is empty: does nothing.
func (v *Var) BindEnv() error {
	if v.ViperKey == "" {
		return nil
	}
	return viper.BindEnv(v.ViperKey, v.Key)
}

func (v *Var) Set(value string) error {
	return os.Setenv(v.Key, value)
}

func KV(v Var, value string) string { return v.Key + "=" + value }

//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about these variables
var (
	DREAP_ROOT_VERBOSE              = DefineKV("DREAP_VERBOSE", "dreap/verbose")
	DREAP_ROOT_LOG_LEVEL            = DefineKV("DREAP_LOG_LEVEL", "dreap/logLevel", "info")
	DREAP_ROOT_CONFIG_FILE          = DefineKV("DREAP_CONFIG_FILE", "dreap/configFile")
	DREAP_ROOT_NO_COLOR             = DefineKV("DREAP_NO_COLOR", "dreap/noColor")
	DREAP_ROOT_DOCKER_HOST          = DefineKV("DREAP_DOCKER_HOST", "dreap/docker.host")
	DREAP_ROOT_RUNTIME_ROOT         = DefineKV("DREAP_RUNTIME_ROOT", "dreap/docker.root")
	DREAP_ROOT_SERVICE_NAME         = DefineKV("DREAP_SERVICE_NAME", "dreap/service.name", consts.DefaultServiceName)
	DREAP_ROOT_NETNS_DIR            = DefineKV("DREAP_NETNS_DIR", "dreap/netnsDir", consts.DefaultNetnsDir)
	DREAP_ROOT_CONTAINERD_SOCKET    = DefineKV("DREAP_CONTAINERD_SOCKET", "dreap/containerd.socket", consts.DefaultContainerdSocket)
	DREAP_ROOT_CONTAINERD_NAMESPACE = DefineKV("DREAP_CONTAINERD_NAMESPACE", "dreap/containerd.namespace", consts.DefaultContainerdNS)
	DREAP_ROOT_CGROUP_MOUNTPOINT    = DefineKV("DREAP_CGROUP_MOUNTPOINT", "dreap/cgroup.mountpoint", consts.DefaultCgroupMountpoint)
	DREAP_ROOT_RESTART_GRACE        = DefineKV("DREAP_RESTART_GRACE", "dreap/restart.grace", consts.DefaultRestartGrace.String())
	DREAP_ROOT_RESTART_TIMEOUT      = DefineKV("DREAP_RESTART_TIMEOUT", "dreap/restart.timeout", consts.DefaultRestartTimeout.String())

	DREAP_CLEAN_YES          = DefineKV("DREAP_CLEAN_YES", "dreap/clean/yes")
	DREAP_CLEAN_NO_RESTART   = DefineKV("DREAP_CLEAN_NO_RESTART", "dreap/clean/noRestart")
	DREAP_CLEAN_FIREWALL_TAG = DefineKV("DREAP_FIREWALL_TAG", "dreap/clean/firewallTag", consts.DefaultFirewallTag)
	DREAP_CLEAN_APP_NETWORK  = DefineKV("DREAP_APP_NETWORK", "dreap/clean/appNetwork", consts.DefaultAppNetwork)
	DREAP_CLEAN_LOG_DIR      = DefineKV("DREAP_LOG_DIR", "dreap/clean/logDir", consts.DefaultLogDir)
	DREAP_CLEAN_OUTPUT       = DefineKV("DREAP_CLEAN_OUTPUT", "dreap/clean/output", "text")

	DREAP_INSPECT_OUTPUT = DefineKV("DREAP_INSPECT_OUTPUT", "dreap/inspect/output", "text")
	DREAP_LIST_OUTPUT    = DefineKV("DREAP_LIST_OUTPUT", "dreap/list/output", "text")
	DREAP_STATUS_OUTPUT  = DefineKV("DREAP_STATUS_OUTPUT", "dreap/status/output", "text")
	DREAP_REPORT_OUTPUT  = DefineKV("DREAP_REPORT_OUTPUT", "dreap/report/output", "text")
)

// EnvVars lists every variable bound from the environment.
func EnvVars() []*Var {
	return []*Var{
		&DREAP_ROOT_VERBOSE,
		&DREAP_ROOT_LOG_LEVEL,
		&DREAP_ROOT_CONFIG_FILE,
		&DREAP_ROOT_NO_COLOR,
		&DREAP_ROOT_DOCKER_HOST,
		&DREAP_ROOT_RUNTIME_ROOT,
		&DREAP_ROOT_SERVICE_NAME,
		&DREAP_ROOT_NETNS_DIR,
		&DREAP_ROOT_CONTAINERD_SOCKET,
		&DREAP_ROOT_CONTAINERD_NAMESPACE,
		&DREAP_ROOT_CGROUP_MOUNTPOINT,
		&DREAP_ROOT_RESTART_GRACE,
		&DREAP_ROOT_RESTART_TIMEOUT,
		&DREAP_CLEAN_YES,
		&DREAP_CLEAN_NO_RESTART,
		&DREAP_CLEAN_FIREWALL_TAG,
		&DREAP_CLEAN_APP_NETWORK,
		&DREAP_CLEAN_LOG_DIR,
		&DREAP_CLEAN_OUTPUT,
		&DREAP_INSPECT_OUTPUT,
		&DREAP_LIST_OUTPUT,
		&DREAP_STATUS_OUTPUT,
		&DREAP_REPORT_OUTPUT,
	}
}

func DefaultConfigFile() string {
	return consts.DefaultConfigFile
}
