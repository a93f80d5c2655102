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

package config_test

import (
	"testing"

	"github.com/eminwux/dreap/cmd/config"
	"github.com/spf13/viper"
)

func TestVarValueOrDefault(t *testing.T) {
	t.Cleanup(viper.Reset)

	v := config.DefineKV("DREAP_TEST_VALUE", "dreap/test/value", "fallback")
	if got := v.ValueOrDefault(); got != "fallback" {
		t.Errorf("default: got %q, want %q", got, "fallback")
	}

	t.Setenv("DREAP_TEST_VALUE", "from-env")
	if got := v.ValueOrDefault(); got != "from-env" {
		t.Errorf("env: got %q, want %q", got, "from-env")
	}

	viper.Set("dreap/test/value", "from-viper")
	if got := v.ValueOrDefault(); got != "from-viper" {
		t.Errorf("viper: got %q, want %q", got, "from-viper")
	}
}

func TestVarBindEnv(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Reset()

	t.Setenv(config.DREAP_CLEAN_FIREWALL_TAG.EnvKey(), "myapp")
	if err := config.DREAP_CLEAN_FIREWALL_TAG.BindEnv(); err != nil {
		t.Fatalf("BindEnv() unexpected error: %v", err)
	}
	if got := viper.GetString(config.DREAP_CLEAN_FIREWALL_TAG.ViperKey); got != "myapp" {
		t.Errorf("bound value = %q, want %q", got, "myapp")
	}

	unbound := config.DefineKV("DREAP_UNBOUND", "")
	if err := unbound.BindEnv(); err != nil {
		t.Errorf("BindEnv() without viper key should be a no-op, got %v", err)
	}
}

func TestEnvVarsDefaults(t *testing.T) {
	seen := map[string]bool{}
	for _, v := range config.EnvVars() {
		if seen[v.Key] {
			t.Errorf("duplicate env var %s", v.Key)
		}
		seen[v.Key] = true
		if v.ViperKey == "" {
			t.Errorf("%s has no viper key", v.Key)
		}
	}

	for _, tc := range []struct {
		v    config.Var
		want string
	}{
		{config.DREAP_CLEAN_FIREWALL_TAG, "surgio"},
		{config.DREAP_CLEAN_APP_NETWORK, "surgio_default"},
		{config.DREAP_CLEAN_LOG_DIR, "/var/log"},
		{config.DREAP_ROOT_SERVICE_NAME, "docker.service"},
		{config.DREAP_ROOT_RESTART_GRACE, "2s"},
	} {
		if got, ok := tc.v.DefaultValue(); !ok || got != tc.want {
			t.Errorf("%s default = %q, want %q", tc.v.Key, got, tc.want)
		}
	}
	if config.KV(config.DREAP_CLEAN_LOG_DIR, "/tmp") != "DREAP_LOG_DIR=/tmp" {
		t.Error("KV() formatting mismatch")
	}
	if config.DefaultConfigFile() != "/etc/dreap/config.yaml" {
		t.Errorf("DefaultConfigFile() = %q", config.DefaultConfigFile())
	}
}
