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

package list_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/eminwux/dreap/cmd/dreap/list"
	"github.com/eminwux/dreap/cmd/types"
	"github.com/eminwux/dreap/internal/errdefs"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/spf13/viper"
)

type fakeListController struct {
	containers []intmodel.ContainerSummary
	err        error
}

func (f *fakeListController) ListContainers(context.Context) ([]intmodel.ContainerSummary, error) {
	return f.containers, f.err
}

func (f *fakeListController) Close() error { return nil }

func TestListCmd(t *testing.T) {
	containers := []intmodel.ContainerSummary{
		{ID: "abc123def456abc123def456", Name: "web", Image: "nginx", State: "running", Status: "Up 2 hours"},
		{ID: "fff000fff000fff000fff000", Name: "db", Image: "postgres", State: "dead", Status: "Dead"},
	}

	tests := []struct {
		name       string
		output     string
		ctrl       *fakeListController
		wantErr    error
		wantOutput []string
	}{
		{
			name:       "table",
			ctrl:       &fakeListController{containers: containers},
			wantOutput: []string{"CONTAINER ID", "abc123def456", "web", "postgres", "Dead"},
		},
		{
			name:       "empty table",
			ctrl:       &fakeListController{},
			wantOutput: []string{"No containers found"},
		},
		{
			name:       "json",
			output:     "json",
			ctrl:       &fakeListController{containers: containers},
			wantOutput: []string{`"name": "db"`, `"state": "dead"`},
		},
		{
			name:       "empty json is an array",
			output:     "json",
			ctrl:       &fakeListController{},
			wantOutput: []string{"[]"},
		},
		{
			name:    "daemon error",
			ctrl:    &fakeListController{err: errdefs.ErrDaemonUnreachable},
			wantErr: errdefs.ErrDaemonUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(viper.Reset)
			viper.Reset()

			cmd := list.NewListCmd()
			if tt.output != "" {
				if err := cmd.Flags().Set("output", tt.output); err != nil {
					t.Fatal(err)
				}
			}
			ctx := context.WithValue(context.Background(), types.CtxLogger, slog.New(slog.NewTextHandler(io.Discard, nil)))
			ctx = context.WithValue(ctx, list.MockControllerKey{}, tt.ctrl)
			cmd.SetContext(ctx)
			var out bytes.Buffer
			cmd.SetOut(&out)

			err := cmd.RunE(cmd, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RunE() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RunE() unexpected error: %v", err)
			}
			for _, want := range tt.wantOutput {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}
