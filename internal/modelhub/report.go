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

package modelhub

import "time"

// StepResult is the outcome of one pipeline stage. It is appended once and never changed.
type StepResult struct {
	Index     int           `json:"index"           yaml:"index"`
	Name      string        `json:"name"            yaml:"name"`
	Succeeded bool          `json:"succeeded"       yaml:"succeeded"`
	Detail    string        `json:"detail"          yaml:"detail"`
	Err       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration `json:"duration"        yaml:"duration"`
}

func (s StepResult) Status() string {
	if s.Succeeded {
		return "SUCCESS"
	}
	return "FAILED"
}

// TeardownReport collects everything a forced removal run produced.
type TeardownReport struct {
	RunID      string          `json:"runId"                yaml:"runId"`
	Record     ContainerRecord `json:"record"               yaml:"record"`
	Steps      []StepResult    `json:"steps"                yaml:"steps"`
	LogPath    string          `json:"logPath"              yaml:"logPath"`
	ReportPath string          `json:"reportPath,omitempty" yaml:"reportPath,omitempty"`
	Started    time.Time       `json:"started"              yaml:"started"`
	Finished   time.Time       `json:"finished"             yaml:"finished"`
}

// Failed returns the steps that did not succeed, in pipeline order.
func (r *TeardownReport) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if !step.Succeeded {
			failed = append(failed, step)
		}
	}
	return failed
}

// ContainerSummary is one row of the runtime's container listing.
type ContainerSummary struct {
	ID     string `json:"id"     yaml:"id"`
	Name   string `json:"name"   yaml:"name"`
	Image  string `json:"image"  yaml:"image"`
	State  string `json:"state"  yaml:"state"`
	Status string `json:"status" yaml:"status"`
}
