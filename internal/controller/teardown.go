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

package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eminwux/dreap/internal/errdefs"
	"github.com/eminwux/dreap/internal/metadata"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/eminwux/dreap/internal/runlog"
	"github.com/google/uuid"
)

const (
	StepRegularRemoval  = "Trying regular docker removal"
	StepKillProcesses   = "Force killing container processes"
	StepCleanMounts     = "Cleaning up mounts"
	StepCleanNetns      = "Cleaning up network namespace"
	StepRemoveFiles     = "Removing container files"
	StepRestartRuntime  = "Restarting Docker service"
	StepFinalRemoval    = "Final removal attempt"
	StepCleanNetworking = "Cleaning up network resources"
)

type stage struct {
	name string
	run  func(ctx context.Context, record intmodel.ContainerRecord, log *runlog.Log) (string, error)
}

func (b *Exec) stages() []stage {
	return []stage{
		{StepRegularRemoval, b.removeStage},
		{StepKillProcesses, b.killStage},
		{StepCleanMounts, b.mountStage},
		{StepCleanNetns, b.networkStage},
		{StepRemoveFiles, b.filesStage},
		{StepRestartRuntime, b.restartStage},
		{StepFinalRemoval, b.removeStage},
		{StepCleanNetworking, b.networkResourcesStage},
	}
}

// ForceRemove resolves identifier and runs every teardown stage in order, continuing past
// failed stages. It returns an error only when the container cannot be resolved, in which
// case nothing on the host has been touched.
func (b *Exec) ForceRemove(ctx context.Context, identifier string) (intmodel.TeardownReport, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return intmodel.TeardownReport{}, errdefs.ErrEmptyContainerID
	}

	record, err := b.runner.InspectContainer(ctx, identifier)
	if err != nil {
		return intmodel.TeardownReport{}, err
	}

	report := intmodel.TeardownReport{
		RunID:   uuid.NewString(),
		Record:  record,
		Started: time.Now(),
	}

	log, logErr := runlog.Open(b.opts.LogDir, report.Started, report.RunID, record)
	if logErr != nil {
		b.logger.WarnContext(ctx, "run log unavailable", "dir", b.opts.LogDir, "err", logErr)
		log = runlog.Discard()
	}
	defer log.Close()
	report.LogPath = log.Path()

	b.logger.InfoContext(ctx, "starting forced removal", "id", record.ShortID(), "name", record.Name, "run", report.RunID)

	for i, st := range b.stages() {
		index := i + 1
		if b.opts.Observer != nil {
			b.opts.Observer.StepStarted(index, st.name)
		}
		log.BeginStep(index, st.name)

		var result intmodel.StepResult
		if ctxErr := ctx.Err(); ctxErr != nil {
			result = intmodel.StepResult{
				Index:  index,
				Name:   st.name,
				Detail: "cancelled",
				Err:    fmt.Errorf("%w: %w", errdefs.ErrOperationCancelled, ctxErr).Error(),
			}
		} else {
			result = b.runStage(ctx, index, st, record, log)
		}

		log.EndStep(result)
		report.Steps = append(report.Steps, result)
		if b.opts.Observer != nil {
			b.opts.Observer.StepFinished(result)
		}
	}

	report.Finished = time.Now()
	log.Finish(report.Finished, len(report.Failed()))
	if reportPath := metadata.ReportPathFor(report.LogPath); reportPath != "" {
		report.ReportPath = reportPath
		if writeErr := metadata.WriteMetadata(ctx, b.logger, report, reportPath); writeErr != nil {
			b.logger.WarnContext(ctx, "report not saved", "file", reportPath, "err", writeErr)
			report.ReportPath = ""
		}
	}
	b.logger.InfoContext(ctx, "forced removal finished", "id", record.ShortID(), "failed", len(report.Failed()))
	return report, nil
}

func (b *Exec) runStage(
	ctx context.Context,
	index int,
	st stage,
	record intmodel.ContainerRecord,
	log *runlog.Log,
) (result intmodel.StepResult) {
	started := time.Now()
	result = intmodel.StepResult{Index: index, Name: st.name}
	defer func() {
		if p := recover(); p != nil {
			b.logger.ErrorContext(ctx, "stage panicked", "step", index, "panic", p)
			result.Succeeded = false
			result.Detail = "panicked"
			result.Err = fmt.Errorf("%w: %v", errdefs.ErrStepPanicked, p).Error()
		}
		result.Duration = time.Since(started)
	}()

	detail, err := st.run(ctx, record, log)
	result.Detail = detail
	if err != nil {
		b.logger.DebugContext(ctx, "stage failed", "step", index, "err", err)
		result.Err = err.Error()
		return result
	}
	result.Succeeded = true
	return result
}

func (b *Exec) removeStage(ctx context.Context, record intmodel.ContainerRecord, _ *runlog.Log) (string, error) {
	if err := b.runner.RemoveContainer(ctx, record.ID); err != nil {
		return "runtime removal failed", err
	}
	return "removed", nil
}

func (b *Exec) killStage(ctx context.Context, record intmodel.ContainerRecord, _ *runlog.Log) (string, error) {
	killed, err := b.runner.KillContainerProcesses(ctx, record)
	if err != nil {
		return "process discovery failed", err
	}
	if killed == 0 {
		return "no container processes found", nil
	}
	return fmt.Sprintf("killed %d process(es)", killed), nil
}

func (b *Exec) mountStage(ctx context.Context, record intmodel.ContainerRecord, log *runlog.Log) (string, error) {
	outcome, err := b.runner.ReclaimMounts(ctx, record)
	for _, p := range outcome.Paths {
		log.Note("%s", p)
	}
	return outcome.String(), err
}

func (b *Exec) networkStage(ctx context.Context, record intmodel.ContainerRecord, log *runlog.Log) (string, error) {
	outcome, err := b.runner.ReclaimNetwork(ctx, record)
	if outcome.NamespaceID != "" {
		log.Note("namespace %s: %s", outcome.NamespaceID, outcome.Namespace)
	}
	return outcome.String(), err
}

func (b *Exec) filesStage(ctx context.Context, record intmodel.ContainerRecord, _ *runlog.Log) (string, error) {
	removed, err := b.runner.PurgeStateDir(ctx, record)
	if err != nil {
		return "state directory removal failed", err
	}
	if !removed {
		return "state directory already absent", nil
	}
	return "state directory removed", nil
}

func (b *Exec) restartStage(ctx context.Context, _ intmodel.ContainerRecord, _ *runlog.Log) (string, error) {
	if b.opts.SkipRestart {
		return "skipped", nil
	}
	ok, err := b.runner.RestartRuntime(ctx)
	if err != nil {
		return "runtime did not come back", err
	}
	if !ok {
		return "runtime restart incomplete", errors.New("runtime restart incomplete")
	}
	return "runtime active (running)", nil
}

func (b *Exec) networkResourcesStage(
	ctx context.Context,
	_ intmodel.ContainerRecord,
	log *runlog.Log,
) (string, error) {
	outcome, err := b.runner.PruneNetworkResources(ctx)
	if err != nil {
		return "network prune failed", err
	}
	for _, name := range outcome.Pruned {
		log.Note("pruned network %s", name)
	}
	detail := fmt.Sprintf("%d network(s) pruned", len(outcome.Pruned))
	if outcome.AppNetworkRemoved {
		detail = "application network removed, " + detail
	}
	return detail, nil
}
