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

package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
	"github.com/muesli/termenv"
)

var (
	cyan   = lipgloss.Color("44")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

// Printer renders user-facing output. Color is decided once per printer.
type Printer struct {
	Out   io.Writer
	Color bool

	renderer *lipgloss.Renderer
	info     lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	warn     lipgloss.Style
	label    lipgloss.Style
	bold     lipgloss.Style
}

func NewPrinter(out io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(out)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		Out:      out,
		Color:    color,
		renderer: r,
		info:     r.NewStyle().Foreground(cyan),
		success:  r.NewStyle().Foreground(green),
		failure:  r.NewStyle().Foreground(red),
		warn:     r.NewStyle().Foreground(yellow),
		label:    r.NewStyle().Foreground(dim),
		bold:     r.NewStyle().Bold(true),
	}
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.Out, s)
}

func (p *Printer) Info(format string, a ...any) {
	p.println(p.info.Render(fmt.Sprintf(format, a...)))
}

func (p *Printer) Warn(format string, a ...any) {
	p.println(p.warn.Render(fmt.Sprintf(format, a...)))
}

func (p *Printer) Success(format string, a ...any) {
	p.println(p.success.Render(fmt.Sprintf(format, a...)))
}

func (p *Printer) Error(format string, a ...any) {
	p.println(p.failure.Render(fmt.Sprintf(format, a...)))
}

// Prompt writes a question without a trailing newline.
func (p *Printer) Prompt(format string, a ...any) {
	_, _ = fmt.Fprint(p.Out, p.failure.Render(fmt.Sprintf(format, a...)))
}

// Record shows the identifying fields of a container before teardown.
func (p *Printer) Record(record intmodel.ContainerRecord) {
	pairs := [][2]string{
		{"Container Name", record.Name},
		{"Container ID", abbreviateID(record.ID)},
		{"Status", orUnknown(record.RawStatus)},
		{"Image", orUnknown(record.Image)},
	}
	width := 0
	for _, kv := range pairs {
		width = max(width, len(kv[0]))
	}
	for _, kv := range pairs {
		label := fmt.Sprintf("%-*s", width+1, kv[0]+":")
		p.println(p.label.Render(label) + " " + kv[1])
	}
}

// StepStart announces a pipeline stage.
func (p *Printer) StepStart(index int, name string) {
	p.println("")
	p.println(p.warn.Render(fmt.Sprintf("[%d] %s", index, name)))
}

// StepResult prints the outcome line of a stage.
func (p *Printer) StepResult(step intmodel.StepResult) {
	if step.Succeeded {
		line := fmt.Sprintf("[+] Step %d: %s", step.Index, step.Status())
		if step.Detail != "" {
			line += " " + p.label.Render("("+step.Detail+")")
		}
		p.println(p.success.Render(line))
		return
	}
	msg := step.Err
	if msg == "" {
		msg = step.Detail
	}
	p.println(p.failure.Render(fmt.Sprintf("[!] Step %d failed: %s", step.Index, msg)))
}

// Summary closes a teardown run. Completion is reported even when stages failed; the
// failed ones are listed.
func (p *Printer) Summary(report intmodel.TeardownReport) {
	p.println("")
	failed := report.Failed()
	if len(failed) == 0 {
		p.println(p.success.Render("=== Cleanup completed successfully! ==="))
	} else {
		p.println(p.warn.Render(fmt.Sprintf("=== Cleanup completed with %d failed step(s) ===", len(failed))))
		for _, step := range failed {
			p.println(p.failure.Render(fmt.Sprintf("  - Step %d: %s", step.Index, step.Name)))
		}
	}
	if report.LogPath != "" {
		p.println(p.info.Render("Log file saved to: " + report.LogPath))
	}
	if report.ReportPath != "" {
		p.println(p.info.Render("Report saved to: " + report.ReportPath))
	}
}

func abbreviateID(id string) string {
	if len(id) <= 24 {
		return id
	}
	return id[:12] + "..." + id[len(id)-12:]
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
