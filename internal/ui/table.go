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
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
)

// Table renders rows with rounded borders and a highlighted header.
func (p *Printer) Table(headers []string, rows [][]string) string {
	headerStyle := p.renderer.NewStyle().Foreground(cyan).Bold(true).Padding(0, 1)
	cellStyle := p.renderer.NewStyle().Padding(0, 1)
	oddStyle := cellStyle.Foreground(dim)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.renderer.NewStyle().Foreground(faint)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return oddStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// PrintTable writes a rendered table to the printer's stream.
func (p *Printer) PrintTable(headers []string, rows [][]string) {
	p.println(p.Table(headers, rows))
}

// Containers prints the runtime's container listing.
func (p *Printer) Containers(containers []intmodel.ContainerSummary) {
	if len(containers) == 0 {
		p.Warn("No containers found")
		return
	}
	rows := make([][]string, 0, len(containers))
	for _, c := range containers {
		rows = append(rows, []string{shortID(c.ID), c.Name, c.Image, c.State, c.Status})
	}
	p.PrintTable([]string{"CONTAINER ID", "NAME", "IMAGE", "STATE", "STATUS"}, rows)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
