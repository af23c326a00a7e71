// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	failedRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"}).
			Bold(true).
			PaddingLeft(1).PaddingRight(1)
)

// column of a reportTable. Tables whose columns have no headers are rendered without a header row.
type column struct {
	header string
	align  lipgloss.Position
}

func left(header string) column   { return column{header, lipgloss.Left} }
func right(header string) column  { return column{header, lipgloss.Right} }
func center(header string) column { return column{header, lipgloss.Center} }

// reportTable is a bordered table with alternating row shades, where the rows of groups that
// failed to plan are highlighted in red.
type reportTable struct {
	table   *lgtable.Table
	columns []column
	numRows int
	failed  map[int]bool
}

func newReportTable(columns ...column) *reportTable {
	t := &reportTable{columns: columns, failed: make(map[int]bool)}
	t.table = lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(t.style)
	headers := make([]string, len(columns))
	hasHeaders := false
	for ii, c := range columns {
		headers[ii] = c.header
		hasHeaders = hasHeaders || c.header != ""
	}
	if hasHeaders {
		t.table.Headers(headers...)
	}
	return t
}

func (t *reportTable) style(row, col int) lipgloss.Style {
	var s lipgloss.Style
	switch {
	case row < 0:
		return headerRowStyle
	case t.failed[row]:
		s = failedRowStyle
	case row%2 == 0:
		s = oddRowStyle
	default:
		s = evenRowStyle
	}
	if col < len(t.columns) {
		s = s.Align(t.columns[col].align)
	}
	return s
}

// Add appends a row.
func (t *reportTable) Add(cells ...string) {
	t.table.Row(cells...)
	t.numRows++
}

// AddFailed appends a row highlighted in red.
func (t *reportTable) AddFailed(cells ...string) {
	t.failed[t.numRows] = true
	t.Add(cells...)
}

// Render returns the table as a string.
func (t *reportTable) Render() string { return t.table.Render() }
