package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	alignLeft  = text.AlignLeft
	alignRight = text.AlignRight
)

type columnAlignment = text.Align

// renderTable draws rows under headers with rounded borders. Short rows are
// padded with empty cells; columns without an alignment are left-aligned.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	width := len(headers)
	if width == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(tableRow(headers, width))
	for _, row := range rows {
		tw.AppendRow(tableRow(row, width))
	}

	configs := make([]table.ColumnConfig, width)
	for i := range configs {
		align := alignLeft
		if i < len(aligns) && aligns[i] != text.AlignDefault {
			align = aligns[i]
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: alignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func tableRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}
