package main

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func (a columnAlignment) text() text.Align {
	if a == alignRight {
		return text.AlignRight
	}
	return text.AlignLeft
}

// renderTable draws rows under headers. Rows are padded or cut to the header
// width; columns without an alignment are left aligned.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(tableRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(tableRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range configs {
		align := alignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align.text(), AlignHeader: text.AlignLeft}
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

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func humanBytes(v int64) string {
	return humanize.IBytes(uint64(max(v, 0)))
}
