package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/John-Robertt/nftrenum/internal/domain"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderSummaryTable 每个集合一行，末尾附 run 耗时。
func renderSummaryTable(rr domain.RunReport) string {
	headers := []string{"COLLECTION", "STATUS", "ITEMS", "FILES", "ERROR"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(rr.Collections))
	for _, c := range rr.Collections {
		files := 0
		for _, it := range c.Items {
			files += it.Files
		}
		errCol := c.ErrorCode
		if errCol != "" && c.ErrorMsg != "" {
			errCol += ": " + truncate(c.ErrorMsg, 60)
		}
		rows = append(rows, []string{c.Collection, c.Status, strconv.Itoa(len(c.Items)), strconv.Itoa(files), errCol})
	}

	out := renderTable(headers, rows, aligns)
	return out + "\nelapsed: " + formatElapsed(rr.FinishedAt.Sub(rr.StartedAt))
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
