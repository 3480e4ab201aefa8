// SPDX-License-Identifier: MIT

package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/summary"
)

const (
	sheetInfo    = "Info"
	sheetData    = "Data"
	sheetSummary = "Summary"

	// a native XLSX chart occupies roughly this many rows next to its table
	chartRows = 18
)

// buildExcel renders the workbook report: an info sheet, the sliced raw data
// and a summary sheet with one frequency table plus pie chart per question.
func buildExcel(info Info, sliced *dataset.Dataset, sums []summary.QuestionSummary) (out []byte, err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := writeInfoSheet(f, info); err != nil {
		return nil, err
	}
	if err := writeDataSheet(f, sliced); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, sums); err != nil {
		return nil, err
	}

	// drop the default sheet and make Info the landing sheet
	if err := f.DeleteSheet(f.GetSheetList()[0]); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheetInfo)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInfoSheet(f *excelize.File, info Info) error {
	if _, err := f.NewSheet(sheetInfo); err != nil {
		return err
	}
	rows := [][]any{
		{"Parameter", "Value"},
		{"Total responses in file", info.TotalResponses},
		{"Responses in selected range", info.Processed},
		{"Processing range", info.RangeLabel},
		{"Generated at", info.generatedAt().Format("2006-01-02 15:04:05")},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetInfo, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(sheetInfo, "A", "A", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheetInfo, "B", "B", 50)
}

func writeDataSheet(f *excelize.File, sliced *dataset.Dataset) error {
	if _, err := f.NewSheet(sheetData); err != nil {
		return err
	}
	write := func(r int, cells []string) error {
		for c, v := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetData, cell, v); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(1, sliced.Headers); err != nil {
		return err
	}
	for i, row := range sliced.Rows {
		if err := write(i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sums []summary.QuestionSummary) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSummary, "B", "C", 10); err != nil {
		return err
	}

	row := 1
	for _, s := range sums {
		titleCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetSummary, titleCell, questionTitle(s)); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetSummary, titleCell, titleCell, bold); err != nil {
			return err
		}
		row++

		if s.Empty() {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetSummary, cell, noDataPlaceholder); err != nil {
				return err
			}
			row += 2
			continue
		}

		headerRow := row
		for c, h := range []string{"Answer option", "Count", "%"} {
			cell, err := excelize.CoordinatesToCellName(c+1, headerRow)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetSummary, cell, h); err != nil {
				return err
			}
		}
		row++
		for _, r := range s.Rows {
			for c, v := range []any{r.Option, r.Count, r.Percent} {
				cell, err := excelize.CoordinatesToCellName(c+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheetSummary, cell, v); err != nil {
					return err
				}
			}
			row++
		}

		if err := addPieChart(f, s, headerRow); err != nil {
			return err
		}

		// leave room for the chart beside short tables
		occupied := len(s.Rows) + 3
		if occupied < chartRows {
			occupied = chartRows
		}
		row = headerRow + occupied
	}
	return nil
}

func addPieChart(f *excelize.File, s summary.QuestionSummary, headerRow int) error {
	firstData := headerRow + 1
	lastData := headerRow + len(s.Rows)

	anchor, err := excelize.CoordinatesToCellName(5, headerRow)
	if err != nil {
		return err
	}
	return f.AddChart(sheetSummary, anchor, &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$%d", sheetSummary, headerRow),
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d", sheetSummary, firstData, lastData),
			Values:     fmt.Sprintf("%s!$B$%d:$B$%d", sheetSummary, firstData, lastData),
		}},
		Title: []excelize.RichTextRun{{Text: questionTitle(s)}},
		PlotArea: excelize.ChartPlotArea{
			ShowPercent: true,
		},
	})
}
