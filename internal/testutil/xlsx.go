// SPDX-License-Identifier: MIT

// Package testutil provides shared helpers for package tests.
package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// Workbook builds an in-memory XLSX workbook from the given rows
// (header first) and returns its raw bytes.
func Workbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatalf("close workbook: %v", err)
		}
	}()

	sheet := f.GetSheetList()[0]
	for r, row := range rows {
		for c, cell := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// SurveyRows returns a small but representative survey export: a timestamp
// column, a single-choice question, a 1–5 scale, a multi-select, and a
// free-text question.
func SurveyRows() [][]string {
	return [][]string{
		{"Timestamp", "How satisfied are you with the course?", "Rate the difficulty (1-5)", "Which resources did you use?", "Any other comments?"},
		{"2025/10/02 9:15:04 AM", "Satisfied", "4", "Lectures; Slides", "Great course overall, learned a lot."},
		{"2025/10/02 9:16:33 AM", "Very satisfied", "3", "Slides", "More practice problems would help me."},
		{"2025/10/02 9:18:41 AM", "Satisfied", "4", "Lectures; Slides; Forum", "The pace was a bit fast for me."},
		{"2025/10/02 9:21:07 AM", "Neutral", "5", "Lectures", "I would like extra office hours please."},
		{"2025/10/02 9:24:59 AM", "Satisfied", "2", "Forum", "Everything was well organised and clear."},
		{"2025/10/02 9:27:12 AM", "Dissatisfied", "4", "Slides; Forum", "Audio quality of recordings was poor."},
	}
}
