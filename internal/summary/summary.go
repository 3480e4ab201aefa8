// SPDX-License-Identifier: MIT

// Package summary builds per-question frequency tables from a classified dataset.
package summary

import (
	"math"
	"sort"
	"strconv"
	"strings"

	unorm "golang.org/x/text/unicode/norm"

	"github.com/Dinutsa/Survey-Analytics/internal/classify"
	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
)

// Row is one option of a frequency table.
type Row struct {
	Option  string  `json:"option"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"` // of respondents who answered, 1 decimal
}

// QuestionSummary is the frequency table of a single question.
type QuestionSummary struct {
	Question classify.Question `json:"question"`
	Answered int               `json:"answered"`
	Rows     []Row             `json:"rows"`
}

// Empty reports whether the question has no frequency table (open text,
// or nobody answered).
func (s QuestionSummary) Empty() bool { return len(s.Rows) == 0 }

// BuildAll produces summaries for every coded question in column order.
// Timestamp columns are skipped; open-text questions yield empty tables so
// renderers can print a placeholder.
func BuildAll(ds *dataset.Dataset, questions []classify.Question) []QuestionSummary {
	out := make([]QuestionSummary, 0, len(questions))
	for _, q := range questions {
		if q.Type == classify.TypeTimestamp {
			continue
		}
		out = append(out, Build(ds, q))
	}
	return out
}

// Build produces the frequency table for one question.
func Build(ds *dataset.Dataset, q classify.Question) QuestionSummary {
	s := QuestionSummary{Question: q}
	if !q.Summarizable() {
		return s
	}

	counts := map[string]int{}
	display := map[string]string{} // normalised key -> first-seen label
	var order []string

	for _, cell := range ds.Column(q.Index) {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		s.Answered++
		for _, option := range splitAnswer(cell, q) {
			key := optionKey(option)
			if _, seen := display[key]; !seen {
				display[key] = option
				order = append(order, key)
			}
			counts[key]++
		}
	}
	if s.Answered == 0 {
		return s
	}

	s.Rows = make([]Row, 0, len(order))
	for _, key := range order {
		count := counts[key]
		s.Rows = append(s.Rows, Row{
			Option:  display[key],
			Count:   count,
			Percent: math.Round(float64(count)*1000/float64(s.Answered)) / 10,
		})
	}
	sortRows(s.Rows, q.Type)
	return s
}

func splitAnswer(cell string, q classify.Question) []string {
	if q.Type != classify.TypeMultiChoice || q.Separator == "" {
		return []string{cell}
	}
	parts := strings.Split(cell, q.Separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// optionKey folds an option label for counting: Unicode NFC, lower case,
// collapsed whitespace. The first-seen original spelling is kept for display.
func optionKey(option string) string {
	s := unorm.NFC.String(option)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

func sortRows(rows []Row, t classify.Type) {
	if t == classify.TypeScale {
		sort.SliceStable(rows, func(i, j int) bool {
			a, aerr := strconv.Atoi(rows[i].Option)
			b, berr := strconv.Atoi(rows[j].Option)
			if aerr != nil || berr != nil {
				return rows[i].Option < rows[j].Option
			}
			return a < b
		})
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Option < rows[j].Option
	})
}
