// SPDX-License-Identifier: MIT

// Package classify assigns an answer-type taxonomy to survey question columns.
package classify

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
)

// Type is the answer type of a question column.
type Type string

const (
	TypeTimestamp    Type = "timestamp"
	TypeScale        Type = "scale"
	TypeSingleChoice Type = "single_choice"
	TypeMultiChoice  Type = "multi_choice"
	TypeOpenText     Type = "open_text"
)

// Question describes one classified column.
type Question struct {
	Code  string `json:"code"` // "Q1".."Qn"; empty for timestamp columns
	Text  string `json:"text"`
	Type  Type   `json:"type"`
	Index int    `json:"index"` // column index in the dataset
	// Separator used to split multi-select answers; set for TypeMultiChoice.
	Separator string `json:"-"`
}

// Summarizable reports whether the question produces a frequency table.
func (q Question) Summarizable() bool {
	switch q.Type {
	case TypeScale, TypeSingleChoice, TypeMultiChoice:
		return true
	}
	return false
}

const (
	// Scale answers are small integers on a bounded range (Likert, NPS-style).
	scaleMin         = 0
	scaleMax         = 10
	maxScaleDistinct = 11

	// Share of answers that must contain the separator before a column is
	// treated as multi-select.
	multiChoiceShare = 0.15

	// A column is a choice question when answers repeat; above this
	// distinct-to-answered ratio it is free text.
	maxChoiceDistinctRatio = 0.5
	maxChoiceDistinct      = 10

	// Mostly-unique answers longer than this are prose, not option labels.
	openTextDistinctRatio = 0.8
	openTextAvgLen        = 25
)

var timestampHeaders = []string{"timestamp", "позначка часу", "отметка времени", "zeitstempel"}

var timestampLayouts = []string{
	"2006/01/02 3:04:05 PM MST",
	"2006/01/02 3:04:05 PM",
	"1/2/2006 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Classify inspects every column of the dataset and returns one Question per
// column, in column order. Question codes ("Q1"..) number the non-timestamp
// columns.
func Classify(ds *dataset.Dataset) []Question {
	out := make([]Question, 0, len(ds.Headers))
	code := 0
	for i, header := range ds.Headers {
		q := Question{
			Text:  strings.TrimSpace(header),
			Index: i,
		}
		values := answered(ds.Column(i))
		q.Type, q.Separator = detect(q.Text, values)
		if q.Type != TypeTimestamp {
			code++
			q.Code = "Q" + strconv.Itoa(code)
		}
		out = append(out, q)
	}
	return out
}

func detect(header string, values []string) (Type, string) {
	if isTimestamp(header, values) {
		return TypeTimestamp, ""
	}
	if len(values) == 0 {
		return TypeOpenText, ""
	}
	if isScale(values) {
		return TypeScale, ""
	}
	if sep, ok := multiSeparator(values); ok {
		return TypeMultiChoice, sep
	}
	if isChoice(values) {
		return TypeSingleChoice, ""
	}
	return TypeOpenText, ""
}

func answered(col []string) []string {
	out := make([]string, 0, len(col))
	for _, v := range col {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isTimestamp(header string, values []string) bool {
	if slices.Contains(timestampHeaders, strings.ToLower(strings.TrimSpace(header))) {
		return true
	}
	if len(values) == 0 {
		return false
	}
	parsed := 0
	for _, v := range values {
		if parsesAsTime(v) {
			parsed++
		}
	}
	return parsed*10 >= len(values)*9 // >= 90%
}

func parsesAsTime(v string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func isScale(values []string) bool {
	distinct := map[string]struct{}{}
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil || n < scaleMin || n > scaleMax {
			return false
		}
		distinct[v] = struct{}{}
	}
	return len(distinct) <= maxScaleDistinct
}

// multiSeparator reports whether enough answers look like joined
// multi-select values. Only semicolon separators are recognised; commas are
// too ambiguous with natural-language answers.
func multiSeparator(values []string) (string, bool) {
	for _, sep := range []string{"; ", ";"} {
		hits := 0
		for _, v := range values {
			if strings.Contains(v, sep) {
				hits++
			}
		}
		if float64(hits) >= multiChoiceShare*float64(len(values)) && hits > 0 {
			return sep, true
		}
	}
	return "", false
}

func isChoice(values []string) bool {
	distinct := map[string]struct{}{}
	totalLen := 0
	for _, v := range values {
		distinct[strings.ToLower(v)] = struct{}{}
		totalLen += len([]rune(v))
	}
	ratio := float64(len(distinct)) / float64(len(values))
	avgLen := float64(totalLen) / float64(len(values))
	if ratio > openTextDistinctRatio && avgLen > openTextAvgLen {
		return false
	}
	if len(distinct) <= maxChoiceDistinct {
		return true
	}
	return ratio <= maxChoiceDistinctRatio
}
