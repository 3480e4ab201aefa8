// SPDX-License-Identifier: MIT

package summary

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dinutsa/Survey-Analytics/internal/classify"
	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
)

func col(values ...string) *dataset.Dataset {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return &dataset.Dataset{Headers: []string{"Q"}, Rows: rows}
}

func TestBuildSingleChoice(t *testing.T) {
	ds := col("Yes", "No", "Yes", "", "Yes", "no")
	q := classify.Question{Code: "Q1", Text: "Q", Type: classify.TypeSingleChoice}

	got := Build(ds, q)
	if got.Answered != 5 {
		t.Fatalf("answered = %d, want 5 (empty cell excluded)", got.Answered)
	}

	want := []Row{
		{Option: "Yes", Count: 3, Percent: 60},
		{Option: "No", Count: 2, Percent: 40},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildScaleSortsNumerically(t *testing.T) {
	ds := col("10", "2", "10", "1", "2", "2")
	q := classify.Question{Code: "Q1", Type: classify.TypeScale}

	got := Build(ds, q)
	want := []Row{
		{Option: "1", Count: 1, Percent: 16.7},
		{Option: "2", Count: 3, Percent: 50},
		{Option: "10", Count: 2, Percent: 33.3},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMultiChoiceSplitsAndExceedsHundredPercent(t *testing.T) {
	ds := col("A; B", "B", "A; C", "")
	q := classify.Question{Code: "Q1", Type: classify.TypeMultiChoice, Separator: "; "}

	got := Build(ds, q)
	if got.Answered != 3 {
		t.Fatalf("answered = %d, want 3", got.Answered)
	}
	want := []Row{
		{Option: "A", Count: 2, Percent: 66.7},
		{Option: "B", Count: 2, Percent: 66.7},
		{Option: "C", Count: 1, Percent: 33.3},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	total := 0.0
	for _, r := range got.Rows {
		total += r.Percent
	}
	if total <= 100 {
		t.Fatalf("multi-select percentages should exceed 100, got %.1f", total)
	}
}

func TestBuildFoldsLabelVariants(t *testing.T) {
	// same label with different case and spacing counts as one option
	ds := col("Very  good", "very good", "VERY GOOD")
	q := classify.Question{Code: "Q1", Type: classify.TypeSingleChoice}

	got := Build(ds, q)
	if len(got.Rows) != 1 {
		t.Fatalf("rows = %#v, want single folded option", got.Rows)
	}
	if got.Rows[0].Option != "Very  good" {
		t.Fatalf("display label = %q, want first-seen spelling", got.Rows[0].Option)
	}
	if got.Rows[0].Count != 3 || got.Rows[0].Percent != 100 {
		t.Fatalf("row = %+v", got.Rows[0])
	}
}

func TestBuildOpenTextIsEmpty(t *testing.T) {
	ds := col("some long answer", "another long answer")
	q := classify.Question{Code: "Q1", Type: classify.TypeOpenText}

	got := Build(ds, q)
	if !got.Empty() {
		t.Fatalf("open text summary should be empty, got %#v", got.Rows)
	}
}

func TestBuildAllSkipsTimestamp(t *testing.T) {
	ds := &dataset.Dataset{
		Headers: []string{"Timestamp", "Choice"},
		Rows: [][]string{
			{"2025/10/02 9:15:04 AM", "Yes"},
			{"2025/10/02 9:16:33 AM", "No"},
		},
	}
	qs := classify.Classify(ds)
	sums := BuildAll(ds, qs)
	if len(sums) != 1 {
		t.Fatalf("summaries = %d, want 1", len(sums))
	}
	if sums[0].Question.Code != "Q1" {
		t.Fatalf("code = %q", sums[0].Question.Code)
	}
}

func TestPercentRounding(t *testing.T) {
	// 1/3 => 33.3, 2/3 => 66.7
	ds := col("a", "b", "b")
	q := classify.Question{Code: "Q1", Type: classify.TypeSingleChoice}
	got := Build(ds, q)
	if got.Rows[0].Percent != 66.7 || got.Rows[1].Percent != 33.3 {
		t.Fatalf("rows = %#v", got.Rows)
	}
}
