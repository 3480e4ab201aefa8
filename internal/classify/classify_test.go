// SPDX-License-Identifier: MIT

package classify

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/testutil"
)

func loadSurvey(t *testing.T) *dataset.Dataset {
	t.Helper()
	raw := testutil.Workbook(t, testutil.SurveyRows())
	ds, err := dataset.Load([]dataset.File{{Name: "s.xlsx", Reader: bytes.NewReader(raw)}}, dataset.Limits{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ds
}

func TestClassifySurveyColumns(t *testing.T) {
	qs := Classify(loadSurvey(t))
	if len(qs) != 5 {
		t.Fatalf("questions = %d, want 5", len(qs))
	}

	want := []Type{TypeTimestamp, TypeSingleChoice, TypeScale, TypeMultiChoice, TypeOpenText}
	for i, q := range qs {
		if q.Type != want[i] {
			t.Fatalf("column %d (%q) classified as %s, want %s", i, q.Text, q.Type, want[i])
		}
	}

	// codes number non-timestamp columns only
	if qs[0].Code != "" {
		t.Fatalf("timestamp column got code %q", qs[0].Code)
	}
	for i, wantCode := range []string{"Q1", "Q2", "Q3", "Q4"} {
		if got := qs[i+1].Code; got != wantCode {
			t.Fatalf("code = %q, want %q", got, wantCode)
		}
	}

	if qs[3].Separator != "; " {
		t.Fatalf("multi-select separator = %q", qs[3].Separator)
	}
	if qs[4].Summarizable() {
		t.Fatal("open text must not be summarizable")
	}
	if !qs[2].Summarizable() {
		t.Fatal("scale must be summarizable")
	}
}

func TestDetectTable(t *testing.T) {
	repeat := func(vals ...string) []string { return vals }

	tests := []struct {
		name   string
		header string
		values []string
		want   Type
	}{
		{"timestamp header", "Позначка часу", repeat("whatever"), TypeTimestamp},
		{"timestamp values", "Started at", repeat("2025/10/02 9:15:04 AM", "2025/10/02 9:16:33 AM"), TypeTimestamp},
		{"scale 1-5", "Difficulty", repeat("1", "2", "5", "3", "3"), TypeScale},
		{"scale with zero", "NPS", repeat("0", "10", "7"), TypeScale},
		{"numbers out of range are not a scale", "Age", repeat("17", "42", "23"), TypeSingleChoice},
		{"single choice", "Satisfaction", repeat("Yes", "No", "Yes", "Yes"), TypeSingleChoice},
		{"multi choice", "Resources", repeat("A; B", "B", "A; C"), TypeMultiChoice},
		{"open text", "Comments", repeat(
			"I really enjoyed the lectures this term",
			"Could we have more practice problems",
			"The recordings were occasionally hard to hear",
			"Everything was great, keep it up",
			"Office hours clashed with my other course",
			"More real-world examples would be useful",
			"The final project was the highlight for me",
			"Some slides had outdated content",
			"Loved the guest lectures",
			"The grading rubric was unclear at times",
			"Please publish solutions after deadlines",
			"A mid-term checkpoint would reduce stress",
			"I struggled with the pacing early on",
			"The forum was very responsive, thanks",
			"Would recommend this course to friends",
			"Consider splitting the longest lecture in two",
			"Labs were well prepared",
			"An extra revision week would help",
			"The reading list was too long",
			"Great teaching assistants this year",
			"Quizzes kept me on track",
			"Some deadlines felt arbitrary",
		), TypeOpenText},
		{"no answers", "Optional question", nil, TypeOpenText},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := detect(tc.header, tc.values)
			if got != tc.want {
				t.Fatalf("detect(%q) = %s, want %s", tc.header, got, tc.want)
			}
		})
	}
}

func TestClassifyCodesAreSequential(t *testing.T) {
	ds := &dataset.Dataset{
		Headers: []string{"Timestamp", "A", "B", "C"},
		Rows: [][]string{
			{"2025/10/02 9:15:04 AM", "x", "1", "yes"},
			{"2025/10/02 9:16:33 AM", "y", "2", "no"},
		},
	}
	qs := Classify(ds)
	for i, q := range qs[1:] {
		if want := fmt.Sprintf("Q%d", i+1); q.Code != want {
			t.Fatalf("code = %q, want %q", q.Code, want)
		}
	}
}
