// SPDX-License-Identifier: MIT

package jobs

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinutsa/Survey-Analytics/internal/classify"
	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/testutil"
)

func loadFixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	wb := testutil.Workbook(t, testutil.SurveyRows())
	ds, err := dataset.Load([]dataset.File{{Name: "survey.xlsx", Reader: bytes.NewReader(wb)}}, dataset.DefaultLimits)
	require.NoError(t, err)
	return ds
}

func TestProcessFullRange(t *testing.T) {
	ds := loadFixture(t)

	res, err := Process(context.Background(), ds, ProcessConfig{})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Status.Responses)
	assert.Equal(t, 4, res.Status.Questions, "timestamp column carries no question code")
	assert.False(t, res.Status.LastRun.IsZero())
	assert.Empty(t, res.Status.Error)

	assert.Equal(t, 6, res.Info.TotalResponses)
	assert.Equal(t, 6, res.Info.Processed)
	assert.Equal(t, "Rows 1-6 of 6", res.Info.RangeLabel)

	assert.Len(t, res.Questions, 5)
	assert.Equal(t, classify.TypeTimestamp, res.Questions[0].Type)
}

func TestProcessSubRange(t *testing.T) {
	ds := loadFixture(t)

	res, err := Process(context.Background(), ds, ProcessConfig{From: 2, To: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Status.Responses)
	assert.Equal(t, 6, res.Info.TotalResponses)
	assert.Equal(t, 3, res.Info.Processed)
	assert.Equal(t, "Rows 2-4 of 6", res.Info.RangeLabel)

	// summaries count sliced rows only
	for _, s := range res.Summaries {
		assert.LessOrEqual(t, s.Answered, 3, "question %s", s.Question.Code)
	}
}

func TestProcessQuestionCodesStableAcrossRanges(t *testing.T) {
	ds := loadFixture(t)

	full, err := Process(context.Background(), ds, ProcessConfig{})
	require.NoError(t, err)
	sub, err := Process(context.Background(), ds, ProcessConfig{From: 1, To: 2})
	require.NoError(t, err)

	require.Len(t, sub.Questions, len(full.Questions))
	for i := range full.Questions {
		assert.Equal(t, full.Questions[i].Code, sub.Questions[i].Code)
		assert.Equal(t, full.Questions[i].Type, sub.Questions[i].Type)
	}
}

func TestProcessInvalidRange(t *testing.T) {
	ds := loadFixture(t)

	_, err := Process(context.Background(), ds, ProcessConfig{From: 5, To: 2})
	assert.Error(t, err)

	_, err = Process(context.Background(), ds, ProcessConfig{From: 1, To: 99})
	assert.Error(t, err)
}

func TestProcessNoDataset(t *testing.T) {
	_, err := Process(context.Background(), nil, ProcessConfig{})
	assert.Error(t, err)

	empty := &dataset.Dataset{Headers: []string{"Timestamp"}}
	_, err = Process(context.Background(), empty, ProcessConfig{})
	assert.Error(t, err)
}
