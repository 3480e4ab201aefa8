// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"fmt"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/Dinutsa/Survey-Analytics/internal/classify"
	"github.com/Dinutsa/Survey-Analytics/internal/summary"
)

const (
	chartWidth  = 900
	chartHeight = 600
	// Pie slice labels are drawn on a single line; bar labels word-wrap
	// within the bar width and are passed through whole.
	maxPieLabelLen = 48
)

// chartPNG renders a chart image for one frequency table: bar chart for scale
// questions (and anything whose options are all small integers), pie chart
// otherwise. Mirrors the layout of the interactive view.
func chartPNG(s summary.QuestionSummary) ([]byte, error) {
	if s.Empty() {
		return nil, fmt.Errorf("no data to chart for %s", s.Question.Code)
	}

	var buf bytes.Buffer
	if useBarChart(s) {
		bars := make([]chart.Value, 0, len(s.Rows))
		for _, r := range s.Rows {
			bars = append(bars, chart.Value{
				Value: float64(r.Count),
				Label: r.Option,
			})
		}
		bar := chart.BarChart{
			Width:    chartWidth,
			Height:   chartHeight,
			BarWidth: 60,
			Background: chart.Style{
				Padding: chart.Box{Top: 40, Left: 20, Right: 20},
			},
			XAxis: chart.Style{TextWrap: chart.TextWrapWord},
			Bars:  bars,
		}
		if err := bar.Render(chart.PNG, &buf); err != nil {
			return nil, fmt.Errorf("render bar chart: %w", err)
		}
		return buf.Bytes(), nil
	}

	values := make([]chart.Value, 0, len(s.Rows))
	for _, r := range s.Rows {
		values = append(values, chart.Value{
			Value: float64(r.Count),
			Label: truncateLabel(r.Option, maxPieLabelLen),
		})
	}
	pie := chart.PieChart{
		Width:  chartWidth,
		Height: chartHeight,
		Values: values,
	}
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}

// useBarChart reports whether the summary reads better as bars: scale
// questions, or option labels that are all integers in 0..10.
func useBarChart(s summary.QuestionSummary) bool {
	if s.Question.Type == classify.TypeScale {
		return true
	}
	for _, r := range s.Rows {
		n, err := strconv.Atoi(r.Option)
		if err != nil || n < 0 || n > 10 {
			return false
		}
	}
	return true
}

func truncateLabel(label string, max int) string {
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	return string(runes[:max-1]) + "…"
}
