// SPDX-License-Identifier: MIT

package report

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dinutsa/Survey-Analytics/internal/classify"
	"github.com/Dinutsa/Survey-Analytics/internal/dataset"
	"github.com/Dinutsa/Survey-Analytics/internal/summary"
	"github.com/Dinutsa/Survey-Analytics/internal/testutil"
)

func fixture(t *testing.T) (*dataset.Dataset, []summary.QuestionSummary, Info) {
	t.Helper()
	wb := testutil.Workbook(t, testutil.SurveyRows())
	ds, err := dataset.Load([]dataset.File{{Name: "survey.xlsx", Reader: bytes.NewReader(wb)}}, dataset.DefaultLimits)
	require.NoError(t, err)

	questions := classify.Classify(ds)
	sums := summary.BuildAll(ds, questions)
	info := Info{
		TotalResponses: ds.Len(),
		Processed:      ds.Len(),
		RangeLabel:     "Rows 1-6",
	}
	return ds, sums, info
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder(Options{DataDir: t.TempDir()})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatExcel, false},
		{"PDF", FormatPDF, false},
		{" docx ", FormatDocx, false},
		{"pptx", FormatPptx, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "survey.xlsx", FormatExcel.Filename())
	assert.Equal(t, "survey.pptx", FormatPptx.Filename())
	for _, f := range Formats {
		assert.NotEqual(t, "application/octet-stream", f.ContentType(), "format %s", f)
	}
}

func TestBuildUnknownFormat(t *testing.T) {
	ds, sums, info := fixture(t)
	_, err := newTestBuilder(t).Build(context.Background(), Format("csv"), info, ds, sums)
	assert.Error(t, err)
}

func TestBuildExcel(t *testing.T) {
	ds, sums, info := fixture(t)
	data, err := newTestBuilder(t).Build(context.Background(), FormatExcel, info, ds, sums)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	assert.Equal(t, []string{"Info", "Data", "Summary"}, f.GetSheetList())

	total, err := f.GetCellValue("Info", "B2")
	require.NoError(t, err)
	assert.Equal(t, "6", total)

	header, err := f.GetCellValue("Data", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Timestamp", header)

	title, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(title, "Q1. "), "summary title %q", title)
}

func TestBuildPDFWithFallbackFont(t *testing.T) {
	ds, sums, info := fixture(t)
	// no font on disk and downloads disabled: core-font fallback path
	data, err := newTestBuilder(t).Build(context.Background(), FormatPDF, info, ds, sums)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "PDF magic missing")
	assert.Greater(t, len(data), 10_000, "expected embedded chart images")
}

func TestBuildDocx(t *testing.T) {
	ds, sums, info := fixture(t)
	data, err := newTestBuilder(t).Build(context.Background(), FormatDocx, info, ds, sums)
	require.NoError(t, err)

	doc := readZipPart(t, data, "word/document.xml")
	assert.Contains(t, doc, "Survey results")
	assert.Contains(t, doc, "Answer option")
	assert.Contains(t, doc, "Q1. ")
}

func TestBuildPptx(t *testing.T) {
	ds, sums, info := fixture(t)
	data, err := newTestBuilder(t).Build(context.Background(), FormatPptx, info, ds, sums)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool, len(zr.File))
	slideCount := 0
	for _, zf := range zr.File {
		names[zf.Name] = true
		if strings.HasPrefix(zf.Name, "ppt/slides/slide") && strings.HasSuffix(zf.Name, ".xml") {
			slideCount++
		}
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["ppt/presentation.xml"])
	assert.True(t, names["ppt/slideMasters/slideMaster1.xml"])

	// title slide, one per non-empty question (open text is skipped), closing slide
	nonEmpty := 0
	for _, s := range sums {
		if !s.Empty() {
			nonEmpty++
		}
	}
	assert.Equal(t, 2+nonEmpty, slideCount)
	assert.True(t, names["ppt/media/image2.png"], "question slides carry chart images")

	closing := readZipPart(t, data, fmt.Sprintf("ppt/slides/slide%d.xml", slideCount))
	assert.Contains(t, closing, "Thank you for your attention")

	slide1 := readZipPart(t, data, "ppt/slides/slide1.xml")
	assert.Contains(t, slide1, "Survey results")
	assert.Contains(t, slide1, "Total: 6")
}

func TestChartPNG(t *testing.T) {
	_, sums, _ := fixture(t)
	require.NotEmpty(t, sums)

	for _, s := range sums {
		if s.Empty() {
			continue
		}
		png, err := chartPNG(s)
		require.NoError(t, err, "question %s", s.Question.Code)
		assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "question %s", s.Question.Code)
	}
}

func TestChartPNGLongLabels(t *testing.T) {
	long := strings.Repeat("a very long option label ", 4)

	pie := summary.QuestionSummary{
		Question: classify.Question{Code: "Q1", Type: classify.TypeSingleChoice},
		Answered: 6,
		Rows: []summary.Row{
			{Option: long, Count: 4, Percent: 66.7},
			{Option: "short", Count: 2, Percent: 33.3},
		},
	}
	png, err := chartPNG(pie)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	bar := summary.QuestionSummary{
		Question: classify.Question{Code: "Q2", Type: classify.TypeScale},
		Answered: 6,
		Rows: []summary.Row{
			{Option: long, Count: 4, Percent: 66.7},
			{Option: "2", Count: 2, Percent: 33.3},
		},
	}
	png, err = chartPNG(bar)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", truncateLabel("short", 48))

	long := strings.Repeat("x", 60)
	got := truncateLabel(long, 48)
	assert.Equal(t, 48, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestUseBarChart(t *testing.T) {
	scale := summary.QuestionSummary{
		Question: classify.Question{Code: "Q2", Type: classify.TypeScale},
		Rows:     []summary.Row{{Option: "1", Count: 2}, {Option: "2", Count: 3}},
	}
	assert.True(t, useBarChart(scale))

	choice := summary.QuestionSummary{
		Question: classify.Question{Code: "Q1", Type: classify.TypeSingleChoice},
		Rows:     []summary.Row{{Option: "Yes", Count: 4}, {Option: "No", Count: 2}},
	}
	assert.False(t, useBarChart(choice))
}

func TestFontResolver(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "font.ttf")
		require.NoError(t, os.WriteFile(path, []byte("fake"), 0o644))

		r := newFontResolver(Options{FontPath: path})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("missing explicit path", func(t *testing.T) {
		r := newFontResolver(Options{FontPath: filepath.Join(t.TempDir(), "absent.ttf")})
		_, err := r.Resolve(context.Background())
		assert.Error(t, err)
	})

	t.Run("local file without download", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "DejaVuSans.ttf"), []byte("fake"), 0o644))

		r := newFontResolver(Options{DataDir: dir})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "DejaVuSans.ttf"), got)
	})

	t.Run("download disabled", func(t *testing.T) {
		r := newFontResolver(Options{DataDir: t.TempDir()})
		_, err := r.Resolve(context.Background())
		assert.Error(t, err)
	})
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, zf := range zr.File {
		if zf.Name != name {
			continue
		}
		rc, err := zf.Open()
		require.NoError(t, err)
		defer func() { require.NoError(t, rc.Close()) }()
		raw, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(raw)
	}
	t.Fatalf("zip part %s not found", name)
	return ""
}
