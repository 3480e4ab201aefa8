// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/Dinutsa/Survey-Analytics/internal/summary"
)

const (
	pdfFontName = "DejaVu"

	pdfColOption = 110.0
	pdfColCount  = 30.0

	// start a fresh page when the cursor passes this Y (mm)
	pdfPageBreakY = 240.0

	pdfChartWidth = 140.0
	pdfChartX     = 35.0
)

// buildPDF renders the PDF report: a title block followed by table + chart per
// question. Falls back to the Helvetica core font (ASCII only) when no Unicode
// font can be resolved.
func (b *Builder) buildPDF(ctx context.Context, info Info, sums []summary.QuestionSummary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")

	unicode := false
	if path, err := b.fonts.Resolve(ctx); err == nil {
		pdf.AddUTF8Font(pdfFontName, "", path)
		unicode = true
	} else {
		b.logger.Warn().
			Err(err).
			Str("event", "pdf.font_fallback").
			Msg("rendering PDF with core font, non-Latin text degraded")
	}

	setFont := func(size float64) {
		if unicode {
			pdf.SetFont(pdfFontName, "", size)
		} else {
			pdf.SetFont("Helvetica", "", size)
		}
	}
	clean := func(s string) string {
		s = strings.NewReplacer("–", "-", "—", "-", "’", "'").Replace(s)
		if unicode {
			return s
		}
		return toASCII(s)
	}

	pdf.SetHeaderFunc(func() {
		setFont(10)
		pdf.CellFormat(0, 10, clean("Survey results report"), "", 1, "R", false, 0, "")
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		setFont(8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	setFont(16)
	pdf.CellFormat(0, 10, clean("Survey results"), "", 1, "C", false, 0, "")
	setFont(12)
	pdf.CellFormat(0, 10, fmt.Sprintf("Total: %d | Processed: %d", info.TotalResponses, info.Processed), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 10, clean(info.RangeLabel), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	for i, s := range sums {
		if s.Empty() {
			continue
		}

		setFont(12)
		pdf.MultiCell(0, 6, clean(questionTitle(s)), "", "L", false)
		pdf.Ln(2)

		setFont(10)
		pdf.CellFormat(pdfColOption, 8, clean("Answer option"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColCount, 8, "Count", "1", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColCount, 8, "%", "1", 1, "L", false, 0, "")

		for _, r := range s.Rows {
			option := clean(r.Option)
			if runes := []rune(option); len(runes) > 60 {
				option = string(runes[:60])
			}
			pdf.CellFormat(pdfColOption, 8, option, "1", 0, "L", false, 0, "")
			pdf.CellFormat(pdfColCount, 8, strconv.Itoa(r.Count), "1", 0, "L", false, 0, "")
			pdf.CellFormat(pdfColCount, 8, formatPercent(r.Percent), "1", 1, "L", false, 0, "")
		}
		pdf.Ln(5)

		png, err := chartPNG(s)
		if err != nil {
			return nil, fmt.Errorf("chart for %s: %w", s.Question.Code, err)
		}
		name := "chart-" + s.Question.Code
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pdf.ImageOptions(name, pdfChartX, 0, pdfChartWidth, 0, true, opts, 0, "")
		pdf.Ln(10)

		if pdf.GetY() > pdfPageBreakY && i < len(sums)-1 {
			pdf.AddPage()
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// formatPercent renders "66.7" style values without trailing zeros.
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// toASCII strips runes the PDF core fonts cannot encode.
func toASCII(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r < 128 {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}
