// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"fmt"
	"strconv"

	docx "github.com/fumiama/go-docx"

	"github.com/Dinutsa/Survey-Analytics/internal/summary"
)

// buildDocx renders the Word report: title, totals, then one heading + table +
// chart block per question.
func buildDocx(info Info, sums []summary.QuestionSummary) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph().Justification("center")
	title.AddText("Survey results").Size("32").Bold()

	meta := doc.AddParagraph().Justification("center")
	meta.AddText(fmt.Sprintf("Total: %d | Processed: %d", info.TotalResponses, info.Processed)).Size("24")
	rng := doc.AddParagraph().Justification("center")
	rng.AddText(info.RangeLabel).Size("24")
	doc.AddParagraph()

	for _, s := range sums {
		if s.Empty() {
			continue
		}

		head := doc.AddParagraph()
		head.AddText(questionTitle(s)).Size("26").Bold()

		tbl := doc.AddTable(len(s.Rows)+1, 3, 0, nil)
		hdr := tbl.TableRows[0]
		hdr.TableCells[0].AddParagraph().AddText("Answer option").Bold()
		hdr.TableCells[1].AddParagraph().AddText("Count").Bold()
		hdr.TableCells[2].AddParagraph().AddText("%").Bold()
		for i, r := range s.Rows {
			row := tbl.TableRows[i+1]
			row.TableCells[0].AddParagraph().AddText(r.Option)
			row.TableCells[1].AddParagraph().AddText(strconv.Itoa(r.Count))
			row.TableCells[2].AddParagraph().AddText(formatPercent(r.Percent))
		}

		png, err := chartPNG(s)
		if err != nil {
			return nil, fmt.Errorf("chart for %s: %w", s.Question.Code, err)
		}
		pic := doc.AddParagraph().Justification("center")
		if _, err := pic.AddInlineDrawing(png); err != nil {
			return nil, fmt.Errorf("embed chart for %s: %w", s.Question.Code, err)
		}
		doc.AddParagraph()
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize docx: %w", err)
	}
	return buf.Bytes(), nil
}
