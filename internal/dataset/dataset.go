// SPDX-License-Identifier: MIT

// Package dataset loads and slices spreadsheet survey exports.
//
// A dataset is the union of one or more XLSX workbooks that share an
// identical header row. The header carries the question texts; every
// following row is one submitted response.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SourceFile records provenance of a loaded workbook.
type SourceFile struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Dataset is an in-memory table of survey responses.
type Dataset struct {
	Headers []string     `json:"headers"`
	Rows    [][]string   `json:"-"`
	Files   []SourceFile `json:"files"`

	digest string
}

// Len returns the number of response rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Bounds returns the inclusive 1-based row range of the dataset.
// An empty dataset reports (0, 0).
func (d *Dataset) Bounds() (min, max int) {
	if len(d.Rows) == 0 {
		return 0, 0
	}
	return 1, len(d.Rows)
}

// Slice returns a new dataset restricted to the 1-based inclusive row range
// [from, to]. The source dataset is not modified; rows are shared, not copied.
func (d *Dataset) Slice(from, to int) (*Dataset, error) {
	min, max := d.Bounds()
	if min == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	if from < min || to > max || from > to {
		return nil, fmt.Errorf("row range %d-%d outside dataset bounds %d-%d", from, to, min, max)
	}
	return &Dataset{
		Headers: d.Headers,
		Rows:    d.Rows[from-1 : to],
		Files:   d.Files,
		digest:  fmt.Sprintf("%s:%d-%d", d.Fingerprint(), from, to),
	}, nil
}

// Fingerprint returns a stable content digest, used as a cache key component.
func (d *Dataset) Fingerprint() string {
	if d.digest != "" {
		return d.digest
	}
	h := sha256.New()
	for _, cell := range d.Headers {
		h.Write([]byte(cell))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, row := range d.Rows {
		for _, cell := range row {
			h.Write([]byte(cell))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	d.digest = hex.EncodeToString(h.Sum(nil))[:16]
	return d.digest
}

// Column returns all values of the i-th column across rows. Rows shorter than
// the header are treated as having empty trailing cells.
func (d *Dataset) Column(i int) []string {
	out := make([]string, len(d.Rows))
	for r, row := range d.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}
