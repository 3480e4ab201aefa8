// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Limits guards ingest against oversized workbooks.
type Limits struct {
	MaxBytes   int64 // per workbook; 0 disables the check
	MaxRows    int   // total response rows across all files
	MaxColumns int
}

// DefaultLimits are applied when a zero Limits value is passed.
var DefaultLimits = Limits{
	MaxBytes:   20 * 1024 * 1024,
	MaxRows:    100000,
	MaxColumns: 256,
}

// File is a named reader for one uploaded workbook.
type File struct {
	Name   string
	Reader io.Reader
}

// Load reads one or more XLSX workbooks and merges them into a single dataset.
// All files must share an identical header row; the first sheet of each
// workbook is used. Trailing all-empty columns are dropped.
func Load(files []File, limits Limits) (*Dataset, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}
	if limits == (Limits{}) {
		limits = DefaultLimits
	}

	var ds *Dataset
	for _, f := range files {
		headers, rows, err := readWorkbook(f, limits)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", f.Name, err)
		}
		if ds == nil {
			ds = &Dataset{Headers: headers}
		} else if !equalHeaders(ds.Headers, headers) {
			return nil, fmt.Errorf("load %q: header row differs from %q", f.Name, ds.Files[0].Name)
		}
		ds.Rows = append(ds.Rows, rows...)
		ds.Files = append(ds.Files, SourceFile{Name: f.Name, Rows: len(rows)})
		if limits.MaxRows > 0 && len(ds.Rows) > limits.MaxRows {
			return nil, fmt.Errorf("dataset exceeds %d rows", limits.MaxRows)
		}
	}
	if len(ds.Headers) == 0 {
		return nil, fmt.Errorf("no header row found")
	}
	return ds, nil
}

// LoadDir loads every .xlsx workbook in dir (sorted by name). Used by the
// inbox watcher and the optional initial ingest.
func LoadDir(dir string, limits Limits) (*Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox %q: %w", dir, err)
	}
	var files []File
	var open []io.Closer
	defer func() {
		for _, c := range open {
			_ = c.Close()
		}
	}()
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			continue
		}
		// Office lock files start with ~$
		if strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name())) // #nosec G304 -- confined to inbox dir
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", e.Name(), err)
		}
		open = append(open, f)
		files = append(files, File{Name: e.Name(), Reader: f})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .xlsx files in %q", dir)
	}
	return Load(files, limits)
}

func readWorkbook(f File, limits Limits) (headers []string, rows [][]string, err error) {
	r := f.Reader
	var counted *countingReader
	if limits.MaxBytes > 0 {
		counted = &countingReader{r: io.LimitReader(r, limits.MaxBytes+1)}
		r = counted
	}

	wb, err := excelize.OpenReader(r)
	// A truncated zip fails to parse; report the size violation, not the
	// parse error it causes.
	if counted != nil && counted.n > limits.MaxBytes {
		return nil, nil, fmt.Errorf("workbook exceeds size limit of %d bytes", limits.MaxBytes)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	all, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	headers = trimTrailingEmpty(all[0])
	if len(headers) == 0 {
		return nil, nil, fmt.Errorf("header row is empty")
	}
	if limits.MaxColumns > 0 && len(headers) > limits.MaxColumns {
		return nil, nil, fmt.Errorf("workbook has %d columns, limit is %d", len(headers), limits.MaxColumns)
	}

	rows = make([][]string, 0, len(all)-1)
	for _, raw := range all[1:] {
		row := pad(raw, len(headers))
		if isEmptyRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// countingReader tracks how many bytes excelize consumed so size-limit hits
// can be told apart from genuinely corrupt files.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func equalHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != strings.TrimSpace(b[i]) {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return cells[:end]
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
