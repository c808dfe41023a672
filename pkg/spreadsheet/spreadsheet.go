// Package spreadsheet decodes uploaded workbooks into field-keyed rows for
// bulk imports. Only the first sheet is read; the first row is the header.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row maps canonical field names to raw cell values.
type Row map[string]string

// HeaderMap resolves spreadsheet column labels to canonical field names.
// Labels are normalised (lower-cased, non-alphanumerics stripped) before
// lookup, so "Student Name", "studentName" and "student_name" all match the
// same alias entry.
type HeaderMap struct {
	aliases map[string]string
}

// NewHeaderMap builds a resolver from canonical field name to its accepted
// labels. The canonical name itself is always accepted.
func NewHeaderMap(fields map[string][]string) *HeaderMap {
	aliases := make(map[string]string)
	for field, labels := range fields {
		aliases[normalise(field)] = field
		for _, label := range labels {
			aliases[normalise(label)] = field
		}
	}
	return &HeaderMap{aliases: aliases}
}

// Resolve returns the canonical field for a raw header label.
func (m *HeaderMap) Resolve(label string) (string, bool) {
	field, ok := m.aliases[normalise(label)]
	return field, ok
}

func normalise(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AllowedExtension reports whether the filename carries a supported
// spreadsheet suffix.
func AllowedExtension(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}

// Parse reads the first sheet of an .xlsx stream into rows keyed by the
// canonical field names from headers. Unknown columns are ignored; fully
// empty rows are skipped. An empty or header-only sheet is an error so a
// bad upload never looks like a silent success.
func Parse(r io.Reader, headers *HeaderMap) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("workbook is empty")
	}

	// column index -> canonical field
	columns := make(map[int]string)
	for i, label := range cells[0] {
		if field, ok := headers.Resolve(label); ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no recognised columns in header row")
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, record := range cells[1:] {
		row := make(Row, len(columns))
		empty := true
		for i, field := range columns {
			var value string
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			if value != "" {
				empty = false
			}
			row[field] = value
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook contains no data rows")
	}
	return rows, nil
}
